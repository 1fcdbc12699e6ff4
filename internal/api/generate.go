package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/souschef/backend/internal/middleware"
	"github.com/pageza/souschef/backend/internal/service"
	"github.com/pageza/souschef/backend/internal/types"
)

// GeneratorHandler serves LLM generated recipe drafts
type GeneratorHandler struct {
	generator service.IGeneratorService
	limiter   gin.HandlerFunc
}

// NewGeneratorHandler creates the handler. limiter may be nil.
func NewGeneratorHandler(generator service.IGeneratorService, limiter gin.HandlerFunc) *GeneratorHandler {
	return &GeneratorHandler{generator: generator, limiter: limiter}
}

func (h *GeneratorHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		if h.limiter != nil {
			recipes.POST("/generate", h.limiter, h.Generate)
		} else {
			recipes.POST("/generate", h.Generate)
		}
		recipes.GET("/drafts/:id", h.GetDraft)
		recipes.DELETE("/drafts/:id", h.DeleteDraft)
	}
}

func (h *GeneratorHandler) Generate(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req types.GenerateRequest
	if !bindJSON(c, &req) {
		return
	}

	draft, err := h.generator.Generate(c.Request.Context(), user.ID.String(), user.Preferences(), req.Prompt)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, draft)
}

func (h *GeneratorHandler) GetDraft(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	draft, err := h.generator.GetDraft(c.Request.Context(), user.ID.String(), c.Param("id"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (h *GeneratorHandler) DeleteDraft(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.generator.DeleteDraft(c.Request.Context(), user.ID.String(), c.Param("id")); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
