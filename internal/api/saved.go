package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/souschef/backend/internal/apperrors"
	"github.com/pageza/souschef/backend/internal/middleware"
	"github.com/pageza/souschef/backend/internal/models"
	"github.com/pageza/souschef/backend/internal/service"
	"github.com/pageza/souschef/backend/internal/types"
)

// SavedHandler manages the caller's saved recipes
type SavedHandler struct {
	favorites service.IFavoritesService
	generator service.IGeneratorService
	log       *zap.Logger
}

func NewSavedHandler(favorites service.IFavoritesService, generator service.IGeneratorService, log *zap.Logger) *SavedHandler {
	return &SavedHandler{favorites: favorites, generator: generator, log: log}
}

func (h *SavedHandler) RegisterRoutes(router *gin.RouterGroup) {
	saved := router.Group("/saved")
	{
		saved.GET("", h.List)
		saved.POST("", h.Save)
		saved.GET("/search", h.Search)
		saved.GET("/:id", h.Get)
		saved.DELETE("/:id", h.Delete)
	}
}

// Save stores a recipe given inline or as the id of a generated draft.
// A saved draft is removed from the draft store.
func (h *SavedHandler) Save(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req types.SaveRecipeRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	var recipe *types.Recipe
	switch {
	case req.DraftID != "":
		draft, err := h.generator.GetDraft(ctx, user.ID.String(), req.DraftID)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		recipe = &draft.Recipe
		recipe.Source = models.SourceGenerated
	case req.Recipe != nil:
		recipe = req.Recipe
	default:
		middleware.AbortWithError(c, apperrors.NewValidationError("recipe or draft_id is required"))
		return
	}

	saved, err := h.favorites.Save(ctx, user.ID, recipe)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	if req.DraftID != "" {
		if err := h.generator.DeleteDraft(ctx, user.ID.String(), req.DraftID); err != nil {
			h.log.Warn("failed to delete saved draft", zap.String("draft_id", req.DraftID), zap.Error(err))
		}
	}
	c.JSON(http.StatusCreated, saved)
}

func (h *SavedHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	recipes, err := h.favorites.List(c.Request.Context(), user.ID)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	if recipes == nil {
		recipes = []models.SavedRecipe{}
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *SavedHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	saved, err := h.favorites.Get(c.Request.Context(), user.ID, id)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *SavedHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.favorites.Delete(c.Request.Context(), user.ID, id); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SavedHandler) Search(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			middleware.AbortWithError(c, apperrors.NewValidationError("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	recipes, err := h.favorites.Search(c.Request.Context(), user.ID, c.Query("q"), limit)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	if recipes == nil {
		recipes = []models.SavedRecipe{}
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}
