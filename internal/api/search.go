package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/souschef/backend/internal/middleware"
	"github.com/pageza/souschef/backend/internal/service"
	"github.com/pageza/souschef/backend/internal/types"
)

type SearchHandler struct {
	search service.ISearchService
}

func NewSearchHandler(search service.ISearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

func (h *SearchHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/recipes/search", h.Search)
}

// Search asks the recipe agent and returns at most three recipes
func (h *SearchHandler) Search(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req types.SearchRequest
	if !bindJSON(c, &req) {
		return
	}

	recipes, err := h.search.Search(c.Request.Context(), user.Preferences(), req.Query)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	if recipes == nil {
		recipes = []types.Recipe{}
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes, "count": len(recipes)})
}
