package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/souschef/backend/internal/apperrors"
	"github.com/pageza/souschef/backend/internal/catalog"
	"github.com/pageza/souschef/backend/internal/middleware"
	"github.com/pageza/souschef/backend/internal/models"
	"github.com/pageza/souschef/backend/internal/types"
)

// RecipeCatalog is the read side of the bundled dataset
type RecipeCatalog interface {
	List(f catalog.Filter) types.RecipePage
	Get(id string) (types.Recipe, bool)
	Cuisines() []string
}

// Recommender builds "For You" pages
type Recommender interface {
	ForYou(ctx context.Context, req catalog.ForYouRequest, prefs models.Preferences) (types.RecipePage, error)
}

type CatalogHandler struct {
	catalog     RecipeCatalog
	recommender Recommender
}

func NewCatalogHandler(c RecipeCatalog, r Recommender) *CatalogHandler {
	return &CatalogHandler{catalog: c, recommender: r}
}

// RegisterPublicRoutes registers the browse endpoints that need no session
func (h *CatalogHandler) RegisterPublicRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("", h.ListRecipes)
		recipes.GET("/cuisines", h.ListCuisines)
		recipes.GET("/:id", h.GetRecipe)
	}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/recipes/for-you", h.ForYou)
}

type listQuery struct {
	Query   string `form:"q" binding:"max=200"`
	Cuisine string `form:"cuisine" binding:"max=64"`
	Tag     string `form:"tag" binding:"max=64"`
	Offset  int    `form:"offset" binding:"min=0"`
	Limit   int    `form:"limit" binding:"min=0,max=50"`
}

func (h *CatalogHandler) ListRecipes(c *gin.Context) {
	var q listQuery
	if !bindQuery(c, &q) {
		return
	}
	c.JSON(http.StatusOK, h.catalog.List(catalog.Filter{
		Query:   q.Query,
		Cuisine: q.Cuisine,
		Tag:     q.Tag,
		Offset:  q.Offset,
		Limit:   q.Limit,
	}))
}

func (h *CatalogHandler) ListCuisines(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cuisines": h.catalog.Cuisines()})
}

func (h *CatalogHandler) GetRecipe(c *gin.Context) {
	recipe, ok := h.catalog.Get(c.Param("id"))
	if !ok {
		middleware.AbortWithError(c, apperrors.NewNotFoundError("recipe"))
		return
	}
	c.JSON(http.StatusOK, recipe)
}

type forYouQuery struct {
	SessionID string `form:"session_id" binding:"required,max=64"`
	PageSize  int    `form:"page_size" binding:"min=0,max=30"`
	Exclude   string `form:"exclude"`
	Refresh   bool   `form:"refresh"`
}

// ForYou returns the next page of preference ranked recipes for the
// session. Pages within one session never repeat a recipe.
func (h *CatalogHandler) ForYou(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var q forYouQuery
	if !bindQuery(c, &q) {
		return
	}

	var exclude []string
	for _, id := range strings.Split(q.Exclude, ",") {
		if id = strings.TrimSpace(id); id != "" {
			exclude = append(exclude, id)
		}
	}

	page, err := h.recommender.ForYou(c.Request.Context(), catalog.ForYouRequest{
		UserID:    user.ID.String(),
		SessionID: q.SessionID,
		PageSize:  q.PageSize,
		Exclude:   exclude,
		Refresh:   q.Refresh,
	}, user.Preferences())
	if err != nil {
		middleware.AbortWithError(c, apperrors.NewInternalError("failed to load recommendations", err))
		return
	}
	c.JSON(http.StatusOK, page)
}
