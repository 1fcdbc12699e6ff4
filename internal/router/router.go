// Package router assembles the gin engine from handlers and middleware.
package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/souschef/backend/config"
	"github.com/pageza/souschef/backend/internal/api"
	"github.com/pageza/souschef/backend/internal/metrics"
	"github.com/pageza/souschef/backend/internal/middleware"
	"github.com/pageza/souschef/backend/internal/service"
)

// Dependencies are the collaborators the routes are built from
type Dependencies struct {
	Config      *config.Config
	Log         *zap.Logger
	DB          *gorm.DB
	Redis       *redis.Client
	Tokens      middleware.TokenValidator
	Users       service.IUserService
	Preferences service.IPreferencesService
	Search      service.ISearchService
	Generator   service.IGeneratorService
	Chat        service.IChatService
	Favorites   service.IFavoritesService
	Catalog     api.RecipeCatalog
	Recommender api.Recommender
}

// SetupRouter configures the application routes
func SetupRouter(d Dependencies) (*gin.Engine, error) {
	if err := middleware.RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()
	if err := router.SetTrustedProxies(d.Config.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	router.Use(
		middleware.ErrorHandler(d.Log),
		middleware.RequestLogger(d.Log),
		middleware.Metrics(),
		middleware.CORS(d.Config.Server.AllowedOrigins),
	)

	api.NewHealthHandler(d.DB, d.Redis).RegisterRoutes(router)
	router.GET("/metrics", metrics.Handler())

	v1 := router.Group("/api/v1")

	// Public routes
	public := v1.Group("")
	public.Use(middleware.NewIPRateLimiter(d.Config.RateLimit.PublicRPS, d.Config.RateLimit.PublicBurst).Middleware())
	catalogHandler := api.NewCatalogHandler(d.Catalog, d.Recommender)
	catalogHandler.RegisterPublicRoutes(public)

	api.NewWebhookHandler(d.Users).RegisterRoutes(v1, d.Config.Auth.WebhookSecret)

	// Protected routes
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(d.Tokens, d.Users, d.Log))

	var chatLimiter, generateLimiter gin.HandlerFunc
	if d.Redis != nil {
		chatLimiter = middleware.NewChatRateLimiter(d.Redis, d.Config.RateLimit.ChatPerHour, d.Log).RateLimitMiddleware()
		generateLimiter = middleware.NewGenerateRateLimiter(d.Redis, d.Config.RateLimit.GeneratePerHour, d.Log).RateLimitMiddleware()
	}

	api.NewProfileHandler(d.Users).RegisterRoutes(protected)
	api.NewPreferencesHandler(d.Preferences).RegisterRoutes(protected)
	catalogHandler.RegisterRoutes(protected)
	api.NewSearchHandler(d.Search).RegisterRoutes(protected)
	api.NewGeneratorHandler(d.Generator, generateLimiter).RegisterRoutes(protected)
	api.NewChatHandler(d.Chat, chatLimiter).RegisterRoutes(protected)
	api.NewSavedHandler(d.Favorites, d.Generator, d.Log).RegisterRoutes(protected)

	return router, nil
}
