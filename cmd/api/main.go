package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pageza/souschef/backend/config"
	"github.com/pageza/souschef/backend/internal/agent"
	"github.com/pageza/souschef/backend/internal/catalog"
	"github.com/pageza/souschef/backend/internal/database"
	"github.com/pageza/souschef/backend/internal/llm"
	"github.com/pageza/souschef/backend/internal/logger"
	"github.com/pageza/souschef/backend/internal/router"
	"github.com/pageza/souschef/backend/internal/server"
	"github.com/pageza/souschef/backend/internal/service"
	"github.com/pageza/souschef/backend/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to a config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()
	log.Info("starting souschef api", zap.String("environment", string(cfg.Environment)))

	if cfg.Database.Driver == "postgres" {
		waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := database.WaitForPostgres(waitCtx, cfg.Database, log)
		cancel()
		if err != nil {
			return err
		}
	}

	db, err := database.New(cfg.Database, log)
	if err != nil {
		return err
	}
	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db, cfg.Database.MigrationsDir, log); err != nil {
			return err
		}
	}

	redisClient, err := database.NewRedisClient(cfg.Redis, log)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	tokens, err := service.NewAuthService(cfg.Auth)
	if err != nil {
		return err
	}

	recipes, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	log.Info("catalog loaded", zap.Int("recipes", recipes.Len()))

	model := llm.NewClient(cfg.LLM, log)

	// Image turns stay disabled without Gemini; uploads without a bucket
	var vision service.ImageDescriber
	if v, err := llm.NewVision(ctx, cfg.Gemini); err != nil {
		return err
	} else if v != nil {
		defer v.Close()
		vision = v
	} else {
		log.Warn("gemini api key not set, chat image turns are disabled")
	}

	var store service.ObjectStore
	s3Config, err := config.NewS3Config(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	if uploader := storage.NewUploader(s3Config, cfg.Storage.PresignTTL, log); uploader != nil {
		store = uploader
	}

	engine, err := router.SetupRouter(router.Dependencies{
		Config:      cfg,
		Log:         log,
		DB:          db,
		Redis:       redisClient,
		Tokens:      tokens,
		Users:       service.NewUserService(db, log),
		Preferences: service.NewPreferencesService(db, log),
		Search:      service.NewSearchService(agent.NewClient(cfg.Agent, log), redisClient, log),
		Generator:   service.NewGeneratorService(model, redisClient, log),
		Chat:        service.NewChatService(model, vision, store, redisClient, log),
		Favorites:   service.NewFavoritesService(db, log),
		Catalog:     recipes,
		Recommender: catalog.NewRecommender(recipes, catalog.NewRedisSeenStore(redisClient)),
	})
	if err != nil {
		return err
	}

	srv := server.New(cfg.Server, engine, log)

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		log.Info("received signal", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
