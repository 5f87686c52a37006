package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/podfacts/backend/internal/api/handlers"
	"github.com/podfacts/backend/internal/api/response"
	"github.com/podfacts/backend/internal/metrics"
	"github.com/podfacts/backend/internal/middleware/ratelimit"
	"github.com/podfacts/backend/internal/middleware/security"
	"github.com/podfacts/backend/internal/middleware/validation"
	"github.com/podfacts/backend/internal/query"
	"github.com/podfacts/backend/internal/stats"
	"github.com/podfacts/backend/internal/storage"
	"github.com/podfacts/backend/internal/storage/memory"
	"github.com/podfacts/backend/internal/storage/mongo"
	"github.com/podfacts/backend/pkg/config"
	appLogger "github.com/podfacts/backend/pkg/logger"
	"github.com/podfacts/backend/pkg/retry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting podfacts API server", zap.String("storage", cfg.Storage.Driver))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		appLogger.Fatal("Failed to open store", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			appLogger.Warn("Failed to close store", zap.Error(err))
		}
	}()

	var counters *stats.Client
	if cfg.Redis.Enabled {
		counters, err = retry.DoWithResult(ctx, bootstrapRetry("redis"), func(ctx context.Context) (*stats.Client, error) {
			return stats.NewClient(ctx, stats.Config{
				Host:     cfg.Redis.Host,
				Port:     cfg.Redis.Port,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
		})
		if err != nil {
			appLogger.Fatal("Failed to create Redis client", zap.Error(err))
		}
		defer counters.Close()
	}

	engine := query.NewEngine(store, store)
	handler := handlers.New(engine, validation.Limits{
		DefaultLimit:    cfg.Query.DefaultLimit,
		MaxLimit:        cfg.Query.MaxLimit,
		MaxSearchLength: cfg.Query.MaxSearchLength,
	})
	wsHandler := handlers.NewWebSocketHandler(handler)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return response.Error(c, code, err.Error())
		},
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.Security.AllowedOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		IsDevelopment: cfg.Security.Development,
	}))

	if cfg.Metrics.Enabled {
		metrics.Init()
		app.Use(metrics.Middleware())
		app.Get("/metrics", metrics.MetricsHandler())
	}

	if cfg.RateLimit.Enabled {
		limiter := ratelimit.New(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			Logger:            appLogger.Log,
		})
		defer limiter.Stop()
		app.Use(limiter.Middleware())
	}

	app.Use(validation.Middleware(validation.Config{
		MaxSearchLength: cfg.Query.MaxSearchLength,
		Logger:          appLogger.Log,
	}))

	api := app.Group("/api/v1")

	if counters != nil {
		api.Use(stats.Middleware(counters))
		api.Get("/stats", stats.Handler(counters))
	}

	api.Get("/podcasts", handler.ListEpisodes)
	api.Post("/podcasts", handler.CreateEpisode)
	api.Get("/podcasts/:id", handler.GetEpisode)

	api.Get("/surprising-facts", handler.ListFacts)
	api.Get("/surprising-facts/:id", handler.GetFact)

	api.Get("/keyword-stats", handler.KeywordStats)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	api.Get("/ws", websocket.New(wsHandler.HandleConnection))

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		pingCtx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			appLogger.Warn("Readiness check failed", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
				"error":  err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()

	appLogger.Info("Server shutting down gracefully...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Warn("Shutdown did not complete cleanly", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Driver {
	case "memory":
		store, err := memory.LoadFile(cfg.Storage.FixturePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "mongo":
		client, err := mongo.NewClient(ctx, mongo.Config{
			URI:                cfg.Mongo.URI,
			Database:           cfg.Mongo.Database,
			EpisodesCollection: cfg.Mongo.EpisodesCollection,
			FactsCollection:    cfg.Mongo.FactsCollection,
			ConnectTimeout:     time.Duration(cfg.Mongo.ConnectTimeoutSec) * time.Second,
		})
		if err != nil {
			return nil, err
		}

		rc := bootstrapRetry("mongo")
		rc.MaxAttempts = cfg.Mongo.ConnectAttempts
		if err := retry.Do(ctx, rc, client.Ping); err != nil {
			client.Close(context.Background())
			return nil, fmt.Errorf("mongo not reachable: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func bootstrapRetry(name string) retry.Config {
	rc := retry.DefaultConfig()
	rc.Name = name
	rc.Logger = appLogger.Log
	rc.Retryable = func(err error) bool {
		return !errors.Is(err, context.Canceled)
	}
	return rc
}
