package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"forecast-pipeline/internal/di"
	handoffconfig "forecast-pipeline/internal/handoff/config"
	pipelineconfig "forecast-pipeline/internal/pipeline/config"
	"forecast-pipeline/internal/shared/logger"
	"forecast-pipeline/internal/webapi/adapter/cache"
	webapihttp "forecast-pipeline/internal/webapi/adapter/http"
	webapiconfig "forecast-pipeline/internal/webapi/config"
	"forecast-pipeline/internal/webapi/usecase"

	"github.com/caarlos0/env/v6"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// api is the read-only web API. It serves the latest batch-prediction artifact from
// object storage; it never computes predictions itself.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	appLogger := logger.NewLogger()

	serverCfg, err := webapiconfig.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load server configuration: %v", err)
	}
	pipelineCfg, err := pipelineconfig.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load pipeline configuration: %v", err)
	}

	container := di.NewContainer(appLogger)
	defer func() {
		if err := container.Close(); err != nil {
			appLogger.Errorf("Failed to close container: %v", err)
		}
	}()

	if err := container.InitializeHandoff(); err != nil {
		log.Fatalf("Failed to initialize hand-off store: %v", err)
	}
	if err := container.InitializeArtifactStore(context.Background(), pipelineCfg); err != nil {
		log.Fatalf("Failed to initialize artifact store: %v", err)
	}

	var artifactCache usecase.ArtifactCache
	var cacheClient *redis.Client
	if serverCfg.CacheEnabled {
		if cacheClient = container.Handoff.RedisClient; cacheClient == nil {
			cacheClient = newCacheRedisClient(appLogger)
			defer cacheClient.Close()
		}
		artifactCache = cache.NewRedisArtifactCache(cacheClient, serverCfg.CacheTTL, appLogger)
		appLogger.Info("Prediction artifact cache enabled")
	}

	predictionsUsecase := usecase.NewPredictionsUsecase(
		container.Handoff.Store, container.ArtifactStore, artifactCache, appLogger)
	handler := webapihttp.NewPredictionsHandler(predictionsUsecase, appLogger)

	app := fiber.New(fiber.Config{
		AppName:      "Energy Forecast API v1.0",
		ReadTimeout:  serverCfg.ReadTimeout,
		WriteTimeout: serverCfg.WriteTimeout,
		IdleTimeout:  serverCfg.IdleTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			appLogger.Errorf("HTTP Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal Server Error",
			})
		},
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,HEAD,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		healthCtx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
		defer cancel()

		if err := container.HealthCheck(healthCtx); err != nil {
			appLogger.Errorf("Health check failed: %v", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "UNHEALTHY",
				"error":  err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"status":    "HEALTHY",
			"message":   "Energy Forecast API is running",
			"timestamp": time.Now().UTC(),
		})
	})

	handler.RegisterRoutes(app)

	serverAddr := serverCfg.Addr()
	appLogger.Infof("Starting HTTP server on %s", serverAddr)

	serverShutdown := make(chan error, 1)
	go func() {
		serverShutdown <- app.Listen(serverAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverShutdown:
		if err != nil {
			log.Fatalf("Server startup failed: %v", err)
		}
	case sig := <-quit:
		appLogger.Infof("Received shutdown signal: %v", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			appLogger.Errorf("Server forced to shutdown: %v", err)
		}
		appLogger.Info("HTTP server stopped")
	}
}

// newCacheRedisClient builds a dedicated Redis client for the artifact cache when the
// hand-off store does not already hold one
func newCacheRedisClient(appLogger logger.Logger) *redis.Client {
	cfg := &handoffconfig.RedisConfig{}
	if err := env.Parse(cfg); err != nil {
		appLogger.Warnf("Falling back to default redis cache settings: %v", err)
		cfg = &handoffconfig.RedisConfig{Host: "localhost", Port: "6379"}
	}
	return handoffconfig.NewRedisClient(cfg)
}
