package main

import (
	"context"
	"log"
	"os"
	"time"

	"forecast-pipeline/internal/di"
	handoffmodel "forecast-pipeline/internal/handoff/domain/model"
	"forecast-pipeline/internal/pipeline/adapter/upstream/energyapi"
	pipelineconfig "forecast-pipeline/internal/pipeline/config"
	"forecast-pipeline/internal/pipeline/domain/model"
	"forecast-pipeline/internal/pipeline/usecase"
	apperrors "forecast-pipeline/internal/shared/errors"
	"forecast-pipeline/internal/shared/logger"

	"github.com/joho/godotenv"
)

// feature-job is the feature computation batch job. One invocation is one attempt; the
// orchestrator owns scheduling and retries, signalled through the process exit code.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	appLogger := logger.NewLogger()
	if err := run(appLogger); err != nil {
		os.Exit(apperrors.ExitCode(err))
	}
}

func run(appLogger logger.Logger) error {
	ctx := context.Background()

	cfg, err := pipelineconfig.LoadConfig()
	if err != nil {
		appLogger.Errorf("Configuration error: %v", err)
		return apperrors.NewValidationError(err.Error())
	}
	if cfg.Upstream.BaseURL == "" {
		appLogger.Error("ENERGY_API_URL is not set")
		return apperrors.NewValidationError("ENERGY_API_URL is required for the feature job")
	}

	container := di.NewContainer(appLogger)
	defer func() {
		if err := container.Close(); err != nil {
			appLogger.Errorf("Failed to close container: %v", err)
		}
	}()

	if err := container.InitializeHandoff(); err != nil {
		appLogger.Errorf("Hand-off store initialization failed: %v", err)
		return apperrors.NewServiceCallError("hand-off store initialization failed").WithCause(err)
	}
	if err := container.InitializeFeatureServices(ctx, cfg); err != nil {
		appLogger.Errorf("Feature service initialization failed: %v", err)
		return apperrors.NewServiceCallError("feature service initialization failed").WithCause(err)
	}
	container.SubscribeRunLogging()

	source, err := energyapi.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.APIKey, appLogger)
	if err != nil {
		return err
	}

	featureUsecase := usecase.NewFeatureUsecase(source, container.FeatureStore, container.Handoff.Store, appLogger)
	coordinator := usecase.NewRunCoordinator(container.Bus, appLogger)

	window := model.LastHours(time.Now(), cfg.ExportWindowHours)
	return coordinator.Execute(ctx, handoffmodel.JobKindFeature, func(ctx context.Context) error {
		return featureUsecase.Run(ctx, usecase.FeatureRunRequest{
			Group:  cfg.FeatureGroup,
			Window: window,
		})
	})
}
