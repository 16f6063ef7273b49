package main

import (
	"context"
	"log"
	"os"

	"forecast-pipeline/internal/di"
	handoffmodel "forecast-pipeline/internal/handoff/domain/model"
	pipelineconfig "forecast-pipeline/internal/pipeline/config"
	"forecast-pipeline/internal/pipeline/usecase"
	apperrors "forecast-pipeline/internal/shared/errors"
	"forecast-pipeline/internal/shared/logger"

	"github.com/joho/godotenv"
)

// batch-prediction-job forecasts the configured horizon with the model handed off by
// the training job and uploads the artifact the web API serves.
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
	if err := container.InitializeArtifactStore(ctx, cfg); err != nil {
		appLogger.Errorf("Artifact store initialization failed: %v", err)
		return apperrors.NewServiceCallError("artifact store initialization failed").WithCause(err)
	}
	container.SubscribeRunLogging()

	predictionUsecase := usecase.NewPredictionUsecase(
		container.FeatureStore, container.ModelRegistry, container.ArtifactStore,
		container.Handoff.Store, appLogger)
	coordinator := usecase.NewRunCoordinator(container.Bus, appLogger)

	return coordinator.Execute(ctx, handoffmodel.JobKindPrediction, func(ctx context.Context) error {
		return predictionUsecase.Run(ctx, usecase.PredictionRunRequest{
			HorizonHours: cfg.HorizonHours,
			KeyPrefix:    cfg.PredictionKeyPrefix,
		})
	})
}
