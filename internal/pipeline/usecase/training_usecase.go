package usecase

import (
	"context"
	"encoding/json"
	"time"

	handoffmodel "forecast-pipeline/internal/handoff/domain/model"
	handoffrepo "forecast-pipeline/internal/handoff/domain/repository"
	"forecast-pipeline/internal/pipeline/domain/model"
	"forecast-pipeline/internal/pipeline/domain/repository"
	apperrors "forecast-pipeline/internal/shared/errors"
	"forecast-pipeline/internal/shared/logger"
)

// TrainingRunRequest parameterizes one training run
type TrainingRunRequest struct {
	ModelName string `json:"model_name"`
}

// TrainingUsecase implements the training job: resolve the feature group version the
// feature job handed off, fetch exactly that version, fit the baseline model, register
// it, and hand the assigned model version off to batch prediction.
type TrainingUsecase struct {
	features repository.FeatureStore
	registry repository.ModelRegistry
	records  handoffrepo.RecordStore
	log      logger.Logger
	now      func() time.Time
}

// NewTrainingUsecase creates the training usecase
func NewTrainingUsecase(
	features repository.FeatureStore,
	registry repository.ModelRegistry,
	records handoffrepo.RecordStore,
	log logger.Logger,
) *TrainingUsecase {
	return &TrainingUsecase{
		features: features,
		registry: registry,
		records:  records,
		log:      log.WithComponent("training-job"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run performs one training attempt
func (u *TrainingUsecase) Run(ctx context.Context, req TrainingRunRequest) error {
	if req.ModelName == "" {
		return apperrors.NewValidationError("model name is required")
	}
	log := u.log.WithContext(ctx)

	// Missing record means the feature job has not run yet (retryable); a record that
	// fails to decode means upstream corruption (fatal). The store distinguishes them.
	var featureRec handoffmodel.FeatureGroupRecord
	if err := u.records.Read(ctx, handoffmodel.JobKindFeature, &featureRec); err != nil {
		return err
	}
	log.Infof("Training against feature group %s version %d", featureRec.FeatureGroup, featureRec.Version)

	rows, err := u.features.Fetch(ctx, featureRec.FeatureGroup, featureRec.Version)
	if err != nil {
		return apperrors.WrapError(err, "failed to fetch feature group")
	}
	if len(rows) == 0 {
		return apperrors.NewInternalError("published feature group version contains no rows").
			WithDetail("feature_group", featureRec.FeatureGroup).
			WithDetail("version", featureRec.Version)
	}

	forecastModel, err := model.TrainSeasonalNaive(req.ModelName, featureRec.FeatureGroup, featureRec.Version, rows)
	if err != nil {
		return apperrors.NewInternalError("training failed").WithCause(err)
	}

	artifact, err := json.Marshal(forecastModel)
	if err != nil {
		return apperrors.NewInternalError("failed to encode model artifact").WithCause(err)
	}

	version, err := u.registry.Register(ctx, req.ModelName, artifact)
	if err != nil {
		return apperrors.WrapError(err, "failed to register model")
	}
	log.Infof("Registered model %s version %d", req.ModelName, version)

	record := &handoffmodel.TrainingOutputRecord{
		Model:               req.ModelName,
		Version:             version,
		FeatureGroup:        featureRec.FeatureGroup,
		FeatureGroupVersion: featureRec.Version,
		RunID:               RunIDFromContext(ctx),
		WrittenAt:           u.now(),
	}
	if err := u.records.Write(ctx, record); err != nil {
		return apperrors.WrapError(err, "failed to write training output record")
	}

	log.Infof("Training run complete: model %s version %d", req.ModelName, version)
	return nil
}
