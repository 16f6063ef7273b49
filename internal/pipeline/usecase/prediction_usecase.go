package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	handoffmodel "forecast-pipeline/internal/handoff/domain/model"
	handoffrepo "forecast-pipeline/internal/handoff/domain/repository"
	"forecast-pipeline/internal/pipeline/domain/model"
	"forecast-pipeline/internal/pipeline/domain/repository"
	apperrors "forecast-pipeline/internal/shared/errors"
	"forecast-pipeline/internal/shared/logger"
)

// PredictionRunRequest parameterizes one batch prediction run
type PredictionRunRequest struct {
	HorizonHours int    `json:"horizon_hours"`
	KeyPrefix    string `json:"key_prefix"`
}

// PredictionUsecase implements the batch prediction job: resolve the model the
// training job handed off, fetch it together with the exact feature version it was
// trained against, forecast the horizon, upload the artifact to object storage, and
// hand its location off to the web API.
type PredictionUsecase struct {
	features  repository.FeatureStore
	registry  repository.ModelRegistry
	artifacts repository.ArtifactStore
	records   handoffrepo.RecordStore
	log       logger.Logger
	now       func() time.Time
}

// NewPredictionUsecase creates the batch prediction usecase
func NewPredictionUsecase(
	features repository.FeatureStore,
	registry repository.ModelRegistry,
	artifacts repository.ArtifactStore,
	records handoffrepo.RecordStore,
	log logger.Logger,
) *PredictionUsecase {
	return &PredictionUsecase{
		features:  features,
		registry:  registry,
		artifacts: artifacts,
		records:   records,
		log:       log.WithComponent("batch-prediction-job"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run performs one batch prediction attempt
func (u *PredictionUsecase) Run(ctx context.Context, req PredictionRunRequest) error {
	if req.HorizonHours <= 0 {
		return apperrors.NewValidationError("forecast horizon must be positive")
	}
	if req.KeyPrefix == "" {
		req.KeyPrefix = "predictions"
	}
	log := u.log.WithContext(ctx)

	var trainingRec handoffmodel.TrainingOutputRecord
	if err := u.records.Read(ctx, handoffmodel.JobKindTraining, &trainingRec); err != nil {
		return err
	}
	log.Infof("Predicting with model %s version %d (feature group %s version %d)",
		trainingRec.Model, trainingRec.Version, trainingRec.FeatureGroup, trainingRec.FeatureGroupVersion)

	artifact, err := u.registry.Fetch(ctx, trainingRec.Model, trainingRec.Version)
	if err != nil {
		return apperrors.WrapError(err, "failed to fetch model artifact")
	}
	var forecastModel model.ForecastModel
	if err := json.Unmarshal(artifact, &forecastModel); err != nil {
		return apperrors.NewInternalError("model artifact is corrupt").WithCause(err)
	}
	if err := forecastModel.Validate(); err != nil {
		return apperrors.NewInternalError("model artifact failed validation").WithCause(err)
	}

	rows, err := u.features.Fetch(ctx, trainingRec.FeatureGroup, trainingRec.FeatureGroupVersion)
	if err != nil {
		return apperrors.WrapError(err, "failed to fetch feature group")
	}
	if len(rows) == 0 {
		return apperrors.NewInternalError("published feature group version contains no rows").
			WithDetail("feature_group", trainingRec.FeatureGroup).
			WithDetail("version", trainingRec.FeatureGroupVersion)
	}

	// The forecast starts one hour after the last observed feature row.
	var lastObserved time.Time
	for _, row := range rows {
		if row.Timestamp.After(lastObserved) {
			lastObserved = row.Timestamp
		}
	}
	window := model.TimeWindow{
		Start: lastObserved.Add(time.Hour),
		End:   lastObserved.Add(time.Duration(req.HorizonHours+1) * time.Hour),
	}

	areas := forecastModel.Areas()
	sort.Strings(areas)

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	var pointCount int
	for _, area := range areas {
		points, err := forecastModel.Forecast(area, trainingRec.Version, window)
		if err != nil {
			return apperrors.NewInternalError("forecast failed").WithCause(err)
		}
		for _, point := range points {
			if err := encoder.Encode(point); err != nil {
				return apperrors.NewInternalError("failed to encode forecast point").WithCause(err)
			}
			pointCount++
		}
	}

	key := fmt.Sprintf("%s/%s.jsonl", req.KeyPrefix, window.Start.Format("2006-01-02"))
	if err := u.artifacts.Put(ctx, key, bytes.NewReader(buf.Bytes())); err != nil {
		return apperrors.WrapError(err, "failed to upload prediction artifact")
	}
	log.Infof("Uploaded %d forecast points to %s", pointCount, key)

	// The prediction record's version is a run sequence scoped to this job kind: no
	// external service assigns one for object storage.
	nextVersion := int64(1)
	var previous handoffmodel.PredictionOutputRecord
	switch err := u.records.Read(ctx, handoffmodel.JobKindPrediction, &previous); {
	case err == nil:
		nextVersion = previous.Version + 1
	case apperrors.IsNotProduced(err):
	default:
		return err
	}

	record := &handoffmodel.PredictionOutputRecord{
		StorageKey:  key,
		Version:     nextVersion,
		WindowStart: window.Start,
		WindowEnd:   window.End,
		RunID:       RunIDFromContext(ctx),
		WrittenAt:   u.now(),
	}
	if err := u.records.Write(ctx, record); err != nil {
		return apperrors.WrapError(err, "failed to write prediction output record")
	}

	log.Infof("Prediction run complete: %s (version %d)", key, nextVersion)
	return nil
}
