package usecase

import (
	"context"
	"io"

	handoffmodel "forecast-pipeline/internal/handoff/domain/model"
	handoffrepo "forecast-pipeline/internal/handoff/domain/repository"
	"forecast-pipeline/internal/pipeline/domain/repository"
	apperrors "forecast-pipeline/internal/shared/errors"
	"forecast-pipeline/internal/shared/logger"
)

// ArtifactCache is an optional read-through cache for prediction artifact bodies
type ArtifactCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

// LatestPredictions bundles the hand-off record with the artifact body it points at
type LatestPredictions struct {
	Record handoffmodel.PredictionOutputRecord
	Body   []byte
}

// PredictionsUsecase serves the latest batch-prediction artifact. It only ever reads
// the prediction job's hand-off record and the object store; it never recomputes
// anything.
type PredictionsUsecase struct {
	records   handoffrepo.RecordStore
	artifacts repository.ArtifactStore
	cache     ArtifactCache
	log       logger.Logger
}

// NewPredictionsUsecase creates the read-only predictions usecase. cache may be nil.
func NewPredictionsUsecase(
	records handoffrepo.RecordStore,
	artifacts repository.ArtifactStore,
	cache ArtifactCache,
	log logger.Logger,
) *PredictionsUsecase {
	return &PredictionsUsecase{
		records:   records,
		artifacts: artifacts,
		cache:     cache,
		log:       log.WithComponent("webapi.predictions"),
	}
}

// LatestMetadata returns the current prediction hand-off record
func (u *PredictionsUsecase) LatestMetadata(ctx context.Context) (*handoffmodel.PredictionOutputRecord, error) {
	var record handoffmodel.PredictionOutputRecord
	if err := u.records.Read(ctx, handoffmodel.JobKindPrediction, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Latest returns the current prediction record together with its artifact body,
// served unchanged from object storage
func (u *PredictionsUsecase) Latest(ctx context.Context) (*LatestPredictions, error) {
	record, err := u.LatestMetadata(ctx)
	if err != nil {
		return nil, err
	}

	if u.cache != nil {
		if body, ok := u.cache.Get(ctx, record.StorageKey); ok {
			u.log.Debugf("Serving %s from cache", record.StorageKey)
			return &LatestPredictions{Record: *record, Body: body}, nil
		}
	}

	reader, err := u.artifacts.Get(ctx, record.StorageKey)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, apperrors.NewServiceCallError("failed to read prediction artifact").
			WithCause(err).
			WithDetail("key", record.StorageKey)
	}

	if u.cache != nil {
		u.cache.Set(ctx, record.StorageKey, body)
	}
	return &LatestPredictions{Record: *record, Body: body}, nil
}
