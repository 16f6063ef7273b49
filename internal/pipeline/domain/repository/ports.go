package repository

import (
	"context"
	"io"

	"forecast-pipeline/internal/pipeline/domain/model"
)

// FeatureStore is the narrow capability surface of the external feature store. Publish
// returns the version assigned by the service; this repository never invents versions.
type FeatureStore interface {
	Publish(ctx context.Context, group string, rows []model.FeatureRow) (int64, error)
	Fetch(ctx context.Context, group string, version int64) ([]model.FeatureRow, error)
}

// ModelRegistry is the capability surface of the external model registry. Register
// returns the service-assigned version for the artifact.
type ModelRegistry interface {
	Register(ctx context.Context, name string, artifact []byte) (int64, error)
	Fetch(ctx context.Context, name string, version int64) ([]byte, error)
}

// ArtifactStore is read/write object storage for prediction artifacts
type ArtifactStore interface {
	Put(ctx context.Context, key string, body io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// ConsumptionSource is the upstream raw data source for hourly consumption readings
type ConsumptionSource interface {
	FetchReadings(ctx context.Context, window model.TimeWindow) ([]model.ConsumptionReading, error)
}
