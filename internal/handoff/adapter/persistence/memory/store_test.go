package memory_test

import (
	"context"
	"testing"
	"time"

	"forecast-pipeline/internal/handoff/adapter/persistence/memory"
	"forecast-pipeline/internal/handoff/domain/model"
	apperrors "forecast-pipeline/internal/shared/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteThenRead(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	in := &model.TrainingOutputRecord{
		Model:               "seasonal_naive",
		Version:             3,
		FeatureGroup:        "energy_consumption",
		FeatureGroupVersion: 5,
		RunID:               "run-1",
		WrittenAt:           time.Date(2023, 4, 14, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Write(ctx, in))

	var out model.TrainingOutputRecord
	require.NoError(t, store.Read(ctx, model.JobKindTraining, &out))
	assert.Equal(t, *in, out)
}

func TestReadBeforeWriteIsNotProduced(t *testing.T) {
	store := memory.New()

	var record model.PredictionOutputRecord
	err := store.Read(context.Background(), model.JobKindPrediction, &record)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotProduced(err))
	assert.True(t, apperrors.IsRetryable(err))
}

func TestCorruptRecordIsMalformed(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	store.Corrupt(model.JobKindPrediction, []byte(`{"storage_key":`))

	var record model.PredictionOutputRecord
	err := store.Read(ctx, model.JobKindPrediction, &record)
	require.Error(t, err)
	assert.True(t, apperrors.IsMalformedRecord(err))
	assert.True(t, apperrors.IsFatal(err))
}

func TestInvalidStoredRecordIsMalformed(t *testing.T) {
	store := memory.New()

	store.Corrupt(model.JobKindPrediction, []byte(`{"storage_key": "", "version": 0}`))

	var record model.PredictionOutputRecord
	err := store.Read(context.Background(), model.JobKindPrediction, &record)
	assert.True(t, apperrors.IsMalformedRecord(err))
}

func TestVersionRegressRejected(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, &model.FeatureGroupRecord{FeatureGroup: "g", Version: 7}))

	err := store.Write(ctx, &model.FeatureGroupRecord{FeatureGroup: "g", Version: 6})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrVersionRegress)

	var out model.FeatureGroupRecord
	require.NoError(t, store.Read(ctx, model.JobKindFeature, &out))
	assert.Equal(t, int64(7), out.Version)
}

func TestWriteReplacesCorruptRecord(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	store.Corrupt(model.JobKindFeature, []byte("garbage"))
	require.NoError(t, store.Write(ctx, &model.FeatureGroupRecord{FeatureGroup: "g", Version: 1}))

	var out model.FeatureGroupRecord
	require.NoError(t, store.Read(ctx, model.JobKindFeature, &out))
	assert.Equal(t, int64(1), out.Version)
}

func TestKindsAreIsolated(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, &model.FeatureGroupRecord{FeatureGroup: "g", Version: 1}))

	var prediction model.PredictionOutputRecord
	err := store.Read(ctx, model.JobKindPrediction, &prediction)
	assert.True(t, apperrors.IsNotProduced(err))
}
