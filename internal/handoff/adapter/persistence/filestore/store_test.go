package filestore_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"forecast-pipeline/internal/handoff/adapter/persistence/filestore"
	"forecast-pipeline/internal/handoff/domain/model"
	apperrors "forecast-pipeline/internal/shared/errors"
	"forecast-pipeline/internal/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *filestore.Store {
	t.Helper()
	store, err := filestore.New(t.TempDir(), logger.NewLoggerWithConfig("error", "json"))
	require.NoError(t, err)
	return store
}

func TestNewRequiresRoot(t *testing.T) {
	_, err := filestore.New("", logger.NewLoggerWithConfig("error", "json"))
	assert.Error(t, err)
}

func TestWriteThenReadRoundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	writtenAt := time.Date(2023, 4, 14, 6, 0, 0, 0, time.UTC)

	t.Run("feature group record", func(t *testing.T) {
		in := &model.FeatureGroupRecord{
			FeatureGroup: "energy_consumption",
			Version:      5,
			RunID:        "run-a",
			WrittenAt:    writtenAt,
		}
		require.NoError(t, store.Write(ctx, in))

		var out model.FeatureGroupRecord
		require.NoError(t, store.Read(ctx, model.JobKindFeature, &out))
		assert.Equal(t, *in, out)
	})

	t.Run("training output record", func(t *testing.T) {
		in := &model.TrainingOutputRecord{
			Model:               "seasonal_naive",
			Version:             3,
			FeatureGroup:        "energy_consumption",
			FeatureGroupVersion: 5,
			RunID:               "run-b",
			WrittenAt:           writtenAt,
		}
		require.NoError(t, store.Write(ctx, in))

		var out model.TrainingOutputRecord
		require.NoError(t, store.Read(ctx, model.JobKindTraining, &out))
		assert.Equal(t, *in, out)
	})

	t.Run("prediction output record", func(t *testing.T) {
		in := &model.PredictionOutputRecord{
			StorageKey:  "predictions/2023-04-15.jsonl",
			Version:     12,
			WindowStart: writtenAt.Add(time.Hour),
			WindowEnd:   writtenAt.Add(25 * time.Hour),
			RunID:       "run-c",
			WrittenAt:   writtenAt,
		}
		require.NoError(t, store.Write(ctx, in))

		var out model.PredictionOutputRecord
		require.NoError(t, store.Read(ctx, model.JobKindPrediction, &out))
		assert.Equal(t, *in, out)
	})

	t.Run("export metadata", func(t *testing.T) {
		in := &model.ExportMetadata{
			WindowStart: writtenAt.Add(-720 * time.Hour),
			WindowEnd:   writtenAt,
			RowCount:    7200,
			Version:     5,
			RunID:       "run-a",
			ExportedAt:  writtenAt,
		}
		require.NoError(t, store.Write(ctx, in))

		var out model.ExportMetadata
		require.NoError(t, store.Read(ctx, model.JobKindFeatureExport, &out))
		assert.Equal(t, *in, out)
	})
}

func TestReadBeforeAnyWriteIsNotProduced(t *testing.T) {
	store := newTestStore(t)

	var record model.TrainingOutputRecord
	err := store.Read(context.Background(), model.JobKindTraining, &record)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotProduced(err))
	assert.True(t, apperrors.IsRetryable(err))
}

func TestFilesAreHumanReadableJSON(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	record := &model.FeatureGroupRecord{FeatureGroup: "energy_consumption", Version: 1}
	require.NoError(t, store.Write(ctx, record))

	path := filepath.Join(store.Root(), "feature_metadata.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(string(data), "\n"))
	assert.Contains(t, string(data), "\n  \"feature_group\"")

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "energy_consumption", decoded["feature_group"])
}

func TestMalformedFileIsFatalAndLeftIntact(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	path := filepath.Join(store.Root(), "training_metadata.json")
	corrupt := []byte(`{"model": "seasonal_naive", "version":`)
	require.NoError(t, os.WriteFile(path, corrupt, 0o644))

	var record model.TrainingOutputRecord
	err := store.Read(ctx, model.JobKindTraining, &record)
	require.Error(t, err)
	assert.True(t, apperrors.IsMalformedRecord(err))
	assert.True(t, apperrors.IsFatal(err))
	assert.False(t, apperrors.IsNotProduced(err))

	// Reading never mutates the file; the corrupt evidence stays for the operator.
	after, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, corrupt, after)
}

func TestDecodableButInvalidRecordIsMalformed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	path := filepath.Join(store.Root(), "feature_metadata.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"feature_group": "", "version": 0}`), 0o644))

	var record model.FeatureGroupRecord
	err := store.Read(ctx, model.JobKindFeature, &record)
	require.Error(t, err)
	assert.True(t, apperrors.IsMalformedRecord(err))
}

func TestWriteRejectsVersionRegress(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	current := &model.FeatureGroupRecord{FeatureGroup: "energy_consumption", Version: 5}
	require.NoError(t, store.Write(ctx, current))

	stale := &model.FeatureGroupRecord{FeatureGroup: "energy_consumption", Version: 4}
	err := store.Write(ctx, stale)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrVersionRegress)
	assert.True(t, apperrors.IsFatal(err))

	// The rejected write leaves the current record untouched.
	var out model.FeatureGroupRecord
	require.NoError(t, store.Read(ctx, model.JobKindFeature, &out))
	assert.Equal(t, int64(5), out.Version)
}

func TestWriteAcceptsEqualAndHigherVersions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, &model.FeatureGroupRecord{FeatureGroup: "g", Version: 5}))
	require.NoError(t, store.Write(ctx, &model.FeatureGroupRecord{FeatureGroup: "g", Version: 5, RunID: "rerun"}))
	require.NoError(t, store.Write(ctx, &model.FeatureGroupRecord{FeatureGroup: "g", Version: 6}))

	var out model.FeatureGroupRecord
	require.NoError(t, store.Read(ctx, model.JobKindFeature, &out))
	assert.Equal(t, int64(6), out.Version)
}

func TestWriteReplacesUnreadableCurrentRecord(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	path := filepath.Join(store.Root(), "feature_metadata.json")
	require.NoError(t, os.WriteFile(path, []byte("not json at all"), 0o644))

	// Re-running the producer is the repair path for corruption.
	repaired := &model.FeatureGroupRecord{FeatureGroup: "energy_consumption", Version: 1}
	require.NoError(t, store.Write(ctx, repaired))

	var out model.FeatureGroupRecord
	require.NoError(t, store.Read(ctx, model.JobKindFeature, &out))
	assert.Equal(t, int64(1), out.Version)
}

func TestWriteRejectsInvalidRecord(t *testing.T) {
	store := newTestStore(t)

	err := store.Write(context.Background(), &model.FeatureGroupRecord{FeatureGroup: "", Version: 1})
	require.Error(t, err)
	assert.True(t, apperrors.IsFatal(err))
}

func TestConcurrentReadersAlwaysSeeACompleteRecord(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, &model.FeatureGroupRecord{FeatureGroup: "g", Version: 1}))

	const writes = 50
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for v := int64(2); v <= writes; v++ {
			if err := store.Write(ctx, &model.FeatureGroupRecord{FeatureGroup: "g", Version: v}); err != nil {
				t.Errorf("write version %d: %v", v, err)
				return
			}
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			var out model.FeatureGroupRecord
			if err := store.Read(ctx, model.JobKindFeature, &out); err != nil {
				t.Errorf("read %d: %v", i, err)
				return
			}
			// Every observed record is fully formed: no torn reads.
			if out.FeatureGroup != "g" || out.Version < 1 || out.Version > writes {
				t.Errorf("read %d saw partial record: %+v", i, out)
				return
			}
		}
	}()

	wg.Wait()
}

func TestKindsAreIsolated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, &model.FeatureGroupRecord{FeatureGroup: "g", Version: 9}))

	var training model.TrainingOutputRecord
	err := store.Read(ctx, model.JobKindTraining, &training)
	assert.True(t, apperrors.IsNotProduced(err))
}
