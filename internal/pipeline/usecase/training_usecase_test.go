package usecase_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"forecast-pipeline/internal/handoff/adapter/persistence/memory"
	handoffmodel "forecast-pipeline/internal/handoff/domain/model"
	"forecast-pipeline/internal/pipeline/domain/model"
	"forecast-pipeline/internal/pipeline/testutil"
	"forecast-pipeline/internal/pipeline/usecase"
	apperrors "forecast-pipeline/internal/shared/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trainingRows is a week of hourly feature rows for one area
func trainingRows(area string) []model.FeatureRow {
	start := time.Date(2023, 4, 3, 0, 0, 0, 0, time.UTC) // a Monday
	rows := make([]model.FeatureRow, 0, model.HoursPerWeek)
	for i := 0; i < model.HoursPerWeek; i++ {
		rows = append(rows, model.FeatureRow{
			Area:           area,
			Timestamp:      start.Add(time.Duration(i) * time.Hour),
			ConsumptionKWh: 100 + float64(i%24)*10,
		})
	}
	return rows
}

func TestTrainingRunRegistersAndHandsOff(t *testing.T) {
	ctx := context.Background()
	records := memory.New()
	require.NoError(t, records.Write(ctx, &handoffmodel.FeatureGroupRecord{
		FeatureGroup: "energy_consumption",
		Version:      5,
	}))

	features := testutil.NewFakeFeatureStore()
	features.SeedLastVersion("energy_consumption", 4)
	_, err := features.Publish(ctx, "energy_consumption", trainingRows("oslo"))
	require.NoError(t, err)

	registry := testutil.NewFakeModelRegistry()
	registry.SeedLastVersion("seasonal_naive", 2)

	u := usecase.NewTrainingUsecase(features, registry, records, testLogger())
	require.NoError(t, u.Run(ctx, usecase.TrainingRunRequest{ModelName: "seasonal_naive"}))

	var trainingRec handoffmodel.TrainingOutputRecord
	require.NoError(t, records.Read(ctx, handoffmodel.JobKindTraining, &trainingRec))
	assert.Equal(t, "seasonal_naive", trainingRec.Model)
	assert.Equal(t, int64(3), trainingRec.Version)
	assert.Equal(t, "energy_consumption", trainingRec.FeatureGroup)
	assert.Equal(t, int64(5), trainingRec.FeatureGroupVersion)

	// The registered artifact is a valid model trained against exactly that version.
	artifact, err := registry.Fetch(ctx, "seasonal_naive", 3)
	require.NoError(t, err)
	var trained model.ForecastModel
	require.NoError(t, json.Unmarshal(artifact, &trained))
	require.NoError(t, trained.Validate())
	assert.Equal(t, int64(5), trained.FeatureVersion)
	assert.Contains(t, trained.Profiles, "oslo")
}

func TestTrainingRunMissingFeatureRecordIsRetryable(t *testing.T) {
	u := usecase.NewTrainingUsecase(
		testutil.NewFakeFeatureStore(), testutil.NewFakeModelRegistry(), memory.New(), testLogger())

	err := u.Run(context.Background(), usecase.TrainingRunRequest{ModelName: "seasonal_naive"})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotProduced(err))
	assert.Equal(t, apperrors.ExitRetryable, apperrors.ExitCode(err))
}

func TestTrainingRunCorruptFeatureRecordIsFatal(t *testing.T) {
	records := memory.New()
	records.Corrupt(handoffmodel.JobKindFeature, []byte(`{"feature_group": 42`))

	u := usecase.NewTrainingUsecase(
		testutil.NewFakeFeatureStore(), testutil.NewFakeModelRegistry(), records, testLogger())

	err := u.Run(context.Background(), usecase.TrainingRunRequest{ModelName: "seasonal_naive"})
	require.Error(t, err)
	assert.True(t, apperrors.IsMalformedRecord(err))
	assert.Equal(t, apperrors.ExitFatal, apperrors.ExitCode(err))
}

func TestTrainingRunFeatureStoreFailureIsRetryable(t *testing.T) {
	ctx := context.Background()
	records := memory.New()
	require.NoError(t, records.Write(ctx, &handoffmodel.FeatureGroupRecord{
		FeatureGroup: "energy_consumption",
		Version:      5,
	}))

	features := testutil.NewFakeFeatureStore()
	features.FetchErr = apperrors.NewServiceCallError("feature store unreachable")

	u := usecase.NewTrainingUsecase(features, testutil.NewFakeModelRegistry(), records, testLogger())
	err := u.Run(ctx, usecase.TrainingRunRequest{ModelName: "seasonal_naive"})
	require.Error(t, err)
	assert.True(t, apperrors.IsRetryable(err))
}

func TestTrainingRunRegisterFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	records := memory.New()
	require.NoError(t, records.Write(ctx, &handoffmodel.FeatureGroupRecord{
		FeatureGroup: "energy_consumption",
		Version:      1,
	}))

	features := testutil.NewFakeFeatureStore()
	_, err := features.Publish(ctx, "energy_consumption", trainingRows("oslo"))
	require.NoError(t, err)

	registry := testutil.NewFakeModelRegistry()
	registry.RegisterErr = apperrors.NewServiceCallError("registry write failed")

	u := usecase.NewTrainingUsecase(features, registry, records, testLogger())
	err = u.Run(ctx, usecase.TrainingRunRequest{ModelName: "seasonal_naive"})
	require.Error(t, err)
	assert.True(t, apperrors.IsRetryable(err))

	var trainingRec handoffmodel.TrainingOutputRecord
	readErr := records.Read(ctx, handoffmodel.JobKindTraining, &trainingRec)
	assert.True(t, apperrors.IsNotProduced(readErr))
}

func TestTrainingRunRequiresModelName(t *testing.T) {
	u := usecase.NewTrainingUsecase(
		testutil.NewFakeFeatureStore(), testutil.NewFakeModelRegistry(), memory.New(), testLogger())

	err := u.Run(context.Background(), usecase.TrainingRunRequest{})
	require.Error(t, err)
	assert.True(t, apperrors.IsFatal(err))
}
