package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"forecast-pipeline/internal/handoff/adapter/persistence/memory"
	handoffmodel "forecast-pipeline/internal/handoff/domain/model"
	"forecast-pipeline/internal/pipeline/testutil"
	apperrors "forecast-pipeline/internal/shared/errors"
	"forecast-pipeline/internal/shared/logger"
	webapihttp "forecast-pipeline/internal/webapi/adapter/http"
	"forecast-pipeline/internal/webapi/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(records *memory.Store, artifacts *testutil.FakeArtifactStore) *fiber.App {
	log := logger.NewLoggerWithConfig("error", "json")
	predictions := usecase.NewPredictionsUsecase(records, artifacts, nil, log)
	handler := webapihttp.NewPredictionsHandler(predictions, log)

	app := fiber.New()
	handler.RegisterRoutes(app)
	return app
}

func TestGetLatestServesArtifactUnchanged(t *testing.T) {
	ctx := context.Background()
	body := []byte(`{"area":"oslo","predicted_kwh":123.5}` + "\n" + `{"area":"bergen","predicted_kwh":87.2}` + "\n")

	records := memory.New()
	require.NoError(t, records.Write(ctx, &handoffmodel.PredictionOutputRecord{
		StorageKey:  "predictions/2023-04-15.jsonl",
		Version:     12,
		WindowStart: time.Date(2023, 4, 15, 0, 0, 0, 0, time.UTC),
		WindowEnd:   time.Date(2023, 4, 16, 0, 0, 0, 0, time.UTC),
	}))
	artifacts := testutil.NewFakeArtifactStore()
	require.NoError(t, artifacts.Put(ctx, "predictions/2023-04-15.jsonl", bytes.NewReader(body)))

	app := newTestApp(records, artifacts)
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/predictions/latest", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/x-ndjson", resp.Header.Get(fiber.HeaderContentType))
	assert.Equal(t, "12", resp.Header.Get("X-Prediction-Version"))
	assert.Equal(t, "predictions/2023-04-15.jsonl", resp.Header.Get("X-Prediction-Storage-Key"))

	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	// Byte-for-byte what the batch job uploaded.
	assert.Equal(t, body, got)
}

func TestGetLatestWithoutAnyRunIsNoData(t *testing.T) {
	app := newTestApp(memory.New(), testutil.NewFakeArtifactStore())

	for _, path := range []string{"/api/v1/predictions/latest", "/api/v1/predictions/latest/metadata"} {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil))
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode, path)

		var payload map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
		resp.Body.Close()
		assert.Equal(t, "no_data_available", payload["error"], path)
	}
}

func TestGetLatestMissingArtifactIsNoData(t *testing.T) {
	ctx := context.Background()
	records := memory.New()
	require.NoError(t, records.Write(ctx, &handoffmodel.PredictionOutputRecord{
		StorageKey: "predictions/2023-04-15.jsonl",
		Version:    1,
	}))

	app := newTestApp(records, testutil.NewFakeArtifactStore())
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/predictions/latest", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestGetLatestCorruptRecordIsServerError(t *testing.T) {
	records := memory.New()
	records.Corrupt(handoffmodel.JobKindPrediction, []byte(`{"storage_key":`))

	app := newTestApp(records, testutil.NewFakeArtifactStore())
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/predictions/latest", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var payload map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "malformed_record", payload["error"])
}

func TestGetLatestObjectStoreFailureIsBadGateway(t *testing.T) {
	ctx := context.Background()
	records := memory.New()
	require.NoError(t, records.Write(ctx, &handoffmodel.PredictionOutputRecord{
		StorageKey: "predictions/2023-04-15.jsonl",
		Version:    1,
	}))
	artifacts := testutil.NewFakeArtifactStore()
	artifacts.GetErr = apperrors.NewServiceCallError("object store unreachable")

	app := newTestApp(records, artifacts)
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/predictions/latest", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}

func TestGetLatestMetadataReturnsRecord(t *testing.T) {
	ctx := context.Background()
	records := memory.New()
	require.NoError(t, records.Write(ctx, &handoffmodel.PredictionOutputRecord{
		StorageKey:  "predictions/2023-04-15.jsonl",
		Version:     12,
		WindowStart: time.Date(2023, 4, 15, 0, 0, 0, 0, time.UTC),
		WindowEnd:   time.Date(2023, 4, 16, 0, 0, 0, 0, time.UTC),
	}))

	app := newTestApp(records, testutil.NewFakeArtifactStore())
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/predictions/latest/metadata", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var record handoffmodel.PredictionOutputRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&record))
	assert.Equal(t, "predictions/2023-04-15.jsonl", record.StorageKey)
	assert.Equal(t, int64(12), record.Version)
}
