package http

import (
	"strconv"

	"forecast-pipeline/internal/shared/errors"
	"forecast-pipeline/internal/shared/logger"
	"forecast-pipeline/internal/webapi/usecase"

	"github.com/gofiber/fiber/v2"
)

// PredictionsHandler exposes the read-only prediction endpoints
type PredictionsHandler struct {
	Predictions *usecase.PredictionsUsecase
	Log         logger.Logger
}

// NewPredictionsHandler creates the handler
func NewPredictionsHandler(predictions *usecase.PredictionsUsecase, log logger.Logger) *PredictionsHandler {
	return &PredictionsHandler{
		Predictions: predictions,
		Log:         log.WithComponent("webapi.http"),
	}
}

// RegisterRoutes mounts the prediction endpoints on the app
func (h *PredictionsHandler) RegisterRoutes(app *fiber.App) {
	v1 := app.Group("/api/v1")
	v1.Get("/predictions/latest", h.GetLatest)
	v1.Get("/predictions/latest/metadata", h.GetLatestMetadata)
}

// GetLatest serves the latest prediction artifact unchanged from object storage
func (h *PredictionsHandler) GetLatest(c *fiber.Ctx) error {
	h.Log.Debug("Serving latest predictions via HTTP")

	latest, err := h.Predictions.Latest(c.UserContext())
	if err != nil {
		return h.renderReadError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/x-ndjson")
	c.Set("X-Prediction-Version", strconv.FormatInt(latest.Record.Version, 10))
	c.Set("X-Prediction-Storage-Key", latest.Record.StorageKey)
	return c.Send(latest.Body)
}

// GetLatestMetadata serves the current prediction hand-off record
func (h *PredictionsHandler) GetLatestMetadata(c *fiber.Ctx) error {
	h.Log.Debug("Serving latest prediction metadata via HTTP")

	record, err := h.Predictions.LatestMetadata(c.UserContext())
	if err != nil {
		return h.renderReadError(c, err)
	}
	return c.JSON(record)
}

// renderReadError maps read failures to an explicit "no data available" state where
// the pipeline simply has not produced output yet, and never crashes the API
func (h *PredictionsHandler) renderReadError(c *fiber.Ctx, err error) error {
	switch {
	case errors.IsNotProduced(err), errors.IsNotFound(err):
		h.Log.Info("No prediction data available yet")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error":   "no_data_available",
			"message": "No prediction data is available yet; the pipeline has not completed a run",
		})

	case errors.IsMalformedRecord(err):
		h.Log.Error("Prediction hand-off record is malformed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "malformed_record",
			"message": "The prediction hand-off record is corrupt and requires operator intervention",
		})

	default:
		h.Log.Error("Failed to read latest predictions", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "prediction_read_failed",
			"message": err.Error(),
		})
	}
}
