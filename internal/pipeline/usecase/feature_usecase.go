package usecase

import (
	"context"
	"time"

	handoffmodel "forecast-pipeline/internal/handoff/domain/model"
	handoffrepo "forecast-pipeline/internal/handoff/domain/repository"
	"forecast-pipeline/internal/pipeline/domain/model"
	"forecast-pipeline/internal/pipeline/domain/repository"
	apperrors "forecast-pipeline/internal/shared/errors"
	"forecast-pipeline/internal/shared/logger"
)

// FeatureRunRequest parameterizes one feature computation run
type FeatureRunRequest struct {
	Group  string           `json:"group"`
	Window model.TimeWindow `json:"window"`
}

// FeatureUsecase implements the feature computation job: export raw readings for a
// window, derive the feature set, publish it to the feature store, and hand the
// assigned version off to the training job.
type FeatureUsecase struct {
	source   repository.ConsumptionSource
	features repository.FeatureStore
	records  handoffrepo.RecordStore
	log      logger.Logger
	now      func() time.Time
}

// NewFeatureUsecase creates the feature computation usecase
func NewFeatureUsecase(
	source repository.ConsumptionSource,
	features repository.FeatureStore,
	records handoffrepo.RecordStore,
	log logger.Logger,
) *FeatureUsecase {
	return &FeatureUsecase{
		source:   source,
		features: features,
		records:  records,
		log:      log.WithComponent("feature-job"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run performs one feature computation attempt
func (u *FeatureUsecase) Run(ctx context.Context, req FeatureRunRequest) error {
	if req.Group == "" {
		return apperrors.NewValidationError("feature group name is required")
	}
	if err := req.Window.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error())
	}

	log := u.log.WithContext(ctx)
	log.Infof("Exporting readings for window %s..%s", req.Window.Start, req.Window.End)

	readings, err := u.source.FetchReadings(ctx, req.Window)
	if err != nil {
		return apperrors.WrapError(err, "failed to fetch upstream readings")
	}
	if len(readings) == 0 {
		return apperrors.NewUpstreamUnavailableError("upstream returned no readings for the requested window")
	}

	rows := model.BuildFeatureRows(readings)
	if len(rows) == 0 {
		// Less than a week of history: nothing to publish yet, re-run later.
		return apperrors.NewUpstreamUnavailableError("not enough history to derive lagged features")
	}

	version, err := u.features.Publish(ctx, req.Group, rows)
	if err != nil {
		return apperrors.WrapError(err, "failed to publish feature group")
	}
	log.Infof("Published feature group %s version %d (%d rows)", req.Group, version, len(rows))

	runID := RunIDFromContext(ctx)
	export := &handoffmodel.ExportMetadata{
		WindowStart: req.Window.Start,
		WindowEnd:   req.Window.End,
		RowCount:    int64(len(readings)),
		Version:     version,
		RunID:       runID,
		ExportedAt:  u.now(),
	}
	if err := u.records.Write(ctx, export); err != nil {
		return apperrors.WrapError(err, "failed to write export metadata")
	}

	record := &handoffmodel.FeatureGroupRecord{
		FeatureGroup: req.Group,
		Version:      version,
		RunID:        runID,
		WrittenAt:    u.now(),
	}
	if err := u.records.Write(ctx, record); err != nil {
		return apperrors.WrapError(err, "failed to write feature group record")
	}

	log.Infof("Feature run complete: group %s version %d", req.Group, version)
	return nil
}
