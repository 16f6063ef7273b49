package usecase

import (
	"context"

	handoffmodel "forecast-pipeline/internal/handoff/domain/model"
	"forecast-pipeline/internal/shared/contextkeys"
	apperrors "forecast-pipeline/internal/shared/errors"
	"forecast-pipeline/internal/shared/eventbus"
	"forecast-pipeline/internal/shared/logger"

	"github.com/google/uuid"
)

// JobFunc is the body of one batch job attempt
type JobFunc func(ctx context.Context) error

// RunCoordinator wraps a batch job body with run identity, lifecycle events, and
// outcome classification. Each invocation is exactly one attempt; retries belong to the
// external orchestrator, which re-runs the whole process on a retryable exit.
type RunCoordinator struct {
	bus      eventbus.Bus
	log      logger.Logger
	newRunID func() string
}

// NewRunCoordinator creates a coordinator publishing lifecycle events on bus
func NewRunCoordinator(bus eventbus.Bus, log logger.Logger) *RunCoordinator {
	return &RunCoordinator{
		bus:      bus,
		log:      log.WithComponent("run-coordinator"),
		newRunID: uuid.NewString,
	}
}

// Execute runs one attempt of the job for the given kind and returns its classified
// error. On success the job has written its new reference record; on failure nothing
// was written and the previous record stays valid for downstream jobs.
func (c *RunCoordinator) Execute(ctx context.Context, kind handoffmodel.JobKind, job JobFunc) error {
	runID := c.newRunID()
	ctx = context.WithValue(ctx, contextkeys.RunIDKey, runID)
	ctx = context.WithValue(ctx, contextkeys.JobKindKey, string(kind))

	log := c.log.WithContext(ctx)
	log.Info("Run started")
	c.publish(ctx, eventbus.NewRunEvent(eventbus.EventRunStarted, runID, string(kind), nil))

	if err := job(ctx); err != nil {
		c.publish(ctx, eventbus.NewRunEvent(eventbus.EventRunFailed, runID, string(kind), err))
		if apperrors.IsRetryable(err) {
			log.Warnf("Run failed (retryable, orchestrator will re-run): %v", err)
		} else {
			log.Errorf("Run failed (fatal, operator intervention required): %v", err)
		}
		return err
	}

	c.publish(ctx, eventbus.NewRunEvent(eventbus.EventRunSucceeded, runID, string(kind), nil))
	log.Info("Run succeeded")
	return nil
}

// publish delivers a lifecycle event; delivery problems are logged, never allowed to
// change a run's outcome
func (c *RunCoordinator) publish(ctx context.Context, event eventbus.Event) {
	if err := c.bus.Publish(ctx, event); err != nil {
		c.log.Warnf("Failed to publish %s event: %v", event.Type(), err)
	}
}

// RunIDFromContext returns the run ID set by the coordinator, or "" outside a run
func RunIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(contextkeys.RunIDKey).(string); ok {
		return v
	}
	return ""
}
