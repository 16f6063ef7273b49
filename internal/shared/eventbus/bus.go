package eventbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"forecast-pipeline/internal/shared/logger"
)

// Run lifecycle event types published by the batch job coordinator.
const (
	EventRunStarted   = "run.started"
	EventRunSucceeded = "run.succeeded"
	EventRunFailed    = "run.failed"
)

// Event represents a generic event
type Event interface {
	Type() string
	Data() interface{}
	Timestamp() time.Time
	Source() string
}

// Handler defines the event handler function type
type Handler func(ctx context.Context, event Event) error

// Bus is the contract for event bus implementations
type Bus interface {
	Subscribe(eventType string, handler Handler)
	Publish(ctx context.Context, event Event) error
	SubscriberCount(eventType string) int
}

// EventBus is an in-memory, synchronous event bus. Batch jobs are single-threaded and
// short-lived, so handlers run inline on the publisher's goroutine.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   logger.Logger
}

// NewEventBus creates a new event bus instance
func NewEventBus(log logger.Logger) *EventBus {
	if log == nil {
		log = &noopLogger{}
	}
	return &EventBus{
		handlers: make(map[string][]Handler),
		logger:   log,
	}
}

// Subscribe adds a handler for a specific event type
func (eb *EventBus) Subscribe(eventType string, handler Handler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
	eb.logger.Debugf("Subscribed handler for event type: %s", eventType)
}

// Publish sends an event to all registered handlers in subscription order. The first
// handler error aborts delivery and is returned to the publisher.
func (eb *EventBus) Publish(ctx context.Context, event Event) error {
	eb.mu.RLock()
	handlers := eb.handlers[event.Type()]
	eb.mu.RUnlock()

	if len(handlers) == 0 {
		eb.logger.Debugf("No handlers found for event type: %s", event.Type())
		return nil
	}

	for i, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			eb.logger.Errorf("Handler %d failed for event %s: %v", i, event.Type(), err)
			return fmt.Errorf("event handler %d failed for %s: %w", i, event.Type(), err)
		}
	}
	return nil
}

// SubscriberCount returns the number of handlers for an event type
func (eb *EventBus) SubscriberCount(eventType string) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.handlers[eventType])
}

// RunEvent carries the identity of a batch run through the bus
type RunEvent struct {
	eventType string
	RunID     string
	JobKind   string
	Err       error
	at        time.Time
}

// NewRunEvent creates a run lifecycle event for the given job kind
func NewRunEvent(eventType, runID, jobKind string, err error) *RunEvent {
	return &RunEvent{
		eventType: eventType,
		RunID:     runID,
		JobKind:   jobKind,
		Err:       err,
		at:        time.Now().UTC(),
	}
}

func (e *RunEvent) Type() string         { return e.eventType }
func (e *RunEvent) Data() interface{}    { return e }
func (e *RunEvent) Timestamp() time.Time { return e.at }
func (e *RunEvent) Source() string       { return e.JobKind }

// noopLogger swallows all log output; used when no logger is injected
type noopLogger struct{}

func (n *noopLogger) Debug(args ...interface{}) {}
func (n *noopLogger) Info(args ...interface{}) {}
func (n *noopLogger) Warn(args ...interface{}) {}
func (n *noopLogger) Error(args ...interface{}) {}
func (n *noopLogger) Fatal(args ...interface{}) {}
func (n *noopLogger) Debugf(format string, args ...interface{}) {}
func (n *noopLogger) Infof(format string, args ...interface{}) {}
func (n *noopLogger) Warnf(format string, args ...interface{}) {}
func (n *noopLogger) Errorf(format string, args ...interface{}) {}
func (n *noopLogger) Fatalf(format string, args ...interface{}) {}
func (n *noopLogger) WithFields(map[string]interface{}) logger.Logger { return n }
func (n *noopLogger) WithContext(context.Context) logger.Logger { return n }
func (n *noopLogger) WithComponent(string) logger.Logger { return n }
