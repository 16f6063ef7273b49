package logger_test

import (
	"context"
	"testing"

	"forecast-pipeline/internal/shared/contextkeys"
	"forecast-pipeline/internal/shared/logger"

	"github.com/stretchr/testify/assert"
)

func TestNewLoggerWithConfig(t *testing.T) {
	assert.NotNil(t, logger.NewLoggerWithConfig("debug", "json"))
	assert.NotNil(t, logger.NewLoggerWithConfig("info", "text"))
	// Unknown level falls back to info rather than failing.
	assert.NotNil(t, logger.NewLoggerWithConfig("verbose", "json"))
}

func TestDerivedLoggersAreIndependent(t *testing.T) {
	base := logger.NewLoggerWithConfig("error", "json")

	withComponent := base.WithComponent("feature-job")
	withFields := base.WithFields(map[string]interface{}{"attempt": 1})

	assert.NotNil(t, withComponent)
	assert.NotNil(t, withFields)
	assert.NotSame(t, base, withComponent)
	assert.NotSame(t, base, withFields)
}

func TestWithContextExtractsRunIdentity(t *testing.T) {
	base := logger.NewLoggerWithConfig("error", "json")

	ctx := context.WithValue(context.Background(), contextkeys.RunIDKey, "run-1")
	ctx = context.WithValue(ctx, contextkeys.JobKindKey, "feature")

	derived := base.WithContext(ctx)
	assert.NotNil(t, derived)
	assert.NotSame(t, base, derived)

	// A context without identity values still yields a usable logger.
	assert.NotNil(t, base.WithContext(context.Background()))
}
