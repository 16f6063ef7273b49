package handoff_test

import (
	"context"
	"path/filepath"
	"testing"

	"forecast-pipeline/internal/handoff"
	"forecast-pipeline/internal/handoff/config"
	"forecast-pipeline/internal/handoff/domain/model"
	"forecast-pipeline/internal/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModuleFileBackend(t *testing.T) {
	root := filepath.Join(t.TempDir(), "metadata")
	module, err := handoff.NewModule(&config.HandoffConfig{
		Backend: config.BackendFile,
		Root:    root,
	}, logger.NewLoggerWithConfig("error", "json"))
	require.NoError(t, err)
	defer module.Close()

	require.NotNil(t, module.Store)
	assert.Nil(t, module.RedisClient)

	ctx := context.Background()
	require.NoError(t, module.Store.Write(ctx, &model.FeatureGroupRecord{FeatureGroup: "g", Version: 1}))

	var out model.FeatureGroupRecord
	require.NoError(t, module.Store.Read(ctx, model.JobKindFeature, &out))
	assert.Equal(t, int64(1), out.Version)
}

func TestNewModuleMemoryBackend(t *testing.T) {
	module, err := handoff.NewModule(&config.HandoffConfig{
		Backend: config.BackendMemory,
	}, logger.NewLoggerWithConfig("error", "json"))
	require.NoError(t, err)
	defer module.Close()

	require.NotNil(t, module.Store)
	assert.Nil(t, module.RedisClient)
}

func TestNewModuleUnknownBackend(t *testing.T) {
	_, err := handoff.NewModule(&config.HandoffConfig{
		Backend: "dynamodb",
	}, logger.NewLoggerWithConfig("error", "json"))
	assert.Error(t, err)
}
