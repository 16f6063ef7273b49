package config_test

import (
	"testing"
	"time"

	"forecast-pipeline/internal/webapi/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())
	assert.False(t, cfg.CacheEnabled)
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_HOST", "127.0.0.1")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("PREDICTION_CACHE_ENABLED", "true")
	t.Setenv("PREDICTION_CACHE_TTL", "5m")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr())
	assert.True(t, cfg.CacheEnabled)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
}
