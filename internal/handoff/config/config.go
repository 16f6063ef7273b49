package config

import (
	"errors"

	"github.com/caarlos0/env/v6"
)

// Backend names accepted by HANDOFF_BACKEND.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// RedisConfig holds connection settings for the Redis hand-off backend
type RedisConfig struct {
	Host         string `env:"HANDOFF_REDIS_HOST" envDefault:"localhost"`
	Port         string `env:"HANDOFF_REDIS_PORT" envDefault:"6379"`
	Password     string `env:"HANDOFF_REDIS_PASSWORD"`
	Database     int    `env:"HANDOFF_REDIS_DB" envDefault:"0"`
	MaxRetries   int    `env:"HANDOFF_REDIS_MAX_RETRIES" envDefault:"3"`
	PoolSize     int    `env:"HANDOFF_REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int    `env:"HANDOFF_REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	EnableTLS    bool   `env:"HANDOFF_REDIS_TLS" envDefault:"false"`
}

// GetAddr returns host:port for the Redis client
func (c *RedisConfig) GetAddr() string {
	return c.Host + ":" + c.Port
}

// HandoffConfig holds configuration for the hand-off store
type HandoffConfig struct {
	// Backend selects the store implementation: file (default), redis, or memory.
	Backend string `env:"HANDOFF_BACKEND" envDefault:"file"`

	// Root is the shared directory holding <kind>_metadata.json files for the file
	// backend.
	Root string `env:"HANDOFF_ROOT" envDefault:"./metadata"`

	Redis RedisConfig
}

// LoadConfig loads hand-off store configuration from environment variables
func LoadConfig() (*HandoffConfig, error) {
	cfg := &HandoffConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.New("failed to load hand-off configuration from environment: " + err.Error())
	}
	if err := env.Parse(&cfg.Redis); err != nil {
		return nil, errors.New("failed to load hand-off redis configuration from environment: " + err.Error())
	}

	switch cfg.Backend {
	case BackendFile, BackendRedis, BackendMemory:
	default:
		return nil, errors.New("HANDOFF_BACKEND must be one of file, redis, memory")
	}
	if cfg.Backend == BackendFile && cfg.Root == "" {
		return nil, errors.New("HANDOFF_ROOT must be set for the file backend")
	}
	return cfg, nil
}
