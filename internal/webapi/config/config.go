package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v6"
)

// WebAPIConfig holds configuration for the read-only prediction API
type WebAPIConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port string `env:"SERVER_PORT" envDefault:"8000"`

	// CacheEnabled turns on the Redis read-through cache for artifact bodies.
	CacheEnabled bool          `env:"PREDICTION_CACHE_ENABLED" envDefault:"false"`
	CacheTTL     time.Duration `env:"PREDICTION_CACHE_TTL" envDefault:"15m"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
}

// Addr returns host:port for the HTTP listener
func (c *WebAPIConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// LoadConfig loads web API configuration from environment variables
func LoadConfig() (*WebAPIConfig, error) {
	cfg := &WebAPIConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.New("failed to load web api configuration from environment: " + err.Error())
	}
	if cfg.Port == "" {
		return nil, errors.New("SERVER_PORT must not be empty")
	}
	return cfg, nil
}
