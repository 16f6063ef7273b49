package config

import (
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient creates a Redis client for the hand-off store backend
func NewRedisClient(cfg *RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:         cfg.GetAddr(),
		Password:     cfg.Password,
		DB:           cfg.Database,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,

		ConnMaxIdleTime: 30 * time.Minute,
		ConnMaxLifetime: time.Hour,
	}

	if cfg.EnableTLS {
		options.TLSConfig = &tls.Config{
			ServerName: cfg.Host,
		}
	}

	return redis.NewClient(options)
}
