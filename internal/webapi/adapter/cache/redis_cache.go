package cache

import (
	"context"
	"time"

	"forecast-pipeline/internal/shared/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "prediction:body:"

// RedisArtifactCache caches prediction artifact bodies keyed by storage key. Artifacts
// are immutable, so a short TTL only bounds memory, not staleness.
type RedisArtifactCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// NewRedisArtifactCache creates a Redis-backed artifact cache
func NewRedisArtifactCache(client *redis.Client, ttl time.Duration, log logger.Logger) *RedisArtifactCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &RedisArtifactCache{
		client: client,
		ttl:    ttl,
		logger: log.WithComponent("webapi.cache"),
	}
}

// Get returns the cached body for key, if present
func (c *RedisArtifactCache) Get(ctx context.Context, key string) ([]byte, bool) {
	body, err := c.client.Get(ctx, cacheKeyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Artifact cache read failed",
				zap.String("key", key),
				zap.Error(err))
		}
		return nil, false
	}
	return body, true
}

// Set caches the body for key; cache failures are logged and ignored
func (c *RedisArtifactCache) Set(ctx context.Context, key string, value []byte) {
	if err := c.client.Set(ctx, cacheKeyPrefix+key, value, c.ttl).Err(); err != nil {
		c.logger.Warn("Artifact cache write failed",
			zap.String("key", key),
			zap.Error(err))
	}
}
