package handoff

import (
	"forecast-pipeline/internal/handoff/adapter/persistence/filestore"
	"forecast-pipeline/internal/handoff/adapter/persistence/memory"
	"forecast-pipeline/internal/handoff/adapter/persistence/redisstore"
	"forecast-pipeline/internal/handoff/config"
	"forecast-pipeline/internal/handoff/domain/repository"
	apperrors "forecast-pipeline/internal/shared/errors"
	"forecast-pipeline/internal/shared/logger"

	"github.com/redis/go-redis/v9"
)

// Module bundles the hand-off store with its configuration. Every batch job and the
// web API receive the store through this module rather than reading ambient paths.
type Module struct {
	Config *config.HandoffConfig
	Store  repository.RecordStore
	Logger logger.Logger

	// RedisClient is set only for the redis backend; the owner closes it on shutdown.
	RedisClient *redis.Client
}

// NewModule creates the hand-off store selected by HANDOFF_BACKEND
func NewModule(cfg *config.HandoffConfig, log logger.Logger) (*Module, error) {
	m := &Module{
		Config: cfg,
		Logger: log.WithComponent("handoff"),
	}

	switch cfg.Backend {
	case config.BackendFile:
		store, err := filestore.New(cfg.Root, log)
		if err != nil {
			return nil, err
		}
		m.Store = store
		m.Logger.Infof("Hand-off store backend: file (root %s)", cfg.Root)

	case config.BackendRedis:
		client := config.NewRedisClient(&cfg.Redis)
		m.RedisClient = client
		m.Store = redisstore.New(client, log)
		m.Logger.Infof("Hand-off store backend: redis (%s)", cfg.Redis.GetAddr())

	case config.BackendMemory:
		m.Store = memory.New()
		m.Logger.Warn("Hand-off store backend: memory (records are lost on exit)")

	default:
		return nil, apperrors.NewValidationError("unknown hand-off backend " + cfg.Backend)
	}

	return m, nil
}

// Close releases backend resources
func (m *Module) Close() error {
	if m.RedisClient != nil {
		return m.RedisClient.Close()
	}
	return nil
}
