package redisstore

import (
	"context"
	"encoding/json"
	"errors"

	"forecast-pipeline/internal/handoff/domain/model"
	apperrors "forecast-pipeline/internal/shared/errors"
	"forecast-pipeline/internal/shared/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "handoff:"

// Store keeps one hand-off record per job kind in Redis, for deployments where the
// batch jobs do not share a filesystem. Redis SET is a single atomic replace, so the
// store honors the same old-or-new-never-partial contract as the file backend.
type Store struct {
	client *redis.Client
	logger logger.Logger
}

// New creates a Redis-backed record store
func New(client *redis.Client, log logger.Logger) *Store {
	return &Store{
		client: client,
		logger: log.WithComponent("handoff.redisstore"),
	}
}

func key(kind model.JobKind) string {
	return keyPrefix + string(kind)
}

// Write replaces the current record for the record's job kind
func (s *Store) Write(ctx context.Context, record model.Record) error {
	kind := record.Kind()
	if err := kind.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	if err := record.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error()).WithDetail("job_kind", string(kind))
	}

	if cur, ok := s.currentVersion(ctx, kind); ok && record.RecordVersion() < cur {
		return apperrors.NewValidationError("version regresses behind current record").
			WithCause(apperrors.ErrVersionRegress).
			WithDetail("job_kind", string(kind))
	}

	data, err := json.Marshal(record)
	if err != nil {
		return apperrors.NewInternalError("failed to encode hand-off record").WithCause(err)
	}

	if err := s.client.Set(ctx, key(kind), data, 0).Err(); err != nil {
		s.logger.Error("Failed to store hand-off record in Redis",
			zap.String("jobKind", string(kind)),
			zap.Error(err))
		return apperrors.NewServiceCallError("failed to store hand-off record in redis").
			WithCause(err).
			WithDetail("job_kind", string(kind))
	}

	s.logger.Debug("Hand-off record stored in Redis",
		zap.String("jobKind", string(kind)),
		zap.Int64("version", record.RecordVersion()))
	return nil
}

// Read decodes the current record for kind into dst
func (s *Store) Read(ctx context.Context, kind model.JobKind, dst model.Record) error {
	if err := kind.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error())
	}

	data, err := s.client.Get(ctx, key(kind)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return apperrors.NewNotProducedError(string(kind))
		}
		s.logger.Error("Failed to read hand-off record from Redis",
			zap.String("jobKind", string(kind)),
			zap.Error(err))
		return apperrors.NewServiceCallError("failed to read hand-off record from redis").
			WithCause(err).
			WithDetail("job_kind", string(kind))
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return apperrors.NewMalformedRecordError(string(kind), err)
	}
	if err := dst.Validate(); err != nil {
		return apperrors.NewMalformedRecordError(string(kind), err)
	}
	return nil
}

func (s *Store) currentVersion(ctx context.Context, kind model.JobKind) (int64, bool) {
	data, err := s.client.Get(ctx, key(kind)).Bytes()
	if err != nil {
		return 0, false
	}
	var probe struct {
		Version int64 `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		s.logger.Warn("Current record in Redis is unreadable, allowing replacement",
			zap.String("jobKind", string(kind)),
			zap.Error(err))
		return 0, false
	}
	return probe.Version, true
}
