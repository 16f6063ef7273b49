package memory

import (
	"context"
	"encoding/json"
	"sync"

	"forecast-pipeline/internal/handoff/domain/model"
	apperrors "forecast-pipeline/internal/shared/errors"
)

// Store is an in-process record store for tests and local demo wiring. It keeps the
// serialized form per job kind so reads exercise the same decode/validate path as the
// durable backends.
type Store struct {
	mu      sync.RWMutex
	records map[model.JobKind][]byte
}

// New creates an empty in-memory record store
func New() *Store {
	return &Store{
		records: make(map[model.JobKind][]byte),
	}
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

	data, err := json.Marshal(record)
	if err != nil {
		return apperrors.NewInternalError("failed to encode hand-off record").WithCause(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.currentVersionLocked(kind); ok && record.RecordVersion() < cur {
		return apperrors.NewValidationError("version regresses behind current record").
			WithCause(apperrors.ErrVersionRegress).
			WithDetail("job_kind", string(kind))
	}
	s.records[kind] = data
	return nil
}

// Read decodes the current record for kind into dst
func (s *Store) Read(ctx context.Context, kind model.JobKind, dst model.Record) error {
	if err := kind.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error())
	}

	s.mu.RLock()
	data, ok := s.records[kind]
	s.mu.RUnlock()

	if !ok {
		return apperrors.NewNotProducedError(string(kind))
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return apperrors.NewMalformedRecordError(string(kind), err)
	}
	if err := dst.Validate(); err != nil {
		return apperrors.NewMalformedRecordError(string(kind), err)
	}
	return nil
}

// Corrupt overwrites the stored bytes for kind; test hook for the malformed-record path
func (s *Store) Corrupt(kind model.JobKind, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[kind] = data
}

func (s *Store) currentVersionLocked(kind model.JobKind) (int64, bool) {
	data, ok := s.records[kind]
	if !ok {
		return 0, false
	}
	var probe struct {
		Version int64 `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return 0, false
	}
	return probe.Version, true
}
