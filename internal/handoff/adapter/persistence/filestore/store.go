package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"forecast-pipeline/internal/handoff/domain/model"
	apperrors "forecast-pipeline/internal/shared/errors"
	"forecast-pipeline/internal/shared/logger"
)

// Store persists one hand-off record per job kind as an indented JSON file at
// <root>/<kind>_metadata.json. Files stay human-readable for operability.
//
// Writes go to a temp file in the same directory followed by os.Rename, so a reader
// either sees the previous complete record or the new complete record, never a partial
// one. The orchestrator serializes runs per job kind, so no writer-side locking beyond
// the atomic replace is needed.
type Store struct {
	root string
	log  logger.Logger
}

// New creates a file-backed record store rooted at dir, creating it if needed
func New(dir string, log logger.Logger) (*Store, error) {
	if dir == "" {
		return nil, apperrors.NewValidationError("hand-off root directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.NewServiceCallError("failed to create hand-off root directory").WithCause(err)
	}
	return &Store{
		root: dir,
		log:  log.WithComponent("handoff.filestore"),
	}, nil
}

// Root returns the root directory of the store
func (s *Store) Root() string {
	return s.root
}

func (s *Store) path(kind model.JobKind) string {
	return filepath.Join(s.root, string(kind)+"_metadata.json")
}

// Write atomically replaces the current record for the record's job kind
func (s *Store) Write(ctx context.Context, record model.Record) error {
	kind := record.Kind()
	if err := kind.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	if err := record.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error()).WithDetail("job_kind", string(kind))
	}

	if cur, ok := s.currentVersion(kind); ok && record.RecordVersion() < cur {
		return apperrors.NewValidationError(
			fmt.Sprintf("version %d regresses behind current %d for job kind %q",
				record.RecordVersion(), cur, kind)).
			WithCause(apperrors.ErrVersionRegress).
			WithDetail("job_kind", string(kind))
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return apperrors.NewInternalError("failed to encode hand-off record").WithCause(err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.root, "."+string(kind)+"-*.tmp")
	if err != nil {
		return apperrors.NewServiceCallError("failed to create temp file for hand-off record").WithCause(err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperrors.NewServiceCallError("failed to write hand-off record").WithCause(err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperrors.NewServiceCallError("failed to sync hand-off record").WithCause(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperrors.NewServiceCallError("failed to close hand-off record temp file").WithCause(err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return apperrors.NewServiceCallError("failed to set hand-off record permissions").WithCause(err)
	}
	if err := os.Rename(tmpName, s.path(kind)); err != nil {
		os.Remove(tmpName)
		return apperrors.NewServiceCallError("failed to publish hand-off record").WithCause(err)
	}

	s.log.Infof("Wrote hand-off record for job kind %s (version %d)", kind, record.RecordVersion())
	return nil
}

// Read decodes the current record for kind into dst
func (s *Store) Read(ctx context.Context, kind model.JobKind, dst model.Record) error {
	if err := kind.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error())
	}

	data, err := os.ReadFile(s.path(kind))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperrors.NewNotProducedError(string(kind))
		}
		return apperrors.NewServiceCallError("failed to read hand-off record").
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

// currentVersion probes the version of the record currently on disk. A missing or
// unreadable current record does not block the producer's replacement write; re-running
// the producer is the repair path for corruption.
func (s *Store) currentVersion(kind model.JobKind) (int64, bool) {
	data, err := os.ReadFile(s.path(kind))
	if err != nil {
		return 0, false
	}
	var probe struct {
		Version int64 `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		s.log.Warnf("Current record for job kind %s is unreadable, allowing replacement: %v", kind, err)
		return 0, false
	}
	return probe.Version, true
}
