package local

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	apperrors "forecast-pipeline/internal/shared/errors"
	"forecast-pipeline/internal/shared/logger"
)

// ArtifactStore implements the ArtifactStore port on a local directory. Used for
// development and tests; the write path mirrors the hand-off file store's
// temp-then-rename discipline so readers never see partial artifacts.
type ArtifactStore struct {
	root string
	log  logger.Logger
}

// New creates a directory-backed artifact store rooted at dir
func New(dir string, log logger.Logger) (*ArtifactStore, error) {
	if dir == "" {
		return nil, apperrors.NewValidationError("artifact root directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.NewServiceCallError("failed to create artifact root directory").WithCause(err)
	}
	return &ArtifactStore{
		root: dir,
		log:  log.WithComponent("objectstore.local"),
	}, nil
}

func (s *ArtifactStore) path(key string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", apperrors.NewValidationError("artifact key must be a relative path inside the store")
	}
	return filepath.Join(s.root, cleaned), nil
}

// Put writes body under key, creating parent directories as needed
func (s *ArtifactStore) Put(ctx context.Context, key string, body io.Reader) error {
	target, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return apperrors.NewServiceCallError("failed to create artifact directory").WithCause(err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".artifact-*.tmp")
	if err != nil {
		return apperrors.NewServiceCallError("failed to create artifact temp file").WithCause(err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperrors.NewServiceCallError("failed to write artifact").WithCause(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperrors.NewServiceCallError("failed to close artifact temp file").WithCause(err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return apperrors.NewServiceCallError("failed to publish artifact").WithCause(err)
	}

	s.log.Infof("Wrote artifact %s", key)
	return nil
}

// Get opens the artifact at key
func (s *ArtifactStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	target, err := s.path(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewNotFoundError("artifact").WithDetail("key", key)
		}
		return nil, apperrors.NewServiceCallError("failed to open artifact").
			WithCause(err).
			WithDetail("key", key)
	}
	return f, nil
}
