package testutil

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"forecast-pipeline/internal/pipeline/domain/model"
	apperrors "forecast-pipeline/internal/shared/errors"
)

// FakeFeatureStore is an in-memory FeatureStore with service-assigned versions, for
// usecase tests without a MongoDB instance
type FakeFeatureStore struct {
	mu          sync.Mutex
	lastVersion map[string]int64
	groups      map[string]map[int64][]model.FeatureRow

	PublishErr error
	FetchErr   error
}

// NewFakeFeatureStore creates an empty fake feature store
func NewFakeFeatureStore() *FakeFeatureStore {
	return &FakeFeatureStore{
		lastVersion: make(map[string]int64),
		groups:      make(map[string]map[int64][]model.FeatureRow),
	}
}

// SeedLastVersion forces the next assigned version for group to be v+1
func (f *FakeFeatureStore) SeedLastVersion(group string, v int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastVersion[group] = v
}

// Publish assigns the next version for group and stores rows under it
func (f *FakeFeatureStore) Publish(ctx context.Context, group string, rows []model.FeatureRow) (int64, error) {
	if f.PublishErr != nil {
		return 0, f.PublishErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	version := f.lastVersion[group] + 1
	f.lastVersion[group] = version
	if f.groups[group] == nil {
		f.groups[group] = make(map[int64][]model.FeatureRow)
	}
	f.groups[group][version] = append([]model.FeatureRow(nil), rows...)
	return version, nil
}

// Fetch returns the rows published under exactly (group, version)
func (f *FakeFeatureStore) Fetch(ctx context.Context, group string, version int64) ([]model.FeatureRow, error) {
	if f.FetchErr != nil {
		return nil, f.FetchErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	rows, ok := f.groups[group][version]
	if !ok {
		return nil, apperrors.NewNotFoundError("feature group version")
	}
	return append([]model.FeatureRow(nil), rows...), nil
}

// FakeModelRegistry is an in-memory ModelRegistry with service-assigned versions
type FakeModelRegistry struct {
	mu          sync.Mutex
	lastVersion map[string]int64
	artifacts   map[string]map[int64][]byte

	RegisterErr error
	FetchErr    error
}

// NewFakeModelRegistry creates an empty fake registry
func NewFakeModelRegistry() *FakeModelRegistry {
	return &FakeModelRegistry{
		lastVersion: make(map[string]int64),
		artifacts:   make(map[string]map[int64][]byte),
	}
}

// SeedLastVersion forces the next assigned version for name to be v+1
func (f *FakeModelRegistry) SeedLastVersion(name string, v int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastVersion[name] = v
}

// Register assigns the next version for name and stores the artifact under it
func (f *FakeModelRegistry) Register(ctx context.Context, name string, artifact []byte) (int64, error) {
	if f.RegisterErr != nil {
		return 0, f.RegisterErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	version := f.lastVersion[name] + 1
	f.lastVersion[name] = version
	if f.artifacts[name] == nil {
		f.artifacts[name] = make(map[int64][]byte)
	}
	f.artifacts[name][version] = append([]byte(nil), artifact...)
	return version, nil
}

// Fetch returns the artifact registered under exactly (name, version)
func (f *FakeModelRegistry) Fetch(ctx context.Context, name string, version int64) ([]byte, error) {
	if f.FetchErr != nil {
		return nil, f.FetchErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	artifact, ok := f.artifacts[name][version]
	if !ok {
		return nil, apperrors.NewNotFoundError("model version")
	}
	return append([]byte(nil), artifact...), nil
}

// Corrupt replaces the stored artifact bytes; test hook for the corrupt-artifact path
func (f *FakeModelRegistry) Corrupt(name string, version int64, artifact []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.artifacts[name] == nil {
		f.artifacts[name] = make(map[int64][]byte)
	}
	f.artifacts[name][version] = artifact
}

// FakeArtifactStore is an in-memory ArtifactStore
type FakeArtifactStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	PutErr error
	GetErr error
}

// NewFakeArtifactStore creates an empty fake object store
func NewFakeArtifactStore() *FakeArtifactStore {
	return &FakeArtifactStore{
		objects: make(map[string][]byte),
	}
}

// Put stores body under key
func (f *FakeArtifactStore) Put(ctx context.Context, key string, body io.Reader) error {
	if f.PutErr != nil {
		return f.PutErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

// Get returns the object stored under key
func (f *FakeArtifactStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.objects[key]
	if !ok {
		return nil, apperrors.NewNotFoundError("artifact")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Object returns the raw stored bytes for key
func (f *FakeArtifactStore) Object(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	return data, ok
}

// Keys returns all stored keys
func (f *FakeArtifactStore) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	return keys
}

// FakeConsumptionSource serves canned readings
type FakeConsumptionSource struct {
	Readings []model.ConsumptionReading
	Err      error
}

// FetchReadings returns the canned readings inside window
func (f *FakeConsumptionSource) FetchReadings(ctx context.Context, window model.TimeWindow) ([]model.ConsumptionReading, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	var out []model.ConsumptionReading
	for _, r := range f.Readings {
		if !r.Timestamp.Before(window.Start) && r.Timestamp.Before(window.End) {
			out = append(out, r)
		}
	}
	return out, nil
}

// GenerateReadings builds deterministic hourly readings per area across window. The
// load shape depends on the hour of day so lag features differ between hours.
func GenerateReadings(areas []string, window model.TimeWindow) []model.ConsumptionReading {
	var readings []model.ConsumptionReading
	for i, area := range areas {
		base := 100.0 * float64(i+1)
		for ts := window.Start; ts.Before(window.End); ts = ts.Add(time.Hour) {
			readings = append(readings, model.ConsumptionReading{
				Area:           area,
				Timestamp:      ts,
				ConsumptionKWh: base + 10.0*float64(ts.Hour()),
			})
		}
	}
	return readings
}
