package model

import (
	"fmt"
	"time"
)

// JobKind identifies the producing batch job of a hand-off record. Exactly one current
// record exists per kind.
type JobKind string

const (
	JobKindFeatureExport JobKind = "feature_export"
	JobKindFeature       JobKind = "feature"
	JobKindTraining      JobKind = "training"
	JobKindPrediction    JobKind = "prediction"
)

// Validate checks that the job kind is one of the known pipeline stages
func (k JobKind) Validate() error {
	switch k {
	case JobKindFeatureExport, JobKindFeature, JobKindTraining, JobKindPrediction:
		return nil
	}
	return fmt.Errorf("unknown job kind %q", k)
}

// Record is a hand-off record exchanged between independently scheduled batch jobs.
// Records are immutable once written: a new run produces a whole new record, never a
// mutation of a prior one. Versions are opaque, monotonically non-decreasing integers
// scoped to the producing job kind; ordering is inferred from the value alone.
type Record interface {
	Kind() JobKind
	RecordVersion() int64
	Validate() error
}

// ExportMetadata records the time window and row count exported from the upstream
// source during a feature run. Informational only; no downstream job reads it.
type ExportMetadata struct {
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	RowCount    int64     `json:"row_count"`
	Version     int64     `json:"version"`
	RunID       string    `json:"run_id"`
	ExportedAt  time.Time `json:"exported_at"`
}

func (m *ExportMetadata) Kind() JobKind        { return JobKindFeatureExport }
func (m *ExportMetadata) RecordVersion() int64 { return m.Version }

func (m *ExportMetadata) Validate() error {
	if m.WindowStart.IsZero() || m.WindowEnd.IsZero() {
		return fmt.Errorf("export metadata: window bounds are required")
	}
	if !m.WindowEnd.After(m.WindowStart) {
		return fmt.Errorf("export metadata: window end %s is not after start %s", m.WindowEnd, m.WindowStart)
	}
	if m.RowCount < 0 {
		return fmt.Errorf("export metadata: negative row count %d", m.RowCount)
	}
	return nil
}

// FeatureGroupRecord identifies the (name, version) of the feature set published to the
// feature store by a feature run. Written by the feature job, read by training.
type FeatureGroupRecord struct {
	FeatureGroup string    `json:"feature_group"`
	Version      int64     `json:"version"`
	RunID        string    `json:"run_id"`
	WrittenAt    time.Time `json:"written_at"`
}

func (r *FeatureGroupRecord) Kind() JobKind        { return JobKindFeature }
func (r *FeatureGroupRecord) RecordVersion() int64 { return r.Version }

func (r *FeatureGroupRecord) Validate() error {
	if r.FeatureGroup == "" {
		return fmt.Errorf("feature group record: feature_group is required")
	}
	if r.Version <= 0 {
		return fmt.Errorf("feature group record: version must be positive, got %d", r.Version)
	}
	return nil
}

// TrainingOutputRecord identifies the (model, version) registered to the model registry
// by a training run, plus the exact feature group version it was trained against.
// Written by training, read by batch prediction.
type TrainingOutputRecord struct {
	Model               string    `json:"model"`
	Version             int64     `json:"version"`
	FeatureGroup        string    `json:"feature_group"`
	FeatureGroupVersion int64     `json:"feature_group_version"`
	RunID               string    `json:"run_id"`
	WrittenAt           time.Time `json:"written_at"`
}

func (r *TrainingOutputRecord) Kind() JobKind        { return JobKindTraining }
func (r *TrainingOutputRecord) RecordVersion() int64 { return r.Version }

func (r *TrainingOutputRecord) Validate() error {
	if r.Model == "" {
		return fmt.Errorf("training output record: model is required")
	}
	if r.Version <= 0 {
		return fmt.Errorf("training output record: version must be positive, got %d", r.Version)
	}
	if r.FeatureGroup == "" {
		return fmt.Errorf("training output record: feature_group is required")
	}
	if r.FeatureGroupVersion <= 0 {
		return fmt.Errorf("training output record: feature_group_version must be positive, got %d", r.FeatureGroupVersion)
	}
	return nil
}

// PredictionOutputRecord identifies the object-store location and covered time range of
// the latest prediction artifact. Written by batch prediction, read by the web API.
type PredictionOutputRecord struct {
	StorageKey  string    `json:"storage_key"`
	Version     int64     `json:"version"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	RunID       string    `json:"run_id"`
	WrittenAt   time.Time `json:"written_at"`
}

func (r *PredictionOutputRecord) Kind() JobKind        { return JobKindPrediction }
func (r *PredictionOutputRecord) RecordVersion() int64 { return r.Version }

func (r *PredictionOutputRecord) Validate() error {
	if r.StorageKey == "" {
		return fmt.Errorf("prediction output record: storage_key is required")
	}
	if r.Version <= 0 {
		return fmt.Errorf("prediction output record: version must be positive, got %d", r.Version)
	}
	return nil
}
