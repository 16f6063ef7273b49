package repository

import (
	"context"

	"forecast-pipeline/internal/handoff/domain/model"
)

// RecordStore is the durable, single-writer/multiple-reader exchange of hand-off
// records between batch jobs that share no process memory or call path.
//
// Write atomically replaces the current record for the record's job kind; readers never
// observe a partially written record. A write whose version regresses relative to the
// current record for that kind is rejected as fatal, since versions are monotonically
// non-decreasing per producing job.
//
// Read decodes the current record for kind into dst, which must be the record type
// produced by that kind. A kind with no record yet fails with the retryable
// "not yet produced" condition; a record that cannot be decoded or fails validation is
// the fatal malformed-record condition.
type RecordStore interface {
	Write(ctx context.Context, record model.Record) error
	Read(ctx context.Context, kind model.JobKind, dst model.Record) error
}
