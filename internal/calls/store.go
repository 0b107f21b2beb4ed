package calls

import (
	"context"
	"time"
)

// Repository is the persistence contract for call records.
//
// UpsertBatch must be idempotent: the same external id always overwrites the
// same row, so repeated syncs over overlapping windows are safe.
type Repository interface {
	UpsertBatch(ctx context.Context, records []CallRecord) error

	// ListInbound returns inbound calls received in [from, to), in
	// received_at order.
	ListInbound(ctx context.Context, from, to time.Time) ([]CallRecord, error)

	Snapshot(ctx context.Context) (Snapshot, error)
}
