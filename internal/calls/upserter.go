package calls

import (
	"context"

	"leadsync-platform/pkg/logger"
)

// UpsertBatchSize bounds a single persistence call's payload.
const UpsertBatchSize = 100

// Upserter persists normalized call records in bounded batches.
type Upserter struct {
	repo      Repository
	batchSize int
}

func NewUpserter(repo Repository) *Upserter {
	return &Upserter{repo: repo, batchSize: UpsertBatchSize}
}

// PersistResult aggregates a persistence pass.
type PersistResult struct {
	Synced int
	Errors int
}

// Persist upserts records in batches. A failing batch adds its record count
// to Errors and does not abort subsequent batches; individual records inside
// a failed batch are not separately retried.
func (u *Upserter) Persist(ctx context.Context, records []CallRecord) PersistResult {
	log := logger.From(ctx)

	var res PersistResult
	for start := 0; start < len(records); start += u.batchSize {
		end := start + u.batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]
		if err := u.repo.UpsertBatch(ctx, batch); err != nil {
			log.Error("call batch upsert failed", "batch_start", start, "batch_size", len(batch), "err", err)
			res.Errors += len(batch)
			continue
		}
		res.Synced += len(batch)
	}
	return res
}
