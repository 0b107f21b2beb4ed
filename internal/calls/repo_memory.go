package calls

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory call repository for tests and early development.
type MemoryRepo struct {
	mu      sync.Mutex
	records map[string]CallRecord
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{records: map[string]CallRecord{}}
}

func (r *MemoryRepo) UpsertBatch(ctx context.Context, records []CallRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		r.records[rec.ExternalCallID] = rec
	}
	return nil
}

func (r *MemoryRepo) ListInbound(ctx context.Context, from, to time.Time) ([]CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []CallRecord
	for _, rec := range r.records {
		if rec.Direction != DirectionInbound {
			continue
		}
		if rec.ReceivedAt.Before(from) || !rec.ReceivedAt.Before(to) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedAt.Before(out[j].ReceivedAt) })
	return out, nil
}

func (r *MemoryRepo) Snapshot(ctx context.Context) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := Snapshot{TotalCalls: len(r.records)}
	for _, rec := range r.records {
		t := rec.ReceivedAt
		if snap.EarliestReceivedAt == nil || t.Before(*snap.EarliestReceivedAt) {
			tt := t
			snap.EarliestReceivedAt = &tt
		}
		if snap.LatestReceivedAt == nil || t.After(*snap.LatestReceivedAt) {
			tt := t
			snap.LatestReceivedAt = &tt
		}
	}
	return snap, nil
}

// Len reports the number of stored records (test helper).
func (r *MemoryRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}
