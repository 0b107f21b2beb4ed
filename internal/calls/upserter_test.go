package calls

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// flakyRepo fails UpsertBatch for the batch indexes listed in failBatches.
type flakyRepo struct {
	*MemoryRepo
	failBatches map[int]bool
	batchSizes  []int
}

func (r *flakyRepo) UpsertBatch(ctx context.Context, records []CallRecord) error {
	idx := len(r.batchSizes)
	r.batchSizes = append(r.batchSizes, len(records))
	if r.failBatches[idx] {
		return errors.New("simulated upsert failure")
	}
	return r.MemoryRepo.UpsertBatch(ctx, records)
}

func makeRecords(n int) []CallRecord {
	out := make([]CallRecord, 0, n)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		out = append(out, CallRecord{
			ExternalCallID: fmt.Sprintf("call-%d", i),
			Direction:      DirectionInbound,
			ReceivedAt:     base.Add(time.Duration(i) * time.Minute),
		})
	}
	return out
}

func TestPersist_BatchesAt100(t *testing.T) {
	repo := &flakyRepo{MemoryRepo: NewMemoryRepo(), failBatches: map[int]bool{}}
	u := NewUpserter(repo)

	res := u.Persist(context.Background(), makeRecords(250))
	if res.Synced != 250 || res.Errors != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	want := []int{100, 100, 50}
	if len(repo.batchSizes) != len(want) {
		t.Fatalf("expected %d batches, got %v", len(want), repo.batchSizes)
	}
	for i, n := range want {
		if repo.batchSizes[i] != n {
			t.Fatalf("batch %d: expected size %d, got %d", i, n, repo.batchSizes[i])
		}
	}
}

func TestPersist_FailedBatchIsIsolated(t *testing.T) {
	repo := &flakyRepo{MemoryRepo: NewMemoryRepo(), failBatches: map[int]bool{0: true}}
	u := NewUpserter(repo)

	res := u.Persist(context.Background(), makeRecords(200))
	if res.Errors != 100 {
		t.Fatalf("expected 100 errors for the failed batch, got %d", res.Errors)
	}
	if res.Synced != 100 {
		t.Fatalf("expected the second batch to still sync, got %d", res.Synced)
	}
	if repo.Len() != 100 {
		t.Fatalf("expected 100 stored records, got %d", repo.Len())
	}
}

func TestPersist_IdempotentRepeat(t *testing.T) {
	repo := &flakyRepo{MemoryRepo: NewMemoryRepo(), failBatches: map[int]bool{}}
	u := NewUpserter(repo)

	records := makeRecords(30)
	_ = u.Persist(context.Background(), records)
	_ = u.Persist(context.Background(), records)
	if repo.Len() != 30 {
		t.Fatalf("expected upserts to stay keyed by external id, got %d rows", repo.Len())
	}
}
