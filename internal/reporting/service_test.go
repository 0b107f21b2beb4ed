package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadsync-platform/internal/calls"
)

func seedCalls(t *testing.T, repo *calls.MemoryRepo, times ...time.Time) {
	t.Helper()
	records := make([]calls.CallRecord, 0, len(times))
	for i, ts := range times {
		records = append(records, calls.CallRecord{
			ExternalCallID: string(rune('a' + i)),
			Direction:      calls.DirectionInbound,
			ReceivedAt:     ts,
		})
	}
	if err := repo.UpsertBatch(context.Background(), records); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestStatus_ReportsSnapshotAndLastSynced(t *testing.T) {
	repo := calls.NewMemoryRepo()
	early := time.Date(2025, 1, 5, 9, 0, 0, 0, time.UTC)
	late := time.Date(2025, 3, 20, 17, 0, 0, 0, time.UTC)
	seedCalls(t, repo, late, early)

	synced := time.Date(2025, 3, 21, 0, 0, 0, 0, time.UTC)
	svc := NewService(repo, func(ctx context.Context) (time.Time, error) { return synced, nil })

	out, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalCalls != 2 {
		t.Fatalf("expected 2 calls, got %d", out.TotalCalls)
	}
	if out.EarliestReceivedAt == nil || !out.EarliestReceivedAt.Equal(early) {
		t.Fatalf("unexpected earliest: %v", out.EarliestReceivedAt)
	}
	if out.LatestReceivedAt == nil || !out.LatestReceivedAt.Equal(late) {
		t.Fatalf("unexpected latest: %v", out.LatestReceivedAt)
	}
	if out.LastSyncedAt == nil || !out.LastSyncedAt.Equal(synced) {
		t.Fatalf("unexpected last synced: %v", out.LastSyncedAt)
	}
}

func TestStatus_EmptyStore(t *testing.T) {
	svc := NewService(calls.NewMemoryRepo(), nil)

	out, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalCalls != 0 || out.EarliestReceivedAt != nil || out.LatestReceivedAt != nil || out.LastSyncedAt != nil {
		t.Fatalf("expected empty status, got %+v", out)
	}
}

func TestStatus_LastSyncedFailureIsNotFatal(t *testing.T) {
	repo := calls.NewMemoryRepo()
	seedCalls(t, repo, time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC))

	svc := NewService(repo, func(ctx context.Context) (time.Time, error) {
		return time.Time{}, errors.New("cache unreachable")
	})

	out, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("status must survive cache failure: %v", err)
	}
	if out.TotalCalls != 1 || out.LastSyncedAt != nil {
		t.Fatalf("unexpected status %+v", out)
	}
}
