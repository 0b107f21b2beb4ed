package reporting

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"leadsync-platform/internal/calls"
)

// SnapshotSource provides aggregate stats over stored call records.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (calls.Snapshot, error)
}

// LastSyncedFunc reports when a sync run last completed.
// A zero time means no run has been recorded yet.
type LastSyncedFunc func(ctx context.Context) (time.Time, error)

type Service struct {
	calls      SnapshotSource
	lastSynced LastSyncedFunc
}

func NewService(callStore SnapshotSource, lastSynced LastSyncedFunc) *Service {
	return &Service{calls: callStore, lastSynced: lastSynced}
}

func (s *Service) Status(ctx context.Context) (SyncStatus, error) {
	if s.calls == nil {
		return SyncStatus{}, errors.New("reporting: call store not configured")
	}

	snap, err := s.calls.Snapshot(ctx)
	if err != nil {
		return SyncStatus{}, err
	}

	out := SyncStatus{
		TotalCalls:         snap.TotalCalls,
		EarliestReceivedAt: snap.EarliestReceivedAt,
		LatestReceivedAt:   snap.LatestReceivedAt,
	}

	// last-synced is advisory; a cache miss or unreachable cache
	// should not take the whole status endpoint down.
	if s.lastSynced != nil {
		ts, err := s.lastSynced(ctx)
		if err != nil {
			slog.Warn("last-synced lookup failed", "error", err)
		} else if !ts.IsZero() {
			out.LastSyncedAt = &ts
		}
	}

	return out, nil
}
