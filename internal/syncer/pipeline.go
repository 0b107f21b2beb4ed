package syncer

import (
	"context"
	"errors"
	"time"

	"leadsync-platform/internal/calls"
	"leadsync-platform/internal/callsource"
	"leadsync-platform/internal/leads"
	"leadsync-platform/internal/metrics"
	"leadsync-platform/pkg/logger"
	"leadsync-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// runLockKey serializes overlapping sync invocations (manual vs cron).
const runLockKey = "leadsync:sync_run_lock"

// runLockTTL bounds how long a crashed invocation can hold the lock.
const runLockTTL = 10 * time.Minute

// ErrSyncInProgress is returned when another invocation holds the run lock.
var ErrSyncInProgress = errors.New("syncer: another sync is already running")

// CallFetcher is the upstream client contract consumed by the pipeline.
type CallFetcher interface {
	FetchCalls(ctx context.Context, start, endExclusive time.Time, maxRecords int) ([]callsource.RawCall, error)
}

// LeadReconciler derives or merges master leads from stored inbound calls.
type LeadReconciler interface {
	Reconcile(ctx context.Context, from, to time.Time) (leads.ReconcileResult, error)
}

// Service drives one fetch → normalize → persist → reconcile pass.
//
// Each invocation is stateless: all durable state lives in the external
// stores, and every mutation is idempotent, so overlapping or repeated
// invocations converge to the same state.
type Service struct {
	fetcher    CallFetcher
	upserter   *calls.Upserter
	callRepo   calls.Repository
	reconciler LeadReconciler

	// rdb is optional; without it the run lock and last-synced cache are
	// skipped.
	rdb *redis.Client

	maxRecords int
	clock      func() time.Time
}

func NewService(fetcher CallFetcher, upserter *calls.Upserter, callRepo calls.Repository, reconciler LeadReconciler, rdb *redis.Client, maxRecords int) *Service {
	return &Service{
		fetcher:    fetcher,
		upserter:   upserter,
		callRepo:   callRepo,
		reconciler: reconciler,
		rdb:        rdb,
		maxRecords: maxRecords,
		clock:      time.Now,
	}
}

// DateRange is the half-open window one pass covered.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Summary is the caller-visible outcome of one sync pass. The counts are
// structured so a caller can tell full, partial, and failed passes apart
// without reading logs.
type Summary struct {
	DateRange    DateRange `json:"date_range"`
	CallsFromAPI int       `json:"calls_from_api"`
	CallsSynced  int       `json:"calls_synced"`
	LeadsCreated int       `json:"leads_created"`
	LeadsMatched int       `json:"leads_matched"`
	LeadsSkipped int       `json:"leads_skipped"`
	Errors       int       `json:"errors"`
}

// Run executes one pass over [start, endExclusive).
//
// Fetch and reconcile-listing failures are invocation-level errors; batch
// and per-call failures are absorbed into Summary.Errors per the error
// taxonomy.
func (s *Service) Run(ctx context.Context, start, endExclusive time.Time) (Summary, error) {
	log := logger.From(ctx)
	began := s.clock()

	if s.rdb != nil {
		token, ok, err := utils.AcquireSyncLock(ctx, s.rdb, runLockKey, runLockTTL)
		if err != nil {
			// Redis being down must not block a sync; idempotence guards
			// keep concurrent passes safe.
			log.Warn("sync run lock unavailable; continuing unlocked", "err", err)
		} else if !ok {
			return Summary{}, ErrSyncInProgress
		} else {
			defer func() {
				if err := utils.ReleaseSyncLock(ctx, s.rdb, runLockKey, token); err != nil {
					log.Warn("sync run lock release failed", "err", err)
				}
			}()
		}
	}

	summary := Summary{DateRange: DateRange{From: start, To: endExclusive}}

	raws, err := s.fetcher.FetchCalls(ctx, start, endExclusive, s.maxRecords)
	if err != nil {
		return summary, err
	}
	summary.CallsFromAPI = len(raws)
	metrics.CallsFetchedTotal.Add(float64(len(raws)))

	now := s.clock()
	records := make([]calls.CallRecord, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		rec := calls.Normalize(raw, now)
		if rec == nil {
			dropped++
			continue
		}
		records = append(records, *rec)
	}
	if dropped > 0 {
		log.Debug("dropped unnormalizable call records", "dropped", dropped)
	}

	persisted := s.upserter.Persist(ctx, records)
	summary.CallsSynced = persisted.Synced
	summary.Errors += persisted.Errors

	recon, err := s.reconciler.Reconcile(ctx, start, endExclusive)
	if err != nil {
		return summary, err
	}
	summary.LeadsCreated = recon.Created
	summary.LeadsMatched = recon.Matched
	summary.LeadsSkipped = recon.Skipped
	summary.Errors += recon.Errors

	metrics.CallsSyncedTotal.Add(float64(persisted.Synced))
	metrics.LeadsCreatedTotal.Add(float64(recon.Created))
	metrics.LeadsMatchedTotal.Add(float64(recon.Matched))
	metrics.LeadsSkippedTotal.Add(float64(recon.Skipped))
	metrics.SyncErrorsTotal.Add(float64(summary.Errors))
	metrics.SyncDuration.Observe(s.clock().Sub(began).Seconds())

	if s.rdb != nil {
		if err := utils.RecordLastSynced(ctx, s.rdb, s.clock()); err != nil {
			log.Warn("recording last-synced timestamp failed", "err", err)
		}
	}

	log.Info("sync pass complete",
		"from", start, "to", endExclusive,
		"fetched", summary.CallsFromAPI, "synced", summary.CallsSynced,
		"created", summary.LeadsCreated, "matched", summary.LeadsMatched,
		"skipped", summary.LeadsSkipped, "errors", summary.Errors,
		"duration_ms", s.clock().Sub(began).Milliseconds())
	return summary, nil
}

// RunLookback executes a pass covering the trailing number of days ending now.
func (s *Service) RunLookback(ctx context.Context, days int) (Summary, error) {
	end := s.clock().UTC()
	start := end.AddDate(0, 0, -days)
	return s.Run(ctx, start, end)
}
