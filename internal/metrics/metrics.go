package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sync pipeline collectors. Registered on the default registry; exposed via
// promhttp on /metrics.
var (
	CallsFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadsync_calls_fetched_total",
		Help: "Call records fetched from the upstream platform.",
	})

	CallsSyncedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadsync_calls_synced_total",
		Help: "Call records upserted into the call store.",
	})

	LeadsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadsync_leads_created_total",
		Help: "Master leads created by reconciliation.",
	})

	LeadsMatchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadsync_leads_matched_total",
		Help: "Calls matched onto existing master leads.",
	})

	LeadsSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadsync_leads_skipped_total",
		Help: "Calls skipped because they were already linked.",
	})

	SyncErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadsync_sync_errors_total",
		Help: "Absorbed per-batch and per-call errors across sync passes.",
	})

	SyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "leadsync_sync_duration_seconds",
		Help:    "Wall-clock duration of one sync pass.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})
)
