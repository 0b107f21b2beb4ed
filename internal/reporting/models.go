package reporting

import "time"

// SyncStatus describes the current state of the synced call store.
// Timestamp fields are omitted while the store is empty or the value is unknown.
type SyncStatus struct {
	TotalCalls         int        `json:"total_calls"`
	EarliestReceivedAt *time.Time `json:"earliest_received_at,omitempty"`
	LatestReceivedAt   *time.Time `json:"latest_received_at,omitempty"`
	LastSyncedAt       *time.Time `json:"last_synced_at,omitempty"`
}
