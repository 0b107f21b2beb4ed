package calls

import "time"

// CallRecord is the canonical shape of one external call event.
//
// Identity invariant: ExternalCallID is unique and immutable; together with
// ReceivedAt it is required for persistence. Records missing either are
// dropped by the normalizer before they ever reach storage.
//
// Rows are created/updated by the upserter on every sync pass and never
// deleted. Upserts are idempotent: the same external id always overwrites
// the same row.
type CallRecord struct {
	ExternalCallID string `json:"external_call_id" db:"external_call_id"`

	Direction Direction `json:"direction" db:"direction"`
	CallType  string    `json:"call_type,omitempty" db:"call_type"`

	// DurationSeconds is nil when the upstream encoding was unparsable.
	DurationSeconds *int `json:"duration_seconds" db:"duration_seconds"`

	FromNumber     string `json:"from_number,omitempty" db:"from_number"`
	ToNumber       string `json:"to_number,omitempty" db:"to_number"`
	TrackingNumber string `json:"tracking_number,omitempty" db:"tracking_number"`

	CampaignID   string `json:"campaign_id,omitempty" db:"campaign_id"`
	CampaignName string `json:"campaign_name,omitempty" db:"campaign_name"`

	AgentID   string `json:"agent_id,omitempty" db:"agent_id"`
	AgentName string `json:"agent_name,omitempty" db:"agent_name"`

	RecordingURL string `json:"recording_url,omitempty" db:"recording_url"`

	BusinessUnitID   string `json:"business_unit_id,omitempty" db:"business_unit_id"`
	BusinessUnitName string `json:"business_unit_name,omitempty" db:"business_unit_name"`

	ReceivedAt time.Time `json:"received_at" db:"received_at"`

	// Linked upstream entities, when the platform attached them to the call.
	CustomerID string `json:"customer_id,omitempty" db:"customer_id"`
	JobID      string `json:"job_id,omitempty" db:"job_id"`
	BookingID  string `json:"booking_id,omitempty" db:"booking_id"`

	SyncedAt  time.Time `json:"synced_at" db:"synced_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
	DirectionUnknown  Direction = "unknown"
)

// ParseDirection maps upstream direction strings onto the canonical set.
func ParseDirection(v string) Direction {
	switch v {
	case "inbound", "Inbound":
		return DirectionInbound
	case "outbound", "Outbound":
		return DirectionOutbound
	default:
		return DirectionUnknown
	}
}

// Snapshot summarizes the stored call table for status and convergence checks.
type Snapshot struct {
	TotalCalls         int        `json:"total_calls"`
	EarliestReceivedAt *time.Time `json:"earliest_received_at,omitempty"`
	LatestReceivedAt   *time.Time `json:"latest_received_at,omitempty"`
}
