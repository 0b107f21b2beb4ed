package leads

import "time"

// MasterLead is the canonical, deduplicated representation of a sales lead,
// merged from multiple origin signals (web form, phone call).
//
// Invariant: at most one MasterLead may be linked to a given external call
// id. The reconciler enforces this with an already-linked check before it
// creates or merges; the schema backs it with a partial unique index.
//
// Leads are created or linked by the reconciler and never deleted here.
type MasterLead struct {
	ID string `json:"id" db:"id"`

	Phone           string `json:"phone,omitempty" db:"phone"`
	NormalizedPhone string `json:"normalized_phone,omitempty" db:"normalized_phone"`

	LeadType string `json:"lead_type" db:"lead_type"`
	// Trade is the keyword-classified trade ("HVAC", "Plumbing") or empty.
	Trade string `json:"trade,omitempty" db:"trade"`

	SourceType string `json:"source_type" db:"source_type"`
	// SourceConfidence is 0-100; how certain the source attribution is.
	SourceConfidence int `json:"source_confidence" db:"source_confidence"`

	Status    string `json:"status" db:"status"`
	Qualified bool   `json:"qualified" db:"qualified"`
	Booked    bool   `json:"booked" db:"booked"`
	Completed bool   `json:"completed" db:"completed"`

	// Links to upstream entities. ExternalCallID empty means the lead is not
	// yet linked to any call and is a merge candidate.
	ExternalCallID string `json:"external_call_id,omitempty" db:"external_call_id"`
	JobID          string `json:"job_id,omitempty" db:"job_id"`
	CustomerID     string `json:"customer_id,omitempty" db:"customer_id"`
	BookingID      string `json:"booking_id,omitempty" db:"booking_id"`

	ReconciliationStatus string `json:"reconciliation_status" db:"reconciliation_status"`
	Duplicate            bool   `json:"duplicate" db:"duplicate"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Lead type, source, status, and reconciliation constants. Part of the
// stored contract; keep stable.
const (
	LeadTypeCall = "call"

	SourceTypeCall = "call"

	StatusNew    = "new"
	StatusBooked = "booked"

	ReconciliationNew     = "new"
	ReconciliationMatched = "matched"
)

// CallLink carries the identifiers written onto a matched lead.
type CallLink struct {
	ExternalCallID string
	JobID          string
	CustomerID     string

	// ForceBooked is set when the call carries a booking reference.
	ForceBooked bool
}
