package audit

import "time"

// MatchEvent is an immutable, append-only record of one reconciliation
// match decision.
//
// Invariants:
// - Events are never updated or deleted.
// - One event is appended per successful call-to-lead match.
// - Audit writes are best-effort; reconciliation must not block on them.
type MatchEvent struct {
	ID string `json:"id" db:"id"`

	// LeadID is the master lead the call was linked onto.
	LeadID string `json:"lead_id" db:"lead_id"`
	// CallID is the external call id that was matched.
	CallID string `json:"call_id" db:"call_id"`

	MatchType MatchType `json:"match_type" db:"match_type"`

	// Confidence is 0-100 for the match decision.
	Confidence int `json:"confidence" db:"confidence"`

	MatchedAt time.Time `json:"matched_at" db:"matched_at"`
}

type MatchType string

const (
	// MatchTypePhoneTime is a normalized-phone plus time-proximity match.
	MatchTypePhoneTime MatchType = "phone_time"
)
