package leads

import (
	"context"
	"errors"
	"time"

	"leadsync-platform/internal/audit"
	"leadsync-platform/internal/calls"
	"leadsync-platform/pkg/logger"

	"github.com/google/uuid"
)

// Policy constants for the matching algorithm. These are tuning knobs, not
// derived values; change them here, never inline in the logic.
const (
	// MatchWindow is how far apart a call and an unlinked lead may be and
	// still correlate. The boundary is inclusive: exactly MatchWindow apart
	// still matches.
	MatchWindow = 15 * time.Minute

	// QualifiedCallSeconds is the minimum call duration for a new lead to
	// be marked qualified.
	QualifiedCallSeconds = 60

	// PhoneTimeConfidence scores a phone+time correlation: high, but not a
	// direct identifier match.
	PhoneTimeConfidence = 95

	// DirectConfidence scores a lead created from the call itself; the call
	// is the ground truth for its own existence.
	DirectConfidence = 100
)

var (
	ErrLeadNotFound  = errors.New("leads: lead not found")
	ErrAlreadyLinked = errors.New("leads: lead already linked to a call")
)

// Reconciler decides, per inbound call, whether the call merges into an
// existing master lead or originates a new one. It exclusively owns that
// decision; nothing else writes master leads.
type Reconciler struct {
	leads Repository
	calls calls.Repository
	audit *audit.Service

	newID func() string
	clock func() time.Time
}

func NewReconciler(leadRepo Repository, callRepo calls.Repository, auditSvc *audit.Service) *Reconciler {
	return &Reconciler{
		leads: leadRepo,
		calls: callRepo,
		audit: auditSvc,
		newID: uuid.NewString,
		clock: time.Now,
	}
}

// ReconcileResult aggregates one reconciliation pass.
type ReconcileResult struct {
	Created int `json:"created"`
	Matched int `json:"matched"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// Reconcile processes every inbound call persisted in [from, to). Calls are
// handled independently: one call's failure is counted and logged, never
// fatal for the pass. Re-running over the same window is a no-op (every call
// is already linked and skips).
func (r *Reconciler) Reconcile(ctx context.Context, from, to time.Time) (ReconcileResult, error) {
	log := logger.From(ctx)

	inbound, err := r.calls.ListInbound(ctx, from, to)
	if err != nil {
		return ReconcileResult{}, err
	}

	var res ReconcileResult
	for _, call := range inbound {
		outcome, err := r.reconcileCall(ctx, call)
		if err != nil {
			log.Error("call reconciliation failed", "external_call_id", call.ExternalCallID, "err", err)
			res.Errors++
			continue
		}
		switch outcome {
		case outcomeSkipped:
			res.Skipped++
		case outcomeMatched:
			res.Matched++
		case outcomeCreated:
			res.Created++
		}
	}
	return res, nil
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeMatched
	outcomeCreated
)

func (r *Reconciler) reconcileCall(ctx context.Context, call calls.CallRecord) (outcome, error) {
	// Idempotence guard: a call already linked to a lead is never
	// reprocessed, so overlapping or repeated passes converge.
	linked, err := r.leads.ExistsByCallID(ctx, call.ExternalCallID)
	if err != nil {
		return 0, err
	}
	if linked {
		return outcomeSkipped, nil
	}

	normalized := calls.NormalizePhone(call.FromNumber)
	if normalized != "" {
		matched, err := r.tryMatch(ctx, call, normalized)
		if err != nil {
			return 0, err
		}
		if matched {
			return outcomeMatched, nil
		}
	}
	// No phone to match on, or no candidate in the window: new lead.
	if err := r.createLead(ctx, call, normalized); err != nil {
		return 0, err
	}
	return outcomeCreated, nil
}

// tryMatch links the call onto the earliest unlinked lead sharing the
// normalized phone within ±MatchWindow of the call's receipt time.
func (r *Reconciler) tryMatch(ctx context.Context, call calls.CallRecord, normalized string) (bool, error) {
	candidates, err := r.leads.FindCandidates(ctx, normalized, call.ReceivedAt, MatchWindow)
	if err != nil {
		return false, err
	}
	link := CallLink{
		ExternalCallID: call.ExternalCallID,
		JobID:          call.JobID,
		CustomerID:     call.CustomerID,
		ForceBooked:    call.BookingID != "",
	}

	// Earliest-created candidate wins. On a lost race with a concurrent pass
	// (candidate linked between read and write) fall through to the next
	// candidate; with none left the call becomes a new lead.
	var lead MasterLead
	linkedOne := false
	for _, cand := range candidates {
		if err := r.leads.LinkCall(ctx, cand.ID, link); err != nil {
			if errors.Is(err, ErrAlreadyLinked) {
				continue
			}
			return false, err
		}
		lead = cand
		linkedOne = true
		break
	}
	if !linkedOne {
		return false, nil
	}

	if r.audit != nil {
		err := r.audit.RecordMatch(ctx, audit.MatchEvent{
			LeadID:     lead.ID,
			CallID:     call.ExternalCallID,
			MatchType:  audit.MatchTypePhoneTime,
			Confidence: PhoneTimeConfidence,
			MatchedAt:  r.clock().UTC(),
		})
		if err != nil {
			// Best-effort trail; the match itself stands.
			logger.From(ctx).Error("match audit append failed", "lead_id", lead.ID, "err", err)
		}
	}
	return true, nil
}

func (r *Reconciler) createLead(ctx context.Context, call calls.CallRecord, normalized string) error {
	status := StatusNew
	booked := false
	if call.BookingID != "" {
		status = StatusBooked
		booked = true
	}
	qualified := call.DurationSeconds != nil && *call.DurationSeconds >= QualifiedCallSeconds

	lead := MasterLead{
		ID:                   r.newID(),
		Phone:                call.FromNumber,
		NormalizedPhone:      normalized,
		LeadType:             LeadTypeCall,
		Trade:                calls.ClassifyTrade(call.CampaignName),
		SourceType:           SourceTypeCall,
		SourceConfidence:     DirectConfidence,
		Status:               status,
		Qualified:            qualified,
		Booked:               booked,
		ExternalCallID:       call.ExternalCallID,
		JobID:                call.JobID,
		CustomerID:           call.CustomerID,
		BookingID:            call.BookingID,
		ReconciliationStatus: ReconciliationNew,
		Duplicate:            false,
		CreatedAt:            call.ReceivedAt,
	}
	return r.leads.Create(ctx, lead)
}
