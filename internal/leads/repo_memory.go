package leads

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory lead repository for tests and early development.
type MemoryRepo struct {
	mu    sync.Mutex
	leads map[string]MasterLead
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{leads: map[string]MasterLead{}}
}

func (r *MemoryRepo) ExistsByCallID(ctx context.Context, externalCallID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.leads {
		if l.ExternalCallID == externalCallID && externalCallID != "" {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepo) FindCandidates(ctx context.Context, normalizedPhone string, center time.Time, window time.Duration) ([]MasterLead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	from := center.Add(-window)
	to := center.Add(window)
	var out []MasterLead
	for _, l := range r.leads {
		if l.NormalizedPhone != normalizedPhone || l.ExternalCallID != "" {
			continue
		}
		// Inclusive at both boundaries.
		if l.CreatedAt.Before(from) || l.CreatedAt.After(to) {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) Create(ctx context.Context, lead MasterLead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leads[lead.ID] = lead
	return nil
}

func (r *MemoryRepo) LinkCall(ctx context.Context, leadID string, link CallLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[leadID]
	if !ok {
		return ErrLeadNotFound
	}
	if l.ExternalCallID != "" {
		return ErrAlreadyLinked
	}
	l.ExternalCallID = link.ExternalCallID
	if link.JobID != "" {
		l.JobID = link.JobID
	}
	if link.CustomerID != "" {
		l.CustomerID = link.CustomerID
	}
	if link.ForceBooked {
		l.Booked = true
		l.Status = StatusBooked
	}
	l.ReconciliationStatus = ReconciliationMatched
	r.leads[leadID] = l
	return nil
}

// Get returns a lead by id (test helper).
func (r *MemoryRepo) Get(id string) (MasterLead, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	return l, ok
}

// All returns every stored lead (test helper).
func (r *MemoryRepo) All() []MasterLead {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]MasterLead, 0, len(r.leads))
	for _, l := range r.leads {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
