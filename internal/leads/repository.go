package leads

import (
	"context"
	"time"
)

// Repository is the persistence contract for master leads.
//
// FindCandidates must return only leads with no call link yet, sharing the
// normalized phone, created within [center-window, center+window] (both ends
// inclusive), ordered by created_at ascending. The ordering is the
// deterministic tie-break: when several leads match, the earliest-created
// one wins.
type Repository interface {
	ExistsByCallID(ctx context.Context, externalCallID string) (bool, error)
	FindCandidates(ctx context.Context, normalizedPhone string, center time.Time, window time.Duration) ([]MasterLead, error)
	Create(ctx context.Context, lead MasterLead) error
	LinkCall(ctx context.Context, leadID string, link CallLink) error
}
