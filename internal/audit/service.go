package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for the reconciliation audit trail.
//
// It MUST be append-only. No Update/Delete methods are provided.
type Repository interface {
	Append(ctx context.Context, e MatchEvent) error
}

// Service records reconciliation match decisions.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid match event")

// RecordMatch validates and appends one match event. ID and MatchedAt are
// filled when absent.
func (s *Service) RecordMatch(ctx context.Context, e MatchEvent) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.LeadID == "" || e.CallID == "" {
		return ErrInvalidEvent
	}
	if e.MatchType == "" {
		return ErrInvalidEvent
	}
	if e.Confidence < 0 || e.Confidence > 100 {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.MatchedAt.IsZero() {
		e.MatchedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}
