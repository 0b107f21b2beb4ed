package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresRepo appends match events to the reconciliation_log table.
// INSERT-only: no update or delete statements exist here.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e MatchEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reconciliation_log (id, lead_id, call_id, match_type, confidence, matched_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.LeadID, e.CallID, string(e.MatchType), e.Confidence, e.MatchedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: append match event: %w", err)
	}
	return nil
}
