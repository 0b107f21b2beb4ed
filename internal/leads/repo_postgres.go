package leads

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresRepo persists master leads in the master_leads table.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) ExistsByCallID(ctx context.Context, externalCallID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM master_leads WHERE external_call_id = $1)`,
		externalCallID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("leads: exists by call id: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepo) FindCandidates(ctx context.Context, normalizedPhone string, center time.Time, window time.Duration) ([]MasterLead, error) {
	// Both boundaries inclusive: a lead created exactly `window` away still
	// matches.
	from := center.Add(-window)
	to := center.Add(window)

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, phone, normalized_phone, lead_type, trade, source_type,
			source_confidence, status, qualified, booked, completed,
			COALESCE(external_call_id, ''), job_id, customer_id, booking_id,
			reconciliation_status, duplicate, created_at
		FROM master_leads
		WHERE normalized_phone = $1
		  AND (external_call_id IS NULL OR external_call_id = '')
		  AND created_at >= $2 AND created_at <= $3
		ORDER BY created_at ASC`,
		normalizedPhone, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("leads: find candidates: %w", err)
	}
	defer rows.Close()

	var out []MasterLead
	for rows.Next() {
		var l MasterLead
		if err := rows.Scan(
			&l.ID, &l.Phone, &l.NormalizedPhone, &l.LeadType, &l.Trade, &l.SourceType,
			&l.SourceConfidence, &l.Status, &l.Qualified, &l.Booked, &l.Completed,
			&l.ExternalCallID, &l.JobID, &l.CustomerID, &l.BookingID,
			&l.ReconciliationStatus, &l.Duplicate, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("leads: scan candidate: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Create(ctx context.Context, lead MasterLead) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO master_leads (
			id, phone, normalized_phone, lead_type, trade, source_type,
			source_confidence, status, qualified, booked, completed,
			external_call_id, job_id, customer_id, booking_id,
			reconciliation_status, duplicate, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NULLIF($12,''),$13,$14,$15,$16,$17,$18)`,
		lead.ID, lead.Phone, lead.NormalizedPhone, lead.LeadType, lead.Trade, lead.SourceType,
		lead.SourceConfidence, lead.Status, lead.Qualified, lead.Booked, lead.Completed,
		lead.ExternalCallID, lead.JobID, lead.CustomerID, lead.BookingID,
		lead.ReconciliationStatus, lead.Duplicate, lead.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("leads: create: %w", err)
	}
	return nil
}

func (r *PostgresRepo) LinkCall(ctx context.Context, leadID string, link CallLink) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE master_leads SET
			external_call_id = $2,
			job_id = CASE WHEN $3 <> '' THEN $3 ELSE job_id END,
			customer_id = CASE WHEN $4 <> '' THEN $4 ELSE customer_id END,
			booked = booked OR $5,
			status = CASE WHEN $5 THEN 'booked' ELSE status END,
			reconciliation_status = 'matched'
		WHERE id = $1
		  AND (external_call_id IS NULL OR external_call_id = '')`,
		leadID, link.ExternalCallID, link.JobID, link.CustomerID, link.ForceBooked,
	)
	if err != nil {
		return fmt.Errorf("leads: link call: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("leads: link call rows affected: %w", err)
	}
	if n == 0 {
		return ErrAlreadyLinked
	}
	return nil
}
