package calls

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// PostgresRepo persists call records in the call_records table.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const callColumns = `external_call_id, direction, call_type, duration_seconds,
	from_number, to_number, tracking_number, campaign_id, campaign_name,
	agent_id, agent_name, recording_url, business_unit_id, business_unit_name,
	received_at, customer_id, job_id, booking_id, synced_at, updated_at`

// UpsertBatch writes one multi-row INSERT ... ON CONFLICT statement for the
// whole batch. Conflicts on external_call_id overwrite the existing row.
func (r *PostgresRepo) UpsertBatch(ctx context.Context, records []CallRecord) error {
	if len(records) == 0 {
		return nil
	}

	const fieldCount = 20
	var sb strings.Builder
	sb.WriteString("INSERT INTO call_records (")
	sb.WriteString(callColumns)
	sb.WriteString(") VALUES ")

	args := make([]any, 0, len(records)*fieldCount)
	for i, rec := range records {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * fieldCount
		sb.WriteString("(")
		for j := 1; j <= fieldCount; j++ {
			if j > 1 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", base+j)
		}
		sb.WriteString(")")
		args = append(args,
			rec.ExternalCallID, string(rec.Direction), rec.CallType, rec.DurationSeconds,
			rec.FromNumber, rec.ToNumber, rec.TrackingNumber, rec.CampaignID, rec.CampaignName,
			rec.AgentID, rec.AgentName, rec.RecordingURL, rec.BusinessUnitID, rec.BusinessUnitName,
			rec.ReceivedAt, rec.CustomerID, rec.JobID, rec.BookingID, rec.SyncedAt, rec.UpdatedAt,
		)
	}

	sb.WriteString(` ON CONFLICT (external_call_id) DO UPDATE SET
		direction = EXCLUDED.direction,
		call_type = EXCLUDED.call_type,
		duration_seconds = EXCLUDED.duration_seconds,
		from_number = EXCLUDED.from_number,
		to_number = EXCLUDED.to_number,
		tracking_number = EXCLUDED.tracking_number,
		campaign_id = EXCLUDED.campaign_id,
		campaign_name = EXCLUDED.campaign_name,
		agent_id = EXCLUDED.agent_id,
		agent_name = EXCLUDED.agent_name,
		recording_url = EXCLUDED.recording_url,
		business_unit_id = EXCLUDED.business_unit_id,
		business_unit_name = EXCLUDED.business_unit_name,
		received_at = EXCLUDED.received_at,
		customer_id = EXCLUDED.customer_id,
		job_id = EXCLUDED.job_id,
		booking_id = EXCLUDED.booking_id,
		synced_at = EXCLUDED.synced_at,
		updated_at = EXCLUDED.updated_at`)

	if _, err := r.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("calls: upsert batch of %d: %w", len(records), err)
	}
	return nil
}

func (r *PostgresRepo) ListInbound(ctx context.Context, from, to time.Time) ([]CallRecord, error) {
	query := `SELECT ` + callColumns + `
		FROM call_records
		WHERE direction = $1 AND received_at >= $2 AND received_at < $3
		ORDER BY received_at ASC`

	rows, err := r.db.QueryContext(ctx, query, string(DirectionInbound), from, to)
	if err != nil {
		return nil, fmt.Errorf("calls: list inbound: %w", err)
	}
	defer rows.Close()

	var out []CallRecord
	for rows.Next() {
		var rec CallRecord
		var direction string
		if err := rows.Scan(
			&rec.ExternalCallID, &direction, &rec.CallType, &rec.DurationSeconds,
			&rec.FromNumber, &rec.ToNumber, &rec.TrackingNumber, &rec.CampaignID, &rec.CampaignName,
			&rec.AgentID, &rec.AgentName, &rec.RecordingURL, &rec.BusinessUnitID, &rec.BusinessUnitName,
			&rec.ReceivedAt, &rec.CustomerID, &rec.JobID, &rec.BookingID, &rec.SyncedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("calls: scan inbound row: %w", err)
		}
		rec.Direction = Direction(direction)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	var earliest, latest sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(received_at), MAX(received_at) FROM call_records`,
	).Scan(&snap.TotalCalls, &earliest, &latest)
	if err != nil {
		return Snapshot{}, fmt.Errorf("calls: snapshot: %w", err)
	}
	if earliest.Valid {
		t := earliest.Time.UTC()
		snap.EarliestReceivedAt = &t
	}
	if latest.Valid {
		t := latest.Time.UTC()
		snap.LatestReceivedAt = &t
	}
	return snap, nil
}
