package postgresql

import (
	"context"
	"fmt"
	"strings"

	"github.com/fieldclock/fieldclock-backend-go/internal/domain/audit"
	"github.com/fieldclock/fieldclock-backend-go/internal/pkg/database"
)

// trailRepository is append-only by construction: it exposes no UPDATE or
// DELETE statement against audit_records.
type trailRepository struct {
	db *database.DB
}

func NewTrailRepository(db *database.DB) audit.TrailRepository {
	return &trailRepository{db: db}
}

// Append implements audit.TrailRepository.
func (r *trailRepository) Append(ctx context.Context, record audit.AuditRecord) (audit.AuditRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO audit_records (
			id, occurred_at, worker_id, site_id, action,
			latitude, longitude, accuracy_m, captured_at,
			distance_m, verified, outcome, session_id, result_state, corrects_id
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)
	`

	_, err := q.Exec(ctx, query,
		record.ID,
		record.OccurredAt,
		record.WorkerID,
		record.SiteID,
		record.Action,
		record.Latitude,
		record.Longitude,
		record.AccuracyMeters,
		record.CapturedAt,
		record.DistanceMeters,
		record.Verified,
		record.Outcome,
		record.SessionID,
		record.ResultState,
		record.CorrectsID,
	)
	if err != nil {
		return audit.AuditRecord{}, fmt.Errorf("failed to append audit record: %w", err)
	}

	return record, nil
}

// Query implements audit.TrailRepository.
func (r *trailRepository) Query(ctx context.Context, filter audit.Filter) ([]audit.AuditRecord, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := []string{"1=1"}
	var args []interface{}

	if filter.WorkerID != nil {
		args = append(args, *filter.WorkerID)
		where = append(where, fmt.Sprintf("worker_id = $%d", len(args)))
	}
	if filter.SiteID != nil {
		args = append(args, *filter.SiteID)
		where = append(where, fmt.Sprintf("site_id = $%d", len(args)))
	}
	if filter.Action != nil {
		args = append(args, *filter.Action)
		where = append(where, fmt.Sprintf("action = $%d", len(args)))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		where = append(where, fmt.Sprintf("occurred_at >= $%d::date", len(args)))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		where = append(where, fmt.Sprintf("occurred_at < ($%d::date + interval '1 day')", len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := `SELECT COUNT(*) FROM audit_records WHERE ` + whereClause
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit records: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	query := fmt.Sprintf(`
		SELECT id, occurred_at, worker_id, site_id, action,
			   latitude, longitude, accuracy_m, captured_at,
			   distance_m, verified, outcome, session_id, result_state, corrects_id
		FROM audit_records
		WHERE %s
		ORDER BY occurred_at ASC
		LIMIT $%d OFFSET $%d
	`, whereClause, len(args)-1, len(args))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	var records []audit.AuditRecord
	for rows.Next() {
		var rec audit.AuditRecord
		err := rows.Scan(
			&rec.ID, &rec.OccurredAt, &rec.WorkerID, &rec.SiteID, &rec.Action,
			&rec.Latitude, &rec.Longitude, &rec.AccuracyMeters, &rec.CapturedAt,
			&rec.DistanceMeters, &rec.Verified, &rec.Outcome, &rec.SessionID, &rec.ResultState, &rec.CorrectsID,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan audit record: %w", err)
		}
		records = append(records, rec)
	}

	return records, total, rows.Err()
}
