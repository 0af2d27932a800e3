package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fieldclock/fieldclock-backend-go/internal/domain/timesheet"
	"github.com/fieldclock/fieldclock-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type entryRepository struct {
	db *database.DB
}

func NewEntryRepository(db *database.DB) timesheet.EntryRepository {
	return &entryRepository{db: db}
}

const entryColumns = `
	id, session_id, worker_id, site_id, worked_minutes,
	status, review_note, approved_at, approved_by, created_at, updated_at
`

func scanEntry(row pgx.Row) (timesheet.TimesheetEntry, error) {
	var e timesheet.TimesheetEntry
	err := row.Scan(
		&e.ID, &e.SessionID, &e.WorkerID, &e.SiteID, &e.WorkedMinutes,
		&e.Status, &e.ReviewNote, &e.ApprovedAt, &e.ApprovedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

// Create implements timesheet.EntryRepository.
func (r *entryRepository) Create(ctx context.Context, entry timesheet.TimesheetEntry) (timesheet.TimesheetEntry, error) {
	q := GetQuerier(ctx, r.db)

	// session_id is unique: one entry per session, ever.
	query := `
		INSERT INTO timesheet_entries (
			id, session_id, worker_id, site_id, worked_minutes,
			status, review_note, approved_at, approved_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		) RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		entry.ID,
		entry.SessionID,
		entry.WorkerID,
		entry.SiteID,
		entry.WorkedMinutes,
		entry.Status,
		entry.ReviewNote,
		entry.ApprovedAt,
		entry.ApprovedBy,
	).Scan(&entry.CreatedAt, &entry.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			existing, lookupErr := r.GetBySessionID(ctx, entry.SessionID)
			if lookupErr == nil {
				return existing, nil
			}
		}
		return timesheet.TimesheetEntry{}, fmt.Errorf("failed to create timesheet entry: %w", err)
	}

	return entry, nil
}

// GetByID implements timesheet.EntryRepository.
func (r *entryRepository) GetByID(ctx context.Context, id string) (timesheet.TimesheetEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + entryColumns + ` FROM timesheet_entries WHERE id = $1`

	entry, err := scanEntry(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timesheet.TimesheetEntry{}, timesheet.ErrEntryNotFound
		}
		return timesheet.TimesheetEntry{}, fmt.Errorf("failed to get timesheet entry by ID: %w", err)
	}

	return entry, nil
}

// GetBySessionID implements timesheet.EntryRepository.
func (r *entryRepository) GetBySessionID(ctx context.Context, sessionID string) (timesheet.TimesheetEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + entryColumns + ` FROM timesheet_entries WHERE session_id = $1`

	entry, err := scanEntry(q.QueryRow(ctx, query, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timesheet.TimesheetEntry{}, timesheet.ErrEntryNotFound
		}
		return timesheet.TimesheetEntry{}, fmt.Errorf("failed to get timesheet entry by session: %w", err)
	}

	return entry, nil
}

// UpdateReview implements timesheet.EntryRepository.
func (r *entryRepository) UpdateReview(ctx context.Context, entry timesheet.TimesheetEntry) error {
	q := GetQuerier(ctx, r.db)

	// Only pending entries accept a reviewer decision; processed entries are
	// final.
	query := `
		UPDATE timesheet_entries SET
			status = $2,
			review_note = $3,
			approved_at = $4,
			approved_by = $5,
			updated_at = NOW()
		WHERE id = $1 AND status = 'pending_review'
	`

	tag, err := q.Exec(ctx, query,
		entry.ID,
		entry.Status,
		entry.ReviewNote,
		entry.ApprovedAt,
		entry.ApprovedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update timesheet entry review: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return timesheet.ErrEntryAlreadyProcessed
	}

	return nil
}

// List implements timesheet.EntryRepository.
func (r *entryRepository) List(ctx context.Context, filter timesheet.EntryFilter) ([]timesheet.TimesheetEntry, int64, error) {
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
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		where = append(where, fmt.Sprintf("created_at >= $%d::date", len(args)))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		where = append(where, fmt.Sprintf("created_at < ($%d::date + interval '1 day')", len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := `SELECT COUNT(*) FROM timesheet_entries WHERE ` + whereClause
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count timesheet entries: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	query := fmt.Sprintf(`
		SELECT %s FROM timesheet_entries
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, entryColumns, whereClause, len(args)-1, len(args))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list timesheet entries: %w", err)
	}
	defer rows.Close()

	var entries []timesheet.TimesheetEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan timesheet entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, total, rows.Err()
}
