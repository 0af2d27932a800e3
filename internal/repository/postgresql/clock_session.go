package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fieldclock/fieldclock-backend-go/internal/domain/timeclock"
	"github.com/fieldclock/fieldclock-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema note: clock_sessions carries a partial unique index
//   CREATE UNIQUE INDEX clock_sessions_one_open
//   ON clock_sessions (worker_id) WHERE status = 'open';
// so the single-open-session invariant holds even across processes that do not
// share the in-memory worker lock.
type sessionRepository struct {
	db *database.DB
}

func NewSessionRepository(db *database.DB) timeclock.SessionRepository {
	return &sessionRepository{db: db}
}

const sessionColumns = `
	id, worker_id, site_id, status,
	clock_in_at, clock_in_latitude, clock_in_longitude, clock_in_accuracy_m, clock_in_captured_at,
	clock_in_distance_m, clock_in_verified, clock_in_key,
	clock_out_at, clock_out_latitude, clock_out_longitude, clock_out_accuracy_m, clock_out_captured_at,
	clock_out_distance_m, clock_out_verified, clock_out_key,
	created_at, updated_at
`

func scanSession(row pgx.Row) (timeclock.ClockSession, error) {
	var s timeclock.ClockSession
	var outLat, outLon, outAcc *float64
	var outCaptured *time.Time

	err := row.Scan(
		&s.ID, &s.WorkerID, &s.SiteID, &s.Status,
		&s.ClockInAt, &s.ClockInSample.Latitude, &s.ClockInSample.Longitude, &s.ClockInSample.AccuracyMeters, &s.ClockInSample.CapturedAt,
		&s.ClockInDistanceMeters, &s.ClockInVerified, &s.ClockInKey,
		&s.ClockOutAt, &outLat, &outLon, &outAcc, &outCaptured,
		&s.ClockOutDistanceMeters, &s.ClockOutVerified, &s.ClockOutKey,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return timeclock.ClockSession{}, err
	}

	if outLat != nil && outLon != nil && outAcc != nil && outCaptured != nil {
		s.ClockOutSample = &timeclock.PositionSample{
			Latitude:       *outLat,
			Longitude:      *outLon,
			AccuracyMeters: *outAcc,
			CapturedAt:     *outCaptured,
		}
	}

	return s, nil
}

// Create implements timeclock.SessionRepository.
func (r *sessionRepository) Create(ctx context.Context, session timeclock.ClockSession) (timeclock.ClockSession, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO clock_sessions (
			id, worker_id, site_id, status,
			clock_in_at, clock_in_latitude, clock_in_longitude, clock_in_accuracy_m, clock_in_captured_at,
			clock_in_distance_m, clock_in_verified, clock_in_key
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		) RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		session.ID,
		session.WorkerID,
		session.SiteID,
		session.Status,
		session.ClockInAt,
		session.ClockInSample.Latitude,
		session.ClockInSample.Longitude,
		session.ClockInSample.AccuracyMeters,
		session.ClockInSample.CapturedAt,
		session.ClockInDistanceMeters,
		session.ClockInVerified,
		session.ClockInKey,
	).Scan(&session.CreatedAt, &session.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// The partial unique index on open sessions fired: another writer
			// got there first.
			if strings.Contains(pgErr.ConstraintName, "one_open") {
				return timeclock.ClockSession{}, timeclock.ErrAlreadyClockedIn
			}
			return timeclock.ClockSession{}, timeclock.ErrDuplicateRequest
		}
		return timeclock.ClockSession{}, fmt.Errorf("failed to create clock session: %w", err)
	}

	return session, nil
}

// Close implements timeclock.SessionRepository.
func (r *sessionRepository) Close(ctx context.Context, session timeclock.ClockSession) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE clock_sessions SET
			status = $2,
			clock_out_at = $3,
			clock_out_latitude = $4,
			clock_out_longitude = $5,
			clock_out_accuracy_m = $6,
			clock_out_captured_at = $7,
			clock_out_distance_m = $8,
			clock_out_verified = $9,
			clock_out_key = $10,
			updated_at = NOW()
		WHERE id = $1 AND status = 'open'
	`

	tag, err := q.Exec(ctx, query,
		session.ID,
		session.Status,
		session.ClockOutAt,
		session.ClockOutSample.Latitude,
		session.ClockOutSample.Longitude,
		session.ClockOutSample.AccuracyMeters,
		session.ClockOutSample.CapturedAt,
		session.ClockOutDistanceMeters,
		session.ClockOutVerified,
		session.ClockOutKey,
	)
	if err != nil {
		return fmt.Errorf("failed to close clock session: %w", err)
	}

	// Closed sessions are immutable; a zero row count means the session was
	// already closed or never existed.
	if tag.RowsAffected() == 0 {
		return timeclock.ErrSessionNotFound
	}

	return nil
}

// GetByID implements timeclock.SessionRepository.
func (r *sessionRepository) GetByID(ctx context.Context, id string) (timeclock.ClockSession, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + sessionColumns + ` FROM clock_sessions WHERE id = $1`

	session, err := scanSession(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timeclock.ClockSession{}, timeclock.ErrSessionNotFound
		}
		return timeclock.ClockSession{}, fmt.Errorf("failed to get clock session by ID: %w", err)
	}

	return session, nil
}

// GetOpenSession implements timeclock.SessionRepository.
func (r *sessionRepository) GetOpenSession(ctx context.Context, workerID string) (timeclock.ClockSession, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + sessionColumns + `
		FROM clock_sessions
		WHERE worker_id = $1 AND status = 'open'
		ORDER BY clock_in_at DESC
		LIMIT 1
	`

	session, err := scanSession(q.QueryRow(ctx, query, workerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timeclock.ClockSession{}, timeclock.ErrNoActiveSession
		}
		return timeclock.ClockSession{}, fmt.Errorf("failed to get open session: %w", err)
	}

	return session, nil
}

// GetByIdempotencyKey implements timeclock.SessionRepository.
func (r *sessionRepository) GetByIdempotencyKey(ctx context.Context, workerID, key string) (timeclock.ClockSession, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + sessionColumns + `
		FROM clock_sessions
		WHERE worker_id = $1 AND (clock_in_key = $2 OR clock_out_key = $2)
		LIMIT 1
	`

	session, err := scanSession(q.QueryRow(ctx, query, workerID, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timeclock.ClockSession{}, timeclock.ErrSessionNotFound
		}
		return timeclock.ClockSession{}, fmt.Errorf("failed to get session by idempotency key: %w", err)
	}

	return session, nil
}

// ListByWorker implements timeclock.SessionRepository.
func (r *sessionRepository) ListByWorker(ctx context.Context, workerID string, filter timeclock.SessionFilter) ([]timeclock.ClockSession, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := []string{"worker_id = $1"}
	args := []interface{}{workerID}

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
		where = append(where, fmt.Sprintf("clock_in_at >= $%d::date", len(args)))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		where = append(where, fmt.Sprintf("clock_in_at < ($%d::date + interval '1 day')", len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := `SELECT COUNT(*) FROM clock_sessions WHERE ` + whereClause
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
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
		SELECT %s FROM clock_sessions
		WHERE %s
		ORDER BY clock_in_at DESC
		LIMIT $%d OFFSET $%d
	`, sessionColumns, whereClause, len(args)-1, len(args))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []timeclock.ClockSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	return sessions, total, rows.Err()
}

// ListClosedWithoutEntry implements timeclock.SessionRepository.
func (r *sessionRepository) ListClosedWithoutEntry(ctx context.Context, limit int) ([]timeclock.ClockSession, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + sessionColumns + `
		FROM clock_sessions s
		WHERE s.status = 'closed'
		  AND NOT EXISTS (
			SELECT 1 FROM timesheet_entries e WHERE e.session_id = s.id
		  )
		ORDER BY s.clock_out_at ASC
		LIMIT $1
	`

	rows, err := q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list closed sessions without entry: %w", err)
	}
	defer rows.Close()

	var sessions []timeclock.ClockSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}
