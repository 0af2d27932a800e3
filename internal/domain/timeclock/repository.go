package timeclock

import "context"

// SessionRepository defines data access for clock sessions. The service layer
// owns the per-worker serialization; the store backs it with a partial unique
// index on open sessions so the invariant also holds across processes.
type SessionRepository interface {
	// Create inserts a new open session
	Create(ctx context.Context, session ClockSession) (ClockSession, error)

	// Close writes the clock-out fields and flips status to closed
	Close(ctx context.Context, session ClockSession) error

	// GetByID retrieves a session by ID
	GetByID(ctx context.Context, id string) (ClockSession, error)

	// GetOpenSession retrieves the worker's open session, if any.
	// Returns ErrNoActiveSession when none exists.
	GetOpenSession(ctx context.Context, workerID string) (ClockSession, error)

	// GetByIdempotencyKey finds the session a previous attempt with this key
	// produced, whether the key was used for clock-in or clock-out.
	// Returns ErrSessionNotFound when the key is unused.
	GetByIdempotencyKey(ctx context.Context, workerID, key string) (ClockSession, error)

	// ListByWorker retrieves a worker's sessions with filters and pagination
	ListByWorker(ctx context.Context, workerID string, filter SessionFilter) ([]ClockSession, int64, error)

	// ListClosedWithoutEntry retrieves closed sessions that have no timesheet
	// entry yet, oldest first. Used by the approval replay job.
	ListClosedWithoutEntry(ctx context.Context, limit int) ([]ClockSession, error)
}

// TimeclockService defines business logic for the clock-in/clock-out lifecycle
type TimeclockService interface {
	// ClockIn opens a session after verifying the worker is inside the site
	// geofence
	ClockIn(ctx context.Context, req ClockInRequest) (SessionResponse, error)

	// ClockOut closes the worker's open session. An off-site clock-out still
	// closes the session; the unverified flag routes the entry to review.
	ClockOut(ctx context.Context, req ClockOutRequest) (SessionResponse, error)

	// GetOpenSession retrieves the authenticated worker's open session
	GetOpenSession(ctx context.Context) (SessionResponse, error)

	// ListMySessions retrieves the authenticated worker's sessions
	ListMySessions(ctx context.Context, filter SessionFilter) (ListSessionsResponse, error)
}
