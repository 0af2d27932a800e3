package timesheet

import (
	"context"

	"github.com/fieldclock/fieldclock-backend-go/internal/domain/timeclock"
)

// EntryRepository defines data access for timesheet entries.
type EntryRepository interface {
	// Create inserts a new entry
	Create(ctx context.Context, entry TimesheetEntry) (TimesheetEntry, error)

	// GetByID retrieves an entry by ID
	GetByID(ctx context.Context, id string) (TimesheetEntry, error)

	// GetBySessionID retrieves the entry produced for a session.
	// Returns ErrEntryNotFound when the session has no entry yet.
	GetBySessionID(ctx context.Context, sessionID string) (TimesheetEntry, error)

	// UpdateReview writes a manual reviewer decision
	UpdateReview(ctx context.Context, entry TimesheetEntry) error

	// List retrieves entries with filters and pagination
	List(ctx context.Context, filter EntryFilter) ([]TimesheetEntry, int64, error)
}

// ApprovalService is the engine that converts closed sessions into timesheet
// entries and the manual review workflow on top of it.
type ApprovalService interface {
	// Approve renders the auto-approval decision for a closed session.
	// Idempotent: if the session already has an entry, that entry is returned
	// unchanged.
	Approve(ctx context.Context, session timeclock.ClockSession) (TimesheetEntry, error)

	// ApproveSession looks up a session by ID and runs Approve on it
	ApproveSession(ctx context.Context, sessionID string) (EntryResponse, error)

	// ReviewApprove approves a pending entry on behalf of the reviewer in ctx
	ReviewApprove(ctx context.Context, req ReviewRequest) (EntryResponse, error)

	// ReviewReject rejects a pending entry with a reason
	ReviewReject(ctx context.Context, req ReviewRequest) (EntryResponse, error)

	// GetEntry retrieves a single entry by ID
	GetEntry(ctx context.Context, id string) (EntryResponse, error)

	// ListEntries retrieves entries with filters (reviewer surface)
	ListEntries(ctx context.Context, filter EntryFilter) (ListEntriesResponse, error)
}
