package timesheet

import "time"

// ApprovalStatus is a closed set. Rejected is only ever set by a manual
// reviewer decision; the engine itself produces auto_approved or
// pending_review.
type ApprovalStatus string

const (
	StatusAutoApproved  ApprovalStatus = "auto_approved"
	StatusPendingReview ApprovalStatus = "pending_review"
	StatusRejected      ApprovalStatus = "rejected"
)

// TimesheetEntry is produced exactly once per closed clock session. Once
// auto-approved it is final unless a reviewer explicitly reopens it.
type TimesheetEntry struct {
	ID            string
	SessionID     string
	WorkerID      string
	SiteID        string
	WorkedMinutes int
	Status        ApprovalStatus
	// ReviewNote holds the engine's routing reason for pending entries, or the
	// reviewer's note/reason once manually processed.
	ReviewNote *string
	ApprovedAt *time.Time
	ApprovedBy *string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// DTO
	WorkerName *string
	SiteName   *string
}

// Processed reports whether the entry has left pending_review.
func (e TimesheetEntry) Processed() bool {
	return e.Status != StatusPendingReview
}
