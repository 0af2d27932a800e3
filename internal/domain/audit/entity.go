package audit

import "time"

// Action is the attempted clock operation an audit record describes.
type Action string

const (
	ActionClockIn  Action = "clock_in"
	ActionClockOut Action = "clock_out"
)

// AuditRecord captures one clock attempt, accepted or rejected, with the
// evaluation inputs and outcome. Append-only: corrections are made by
// appending a new record referencing the old one, never by mutating history.
type AuditRecord struct {
	ID         string
	OccurredAt time.Time
	WorkerID   string
	SiteID     string
	Action     Action

	// Position sample as submitted
	Latitude       float64
	Longitude      float64
	AccuracyMeters float64
	CapturedAt     time.Time

	DistanceMeters float64
	Verified       bool
	// Outcome is the evaluator reason code, or the precondition failure
	// (already_clocked_in, no_active_session) for attempts that never reached
	// the evaluator.
	Outcome string
	// SessionID is set when the attempt touched a session; nil for rejections
	// that created none.
	SessionID *string
	// ResultState describes the session/entry state the attempt produced, or
	// the rejection reason text.
	ResultState string
	// CorrectsID references an earlier record this one corrects.
	CorrectsID *string
}
