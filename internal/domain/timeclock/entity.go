package timeclock

import "time"

// SessionStatus is a closed set; a session is never anything but open or
// closed, and closed is terminal.
type SessionStatus string

const (
	StatusOpen   SessionStatus = "open"
	StatusClosed SessionStatus = "closed"
)

// PositionSample is a single GPS reading supplied by the client device for one
// clock attempt. Samples are never persisted on their own, only embedded in
// the session and audit rows that consumed them.
type PositionSample struct {
	Latitude       float64
	Longitude      float64
	AccuracyMeters float64
	CapturedAt     time.Time
}

// ClockSession spans one worker's clock-in to clock-out at a single site.
// Invariant: a worker has at most one open session at any time. Immutable once
// closed.
type ClockSession struct {
	ID       string
	WorkerID string
	SiteID   string
	Status   SessionStatus

	ClockInAt             time.Time
	ClockInSample         PositionSample
	ClockInDistanceMeters float64
	ClockInVerified       bool
	ClockInKey            string

	ClockOutAt             *time.Time
	ClockOutSample         *PositionSample
	ClockOutDistanceMeters *float64
	ClockOutVerified       *bool
	ClockOutKey            *string

	CreatedAt time.Time
	UpdatedAt time.Time

	// DTO
	SiteName *string
}

// Closed reports whether the session has reached its terminal state.
func (s ClockSession) Closed() bool {
	return s.Status == StatusClosed
}

// WorkedDuration is the authoritative worked time, computed from the durable
// clock-in/clock-out timestamps only. Zero until the session closes. Any live
// elapsed-time display on a client is a projection and is never fed back here.
func (s ClockSession) WorkedDuration() time.Duration {
	if s.ClockOutAt == nil {
		return 0
	}
	return s.ClockOutAt.Sub(s.ClockInAt)
}
