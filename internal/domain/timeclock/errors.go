package timeclock

import (
	"errors"
	"fmt"
)

// Timeclock domain errors
var (
	// Clock-in errors
	ErrAlreadyClockedIn  = errors.New("you already have an open clock session")
	ErrOutOfRange        = errors.New("you are outside the site geofence")
	ErrLowAccuracy       = errors.New("location reading is not accurate enough to confirm presence")
	ErrInvalidCoordinate = errors.New("location reading is not a valid coordinate")

	// Clock-out errors
	ErrNoActiveSession = errors.New("you have no open clock session")

	// General errors
	ErrDuplicateRequest = errors.New("duplicate clock request")
	ErrSessionNotFound  = errors.New("clock session not found")
)

// AlreadyClockedInError names the existing open session so the caller can
// resolve it.
type AlreadyClockedInError struct {
	SessionID string
}

func (e *AlreadyClockedInError) Error() string {
	return fmt.Sprintf("you already have an open clock session (%s); clock out before clocking in again", e.SessionID)
}

func (e *AlreadyClockedInError) Unwrap() error { return ErrAlreadyClockedIn }

// OutOfRangeError carries the evaluated distance and the allowed radius; the
// user-facing message is built from the same numbers the audit trail records.
type OutOfRangeError struct {
	DistanceMeters float64
	RadiusMeters   float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("you are %.0f m away; must be within %.0f m of the site", e.DistanceMeters, e.RadiusMeters)
}

func (e *OutOfRangeError) Unwrap() error { return ErrOutOfRange }

// DuplicateRequestError reports a replayed idempotency key together with the
// session the original attempt produced.
type DuplicateRequestError struct {
	SessionID string
}

func (e *DuplicateRequestError) Error() string {
	return fmt.Sprintf("duplicate clock request: already processed as session %s", e.SessionID)
}

func (e *DuplicateRequestError) Unwrap() error { return ErrDuplicateRequest }
