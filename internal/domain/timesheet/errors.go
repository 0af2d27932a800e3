package timesheet

import "errors"

// Timesheet domain errors
var (
	ErrEntryNotFound         = errors.New("timesheet entry not found")
	ErrEntryAlreadyProcessed = errors.New("timesheet entry has already been approved or rejected")
	ErrSessionStillOpen      = errors.New("clock session is still open")
)
