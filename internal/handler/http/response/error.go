package response

import (
	"errors"
	"net/http"

	"github.com/fieldclock/fieldclock-backend-go/internal/domain/site"
	"github.com/fieldclock/fieldclock-backend-go/internal/domain/timeclock"
	"github.com/fieldclock/fieldclock-backend-go/internal/domain/timesheet"
	"github.com/fieldclock/fieldclock-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses. Business-rule rejections
// keep their own message so the client sees the same reason the audit trail
// recorded; anything unmapped is a storage/system fault and becomes a 500.
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Timeclock domain errors
	case errors.Is(err, timeclock.ErrAlreadyClockedIn):
		Conflict(w, err.Error())
	case errors.Is(err, timeclock.ErrDuplicateRequest):
		Conflict(w, err.Error())
	case errors.Is(err, timeclock.ErrNoActiveSession):
		NotFound(w, err.Error())
	case errors.Is(err, timeclock.ErrSessionNotFound):
		NotFound(w, "Clock session not found")
	case errors.Is(err, timeclock.ErrOutOfRange),
		errors.Is(err, timeclock.ErrLowAccuracy),
		errors.Is(err, timeclock.ErrInvalidCoordinate):
		UnprocessableEntity(w, err.Error())

	// Site domain errors
	case errors.Is(err, site.ErrSiteNotFound):
		NotFound(w, "Job site not found")
	case errors.Is(err, site.ErrSiteInactive):
		UnprocessableEntity(w, "Job site is inactive")

	// Timesheet domain errors
	case errors.Is(err, timesheet.ErrEntryNotFound):
		NotFound(w, "Timesheet entry not found")
	case errors.Is(err, timesheet.ErrEntryAlreadyProcessed):
		Conflict(w, "Timesheet entry already processed")
	case errors.Is(err, timesheet.ErrSessionStillOpen):
		Conflict(w, "Clock session is still open")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
