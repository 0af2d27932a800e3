package audit

import (
	"time"

	"github.com/fieldclock/fieldclock-backend-go/internal/pkg/validator"
)

type Filter struct {
	WorkerID  *string
	SiteID    *string
	Action    *string
	StartDate *string
	EndDate   *string
	Page      int
	Limit     int
}

func (f *Filter) Validate() error {
	var errs validator.ValidationErrors

	if f.Action != nil && *f.Action != string(ActionClockIn) && *f.Action != string(ActionClockOut) {
		errs = append(errs, validator.ValidationError{
			Field:   "action",
			Message: "action must be clock_in or clock_out",
		})
	}

	if f.StartDate != nil {
		if _, ok := validator.IsValidDate(*f.StartDate); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.EndDate != nil {
		if _, ok := validator.IsValidDate(*f.EndDate); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type RecordResponse struct {
	ID             string  `json:"id"`
	OccurredAt     string  `json:"occurred_at"`
	WorkerID       string  `json:"worker_id"`
	SiteID         string  `json:"site_id"`
	Action         string  `json:"action"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	AccuracyMeters float64 `json:"accuracy_meters"`
	CapturedAt     string  `json:"captured_at"`
	DistanceMeters float64 `json:"distance_meters"`
	Verified       bool    `json:"verified"`
	Outcome        string  `json:"outcome"`
	SessionID      *string `json:"session_id,omitempty"`
	ResultState    string  `json:"result_state"`
	CorrectsID     *string `json:"corrects_id,omitempty"`
}

type ListRecordsResponse struct {
	TotalCount int64            `json:"total_count"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
	Records    []RecordResponse `json:"records"`
}

// ToResponse converts an AuditRecord entity to RecordResponse.
func ToResponse(r AuditRecord) RecordResponse {
	return RecordResponse{
		ID:             r.ID,
		OccurredAt:     r.OccurredAt.UTC().Format(time.RFC3339),
		WorkerID:       r.WorkerID,
		SiteID:         r.SiteID,
		Action:         string(r.Action),
		Latitude:       r.Latitude,
		Longitude:      r.Longitude,
		AccuracyMeters: r.AccuracyMeters,
		CapturedAt:     r.CapturedAt.UTC().Format(time.RFC3339),
		DistanceMeters: r.DistanceMeters,
		Verified:       r.Verified,
		Outcome:        r.Outcome,
		SessionID:      r.SessionID,
		ResultState:    r.ResultState,
		CorrectsID:     r.CorrectsID,
	}
}
