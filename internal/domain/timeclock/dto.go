package timeclock

import (
	"time"

	"github.com/fieldclock/fieldclock-backend-go/internal/pkg/validator"
)

// ========================================
// TIMECLOCK DTOs
// ========================================

type ClockInRequest struct {
	SiteID         string  `json:"site_id"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	AccuracyMeters float64 `json:"accuracy_meters"`
	CapturedAt     string  `json:"captured_at"`
	IdempotencyKey string  `json:"idempotency_key"`
}

func (r *ClockInRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.SiteID) {
		errs = append(errs, validator.ValidationError{
			Field:   "site_id",
			Message: "site_id is required",
		})
	}

	if r.Latitude < -90 || r.Latitude > 90 {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}

	if r.Longitude < -180 || r.Longitude > 180 {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	if r.AccuracyMeters < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "accuracy_meters",
			Message: "accuracy_meters must not be negative",
		})
	}

	if validator.IsEmpty(r.CapturedAt) {
		errs = append(errs, validator.ValidationError{
			Field:   "captured_at",
			Message: "captured_at is required",
		})
	} else if _, ok := validator.IsValidDateTime(r.CapturedAt); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "captured_at",
			Message: "captured_at must be an RFC3339 timestamp",
		})
	}

	if validator.IsEmpty(r.IdempotencyKey) {
		errs = append(errs, validator.ValidationError{
			Field:   "idempotency_key",
			Message: "idempotency_key is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Sample converts the request position fields into a PositionSample.
func (r *ClockInRequest) Sample() PositionSample {
	capturedAt, _ := validator.IsValidDateTime(r.CapturedAt)
	return PositionSample{
		Latitude:       r.Latitude,
		Longitude:      r.Longitude,
		AccuracyMeters: r.AccuracyMeters,
		CapturedAt:     capturedAt.UTC(),
	}
}

type ClockOutRequest struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	AccuracyMeters float64 `json:"accuracy_meters"`
	CapturedAt     string  `json:"captured_at"`
	IdempotencyKey string  `json:"idempotency_key"`
}

func (r *ClockOutRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Latitude < -90 || r.Latitude > 90 {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}

	if r.Longitude < -180 || r.Longitude > 180 {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	if r.AccuracyMeters < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "accuracy_meters",
			Message: "accuracy_meters must not be negative",
		})
	}

	if validator.IsEmpty(r.CapturedAt) {
		errs = append(errs, validator.ValidationError{
			Field:   "captured_at",
			Message: "captured_at is required",
		})
	} else if _, ok := validator.IsValidDateTime(r.CapturedAt); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "captured_at",
			Message: "captured_at must be an RFC3339 timestamp",
		})
	}

	if validator.IsEmpty(r.IdempotencyKey) {
		errs = append(errs, validator.ValidationError{
			Field:   "idempotency_key",
			Message: "idempotency_key is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func (r *ClockOutRequest) Sample() PositionSample {
	capturedAt, _ := validator.IsValidDateTime(r.CapturedAt)
	return PositionSample{
		Latitude:       r.Latitude,
		Longitude:      r.Longitude,
		AccuracyMeters: r.AccuracyMeters,
		CapturedAt:     capturedAt.UTC(),
	}
}

type SessionResponse struct {
	ID                string   `json:"id"`
	WorkerID          string   `json:"worker_id"`
	SiteID            string   `json:"site_id"`
	SiteName          *string  `json:"site_name,omitempty"`
	Status            string   `json:"status"`
	ClockInTime       string   `json:"clock_in_time"`
	ClockInVerified   bool     `json:"clock_in_verified"`
	ClockInDistance   float64  `json:"clock_in_distance_meters"`
	ClockOutTime      *string  `json:"clock_out_time,omitempty"`
	ClockOutVerified  *bool    `json:"clock_out_verified,omitempty"`
	ClockOutDistance  *float64 `json:"clock_out_distance_meters,omitempty"`
	WorkedMinutes     *int     `json:"worked_minutes,omitempty"`
	TimesheetEntryID  *string  `json:"timesheet_entry_id,omitempty"`
}

type SessionFilter struct {
	SiteID    *string
	Status    *string
	StartDate *string
	EndDate   *string
	Page      int
	Limit     int
}

func (f *SessionFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Status != nil && *f.Status != string(StatusOpen) && *f.Status != string(StatusClosed) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be open or closed",
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

type ListSessionsResponse struct {
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
	Sessions   []SessionResponse `json:"sessions"`
}

// ToResponse converts a ClockSession entity to SessionResponse.
func ToResponse(s ClockSession) SessionResponse {
	resp := SessionResponse{
		ID:              s.ID,
		WorkerID:        s.WorkerID,
		SiteID:          s.SiteID,
		SiteName:        s.SiteName,
		Status:          string(s.Status),
		ClockInTime:     s.ClockInAt.UTC().Format(time.RFC3339),
		ClockInVerified: s.ClockInVerified,
		ClockInDistance: s.ClockInDistanceMeters,
	}

	if s.ClockOutAt != nil {
		formatted := s.ClockOutAt.UTC().Format(time.RFC3339)
		resp.ClockOutTime = &formatted
		minutes := int(s.WorkedDuration().Minutes())
		resp.WorkedMinutes = &minutes
	}
	resp.ClockOutVerified = s.ClockOutVerified
	resp.ClockOutDistance = s.ClockOutDistanceMeters

	return resp
}
