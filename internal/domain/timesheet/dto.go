package timesheet

import (
	"time"

	"github.com/fieldclock/fieldclock-backend-go/internal/pkg/validator"
)

// ========================================
// TIMESHEET DTOs
// ========================================

type EntryResponse struct {
	ID            string  `json:"id"`
	SessionID     string  `json:"session_id"`
	WorkerID      string  `json:"worker_id"`
	WorkerName    *string `json:"worker_name,omitempty"`
	SiteID        string  `json:"site_id"`
	SiteName      *string `json:"site_name,omitempty"`
	WorkedMinutes int     `json:"worked_minutes"`
	WorkedHours   float64 `json:"worked_hours"`
	Status        string  `json:"status"`
	ReviewNote    *string `json:"review_note,omitempty"`
	ApprovedAt    *string `json:"approved_at,omitempty"`
	ApprovedBy    *string `json:"approved_by,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

type EntryFilter struct {
	WorkerID  *string
	SiteID    *string
	Status    *string
	StartDate *string
	EndDate   *string
	Page      int
	Limit     int
}

func (f *EntryFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Status != nil {
		switch ApprovalStatus(*f.Status) {
		case StatusAutoApproved, StatusPendingReview, StatusRejected:
		default:
			errs = append(errs, validator.ValidationError{
				Field:   "status",
				Message: "status must be auto_approved, pending_review or rejected",
			})
		}
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

type ListEntriesResponse struct {
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
	Entries    []EntryResponse `json:"entries"`
}

type ReviewRequest struct {
	ID     string `json:"-"`
	Reason string `json:"reason"`
}

func (r *ReviewRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ToResponse converts a TimesheetEntry entity to EntryResponse.
func ToResponse(e TimesheetEntry) EntryResponse {
	resp := EntryResponse{
		ID:            e.ID,
		SessionID:     e.SessionID,
		WorkerID:      e.WorkerID,
		WorkerName:    e.WorkerName,
		SiteID:        e.SiteID,
		SiteName:      e.SiteName,
		WorkedMinutes: e.WorkedMinutes,
		WorkedHours:   float64(e.WorkedMinutes) / 60.0,
		Status:        string(e.Status),
		ReviewNote:    e.ReviewNote,
		ApprovedBy:    e.ApprovedBy,
		CreatedAt:     e.CreatedAt.UTC().Format(time.RFC3339),
	}

	if e.ApprovedAt != nil {
		formatted := e.ApprovedAt.UTC().Format(time.RFC3339)
		resp.ApprovedAt = &formatted
	}

	return resp
}
