package timesheet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldclock/fieldclock-backend-go/internal/domain/timeclock"
	"github.com/fieldclock/fieldclock-backend-go/internal/domain/timesheet"
	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
)

type ApprovalServiceImpl struct {
	entries  timesheet.EntryRepository
	sessions timeclock.SessionRepository

	// maxShiftLength is the longest duration auto-approval accepts; anything
	// longer (or non-positive) is clock skew until a reviewer says otherwise.
	maxShiftLength time.Duration
	// approvalWindow bounds how long after session close the engine may still
	// auto-approve. Evaluated at call time; late replays demote to review.
	approvalWindow time.Duration
}

func NewApprovalService(
	entryRepo timesheet.EntryRepository,
	sessionRepo timeclock.SessionRepository,
	maxShiftLength time.Duration,
	approvalWindow time.Duration,
) timesheet.ApprovalService {
	return &ApprovalServiceImpl{
		entries:        entryRepo,
		sessions:       sessionRepo,
		maxShiftLength: maxShiftLength,
		approvalWindow: approvalWindow,
	}
}

// Approve implements timesheet.ApprovalService.
func (s *ApprovalServiceImpl) Approve(ctx context.Context, session timeclock.ClockSession) (timesheet.TimesheetEntry, error) {
	if !session.Closed() || session.ClockOutAt == nil {
		return timesheet.TimesheetEntry{}, timesheet.ErrSessionStillOpen
	}

	// Approval, once rendered, is final; a replay returns the existing entry
	// without re-evaluation.
	existing, err := s.entries.GetBySessionID(ctx, session.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, timesheet.ErrEntryNotFound) {
		return timesheet.TimesheetEntry{}, fmt.Errorf("failed to look up existing entry: %w", err)
	}

	now := time.Now().UTC()
	duration := session.WorkedDuration()

	status := timesheet.StatusPendingReview
	var note *string
	var approvedAt *time.Time

	switch {
	case duration <= 0:
		reason := "clock skew detected: non-positive worked duration"
		note = &reason
	case duration > s.maxShiftLength:
		reason := fmt.Sprintf("worked duration %.1fh exceeds the %.0fh maximum shift length", duration.Hours(), s.maxShiftLength.Hours())
		note = &reason
	case !session.ClockInVerified:
		reason := "clock-in location was not verified"
		note = &reason
	case session.ClockOutVerified == nil || !*session.ClockOutVerified:
		reason := "clock-out location was not verified"
		note = &reason
	case now.Sub(*session.ClockOutAt) > s.approvalWindow:
		reason := fmt.Sprintf("approval invoked more than %.0fh after session close", s.approvalWindow.Hours())
		note = &reason
	default:
		status = timesheet.StatusAutoApproved
		approvedAt = &now
	}

	entry := timesheet.TimesheetEntry{
		ID:            uuid.NewString(),
		SessionID:     session.ID,
		WorkerID:      session.WorkerID,
		SiteID:        session.SiteID,
		WorkedMinutes: int(duration.Minutes()),
		Status:        status,
		ReviewNote:    note,
		ApprovedAt:    approvedAt,
		ApprovedBy:    nil, // auto-approval has no human approver
	}

	created, err := s.entries.Create(ctx, entry)
	if err != nil {
		return timesheet.TimesheetEntry{}, fmt.Errorf("failed to create timesheet entry: %w", err)
	}

	return created, nil
}

// ApproveSession implements timesheet.ApprovalService.
func (s *ApprovalServiceImpl) ApproveSession(ctx context.Context, sessionID string) (timesheet.EntryResponse, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, timeclock.ErrSessionNotFound) {
			return timesheet.EntryResponse{}, timeclock.ErrSessionNotFound
		}
		return timesheet.EntryResponse{}, fmt.Errorf("failed to get session: %w", err)
	}

	entry, err := s.Approve(ctx, session)
	if err != nil {
		return timesheet.EntryResponse{}, err
	}

	return timesheet.ToResponse(entry), nil
}

func reviewerFromContext(ctx context.Context) (string, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user_id claim is missing or invalid")
	}
	return userID, nil
}

// ReviewApprove implements timesheet.ApprovalService.
func (s *ApprovalServiceImpl) ReviewApprove(ctx context.Context, req timesheet.ReviewRequest) (timesheet.EntryResponse, error) {
	userID, err := reviewerFromContext(ctx)
	if err != nil {
		return timesheet.EntryResponse{}, err
	}

	entry, err := s.entries.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, timesheet.ErrEntryNotFound) {
			return timesheet.EntryResponse{}, timesheet.ErrEntryNotFound
		}
		return timesheet.EntryResponse{}, fmt.Errorf("failed to get timesheet entry: %w", err)
	}

	if entry.Processed() {
		return timesheet.EntryResponse{}, timesheet.ErrEntryAlreadyProcessed
	}

	now := time.Now().UTC()
	// The status set is closed; a manual approval reuses the approved variant
	// and is distinguished by the non-nil approver identity.
	entry.Status = timesheet.StatusAutoApproved
	entry.ApprovedBy = &userID
	entry.ApprovedAt = &now
	if req.Reason != "" {
		entry.ReviewNote = &req.Reason
	}

	if err := s.entries.UpdateReview(ctx, entry); err != nil {
		return timesheet.EntryResponse{}, fmt.Errorf("failed to approve timesheet entry: %w", err)
	}

	return timesheet.ToResponse(entry), nil
}

// ReviewReject implements timesheet.ApprovalService.
func (s *ApprovalServiceImpl) ReviewReject(ctx context.Context, req timesheet.ReviewRequest) (timesheet.EntryResponse, error) {
	if err := req.Validate(); err != nil {
		return timesheet.EntryResponse{}, err
	}

	userID, err := reviewerFromContext(ctx)
	if err != nil {
		return timesheet.EntryResponse{}, err
	}

	entry, err := s.entries.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, timesheet.ErrEntryNotFound) {
			return timesheet.EntryResponse{}, timesheet.ErrEntryNotFound
		}
		return timesheet.EntryResponse{}, fmt.Errorf("failed to get timesheet entry: %w", err)
	}

	if entry.Processed() {
		return timesheet.EntryResponse{}, timesheet.ErrEntryAlreadyProcessed
	}

	now := time.Now().UTC()
	entry.Status = timesheet.StatusRejected
	entry.ApprovedBy = &userID
	entry.ApprovedAt = &now
	entry.ReviewNote = &req.Reason

	if err := s.entries.UpdateReview(ctx, entry); err != nil {
		return timesheet.EntryResponse{}, fmt.Errorf("failed to reject timesheet entry: %w", err)
	}

	return timesheet.ToResponse(entry), nil
}

// GetEntry implements timesheet.ApprovalService.
func (s *ApprovalServiceImpl) GetEntry(ctx context.Context, id string) (timesheet.EntryResponse, error) {
	entry, err := s.entries.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, timesheet.ErrEntryNotFound) {
			return timesheet.EntryResponse{}, timesheet.ErrEntryNotFound
		}
		return timesheet.EntryResponse{}, fmt.Errorf("failed to get timesheet entry: %w", err)
	}

	return timesheet.ToResponse(entry), nil
}

// ListEntries implements timesheet.ApprovalService.
func (s *ApprovalServiceImpl) ListEntries(ctx context.Context, filter timesheet.EntryFilter) (timesheet.ListEntriesResponse, error) {
	if err := filter.Validate(); err != nil {
		return timesheet.ListEntriesResponse{}, err
	}

	entries, total, err := s.entries.List(ctx, filter)
	if err != nil {
		return timesheet.ListEntriesResponse{}, fmt.Errorf("failed to list timesheet entries: %w", err)
	}

	responses := make([]timesheet.EntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, timesheet.ToResponse(entry))
	}

	totalPages := 0
	if filter.Limit > 0 {
		totalPages = int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	}

	return timesheet.ListEntriesResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Entries:    responses,
	}, nil
}
