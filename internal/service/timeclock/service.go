package timeclock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldclock/fieldclock-backend-go/internal/domain/audit"
	"github.com/fieldclock/fieldclock-backend-go/internal/domain/site"
	"github.com/fieldclock/fieldclock-backend-go/internal/domain/timeclock"
	"github.com/fieldclock/fieldclock-backend-go/internal/domain/timesheet"
	"github.com/fieldclock/fieldclock-backend-go/internal/pkg/database"
	"github.com/fieldclock/fieldclock-backend-go/internal/pkg/geofence"
	"github.com/fieldclock/fieldclock-backend-go/internal/pkg/keymutex"
	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
)

const (
	outcomeAlreadyClockedIn = "already_clocked_in"
	outcomeNoActiveSession  = "no_active_session"
)

type TimeclockServiceImpl struct {
	txm      database.TxManager
	sessions timeclock.SessionRepository
	sites    site.SiteRepository
	trail    audit.TrailRepository
	approval timesheet.ApprovalService
	locks    *keymutex.KeyMutex

	// maxAccuracyMeters caps acceptable reading uncertainty system-wide;
	// 0 falls back to each site's geofence radius.
	maxAccuracyMeters float64
}

func NewTimeclockService(
	txm database.TxManager,
	sessionRepo timeclock.SessionRepository,
	siteRepo site.SiteRepository,
	trailRepo audit.TrailRepository,
	approvalService timesheet.ApprovalService,
	maxAccuracyMeters float64,
) timeclock.TimeclockService {
	return &TimeclockServiceImpl{
		txm:               txm,
		sessions:          sessionRepo,
		sites:             siteRepo,
		trail:             trailRepo,
		approval:          approvalService,
		locks:             keymutex.New(),
		maxAccuracyMeters: maxAccuracyMeters,
	}
}

func workerIDFromContext(ctx context.Context) (string, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	workerID, ok := claims["worker_id"].(string)
	if !ok || workerID == "" {
		return "", fmt.Errorf("worker_id claim is missing or invalid")
	}
	return workerID, nil
}

// ClockIn implements timeclock.TimeclockService.
func (s *TimeclockServiceImpl) ClockIn(ctx context.Context, req timeclock.ClockInRequest) (timeclock.SessionResponse, error) {
	if err := req.Validate(); err != nil {
		return timeclock.SessionResponse{}, err
	}

	workerID, err := workerIDFromContext(ctx)
	if err != nil {
		return timeclock.SessionResponse{}, err
	}

	// Serialize per worker: the single-open-session invariant is only
	// enforceable if check and create cannot interleave.
	s.locks.Lock(workerID)
	defer s.locks.Unlock(workerID)

	// Client retry with the same key must not create a second session or
	// re-evaluate the geofence.
	if existing, err := s.sessions.GetByIdempotencyKey(ctx, workerID, req.IdempotencyKey); err == nil {
		return timeclock.SessionResponse{}, &timeclock.DuplicateRequestError{SessionID: existing.ID}
	} else if !errors.Is(err, timeclock.ErrSessionNotFound) {
		return timeclock.SessionResponse{}, fmt.Errorf("failed to check idempotency key: %w", err)
	}

	sample := req.Sample()

	open, err := s.sessions.GetOpenSession(ctx, workerID)
	if err == nil {
		rejection := fmt.Sprintf("rejected: open session %s exists", open.ID)
		if auditErr := s.appendRejection(ctx, workerID, req.SiteID, audit.ActionClockIn, sample, 0, outcomeAlreadyClockedIn, rejection); auditErr != nil {
			return timeclock.SessionResponse{}, auditErr
		}
		return timeclock.SessionResponse{}, &timeclock.AlreadyClockedInError{SessionID: open.ID}
	}
	if !errors.Is(err, timeclock.ErrNoActiveSession) {
		return timeclock.SessionResponse{}, fmt.Errorf("failed to check open session: %w", err)
	}

	jobSite, err := s.sites.GetByID(ctx, req.SiteID)
	if err != nil {
		if errors.Is(err, site.ErrSiteNotFound) {
			return timeclock.SessionResponse{}, site.ErrSiteNotFound
		}
		return timeclock.SessionResponse{}, fmt.Errorf("failed to get job site: %w", err)
	}
	if !jobSite.Active {
		return timeclock.SessionResponse{}, site.ErrSiteInactive
	}

	result := geofence.Evaluate(
		geofence.Point{Latitude: jobSite.Latitude, Longitude: jobSite.Longitude},
		jobSite.RadiusMeters,
		geofence.Sample{Latitude: sample.Latitude, Longitude: sample.Longitude, AccuracyMeters: sample.AccuracyMeters},
		s.maxAccuracyMeters,
	)

	// Klok masuk wajib terverifikasi: tanpa verifikasi tidak ada sesi.
	if !result.Verified {
		rejectionErr := s.evaluationError(result, jobSite)
		if auditErr := s.appendRejection(ctx, workerID, jobSite.ID, audit.ActionClockIn, sample, result.DistanceMeters, string(result.Reason), "rejected: "+rejectionErr.Error()); auditErr != nil {
			return timeclock.SessionResponse{}, auditErr
		}
		return timeclock.SessionResponse{}, rejectionErr
	}

	now := time.Now().UTC()
	session := timeclock.ClockSession{
		ID:                    uuid.NewString(),
		WorkerID:              workerID,
		SiteID:                jobSite.ID,
		Status:                timeclock.StatusOpen,
		ClockInAt:             now,
		ClockInSample:         sample,
		ClockInDistanceMeters: result.DistanceMeters,
		ClockInVerified:       true,
		ClockInKey:            req.IdempotencyKey,
	}

	err = s.txm.RunInTx(ctx, func(ctx context.Context) error {
		created, err := s.sessions.Create(ctx, session)
		if err != nil {
			return err
		}
		session = created

		record := newAuditRecord(workerID, jobSite.ID, audit.ActionClockIn, sample, result.DistanceMeters, true, string(result.Reason), "session_open")
		record.SessionID = &session.ID
		if _, err := s.trail.Append(ctx, record); err != nil {
			return fmt.Errorf("failed to append audit record: %w", err)
		}
		return nil
	})
	if err != nil {
		// A unique-index violation means another writer opened a session
		// between our check and the insert.
		if errors.Is(err, timeclock.ErrAlreadyClockedIn) {
			return timeclock.SessionResponse{}, err
		}
		return timeclock.SessionResponse{}, fmt.Errorf("failed to create clock session: %w", err)
	}

	session.SiteName = &jobSite.Name
	return timeclock.ToResponse(session), nil
}

// ClockOut implements timeclock.TimeclockService.
func (s *TimeclockServiceImpl) ClockOut(ctx context.Context, req timeclock.ClockOutRequest) (timeclock.SessionResponse, error) {
	if err := req.Validate(); err != nil {
		return timeclock.SessionResponse{}, err
	}

	workerID, err := workerIDFromContext(ctx)
	if err != nil {
		return timeclock.SessionResponse{}, err
	}

	s.locks.Lock(workerID)
	defer s.locks.Unlock(workerID)

	if existing, err := s.sessions.GetByIdempotencyKey(ctx, workerID, req.IdempotencyKey); err == nil {
		return timeclock.SessionResponse{}, &timeclock.DuplicateRequestError{SessionID: existing.ID}
	} else if !errors.Is(err, timeclock.ErrSessionNotFound) {
		return timeclock.SessionResponse{}, fmt.Errorf("failed to check idempotency key: %w", err)
	}

	sample := req.Sample()

	session, err := s.sessions.GetOpenSession(ctx, workerID)
	if err != nil {
		if errors.Is(err, timeclock.ErrNoActiveSession) {
			if auditErr := s.appendRejection(ctx, workerID, "", audit.ActionClockOut, sample, 0, outcomeNoActiveSession, "rejected: no open session"); auditErr != nil {
				return timeclock.SessionResponse{}, auditErr
			}
			return timeclock.SessionResponse{}, timeclock.ErrNoActiveSession
		}
		return timeclock.SessionResponse{}, fmt.Errorf("failed to get open session: %w", err)
	}

	// A session can only be closed against the site it was opened at; standing
	// at a different site never verifies the clock-out.
	jobSite, err := s.sites.GetByID(ctx, session.SiteID)
	if err != nil {
		return timeclock.SessionResponse{}, fmt.Errorf("failed to get job site: %w", err)
	}

	result := geofence.Evaluate(
		geofence.Point{Latitude: jobSite.Latitude, Longitude: jobSite.Longitude},
		jobSite.RadiusMeters,
		geofence.Sample{Latitude: sample.Latitude, Longitude: sample.Longitude, AccuracyMeters: sample.AccuracyMeters},
		s.maxAccuracyMeters,
	)

	// An unverified clock-out closes the session anyway. Blocking here would
	// trap a worker in an open session; the unverified flag routes the
	// timesheet entry to manual review instead.
	now := time.Now().UTC()
	verified := result.Verified
	session.Status = timeclock.StatusClosed
	session.ClockOutAt = &now
	session.ClockOutSample = &sample
	session.ClockOutDistanceMeters = &result.DistanceMeters
	session.ClockOutVerified = &verified
	session.ClockOutKey = &req.IdempotencyKey

	var entry timesheet.TimesheetEntry
	err = s.txm.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.sessions.Close(ctx, session); err != nil {
			return fmt.Errorf("failed to close session: %w", err)
		}

		record := newAuditRecord(workerID, jobSite.ID, audit.ActionClockOut, sample, result.DistanceMeters, verified, string(result.Reason), "session_closed")
		record.SessionID = &session.ID
		if _, err := s.trail.Append(ctx, record); err != nil {
			return fmt.Errorf("failed to append audit record: %w", err)
		}

		entry, err = s.approval.Approve(ctx, session)
		if err != nil {
			return fmt.Errorf("failed to render approval decision: %w", err)
		}
		return nil
	})
	if err != nil {
		return timeclock.SessionResponse{}, err
	}

	session.SiteName = &jobSite.Name
	resp := timeclock.ToResponse(session)
	resp.TimesheetEntryID = &entry.ID
	return resp, nil
}

// GetOpenSession implements timeclock.TimeclockService.
func (s *TimeclockServiceImpl) GetOpenSession(ctx context.Context) (timeclock.SessionResponse, error) {
	workerID, err := workerIDFromContext(ctx)
	if err != nil {
		return timeclock.SessionResponse{}, err
	}

	session, err := s.sessions.GetOpenSession(ctx, workerID)
	if err != nil {
		if errors.Is(err, timeclock.ErrNoActiveSession) {
			return timeclock.SessionResponse{}, timeclock.ErrNoActiveSession
		}
		return timeclock.SessionResponse{}, fmt.Errorf("failed to get open session: %w", err)
	}

	return timeclock.ToResponse(session), nil
}

// ListMySessions implements timeclock.TimeclockService.
func (s *TimeclockServiceImpl) ListMySessions(ctx context.Context, filter timeclock.SessionFilter) (timeclock.ListSessionsResponse, error) {
	if err := filter.Validate(); err != nil {
		return timeclock.ListSessionsResponse{}, err
	}

	workerID, err := workerIDFromContext(ctx)
	if err != nil {
		return timeclock.ListSessionsResponse{}, err
	}

	sessions, total, err := s.sessions.ListByWorker(ctx, workerID, filter)
	if err != nil {
		return timeclock.ListSessionsResponse{}, fmt.Errorf("failed to list sessions: %w", err)
	}

	responses := make([]timeclock.SessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		responses = append(responses, timeclock.ToResponse(sess))
	}

	totalPages := 0
	if filter.Limit > 0 {
		totalPages = int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	}

	return timeclock.ListSessionsResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Sessions:   responses,
	}, nil
}

// evaluationError maps an unverified geofence result to the domain error the
// caller (and the client UI) sees. The message is built from the same numbers
// the audit trail records.
func (s *TimeclockServiceImpl) evaluationError(result geofence.Result, jobSite site.JobSite) error {
	switch result.Reason {
	case geofence.ReasonOutOfRange:
		return &timeclock.OutOfRangeError{DistanceMeters: result.DistanceMeters, RadiusMeters: jobSite.RadiusMeters}
	case geofence.ReasonLowAccuracy:
		maxAccuracy := s.maxAccuracyMeters
		if maxAccuracy <= 0 {
			maxAccuracy = jobSite.RadiusMeters
		}
		return fmt.Errorf("%w (allowed accuracy %.0f m)", timeclock.ErrLowAccuracy, maxAccuracy)
	default:
		return timeclock.ErrInvalidCoordinate
	}
}

func newAuditRecord(workerID, siteID string, action audit.Action, sample timeclock.PositionSample, distance float64, verified bool, outcome, resultState string) audit.AuditRecord {
	return audit.AuditRecord{
		ID:             uuid.NewString(),
		OccurredAt:     time.Now().UTC(),
		WorkerID:       workerID,
		SiteID:         siteID,
		Action:         action,
		Latitude:       sample.Latitude,
		Longitude:      sample.Longitude,
		AccuracyMeters: sample.AccuracyMeters,
		CapturedAt:     sample.CapturedAt,
		DistanceMeters: distance,
		Verified:       verified,
		Outcome:        outcome,
		ResultState:    resultState,
	}
}

// appendRejection records a rejected attempt. The rejection entry is written
// synchronously; a failed append is a storage fault and surfaces instead of
// the business error.
func (s *TimeclockServiceImpl) appendRejection(ctx context.Context, workerID, siteID string, action audit.Action, sample timeclock.PositionSample, distance float64, outcome, resultState string) error {
	record := newAuditRecord(workerID, siteID, action, sample, distance, false, outcome, resultState)
	if _, err := s.trail.Append(ctx, record); err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}
