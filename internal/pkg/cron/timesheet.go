package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldclock/fieldclock-backend-go/internal/domain/timeclock"
	"github.com/fieldclock/fieldclock-backend-go/internal/domain/timesheet"
)

const replayBatchSize = 100

// TimesheetJobs replays the approval engine over closed sessions that never
// got a timesheet entry (a crash between close and approve, or a trail of
// backlog). Sessions replayed after the approval window correctly land in
// pending review; the engine, not this job, owns that decision.
type TimesheetJobs struct {
	sessionRepo timeclock.SessionRepository
	approval    timesheet.ApprovalService
}

func NewTimesheetJobs(
	sessionRepo timeclock.SessionRepository,
	approval timesheet.ApprovalService,
) *TimesheetJobs {
	return &TimesheetJobs{
		sessionRepo: sessionRepo,
		approval:    approval,
	}
}

func (j *TimesheetJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("replay_unapproved_sessions", interval, j.ReplayUnapprovedSessions)
}

func (j *TimesheetJobs) ReplayUnapprovedSessions(ctx context.Context) error {
	sessions, err := j.sessionRepo.ListClosedWithoutEntry(ctx, replayBatchSize)
	if err != nil {
		return fmt.Errorf("failed to list sessions without entry: %w", err)
	}

	if len(sessions) == 0 {
		return nil
	}

	processed := 0
	for _, session := range sessions {
		entry, err := j.approval.Approve(ctx, session)
		if err != nil {
			slog.Error("Cron: Failed to replay approval",
				"session_id", session.ID,
				"worker_id", session.WorkerID,
				"error", err)
			continue
		}

		slog.Debug("Cron: Replayed approval",
			"session_id", session.ID,
			"entry_id", entry.ID,
			"status", string(entry.Status))
		processed++
	}

	slog.Info("Cron: Replayed unapproved sessions", "count", processed)
	return nil
}
