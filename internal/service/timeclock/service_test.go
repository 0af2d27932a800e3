package timeclock

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fieldclock/fieldclock-backend-go/internal/domain/audit"
	"github.com/fieldclock/fieldclock-backend-go/internal/domain/site"
	"github.com/fieldclock/fieldclock-backend-go/internal/domain/timeclock"
	"github.com/fieldclock/fieldclock-backend-go/internal/domain/timesheet"
	timesheetservice "github.com/fieldclock/fieldclock-backend-go/internal/service/timesheet"
	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// metersPerDegreeLat on the 6371 km sphere.
const metersPerDegreeLat = 111194.9266

var testSite = site.JobSite{
	ID:           "site-1",
	Name:         "Riverside Build",
	Latitude:     40.7128,
	Longitude:    -74.0060,
	RadiusMeters: 91.44,
	Active:       true,
}

// ========================================
// FAKES
// ========================================

type fakeTxManager struct{}

func (f *fakeTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeSiteRepo struct {
	sites map[string]site.JobSite
}

func (f *fakeSiteRepo) GetByID(_ context.Context, id string) (site.JobSite, error) {
	s, ok := f.sites[id]
	if !ok {
		return site.JobSite{}, site.ErrSiteNotFound
	}
	return s, nil
}

func (f *fakeSiteRepo) List(_ context.Context) ([]site.JobSite, error) {
	var out []site.JobSite
	for _, s := range f.sites {
		if s.Active {
			out = append(out, s)
		}
	}
	return out, nil
}

// fakeSessionRepo mirrors the store's behavior, including the partial unique
// index on open sessions.
type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]timeclock.ClockSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]timeclock.ClockSession)}
}

func (f *fakeSessionRepo) Create(_ context.Context, session timeclock.ClockSession) (timeclock.ClockSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.sessions {
		if existing.WorkerID == session.WorkerID && existing.Status == timeclock.StatusOpen {
			return timeclock.ClockSession{}, timeclock.ErrAlreadyClockedIn
		}
		if existing.WorkerID == session.WorkerID && existing.ClockInKey == session.ClockInKey {
			return timeclock.ClockSession{}, timeclock.ErrDuplicateRequest
		}
	}

	session.CreatedAt = time.Now().UTC()
	session.UpdatedAt = session.CreatedAt
	f.sessions[session.ID] = session
	return session, nil
}

func (f *fakeSessionRepo) Close(_ context.Context, session timeclock.ClockSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	existing, ok := f.sessions[session.ID]
	if !ok || existing.Status != timeclock.StatusOpen {
		return timeclock.ErrSessionNotFound
	}
	session.UpdatedAt = time.Now().UTC()
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeSessionRepo) GetByID(_ context.Context, id string) (timeclock.ClockSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	session, ok := f.sessions[id]
	if !ok {
		return timeclock.ClockSession{}, timeclock.ErrSessionNotFound
	}
	return session, nil
}

func (f *fakeSessionRepo) GetOpenSession(_ context.Context, workerID string) (timeclock.ClockSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, session := range f.sessions {
		if session.WorkerID == workerID && session.Status == timeclock.StatusOpen {
			return session, nil
		}
	}
	return timeclock.ClockSession{}, timeclock.ErrNoActiveSession
}

func (f *fakeSessionRepo) GetByIdempotencyKey(_ context.Context, workerID, key string) (timeclock.ClockSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, session := range f.sessions {
		if session.WorkerID != workerID {
			continue
		}
		if session.ClockInKey == key {
			return session, nil
		}
		if session.ClockOutKey != nil && *session.ClockOutKey == key {
			return session, nil
		}
	}
	return timeclock.ClockSession{}, timeclock.ErrSessionNotFound
}

func (f *fakeSessionRepo) ListByWorker(_ context.Context, workerID string, filter timeclock.SessionFilter) ([]timeclock.ClockSession, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []timeclock.ClockSession
	for _, session := range f.sessions {
		if session.WorkerID != workerID {
			continue
		}
		if filter.Status != nil && string(session.Status) != *filter.Status {
			continue
		}
		out = append(out, session)
	}
	return out, int64(len(out)), nil
}

func (f *fakeSessionRepo) ListClosedWithoutEntry(_ context.Context, limit int) ([]timeclock.ClockSession, error) {
	return nil, nil
}

func (f *fakeSessionRepo) openCount(workerID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, session := range f.sessions {
		if session.WorkerID == workerID && session.Status == timeclock.StatusOpen {
			count++
		}
	}
	return count
}

type fakeTrailRepo struct {
	mu        sync.Mutex
	records   []audit.AuditRecord
	appendErr error
}

func (f *fakeTrailRepo) Append(_ context.Context, record audit.AuditRecord) (audit.AuditRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.appendErr != nil {
		return audit.AuditRecord{}, f.appendErr
	}
	f.records = append(f.records, record)
	return record, nil
}

func (f *fakeTrailRepo) Query(_ context.Context, filter audit.Filter) ([]audit.AuditRecord, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]audit.AuditRecord, len(f.records))
	copy(out, f.records)
	return out, int64(len(out)), nil
}

func (f *fakeTrailRepo) all() []audit.AuditRecord {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]audit.AuditRecord, len(f.records))
	copy(out, f.records)
	return out
}

type fakeEntryRepo struct {
	mu      sync.Mutex
	entries map[string]timesheet.TimesheetEntry
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{entries: make(map[string]timesheet.TimesheetEntry)}
}

func (f *fakeEntryRepo) Create(_ context.Context, entry timesheet.TimesheetEntry) (timesheet.TimesheetEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.entries {
		if existing.SessionID == entry.SessionID {
			return existing, nil
		}
	}
	entry.CreatedAt = time.Now().UTC()
	entry.UpdatedAt = entry.CreatedAt
	f.entries[entry.ID] = entry
	return entry, nil
}

func (f *fakeEntryRepo) GetByID(_ context.Context, id string) (timesheet.TimesheetEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry, ok := f.entries[id]
	if !ok {
		return timesheet.TimesheetEntry{}, timesheet.ErrEntryNotFound
	}
	return entry, nil
}

func (f *fakeEntryRepo) GetBySessionID(_ context.Context, sessionID string) (timesheet.TimesheetEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, entry := range f.entries {
		if entry.SessionID == sessionID {
			return entry, nil
		}
	}
	return timesheet.TimesheetEntry{}, timesheet.ErrEntryNotFound
}

func (f *fakeEntryRepo) UpdateReview(_ context.Context, entry timesheet.TimesheetEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	existing, ok := f.entries[entry.ID]
	if !ok || existing.Processed() {
		return timesheet.ErrEntryAlreadyProcessed
	}
	entry.UpdatedAt = time.Now().UTC()
	f.entries[entry.ID] = entry
	return nil
}

func (f *fakeEntryRepo) List(_ context.Context, filter timesheet.EntryFilter) ([]timesheet.TimesheetEntry, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []timesheet.TimesheetEntry
	for _, entry := range f.entries {
		out = append(out, entry)
	}
	return out, int64(len(out)), nil
}

// ========================================
// HELPERS
// ========================================

type testEnv struct {
	service  timeclock.TimeclockService
	sessions *fakeSessionRepo
	sites    *fakeSiteRepo
	trail    *fakeTrailRepo
	entries  *fakeEntryRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	sessions := newFakeSessionRepo()
	sites := &fakeSiteRepo{sites: map[string]site.JobSite{testSite.ID: testSite}}
	trail := &fakeTrailRepo{}
	entries := newFakeEntryRepo()

	approval := timesheetservice.NewApprovalService(entries, sessions, 16*time.Hour, 24*time.Hour)
	svc := NewTimeclockService(&fakeTxManager{}, sessions, sites, trail, approval, 0)

	return &testEnv{service: svc, sessions: sessions, sites: sites, trail: trail, entries: entries}
}

func workerContext(t *testing.T, workerID string) context.Context {
	t.Helper()

	ja := jwtauth.New("HS256", []byte("test-secret"), nil)
	token, _, err := ja.Encode(map[string]interface{}{
		"worker_id": workerID,
		"user_id":   workerID,
		"role":      "worker",
		"type":      "access",
	})
	require.NoError(t, err)

	return jwtauth.NewContext(context.Background(), token, nil)
}

// positionAt returns a coordinate the given number of meters due north of the
// test site center.
func positionAt(meters float64) (float64, float64) {
	return testSite.Latitude + meters/metersPerDegreeLat, testSite.Longitude
}

func clockInRequest(meters, accuracy float64) timeclock.ClockInRequest {
	lat, lon := positionAt(meters)
	return timeclock.ClockInRequest{
		SiteID:         testSite.ID,
		Latitude:       lat,
		Longitude:      lon,
		AccuracyMeters: accuracy,
		CapturedAt:     time.Now().UTC().Format(time.RFC3339),
		IdempotencyKey: uuid.NewString(),
	}
}

func clockOutRequest(meters, accuracy float64) timeclock.ClockOutRequest {
	lat, lon := positionAt(meters)
	return timeclock.ClockOutRequest{
		Latitude:       lat,
		Longitude:      lon,
		AccuracyMeters: accuracy,
		CapturedAt:     time.Now().UTC().Format(time.RFC3339),
		IdempotencyKey: uuid.NewString(),
	}
}

// ========================================
// CLOCK IN
// ========================================

func TestClockIn_InsideGeofence(t *testing.T) {
	env := newTestEnv(t)
	ctx := workerContext(t, "worker-1")

	resp, err := env.service.ClockIn(ctx, clockInRequest(76.2, 6.1))
	require.NoError(t, err)

	assert.Equal(t, "worker-1", resp.WorkerID)
	assert.Equal(t, testSite.ID, resp.SiteID)
	assert.Equal(t, string(timeclock.StatusOpen), resp.Status)
	assert.True(t, resp.ClockInVerified)
	assert.InDelta(t, 76.2, resp.ClockInDistance, 0.5)

	records := env.trail.all()
	require.Len(t, records, 1)
	assert.Equal(t, audit.ActionClockIn, records[0].Action)
	assert.True(t, records[0].Verified)
	assert.Equal(t, "verified", records[0].Outcome)
	require.NotNil(t, records[0].SessionID)
	assert.Equal(t, resp.ID, *records[0].SessionID)
}

func TestClockIn_OutOfRange(t *testing.T) {
	env := newTestEnv(t)
	ctx := workerContext(t, "worker-1")

	_, err := env.service.ClockIn(ctx, clockInRequest(137.16, 6.1))
	require.Error(t, err)
	assert.ErrorIs(t, err, timeclock.ErrOutOfRange)

	var oor *timeclock.OutOfRangeError
	require.ErrorAs(t, err, &oor)
	assert.InDelta(t, 137.16, oor.DistanceMeters, 0.5)
	assert.Equal(t, testSite.RadiusMeters, oor.RadiusMeters)

	// No session was created, but the rejected attempt is on the trail
	assert.Equal(t, 0, env.sessions.openCount("worker-1"))
	records := env.trail.all()
	require.Len(t, records, 1)
	assert.False(t, records[0].Verified)
	assert.Equal(t, "out_of_range", records[0].Outcome)
	assert.Nil(t, records[0].SessionID)
}

func TestClockIn_LowAccuracy(t *testing.T) {
	env := newTestEnv(t)
	ctx := workerContext(t, "worker-1")

	// Standing dead center with an uncertainty wider than the geofence
	_, err := env.service.ClockIn(ctx, clockInRequest(0, 150))
	require.Error(t, err)
	assert.ErrorIs(t, err, timeclock.ErrLowAccuracy)

	records := env.trail.all()
	require.Len(t, records, 1)
	assert.Equal(t, "low_accuracy", records[0].Outcome)
}

func TestClockIn_AlreadyClockedIn(t *testing.T) {
	env := newTestEnv(t)
	ctx := workerContext(t, "worker-1")

	first, err := env.service.ClockIn(ctx, clockInRequest(10, 5))
	require.NoError(t, err)

	_, err = env.service.ClockIn(ctx, clockInRequest(10, 5))
	require.Error(t, err)
	assert.ErrorIs(t, err, timeclock.ErrAlreadyClockedIn)

	var aci *timeclock.AlreadyClockedInError
	require.ErrorAs(t, err, &aci)
	assert.Equal(t, first.ID, aci.SessionID)

	assert.Equal(t, 1, env.sessions.openCount("worker-1"))

	// Both the accepted attempt and the rejection are on the trail
	records := env.trail.all()
	require.Len(t, records, 2)
	assert.Equal(t, "already_clocked_in", records[1].Outcome)
}

func TestClockIn_DuplicateIdempotencyKey(t *testing.T) {
	env := newTestEnv(t)
	ctx := workerContext(t, "worker-1")

	req := clockInRequest(10, 5)
	first, err := env.service.ClockIn(ctx, req)
	require.NoError(t, err)

	_, err = env.service.ClockIn(ctx, req)
	require.Error(t, err)
	assert.ErrorIs(t, err, timeclock.ErrDuplicateRequest)

	var dup *timeclock.DuplicateRequestError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, first.ID, dup.SessionID)

	// The retry never reached the evaluator or the trail
	assert.Equal(t, 1, env.sessions.openCount("worker-1"))
	assert.Len(t, env.trail.all(), 1)
}

func TestClockIn_SiteNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := workerContext(t, "worker-1")

	req := clockInRequest(10, 5)
	req.SiteID = "nope"
	_, err := env.service.ClockIn(ctx, req)
	assert.ErrorIs(t, err, site.ErrSiteNotFound)
}

func TestClockIn_InactiveSite(t *testing.T) {
	env := newTestEnv(t)
	inactive := testSite
	inactive.ID = "site-2"
	inactive.Active = false
	env.sites.sites[inactive.ID] = inactive

	ctx := workerContext(t, "worker-1")
	req := clockInRequest(10, 5)
	req.SiteID = inactive.ID

	_, err := env.service.ClockIn(ctx, req)
	assert.ErrorIs(t, err, site.ErrSiteInactive)
}

func TestClockIn_ValidationFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := workerContext(t, "worker-1")

	req := clockInRequest(10, 5)
	req.Latitude = 95
	_, err := env.service.ClockIn(ctx, req)
	require.Error(t, err)

	// Malformed input never reaches the evaluator or the trail
	assert.Empty(t, env.trail.all())
}

func TestClockIn_MissingWorkerClaim(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.ClockIn(context.Background(), clockInRequest(10, 5))
	require.Error(t, err)
}

func TestClockIn_AuditFailureSurfacesOverBusinessError(t *testing.T) {
	env := newTestEnv(t)
	ctx := workerContext(t, "worker-1")

	_, err := env.service.ClockIn(ctx, clockInRequest(10, 5))
	require.NoError(t, err)

	// Storage faults on the trail must not be masked by the rejection they
	// were meant to record.
	env.trail.appendErr = fmt.Errorf("connection reset")
	_, err = env.service.ClockIn(ctx, clockInRequest(10, 5))
	require.Error(t, err)
	assert.NotErrorIs(t, err, timeclock.ErrAlreadyClockedIn)
	assert.Contains(t, err.Error(), "failed to append audit record")
}

func TestClockIn_ConcurrentAttemptsOpenOneSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := workerContext(t, "worker-1")

	const attempts = 25
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.service.ClockIn(ctx, clockInRequest(10, 5))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		assert.ErrorIs(t, err, timeclock.ErrAlreadyClockedIn)
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, env.sessions.openCount("worker-1"))
}

// ========================================
// CLOCK OUT
// ========================================

func TestClockOut_OnSiteAutoApproves(t *testing.T) {
	env := newTestEnv(t)
	ctx := workerContext(t, "worker-1")

	opened, err := env.service.ClockIn(ctx, clockInRequest(10, 5))
	require.NoError(t, err)

	resp, err := env.service.ClockOut(ctx, clockOutRequest(20, 5))
	require.NoError(t, err)

	assert.Equal(t, opened.ID, resp.ID)
	assert.Equal(t, string(timeclock.StatusClosed), resp.Status)
	require.NotNil(t, resp.ClockOutVerified)
	assert.True(t, *resp.ClockOutVerified)
	require.NotNil(t, resp.WorkedMinutes)

	// Both ends verified and the duration is sane, so the entry is approved
	// without human involvement.
	require.NotNil(t, resp.TimesheetEntryID)
	entry, err := env.entries.GetByID(ctx, *resp.TimesheetEntryID)
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusAutoApproved, entry.Status)
	assert.Nil(t, entry.ApprovedBy)
	assert.NotNil(t, entry.ApprovedAt)

	assert.Equal(t, 0, env.sessions.openCount("worker-1"))
}

func TestClockOut_OffSiteStillCloses(t *testing.T) {
	env := newTestEnv(t)
	ctx := workerContext(t, "worker-1")

	_, err := env.service.ClockIn(ctx, clockInRequest(10, 5))
	require.NoError(t, err)

	// Far outside the geofence. The clock-out must not be blocked; the worker
	// would otherwise be stuck in an open session.
	resp, err := env.service.ClockOut(ctx, clockOutRequest(500, 5))
	require.NoError(t, err)

	assert.Equal(t, string(timeclock.StatusClosed), resp.Status)
	require.NotNil(t, resp.ClockOutVerified)
	assert.False(t, *resp.ClockOutVerified)

	// The unverified end routes the entry to manual review
	require.NotNil(t, resp.TimesheetEntryID)
	entry, err := env.entries.GetByID(ctx, *resp.TimesheetEntryID)
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusPendingReview, entry.Status)
	require.NotNil(t, entry.ReviewNote)
	assert.Contains(t, *entry.ReviewNote, "clock-out location was not verified")
}

func TestClockOut_NoActiveSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := workerContext(t, "worker-1")

	_, err := env.service.ClockOut(ctx, clockOutRequest(10, 5))
	assert.ErrorIs(t, err, timeclock.ErrNoActiveSession)

	records := env.trail.all()
	require.Len(t, records, 1)
	assert.Equal(t, audit.ActionClockOut, records[0].Action)
	assert.Equal(t, "no_active_session", records[0].Outcome)
}

func TestClockOut_DuplicateIdempotencyKey(t *testing.T) {
	env := newTestEnv(t)
	ctx := workerContext(t, "worker-1")

	_, err := env.service.ClockIn(ctx, clockInRequest(10, 5))
	require.NoError(t, err)

	req := clockOutRequest(20, 5)
	closed, err := env.service.ClockOut(ctx, req)
	require.NoError(t, err)

	_, err = env.service.ClockOut(ctx, req)
	require.Error(t, err)
	assert.ErrorIs(t, err, timeclock.ErrDuplicateRequest)

	var dup *timeclock.DuplicateRequestError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, closed.ID, dup.SessionID)
}

func TestClockOut_AuditTrailRecordsBothEnds(t *testing.T) {
	env := newTestEnv(t)
	ctx := workerContext(t, "worker-1")

	_, err := env.service.ClockIn(ctx, clockInRequest(10, 5))
	require.NoError(t, err)
	_, err = env.service.ClockOut(ctx, clockOutRequest(20, 5))
	require.NoError(t, err)

	records := env.trail.all()
	require.Len(t, records, 2)
	assert.Equal(t, audit.ActionClockIn, records[0].Action)
	assert.Equal(t, "session_open", records[0].ResultState)
	assert.Equal(t, audit.ActionClockOut, records[1].Action)
	assert.Equal(t, "session_closed", records[1].ResultState)
}

// ========================================
// QUERIES
// ========================================

func TestGetOpenSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := workerContext(t, "worker-1")

	_, err := env.service.GetOpenSession(ctx)
	assert.ErrorIs(t, err, timeclock.ErrNoActiveSession)

	opened, err := env.service.ClockIn(ctx, clockInRequest(10, 5))
	require.NoError(t, err)

	resp, err := env.service.GetOpenSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, opened.ID, resp.ID)
}

func TestListMySessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := workerContext(t, "worker-1")
	otherCtx := workerContext(t, "worker-2")

	_, err := env.service.ClockIn(ctx, clockInRequest(10, 5))
	require.NoError(t, err)
	_, err = env.service.ClockOut(ctx, clockOutRequest(20, 5))
	require.NoError(t, err)
	_, err = env.service.ClockIn(ctx, clockInRequest(10, 5))
	require.NoError(t, err)

	_, err = env.service.ClockIn(otherCtx, clockInRequest(10, 5))
	require.NoError(t, err)

	// Workers only ever see their own history
	resp, err := env.service.ListMySessions(ctx, timeclock.SessionFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, resp.TotalCount)

	status := string(timeclock.StatusOpen)
	resp, err = env.service.ListMySessions(ctx, timeclock.SessionFilter{Status: &status, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, resp.TotalCount)
}

func TestListMySessions_InvalidStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := workerContext(t, "worker-1")

	bad := "paused"
	_, err := env.service.ListMySessions(ctx, timeclock.SessionFilter{Status: &bad})
	require.Error(t, err)
}

func TestDifferentWorkersClockInIndependently(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.ClockIn(workerContext(t, "worker-1"), clockInRequest(10, 5))
	require.NoError(t, err)
	_, err = env.service.ClockIn(workerContext(t, "worker-2"), clockInRequest(10, 5))
	require.NoError(t, err)

	assert.Equal(t, 1, env.sessions.openCount("worker-1"))
	assert.Equal(t, 1, env.sessions.openCount("worker-2"))
}
