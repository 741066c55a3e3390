package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workhub.service/internal/core/model"
	"workhub.service/internal/ports/messaging"
)

// fakeAttendanceRepo is an in-memory record store. It hands out copies so the
// service cannot mutate stored state without going through an update call,
// mirroring how a real row store behaves. The mutex makes it safe for the
// concurrency tests.
type fakeAttendanceRepo struct {
	mu      sync.Mutex
	records map[string]*model.AttendanceRecord
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{records: make(map[string]*model.AttendanceRecord)}
}

func clone(rec *model.AttendanceRecord) *model.AttendanceRecord {
	if rec == nil {
		return nil
	}
	c := *rec
	return &c
}

func (r *fakeAttendanceRepo) GetByID(ctx context.Context, id string) (*model.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return clone(r.records[id]), nil
}

func (r *fakeAttendanceRepo) FindByUserAndDate(ctx context.Context, userID string, day time.Time) (*model.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.UserID == userID && rec.Date.Equal(day) {
			return clone(rec), nil
		}
	}
	return nil, nil
}

func (r *fakeAttendanceRepo) Create(ctx context.Context, rec *model.AttendanceRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = clone(rec)
	return nil
}

func (r *fakeAttendanceRepo) UpdateBreakStart(ctx context.Context, id string, start time.Time, breakType model.BreakType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.records[id]
	rec.BreakStartTime = &start
	rec.BreakType = &breakType
	return nil
}

func (r *fakeAttendanceRepo) UpdateBreakEnd(ctx context.Context, id string, breakInc, lunchInc, teaInc int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.records[id]
	rec.TotalBreakSeconds += breakInc
	rec.TotalLunchSeconds += lunchInc
	rec.TotalTeaSeconds += teaInc
	rec.BreakStartTime = nil
	rec.BreakType = nil
	return nil
}

func (r *fakeAttendanceRepo) UpdatePunchOut(ctx context.Context, id string, out time.Time, totalBreak, lunchInc, teaInc, workSeconds int64, status model.AttendanceStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.records[id]
	rec.PunchOut = &out
	rec.BreakStartTime = nil
	rec.BreakType = nil
	rec.TotalBreakSeconds = totalBreak
	rec.TotalLunchSeconds += lunchInc
	rec.TotalTeaSeconds += teaInc
	rec.TotalWorkSeconds = workSeconds
	rec.Status = status
	return nil
}

func (r *fakeAttendanceRepo) MarkEmailNotified(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[id].EmailNotified = true
	return nil
}

func (r *fakeAttendanceRepo) ListByMonth(ctx context.Context, userID string, year int, month time.Month) ([]model.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.AttendanceRecord
	for _, rec := range r.records {
		if rec.UserID == userID && rec.Date.Year() == year && rec.Date.Month() == month {
			out = append(out, *rec)
		}
	}
	return out, nil
}

type fakeProducer struct {
	mu     sync.Mutex
	events []messaging.PunchOutEvent
}

func (p *fakeProducer) PublishPunchOutSummary(ctx context.Context, event messaging.PunchOutEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// testClock lets a test move the service's wall clock.
type testClock struct {
	current time.Time
}

func (c *testClock) set(hour, minute, second int) {
	c.current = time.Date(c.current.Year(), c.current.Month(), c.current.Day(), hour, minute, second, 0, time.UTC)
}

func newTestService() (*AttendanceService, *fakeAttendanceRepo, *fakeProducer, *testClock) {
	repo := newFakeAttendanceRepo()
	producer := &fakeProducer{}
	clock := &testClock{current: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}

	svc := NewAttendanceService(repo, producer)
	svc.now = func() time.Time { return clock.current }
	return svc, repo, producer, clock
}

const testUser = "user-1"

func TestGetPunchStatusNoRecord(t *testing.T) {
	svc, _, _, _ := newTestService()

	view, err := svc.GetPunchStatus(context.Background(), testUser, nil)
	require.NoError(t, err)

	assert.Equal(t, model.StateNotPunched, view.State)
	assert.Zero(t, view.TotalWorkSeconds)
	assert.Zero(t, view.TotalBreakSeconds)
	assert.Empty(t, view.RecordID)
}

func TestPunchInTwiceRejected(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	view, err := svc.PerformPunch(ctx, testUser, model.ActionIn, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatePunchedIn, view.State)
	assert.NotEmpty(t, view.RecordID)

	_, err = svc.PerformPunch(ctx, testUser, model.ActionIn, nil, nil)
	assert.ErrorIs(t, err, ErrAlreadyPunchedIn)
	assert.True(t, IsPunchError(err))
}

func TestConcurrentPunchInsSerialized(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.PerformPunch(ctx, testUser, model.ActionIn, nil, nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, rejected int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrAlreadyPunchedIn):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one racing punch-in may win")
	assert.Equal(t, attempts-1, rejected)
	assert.Len(t, repo.records, 1)
}

func TestDayLocksReleasedWhenIdle(t *testing.T) {
	svc, _, _, clock := newTestService()
	ctx := context.Background()

	clock.set(9, 0, 0)
	_, err := svc.PerformPunch(ctx, testUser, model.ActionIn, nil, nil)
	require.NoError(t, err)

	clock.set(17, 30, 0)
	_, err = svc.PerformPunch(ctx, testUser, model.ActionOut, nil, nil)
	require.NoError(t, err)

	past := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	_, err = svc.PerformPunch(ctx, "user-2", model.ActionIn, &past, nil)
	require.NoError(t, err)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Empty(t, svc.locks, "idle user-days must not keep lock entries alive")
}

func TestFullDayWithTeaBreak(t *testing.T) {
	svc, _, producer, clock := newTestService()
	ctx := context.Background()

	clock.set(9, 0, 0)
	_, err := svc.PerformPunch(ctx, testUser, model.ActionIn, nil, nil)
	require.NoError(t, err)

	clock.set(11, 0, 0)
	tea := model.BreakTea
	view, err := svc.PerformPunch(ctx, testUser, model.ActionStartBreak, nil, &tea)
	require.NoError(t, err)
	assert.Equal(t, model.StateOnBreak, view.State)
	require.NotNil(t, view.BreakType)
	assert.Equal(t, model.BreakTea, *view.BreakType)

	clock.set(11, 10, 0)
	view, err = svc.PerformPunch(ctx, testUser, model.ActionEndBreak, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatePunchedIn, view.State)
	assert.EqualValues(t, 600, view.TotalTeaSeconds)
	assert.EqualValues(t, 600, view.TotalBreakSeconds)
	assert.Zero(t, view.TotalLunchSeconds)

	clock.set(17, 30, 0)
	view, err = svc.PerformPunch(ctx, testUser, model.ActionOut, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatePunchedOut, view.State)

	// The full 09:00-17:30 span counts as work, breaks included.
	assert.EqualValues(t, 30600, view.TotalWorkSeconds)
	assert.EqualValues(t, 600, view.TotalBreakSeconds)

	require.Len(t, producer.events, 1)
	event := producer.events[0]
	assert.Equal(t, view.RecordID, event.RecordID)
	assert.Equal(t, testUser, event.UserID)
	assert.EqualValues(t, 30600, event.WorkSeconds)
	assert.Equal(t, string(model.StatusPresent), event.Status)
}

func TestSecondLunchRejectedWithoutMutation(t *testing.T) {
	svc, repo, _, clock := newTestService()
	ctx := context.Background()
	lunch := model.BreakLunch

	clock.set(9, 0, 0)
	view, err := svc.PerformPunch(ctx, testUser, model.ActionIn, nil, nil)
	require.NoError(t, err)
	recordID := view.RecordID

	clock.set(13, 0, 0)
	_, err = svc.PerformPunch(ctx, testUser, model.ActionStartBreak, nil, &lunch)
	require.NoError(t, err)

	clock.set(13, 30, 0)
	_, err = svc.PerformPunch(ctx, testUser, model.ActionEndBreak, nil, nil)
	require.NoError(t, err)

	clock.set(15, 0, 0)
	_, err = svc.PerformPunch(ctx, testUser, model.ActionStartBreak, nil, &lunch)
	assert.ErrorIs(t, err, ErrLunchTaken)

	stored, err := repo.GetByID(ctx, recordID)
	require.NoError(t, err)
	assert.Nil(t, stored.BreakStartTime, "rejected punch must not leave an open break")
	assert.Nil(t, stored.BreakType)
	assert.EqualValues(t, 1800, stored.TotalLunchSeconds)
}

func TestBreakPreconditions(t *testing.T) {
	lunch := model.BreakLunch

	tests := []struct {
		name    string
		setup   []model.PunchAction
		action  model.PunchAction
		breakTy *model.BreakType
		wantErr error
	}{
		{
			name:    "break before punch in",
			action:  model.ActionStartBreak,
			breakTy: &lunch,
			wantErr: ErrCannotStartBreak,
		},
		{
			name:    "break without type",
			setup:   []model.PunchAction{model.ActionIn},
			action:  model.ActionStartBreak,
			wantErr: ErrBreakTypeRequired,
		},
		{
			name:    "end break while not on break",
			setup:   []model.PunchAction{model.ActionIn},
			action:  model.ActionEndBreak,
			wantErr: ErrNotOnBreak,
		},
		{
			name:    "punch out before punch in",
			action:  model.ActionOut,
			wantErr: ErrCannotPunchOut,
		},
		{
			name:    "unknown action",
			action:  model.PunchAction("NAP"),
			wantErr: ErrUnknownAction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _, _ := newTestService()
			ctx := context.Background()
			for _, a := range tt.setup {
				_, err := svc.PerformPunch(ctx, testUser, a, nil, nil)
				require.NoError(t, err)
			}

			_, err := svc.PerformPunch(ctx, testUser, tt.action, nil, tt.breakTy)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestStatusThresholds(t *testing.T) {
	tests := []struct {
		name     string
		worked   time.Duration
		expected model.AttendanceStatus
	}{
		{"full day", 6*time.Hour + 30*time.Minute, model.StatusPresent},
		{"one second under full day", 6*time.Hour + 30*time.Minute - time.Second, model.StatusHalfDay},
		{"half day boundary", 4*time.Hour + 30*time.Minute, model.StatusHalfDay},
		{"one second under half day", 4*time.Hour + 30*time.Minute - time.Second, model.StatusShortDay},
		{"a minute of work", time.Minute, model.StatusShortDay},
		{"in and out within the same second", 0, model.StatusAbsent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _, clock := newTestService()
			ctx := context.Background()

			clock.set(8, 0, 0)
			_, err := svc.PerformPunch(ctx, testUser, model.ActionIn, nil, nil)
			require.NoError(t, err)

			out := clock.current.Add(tt.worked)
			clock.set(out.Hour(), out.Minute(), out.Second())

			view, err := svc.PerformPunch(ctx, testUser, model.ActionOut, nil, nil)
			require.NoError(t, err)
			assert.EqualValues(t, int64(tt.worked/time.Second), view.TotalWorkSeconds)

			records, err := svc.GetMonthlyAttendance(ctx, testUser, 2025, time.March)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, tt.expected, records[0].Status)
		})
	}
}

func TestPunchOutFoldsOpenBreak(t *testing.T) {
	svc, _, _, clock := newTestService()
	ctx := context.Background()
	lunch := model.BreakLunch

	clock.set(9, 0, 0)
	_, err := svc.PerformPunch(ctx, testUser, model.ActionIn, nil, nil)
	require.NoError(t, err)

	clock.set(13, 0, 0)
	_, err = svc.PerformPunch(ctx, testUser, model.ActionStartBreak, nil, &lunch)
	require.NoError(t, err)

	// Punch out while still on lunch: the open break is closed implicitly.
	clock.set(13, 45, 0)
	view, err := svc.PerformPunch(ctx, testUser, model.ActionOut, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, model.StatePunchedOut, view.State)
	assert.Nil(t, view.BreakStartTime)
	assert.EqualValues(t, 2700, view.TotalBreakSeconds)
	assert.EqualValues(t, 2700, view.TotalLunchSeconds)
}

func TestWorkSecondsHiddenUntilPunchOut(t *testing.T) {
	svc, _, _, clock := newTestService()
	ctx := context.Background()

	clock.set(9, 0, 0)
	_, err := svc.PerformPunch(ctx, testUser, model.ActionIn, nil, nil)
	require.NoError(t, err)

	clock.set(15, 0, 0)
	view, err := svc.GetPunchStatus(ctx, testUser, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatePunchedIn, view.State)
	assert.Zero(t, view.TotalWorkSeconds, "no live accrual before punch out")
	assert.Nil(t, view.PunchOut)
}

func TestPunchOnPastDayUsesCurrentClockTime(t *testing.T) {
	svc, repo, _, clock := newTestService()
	ctx := context.Background()

	clock.set(10, 15, 30)
	past := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	view, err := svc.PerformPunch(ctx, testUser, model.ActionIn, &past, nil)
	require.NoError(t, err)

	stored, err := repo.GetByID(ctx, view.RecordID)
	require.NoError(t, err)
	assert.True(t, stored.Date.Equal(past))
	require.NotNil(t, stored.PunchIn)
	// Time-of-day comes from the clock, the date from the target day.
	assert.Equal(t, time.Date(2025, 3, 3, 10, 15, 30, 0, time.UTC), *stored.PunchIn)
}

func TestWeekBounds(t *testing.T) {
	// 2025-03-10 is a Monday.
	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		ref  time.Time
	}{
		{"monday itself", monday},
		{"midweek", monday.AddDate(0, 0, 2)},
		{"sunday belongs to the same week", monday.AddDate(0, 0, 6)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := WeekBounds(tt.ref)
			assert.True(t, start.Equal(monday), "start = %v", start)
			assert.True(t, end.Equal(monday.AddDate(0, 0, 7)), "end = %v", end)
		})
	}
}

func TestWeeklyHours(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC) }

	records := []model.AttendanceRecord{
		{Date: day(10), TotalWorkSeconds: 30600}, // Monday, 8.5h
		{Date: day(12), TotalWorkSeconds: 16200}, // Wednesday, 4.5h
		{Date: day(16), TotalWorkSeconds: 3600},  // Sunday, 1h
		{Date: day(17), TotalWorkSeconds: 30600}, // next Monday, excluded
		{Date: day(9), TotalWorkSeconds: 7200},   // previous Sunday, excluded
	}

	hours := WeeklyHours(records, day(13))
	assert.Equal(t, 14.0, hours)

	// A Sunday reference still picks up the week that started the Monday before.
	hours = WeeklyHours(records, day(16))
	assert.Equal(t, 14.0, hours)
}
