package core

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"workhub.service/internal/core/model"
	"workhub.service/internal/ports/messaging"
	"workhub.service/internal/ports/repository"
)

// Status thresholds at punch-out, in seconds of the full punch-in to
// punch-out span.
const (
	presentSeconds = 23400 // 6.5h
	halfDaySeconds = 16200 // 4.5h
)

// AttendanceService runs the daily punch state machine and its
// time-accounting. Persistence is delegated to the record store; on a
// completed day a summary event is published for the email pipeline.
type AttendanceService struct {
	repo     repository.AttendanceRepository
	producer messaging.Producer

	// now is the wall clock, replaceable in tests.
	now func() time.Time

	// locks serializes punch actions per (userId, dayKey). The
	// read-then-write mutation has no row version, so concurrent punches
	// for the same user-day must not interleave. Entries are refcounted
	// and removed once the last holder releases, so the map only carries
	// user-days with a punch in flight.
	mu    sync.Mutex
	locks map[string]*dayLock
}

type dayLock struct {
	mu   sync.Mutex
	refs int
}

// NewAttendanceService creates the attendance engine, wiring up the record
// store and the message queue producer.
func NewAttendanceService(repo repository.AttendanceRepository, producer messaging.Producer) *AttendanceService {
	return &AttendanceService{
		repo:     repo,
		producer: producer,
		now:      time.Now,
		locks:    make(map[string]*dayLock),
	}
}

// DayKey normalizes a timestamp to the midnight of its calendar day, the
// attendance day key.
func DayKey(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// makeTimestamp anchors the current wall-clock time-of-day onto the target
// attendance day. Every punch timestamp belongs to the day being acted on,
// not necessarily "now" as a full date.
func (s *AttendanceService) makeTimestamp(day time.Time) time.Time {
	now := s.now()
	return time.Date(day.Year(), day.Month(), day.Day(),
		now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), day.Location())
}

// lockDay acquires the (userId, day) lock and returns its release func. The
// refcount keeps the entry alive for waiters; the last release deletes it.
func (s *AttendanceService) lockDay(userID string, day time.Time) func() {
	key := userID + "|" + day.Format("2006-01-02")

	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &dayLock{}
		s.locks[key] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

// GetPunchStatus derives the punch state view for one attendance day
// (default today). A day with no record is NOT_PUNCHED with all accumulators
// at zero.
func (s *AttendanceService) GetPunchStatus(ctx context.Context, userID string, date *time.Time) (model.PunchStatusView, error) {
	day := s.targetDay(date)

	rec, err := s.repo.FindByUserAndDate(ctx, userID, day)
	if err != nil {
		return model.PunchStatusView{}, fmt.Errorf("failed to query attendance record: %w", err)
	}
	return viewFromRecord(rec), nil
}

// PerformPunch applies one action of the IN / START_BREAK / END_BREAK / OUT
// cycle. Precondition violations come back as PunchError values with no
// mutation performed.
func (s *AttendanceService) PerformPunch(ctx context.Context, userID string, action model.PunchAction, date *time.Time, breakType *model.BreakType) (model.PunchStatusView, error) {
	day := s.targetDay(date)
	timestamp := s.makeTimestamp(day)

	unlock := s.lockDay(userID, day)
	defer unlock()

	rec, err := s.repo.FindByUserAndDate(ctx, userID, day)
	if err != nil {
		return model.PunchStatusView{}, fmt.Errorf("failed to query attendance record: %w", err)
	}

	switch action {
	case model.ActionIn:
		rec, err = s.punchIn(ctx, rec, userID, day, timestamp)
	case model.ActionStartBreak:
		rec, err = s.startBreak(ctx, rec, timestamp, breakType)
	case model.ActionEndBreak:
		rec, err = s.endBreak(ctx, rec, timestamp)
	case model.ActionOut:
		rec, err = s.punchOut(ctx, rec, timestamp)
	default:
		err = ErrUnknownAction
	}
	if err != nil {
		return model.PunchStatusView{}, err
	}

	return viewFromRecord(rec), nil
}

// GetMonthlyAttendance returns all records of a calendar month ordered by
// date ascending.
func (s *AttendanceService) GetMonthlyAttendance(ctx context.Context, userID string, year int, month time.Month) ([]model.AttendanceRecord, error) {
	records, err := s.repo.ListByMonth(ctx, userID, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly attendance: %w", err)
	}
	return records, nil
}

func (s *AttendanceService) targetDay(date *time.Time) time.Time {
	if date != nil {
		return DayKey(*date)
	}
	return DayKey(s.now())
}

func (s *AttendanceService) punchIn(ctx context.Context, rec *model.AttendanceRecord, userID string, day, timestamp time.Time) (*model.AttendanceRecord, error) {
	if rec != nil {
		return nil, ErrAlreadyPunchedIn
	}

	created := &model.AttendanceRecord{
		ID:      uuid.NewString(),
		UserID:  userID,
		Date:    day,
		PunchIn: &timestamp,
		// Provisional until punch-out derives the real status.
		Status: model.StatusPresent,
	}
	if err := s.repo.Create(ctx, created); err != nil {
		return nil, fmt.Errorf("failed to create attendance record: %w", err)
	}
	return created, nil
}

func (s *AttendanceService) startBreak(ctx context.Context, rec *model.AttendanceRecord, timestamp time.Time, breakType *model.BreakType) (*model.AttendanceRecord, error) {
	if rec == nil || rec.PunchOut != nil {
		return nil, ErrCannotStartBreak
	}
	if rec.BreakStartTime != nil {
		return nil, ErrAlreadyOnBreak
	}
	if breakType == nil {
		return nil, ErrBreakTypeRequired
	}
	// Each break type is usable at most once per day.
	if *breakType == model.BreakLunch && rec.TotalLunchSeconds > 0 {
		return nil, ErrLunchTaken
	}
	if *breakType == model.BreakTea && rec.TotalTeaSeconds > 0 {
		return nil, ErrTeaTaken
	}

	if err := s.repo.UpdateBreakStart(ctx, rec.ID, timestamp, *breakType); err != nil {
		return nil, fmt.Errorf("failed to start break: %w", err)
	}

	rec.BreakStartTime = &timestamp
	rec.BreakType = breakType
	return rec, nil
}

func (s *AttendanceService) endBreak(ctx context.Context, rec *model.AttendanceRecord, timestamp time.Time) (*model.AttendanceRecord, error) {
	if rec == nil || rec.BreakStartTime == nil {
		return nil, ErrNotOnBreak
	}

	duration := breakSeconds(*rec.BreakStartTime, timestamp)

	var lunchInc, teaInc int64
	if rec.BreakType != nil {
		switch *rec.BreakType {
		case model.BreakLunch:
			lunchInc = duration
		case model.BreakTea:
			teaInc = duration
		}
	}

	if err := s.repo.UpdateBreakEnd(ctx, rec.ID, duration, lunchInc, teaInc); err != nil {
		return nil, fmt.Errorf("failed to end break: %w", err)
	}

	rec.TotalBreakSeconds += duration
	rec.TotalLunchSeconds += lunchInc
	rec.TotalTeaSeconds += teaInc
	rec.BreakStartTime = nil
	rec.BreakType = nil
	return rec, nil
}

func (s *AttendanceService) punchOut(ctx context.Context, rec *model.AttendanceRecord, timestamp time.Time) (*model.AttendanceRecord, error) {
	if rec == nil || rec.PunchOut != nil {
		return nil, ErrCannotPunchOut
	}
	if rec.PunchIn == nil {
		return nil, ErrCannotPunchOut
	}

	// Fold any open break into the accumulators first.
	var additionalBreak, additionalLunch, additionalTea int64
	if rec.BreakStartTime != nil {
		additionalBreak = breakSeconds(*rec.BreakStartTime, timestamp)
		if rec.BreakType != nil {
			switch *rec.BreakType {
			case model.BreakLunch:
				additionalLunch = additionalBreak
			case model.BreakTea:
				additionalTea = additionalBreak
			}
		}
	}
	totalBreak := rec.TotalBreakSeconds + additionalBreak

	// Work time is the entire punch-in to punch-out span, breaks included.
	// Deliberate policy; do not subtract break time.
	workSeconds := int64(timestamp.Sub(*rec.PunchIn) / time.Second)
	if workSeconds < 0 {
		workSeconds = 0
	}

	status := deriveStatus(workSeconds)

	if err := s.repo.UpdatePunchOut(ctx, rec.ID, timestamp, totalBreak, additionalLunch, additionalTea, workSeconds, status); err != nil {
		return nil, fmt.Errorf("failed to punch out: %w", err)
	}

	rec.PunchOut = &timestamp
	rec.BreakStartTime = nil
	rec.BreakType = nil
	rec.TotalBreakSeconds = totalBreak
	rec.TotalLunchSeconds += additionalLunch
	rec.TotalTeaSeconds += additionalTea
	rec.TotalWorkSeconds = workSeconds
	rec.Status = status

	s.publishSummary(ctx, rec)
	return rec, nil
}

// publishSummary hands the completed day to the email pipeline. Failures are
// logged, never surfaced: the punch-out itself already succeeded.
func (s *AttendanceService) publishSummary(ctx context.Context, rec *model.AttendanceRecord) {
	if s.producer == nil {
		return
	}
	event := messaging.PunchOutEvent{
		RecordID:     rec.ID,
		UserID:       rec.UserID,
		WorkSeconds:  rec.TotalWorkSeconds,
		Status:       string(rec.Status),
		PunchOutTime: *rec.PunchOut,
	}
	if err := s.producer.PublishPunchOutSummary(ctx, event); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("record_id", rec.ID).Msg("Failed to publish punch-out summary event")
	}
}

// breakSeconds is the clamped whole-second duration of a break.
func breakSeconds(start, end time.Time) int64 {
	secs := int64(end.Sub(start) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}

// deriveStatus classifies a completed day from the full worked span.
func deriveStatus(workSeconds int64) model.AttendanceStatus {
	switch {
	case workSeconds >= presentSeconds:
		return model.StatusPresent
	case workSeconds >= halfDaySeconds:
		return model.StatusHalfDay
	case workSeconds > 0:
		return model.StatusShortDay
	default:
		return model.StatusAbsent
	}
}

// viewFromRecord maps a record (or its absence) to the derived client view.
// Work seconds are only reported once the day is punched out.
func viewFromRecord(rec *model.AttendanceRecord) model.PunchStatusView {
	state := model.DerivePunchState(rec)
	if rec == nil {
		return model.PunchStatusView{State: state}
	}

	view := model.PunchStatusView{
		State:             state,
		PunchIn:           rec.PunchIn,
		BreakStartTime:    rec.BreakStartTime,
		BreakType:         rec.BreakType,
		TotalBreakSeconds: rec.TotalBreakSeconds,
		TotalLunchSeconds: rec.TotalLunchSeconds,
		TotalTeaSeconds:   rec.TotalTeaSeconds,
		RecordID:          rec.ID,
	}
	if state == model.StatePunchedOut {
		view.PunchOut = rec.PunchOut
		view.TotalWorkSeconds = rec.TotalWorkSeconds
	}
	return view
}

// WeekBounds returns the Monday 00:00 and following Monday 00:00 around ref.
func WeekBounds(ref time.Time) (time.Time, time.Time) {
	day := DayKey(ref)
	offset := int(day.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7 // Sunday belongs to the week that started 6 days earlier
	}
	monday := day.AddDate(0, 0, -offset)
	return monday, monday.AddDate(0, 0, 7)
}

// WeeklyHours sums finalized work seconds over the Mon-Sun week containing
// ref, in hours rounded to 1 decimal.
func WeeklyHours(records []model.AttendanceRecord, ref time.Time) float64 {
	start, end := WeekBounds(ref)

	var totalSeconds int64
	for _, rec := range records {
		if !rec.Date.Before(start) && rec.Date.Before(end) {
			totalSeconds += rec.TotalWorkSeconds
		}
	}
	hours := float64(totalSeconds) / 3600
	return math.Round(hours*10) / 10
}
