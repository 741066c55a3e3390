package repository

import (
	"context"
	"database/sql"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"workhub.service/internal/core/model"
)

// AttendanceRepo is the concrete implementation for a PostgreSQL database.
// The (user_id, date) pair carries a unique constraint, so at most one record
// exists per attendance day.
type AttendanceRepo struct {
	DB *sql.DB
}

// NewAttendanceRepository create new instance
func NewAttendanceRepository(db *sql.DB) AttendanceRepository {
	return &AttendanceRepo{DB: db}
}

const attendanceColumns = `id, user_id, date, punch_in, punch_out, break_start_time, break_type,
	       total_break_seconds, total_lunch_seconds, total_tea_seconds, total_work_seconds, status, email_notified`

// GetByID fetches a complete attendance record by its ID.
func (r *AttendanceRepo) GetByID(ctx context.Context, id string) (*model.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE id = $1`

	rec, err := scanAttendance(r.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// FindByUserAndDate gets the record for one attendance day, nil when the day
// has no record yet.
func (r *AttendanceRepo) FindByUserAndDate(ctx context.Context, userID string, day time.Time) (*model.AttendanceRecord, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.userId", userID))

	query := `SELECT ` + attendanceColumns + `
              FROM attendance_records
              WHERE user_id = $1 AND date = $2`

	rec, err := scanAttendance(r.DB.QueryRowContext(ctx, query, userID, day))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Create inserts the first punch of the day.
func (r *AttendanceRepo) Create(ctx context.Context, rec *model.AttendanceRecord) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.userId", rec.UserID))

	query := `INSERT INTO attendance_records (id, user_id, date, punch_in, status,
	              total_break_seconds, total_lunch_seconds, total_tea_seconds, total_work_seconds, email_notified)
              VALUES ($1, $2, $3, $4, $5, 0, 0, 0, 0, FALSE)`

	_, err := r.DB.ExecContext(ctx, query, rec.ID, rec.UserID, rec.Date, rec.PunchIn, rec.Status)
	return err
}

// UpdateBreakStart opens a break on the record.
func (r *AttendanceRepo) UpdateBreakStart(ctx context.Context, id string, start time.Time, breakType model.BreakType) error {
	query := `UPDATE attendance_records
              SET break_start_time = $1,
                  break_type = $2
              WHERE id = $3`

	_, err := r.DB.ExecContext(ctx, query, start, breakType, id)
	return err
}

// UpdateBreakEnd folds the finished break into the accumulators and clears
// the open-break fields. Increments run inside the statement so the
// accumulators stay monotonic.
func (r *AttendanceRepo) UpdateBreakEnd(ctx context.Context, id string, breakInc, lunchInc, teaInc int64) error {
	query := `UPDATE attendance_records
              SET break_start_time = NULL,
                  break_type = NULL,
                  total_break_seconds = total_break_seconds + $1,
                  total_lunch_seconds = total_lunch_seconds + $2,
                  total_tea_seconds = total_tea_seconds + $3
              WHERE id = $4`

	_, err := r.DB.ExecContext(ctx, query, breakInc, lunchInc, teaInc, id)
	return err
}

// UpdatePunchOut finalizes the day: terminal work-seconds overwrite, derived
// status, and any open break folded in by the caller.
func (r *AttendanceRepo) UpdatePunchOut(ctx context.Context, id string, out time.Time, totalBreak, lunchInc, teaInc, workSeconds int64, status model.AttendanceStatus) error {
	query := `UPDATE attendance_records
              SET punch_out = $1,
                  break_start_time = NULL,
                  break_type = NULL,
                  total_break_seconds = $2,
                  total_lunch_seconds = total_lunch_seconds + $3,
                  total_tea_seconds = total_tea_seconds + $4,
                  total_work_seconds = $5,
                  status = $6
              WHERE id = $7`

	_, err := r.DB.ExecContext(ctx, query, out, totalBreak, lunchInc, teaInc, workSeconds, status, id)
	return err
}

// MarkEmailNotified records that the punch-out summary email went out.
func (r *AttendanceRepo) MarkEmailNotified(ctx context.Context, id string) error {
	query := `UPDATE attendance_records SET email_notified = TRUE WHERE id = $1`
	_, err := r.DB.ExecContext(ctx, query, id)
	return err
}

// ListByMonth returns all records of one calendar month ordered by date
// ascending, for calendars and weekly aggregates.
func (r *AttendanceRepo) ListByMonth(ctx context.Context, userID string, year int, month time.Month) ([]model.AttendanceRecord, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.userId", userID))

	start := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 1, 0)

	query := `SELECT ` + attendanceColumns + `
              FROM attendance_records
              WHERE user_id = $1 AND date >= $2 AND date < $3
              ORDER BY date ASC`

	rows, err := r.DB.QueryContext(ctx, query, userID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.AttendanceRecord
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttendance(row rowScanner) (*model.AttendanceRecord, error) {
	var (
		rec       model.AttendanceRecord
		punchIn   sql.NullTime
		punchOut  sql.NullTime
		breakAt   sql.NullTime
		breakType sql.NullString
	)

	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.Date, &punchIn, &punchOut, &breakAt, &breakType,
		&rec.TotalBreakSeconds, &rec.TotalLunchSeconds, &rec.TotalTeaSeconds,
		&rec.TotalWorkSeconds, &rec.Status, &rec.EmailNotified,
	)
	if err != nil {
		return nil, err
	}

	if punchIn.Valid {
		rec.PunchIn = &punchIn.Time
	}
	if punchOut.Valid {
		rec.PunchOut = &punchOut.Time
	}
	if breakAt.Valid {
		rec.BreakStartTime = &breakAt.Time
	}
	if breakType.Valid {
		bt := model.BreakType(breakType.String)
		rec.BreakType = &bt
	}
	return &rec, nil
}
