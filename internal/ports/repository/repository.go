package repository

import (
	"context"
	"time"

	"workhub.service/internal/core/model"
)

// AttendanceRepository is the per-user, per-day record store contract.
// Lookups by absent keys return (nil, nil).
type AttendanceRepository interface {
	GetByID(ctx context.Context, id string) (*model.AttendanceRecord, error)
	FindByUserAndDate(ctx context.Context, userID string, day time.Time) (*model.AttendanceRecord, error)
	Create(ctx context.Context, rec *model.AttendanceRecord) error
	UpdateBreakStart(ctx context.Context, id string, start time.Time, breakType model.BreakType) error
	UpdateBreakEnd(ctx context.Context, id string, breakInc, lunchInc, teaInc int64) error
	UpdatePunchOut(ctx context.Context, id string, out time.Time, totalBreak, lunchInc, teaInc, workSeconds int64, status model.AttendanceStatus) error
	MarkEmailNotified(ctx context.Context, id string) error
	ListByMonth(ctx context.Context, userID string, year int, month time.Month) ([]model.AttendanceRecord, error)
}

// UserRepository is the account store contract.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id, name, email string, role model.Role) error
	UpdatePassword(ctx context.Context, id, passwordHash string, mustChange bool) error
	Delete(ctx context.Context, id string) error
	SetFaceTemplate(ctx context.Context, id string, descriptor []float64, enrolledAt time.Time) error
	ClearFaceTemplate(ctx context.Context, id string) error
}

// ProfileRepository stores the extended employee profile. Upsert updates the
// user's basic fields and replaces the list-valued children wholesale inside
// one bounded transaction.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*model.EmployeeProfile, error)
	Upsert(ctx context.Context, p *model.EmployeeProfile, name, email string) error
}
