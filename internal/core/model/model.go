package model

import (
	"time"
)

// PunchState is the derived position of an employee in the daily punch cycle.
// It is never stored directly; DerivePunchState computes it from the record.
type PunchState string

const (
	StateNotPunched PunchState = "NOT_PUNCHED"
	StatePunchedIn  PunchState = "PUNCHED_IN"
	StateOnBreak    PunchState = "ON_BREAK"
	StatePunchedOut PunchState = "PUNCHED_OUT"
)

// BreakType identifies which of the two daily breaks is being taken.
// Each type is usable at most once per attendance day.
type BreakType string

const (
	BreakLunch BreakType = "LUNCH"
	BreakTea   BreakType = "TEA"
)

// AttendanceStatus classifies a completed attendance day. It is set only at
// punch-out, except LEAVE which is recorded by the admin leave flow.
type AttendanceStatus string

const (
	StatusPresent  AttendanceStatus = "PRESENT"
	StatusHalfDay  AttendanceStatus = "HALF_DAY"
	StatusShortDay AttendanceStatus = "SHORT_DAY"
	StatusAbsent   AttendanceStatus = "ABSENT"
	StatusLeave    AttendanceStatus = "LEAVE"
)

// PunchAction is a requested transition in the daily punch state machine.
type PunchAction string

const (
	ActionIn         PunchAction = "IN"
	ActionOut        PunchAction = "OUT"
	ActionStartBreak PunchAction = "START_BREAK"
	ActionEndBreak   PunchAction = "END_BREAK"
)

// AttendanceRecord is one employee's punch cycle for one calendar day.
// Date is normalized to midnight and is unique together with UserID.
// BreakStartTime and BreakType are both nil or both set. Once PunchOut is
// set the record is immutable.
type AttendanceRecord struct {
	ID                string           `json:"id"`
	UserID            string           `json:"userId"`
	Date              time.Time        `json:"date"`
	PunchIn           *time.Time       `json:"punchIn,omitempty"`
	PunchOut          *time.Time       `json:"punchOut,omitempty"`
	BreakStartTime    *time.Time       `json:"breakStartTime,omitempty"`
	BreakType         *BreakType       `json:"breakType,omitempty"`
	TotalBreakSeconds int64            `json:"totalBreakSeconds"`
	TotalLunchSeconds int64            `json:"totalLunchSeconds"`
	TotalTeaSeconds   int64            `json:"totalTeaSeconds"`
	TotalWorkSeconds  int64            `json:"totalWorkSeconds"`
	Status            AttendanceStatus `json:"status"`
	EmailNotified     bool             `json:"-"`
}

// DerivePunchState maps a record (or its absence) to the punch state. This is
// the single place the nullable-field derivation lives; callers must not
// re-implement the if/else chain.
func DerivePunchState(rec *AttendanceRecord) PunchState {
	switch {
	case rec == nil:
		return StateNotPunched
	case rec.PunchOut != nil:
		return StatePunchedOut
	case rec.BreakStartTime != nil:
		return StateOnBreak
	case rec.PunchIn != nil:
		return StatePunchedIn
	default:
		return StateNotPunched
	}
}

// PunchStatusView is the derived, non-persisted view returned to clients.
// TotalWorkSeconds is zero until the day is punched out; work time is only
// finalized at OUT, no live accrual is shown mid-day.
type PunchStatusView struct {
	State             PunchState `json:"status"`
	PunchIn           *time.Time `json:"punchIn,omitempty"`
	PunchOut          *time.Time `json:"punchOut,omitempty"`
	BreakStartTime    *time.Time `json:"breakStartTime,omitempty"`
	BreakType         *BreakType `json:"breakType,omitempty"`
	TotalBreakSeconds int64      `json:"totalBreakSeconds"`
	TotalLunchSeconds int64      `json:"totalLunchSeconds"`
	TotalTeaSeconds   int64      `json:"totalTeaSeconds"`
	TotalWorkSeconds  int64      `json:"totalWorkSeconds"`
	RecordID          string     `json:"dbRecordId,omitempty"`
}

// Role of an authenticated principal.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// User is an employee account. FaceDescriptor holds the averaged enrollment
// template (12 numbers) or nil when the user has not enrolled.
type User struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	PasswordHash       string     `json:"-"`
	Role               Role       `json:"role"`
	MustChangePassword bool       `json:"mustChangePassword"`
	FaceDescriptor     []float64  `json:"faceDescriptor,omitempty"`
	FaceEnrolled       bool       `json:"faceEnrolled"`
	FaceEnrolledAt     *time.Time `json:"faceEnrolledAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// EmployeeProfile carries the extended HR details of a user. The list-valued
// children are replaced wholesale on every update.
type EmployeeProfile struct {
	UserID              string           `json:"userId"`
	Designation         string           `json:"designation"`
	Department          string           `json:"department"`
	PhoneNumber         string           `json:"phoneNumber"`
	AlternatePhone      string           `json:"alternatePhone"`
	AlternateEmail      string           `json:"alternateEmail"`
	Address             string           `json:"address"`
	Pincode             string           `json:"pincode"`
	MapLocation         string           `json:"mapLocation"`
	JoiningDate         *time.Time       `json:"joiningDate,omitempty"`
	DateOfBirth         *time.Time       `json:"dateOfBirth,omitempty"`
	ProfileImage        string           `json:"profileImage"`
	GuardianName        string           `json:"guardianName"`
	GuardianDesignation string           `json:"guardianDesignation"`
	GuardianPhone       string           `json:"guardianPhone"`
	GuardianEmail       string           `json:"guardianEmail"`
	WorkExperiences     []WorkExperience `json:"workExperiences"`
	Educations          []Education      `json:"educations"`
	Certifications      []Certification  `json:"certifications"`
}

type WorkExperience struct {
	Company     string     `json:"company"`
	Role        string     `json:"role"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
}

type Education struct {
	Level       string `json:"level"`
	Institution string `json:"institution"`
	Year        string `json:"year"`
	Score       string `json:"score"`
}

type Certification struct {
	Name   string     `json:"name"`
	Issuer string     `json:"issuer"`
	Date   *time.Time `json:"date,omitempty"`
}
