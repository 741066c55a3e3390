package core

import "errors"

// PunchError is a precondition violation in the punch state machine. These
// are results, not faults: the attempted transition is blocked, state is left
// unchanged, and the message is safe to show to the employee.
type PunchError string

func (e PunchError) Error() string { return string(e) }

const (
	ErrAlreadyPunchedIn  = PunchError("Already punched in for this date.")
	ErrCannotStartBreak  = PunchError("Cannot start break.")
	ErrAlreadyOnBreak    = PunchError("Already on break.")
	ErrBreakTypeRequired = PunchError("Break type required.")
	ErrLunchTaken        = PunchError("Lunch break already taken.")
	ErrTeaTaken          = PunchError("Tea break already taken.")
	ErrNotOnBreak        = PunchError("Not on break.")
	ErrCannotPunchOut    = PunchError("Cannot punch out.")
	ErrUnknownAction     = PunchError("Unknown punch action.")
)

// IsPunchError reports whether err is a state-machine precondition violation
// as opposed to an infrastructure failure.
func IsPunchError(err error) bool {
	var pe PunchError
	return errors.As(err, &pe)
}
