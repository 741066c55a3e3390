package messaging

import "time"

// PunchOutEvent is the JSON payload sent via SQS when an attendance day is
// completed; the email worker turns it into a work-summary email.
type PunchOutEvent struct {
	RecordID     string    `json:"recordId"`
	UserID       string    `json:"userId"`
	WorkSeconds  int64     `json:"workSeconds"`
	Status       string    `json:"status"`
	PunchOutTime time.Time `json:"punchOutTime"`
}
