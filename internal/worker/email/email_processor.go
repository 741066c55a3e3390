package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"workhub.service/internal/core"
	"workhub.service/internal/ports/messaging"
	"workhub.service/internal/ports/repository"
)

// EmailProcessor handles punch-out summary jobs from the email queue. SES
// sends go through a circuit breaker so a struggling mail backend is not
// hammered by the whole pool at once.
type EmailProcessor struct {
	emailService core.EmailService
	records      repository.AttendanceRepository
	users        repository.UserRepository
	cb           *gobreaker.CircuitBreaker
}

// NewProcessor sets up the processor for the email queue.
func NewProcessor(emailService core.EmailService, records repository.AttendanceRepository, users repository.UserRepository) *EmailProcessor {
	settings := gobreaker.Settings{
		Name:        "SES-Email",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip if failure rate is bigger then 50% after at least 10 requests
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
	}

	return &EmailProcessor{
		emailService: emailService,
		records:      records,
		users:        users,
		cb:           gobreaker.NewCircuitBreaker(settings),
	}
}

// Process handles one message from the email queue. Sends are idempotent:
// the record's notified flag is checked before sending and set after, so a
// redelivered message is a no-op.
func (p *EmailProcessor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	var event messaging.PunchOutEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal punch-out event")
		return false, 0, err // Do not retry on malformed message
	}

	record, err := p.records.GetByID(ctx, event.RecordID)
	if err != nil {
		// If we can't get the record, retry after a short delay.
		return true, 10, fmt.Errorf("failed to get attendance record for email processing: %w", err)
	}
	if record == nil {
		log.Ctx(ctx).Error().Str("record_id", event.RecordID).Msg("Attendance record not found, dropping event")
		return false, 0, nil
	}

	if record.EmailNotified {
		log.Ctx(ctx).Info().Str("record_id", event.RecordID).Msg("Email already sent. Skipping.")
		return false, 0, nil
	}

	user, err := p.users.GetByID(ctx, event.UserID)
	if err != nil {
		return true, 10, fmt.Errorf("failed to get user for email processing: %w", err)
	}
	if user == nil {
		log.Ctx(ctx).Error().Str("user_id", event.UserID).Msg("User not found, dropping event")
		return false, 0, nil
	}

	hours := float64(event.WorkSeconds) / 3600

	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, p.emailService.SendWorkSummary(ctx, user.Email, hours)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			log.Ctx(ctx).Warn().Msg("Circuit Breaker is OPEN; skipping SES call")
		}
		delay := calculateBackoff(receiveCount(msg))
		return true, delay, err
	}

	err = p.records.MarkEmailNotified(ctx, event.RecordID)
	return false, 0, err
}

// receiveCount reads the delivery attempt number SQS tracks for the message.
func receiveCount(msg types.Message) int {
	n, err := strconv.Atoi(msg.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// calculateBackoff determines how long to wait before retrying a failed job.
// It increases the delay exponentially with each retry to avoid overwhelming a struggling service.
func calculateBackoff(retryCount int) int32 {
	backoff := int32(math.Pow(2, float64(retryCount)) * 10)
	if backoff > 3600 { // Cap at 1 hour
		return 3600
	}
	return backoff
}
