package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Producer defines the output port for publishing domain events.
type Producer interface {
	PublishPunchOutSummary(ctx context.Context, event PunchOutEvent) error
}

// MessageSender defines the interface for sending raw messages to a
// messaging system.
type MessageSender interface {
	SendMessage(ctx context.Context, destination string, body []byte) error
}

// QueueProducer publishes events to named queues through a MessageSender.
type QueueProducer struct {
	sender        MessageSender
	emailQueueURL string
}

func NewQueueProducer(sender MessageSender, emailQueueURL string) *QueueProducer {
	return &QueueProducer{
		sender:        sender,
		emailQueueURL: emailQueueURL,
	}
}

// PublishPunchOutSummary sends the completed-day event to the email queue.
func (p *QueueProducer) PublishPunchOutSummary(ctx context.Context, event PunchOutEvent) error {
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// Enrich the current span with the user id for trace correlation.
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(attribute.String("app.userId", event.UserID))
	}

	if err := p.sender.SendMessage(ctx, p.emailQueueURL, b); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
