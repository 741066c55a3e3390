package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workhub.service/internal/core/model"
)

type stubRecordStore struct {
	record   *model.AttendanceRecord
	notified []string
}

func (s *stubRecordStore) GetByID(ctx context.Context, id string) (*model.AttendanceRecord, error) {
	return s.record, nil
}
func (s *stubRecordStore) FindByUserAndDate(ctx context.Context, userID string, day time.Time) (*model.AttendanceRecord, error) {
	return nil, nil
}
func (s *stubRecordStore) Create(ctx context.Context, rec *model.AttendanceRecord) error { return nil }
func (s *stubRecordStore) UpdateBreakStart(ctx context.Context, id string, start time.Time, breakType model.BreakType) error {
	return nil
}
func (s *stubRecordStore) UpdateBreakEnd(ctx context.Context, id string, breakInc, lunchInc, teaInc int64) error {
	return nil
}
func (s *stubRecordStore) UpdatePunchOut(ctx context.Context, id string, out time.Time, totalBreak, lunchInc, teaInc, workSeconds int64, status model.AttendanceStatus) error {
	return nil
}
func (s *stubRecordStore) MarkEmailNotified(ctx context.Context, id string) error {
	s.notified = append(s.notified, id)
	return nil
}
func (s *stubRecordStore) ListByMonth(ctx context.Context, userID string, year int, month time.Month) ([]model.AttendanceRecord, error) {
	return nil, nil
}

type stubUserStore struct {
	user *model.User
}

func (s *stubUserStore) Create(ctx context.Context, u *model.User) error { return nil }
func (s *stubUserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.user, nil
}
func (s *stubUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, nil
}
func (s *stubUserStore) List(ctx context.Context) ([]model.User, error) { return nil, nil }
func (s *stubUserStore) Update(ctx context.Context, id, name, email string, role model.Role) error {
	return nil
}
func (s *stubUserStore) UpdatePassword(ctx context.Context, id, hash string, mustChange bool) error {
	return nil
}
func (s *stubUserStore) Delete(ctx context.Context, id string) error { return nil }
func (s *stubUserStore) SetFaceTemplate(ctx context.Context, id string, descriptor []float64, enrolledAt time.Time) error {
	return nil
}
func (s *stubUserStore) ClearFaceTemplate(ctx context.Context, id string) error { return nil }

type stubEmailService struct {
	sent []string
	err  error
}

func (s *stubEmailService) SendWorkSummary(ctx context.Context, to string, hours float64) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, to)
	return nil
}

func eventMessage(receiveCount string) types.Message {
	msg := types.Message{
		Body: aws.String(`{"recordId":"rec-1","userId":"u1","workSeconds":30600,"status":"PRESENT","punchOutTime":"2025-03-10T17:30:00Z"}`),
	}
	if receiveCount != "" {
		msg.Attributes = map[string]string{
			string(types.MessageSystemAttributeNameApproximateReceiveCount): receiveCount,
		}
	}
	return msg
}

func TestProcessSendsSummaryAndMarksRecord(t *testing.T) {
	records := &stubRecordStore{record: &model.AttendanceRecord{ID: "rec-1", UserID: "u1"}}
	users := &stubUserStore{user: &model.User{ID: "u1", Email: "jane@opsbeetech.com"}}
	sender := &stubEmailService{}

	p := NewProcessor(sender, records, users)
	retry, _, err := p.Process(context.Background(), eventMessage("1"))

	require.NoError(t, err)
	assert.False(t, retry)
	assert.Equal(t, []string{"jane@opsbeetech.com"}, sender.sent)
	assert.Equal(t, []string{"rec-1"}, records.notified)
}

func TestProcessSkipsAlreadyNotified(t *testing.T) {
	records := &stubRecordStore{record: &model.AttendanceRecord{ID: "rec-1", EmailNotified: true}}
	sender := &stubEmailService{}

	p := NewProcessor(sender, records, &stubUserStore{})
	retry, _, err := p.Process(context.Background(), eventMessage("2"))

	require.NoError(t, err)
	assert.False(t, retry)
	assert.Empty(t, sender.sent, "redelivery of a handled event must not send twice")
	assert.Empty(t, records.notified)
}

func TestProcessRetriesOnSendFailure(t *testing.T) {
	records := &stubRecordStore{record: &model.AttendanceRecord{ID: "rec-1"}}
	users := &stubUserStore{user: &model.User{ID: "u1", Email: "jane@opsbeetech.com"}}
	sender := &stubEmailService{err: errors.New("ses throttled")}

	p := NewProcessor(sender, records, users)
	retry, delay, err := p.Process(context.Background(), eventMessage("3"))

	require.Error(t, err)
	assert.True(t, retry)
	assert.EqualValues(t, 80, delay, "third attempt backs off 2^3*10 seconds")
	assert.Empty(t, records.notified)
}

func TestProcessDropsMalformedMessage(t *testing.T) {
	p := NewProcessor(&stubEmailService{}, &stubRecordStore{}, &stubUserStore{})
	retry, _, err := p.Process(context.Background(), types.Message{Body: aws.String(`{broken`)})

	require.Error(t, err)
	assert.False(t, retry, "malformed payloads can never succeed on retry")
}

func TestCalculateBackoff(t *testing.T) {
	tests := []struct {
		retryCount int
		expected   int32
	}{
		{1, 20},
		{2, 40},
		{5, 320},
		{9, 3600},
		{20, 3600},
	}

	for _, tt := range tests {
		if got := calculateBackoff(tt.retryCount); got != tt.expected {
			t.Errorf("calculateBackoff(%d) = %d, want %d", tt.retryCount, got, tt.expected)
		}
	}
}
