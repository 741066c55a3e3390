package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workhub.service/internal/core/model"
	"workhub.service/internal/facematch"
)

func validTemplate() []float64 {
	return make([]float64, facematch.TemplateLength)
}

func TestFaceEnrollAndReset(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "emp-1", "jane@opsbeetech.com", "secret123", model.RoleEmployee, false)

	svc := NewFaceService(repo)
	enrolledAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return enrolledAt }
	ctx := context.Background()

	require.NoError(t, svc.Enroll(ctx, "emp-1", validTemplate()))

	user := repo.users["emp-1"]
	assert.True(t, Enrolled(user))
	assert.Len(t, user.FaceDescriptor, facematch.TemplateLength)
	require.NotNil(t, user.FaceEnrolledAt)
	assert.True(t, user.FaceEnrolledAt.Equal(enrolledAt))

	require.NoError(t, svc.Reset(ctx, "emp-1"))
	assert.False(t, Enrolled(repo.users["emp-1"]))
	assert.Nil(t, repo.users["emp-1"].FaceDescriptor)
}

func TestFaceEnrollUnknownUser(t *testing.T) {
	svc := NewFaceService(newFakeUserRepo())
	err := svc.Enroll(context.Background(), "ghost", validTemplate())
	assert.ErrorIs(t, err, ErrUserNotFound)

	err = svc.Reset(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

type nilDetector struct{}

func (nilDetector) DetectFaces(ctx context.Context, frame facematch.Frame) ([]facematch.Detection, error) {
	return nil, nil
}

func TestFaceVerificationSession(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "emp-1", "jane@opsbeetech.com", "secret123", model.RoleEmployee, false)
	svc := NewFaceService(repo)
	ctx := context.Background()

	t.Run("not enrolled", func(t *testing.T) {
		_, err := svc.VerificationSession(ctx, "emp-1", nilDetector{}, nil)
		assert.ErrorIs(t, err, ErrNotEnrolled)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.VerificationSession(ctx, "ghost", nilDetector{}, nil)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("legacy template surfaces the format error", func(t *testing.T) {
		require.NoError(t, repo.SetFaceTemplate(ctx, "emp-1", make([]float64, 8), time.Now()))
		_, err := svc.VerificationSession(ctx, "emp-1", nilDetector{}, nil)
		assert.ErrorIs(t, err, facematch.ErrTemplateFormat)
	})

	t.Run("enrolled user gets a session", func(t *testing.T) {
		require.NoError(t, repo.SetFaceTemplate(ctx, "emp-1", validTemplate(), time.Now()))
		session, err := svc.VerificationSession(ctx, "emp-1", nilDetector{}, nil)
		require.NoError(t, err)
		assert.NotNil(t, session)
	})
}
