package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"workhub.service/internal/core/model"
	"workhub.service/internal/facematch"
	"workhub.service/internal/ports/repository"
)

// ErrUserNotFound marks operations against a missing account.
var ErrUserNotFound = errors.New("user not found")

// ErrNotEnrolled marks verification attempts before enrollment.
var ErrNotEnrolled = errors.New("no face template enrolled")

// FaceService manages enrollment templates and produces verification
// sessions for the attendance face gate.
type FaceService struct {
	users repository.UserRepository
	now   func() time.Time
}

// NewFaceService creates the face template service.
func NewFaceService(users repository.UserRepository) *FaceService {
	return &FaceService{users: users, now: time.Now}
}

// Enroll overwrites the user's template with the averaged descriptor and
// marks the account enrolled.
func (s *FaceService) Enroll(ctx context.Context, userID string, descriptor []float64) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := s.users.SetFaceTemplate(ctx, userID, descriptor, s.now()); err != nil {
		return fmt.Errorf("failed to store face template: %w", err)
	}
	return nil
}

// Reset clears the template so the user must re-enroll. This is the
// mandatory path out of a legacy-format template.
func (s *FaceService) Reset(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := s.users.ClearFaceTemplate(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear face template: %w", err)
	}
	return nil
}

// VerificationSession builds a polling session against the user's stored
// template. facematch.ErrTemplateFormat is passed through so callers can
// route the user to reset-and-re-enroll.
func (s *FaceService) VerificationSession(ctx context.Context, userID string, detector facematch.Detector, onMatch func(facematch.MatchResult)) (*facematch.VerificationSession, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.FaceEnrolled || len(user.FaceDescriptor) == 0 {
		return nil, ErrNotEnrolled
	}

	return facematch.NewVerificationSession(facematch.Descriptor(user.FaceDescriptor), detector, onMatch)
}

// Enrolled reports whether the user currently has a usable template.
func Enrolled(u *model.User) bool {
	return u != nil && u.FaceEnrolled && len(u.FaceDescriptor) > 0
}
