package core

import (
	"context"
	"fmt"

	"workhub.service/internal/core/model"
	"workhub.service/internal/ports/repository"
)

// ProfileService reads and writes the extended employee profile. Updates are
// full replacements of the child collections, atomically with the user's
// basic fields.
type ProfileService struct {
	profiles repository.ProfileRepository
	auth     *AuthService
}

// NewProfileService creates the profile service.
func NewProfileService(profiles repository.ProfileRepository, auth *AuthService) *ProfileService {
	return &ProfileService{profiles: profiles, auth: auth}
}

// GetProfile loads the profile, nil when none exists yet.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*model.EmployeeProfile, error) {
	if userID == "" {
		return nil, ErrUserNotFound
	}
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return profile, nil
}

// UpdateProfile replaces the profile and the user's name/email in one
// transaction. The email is completed to a company address if needed.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, profile *model.EmployeeProfile, name, email string) error {
	if userID == "" {
		return ErrUserNotFound
	}
	profile.UserID = userID

	if err := s.profiles.Upsert(ctx, profile, name, s.auth.CompleteEmail(email)); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}
