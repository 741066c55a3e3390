package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"workhub.service/internal/core/model"
	"workhub.service/internal/ports/repository"
)

const (
	ErrMissingUserFields = AuthError("Missing required fields")
	ErrEmailTaken        = AuthError("Failed to create user. Email might already exist.")
)

// UserService covers the admin user-management operations.
type UserService struct {
	users repository.UserRepository
	auth  *AuthService
	now   func() time.Time
}

// NewUserService creates the admin user-management service.
func NewUserService(users repository.UserRepository, auth *AuthService) *UserService {
	return &UserService{users: users, auth: auth, now: time.Now}
}

// AddUser creates an account with a temporary password; employees must
// change it on first login.
func (s *UserService) AddUser(ctx context.Context, name, email, password string, role model.Role) (*model.User, error) {
	if name == "" || email == "" || password == "" {
		return nil, ErrMissingUserFields
	}
	if role == "" {
		role = model.RoleEmployee
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:                 uuid.NewString(),
		Name:               name,
		Email:              s.auth.CompleteEmail(email),
		PasswordHash:       string(hash),
		Role:               role,
		MustChangePassword: true,
		CreatedAt:          s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, ErrEmailTaken
	}
	return user, nil
}

// ListUsers returns all accounts.
func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

// UpdateUser changes the admin-editable fields.
func (s *UserService) UpdateUser(ctx context.Context, userID, name, email string, role model.Role) error {
	if err := s.users.Update(ctx, userID, name, s.auth.CompleteEmail(email), role); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// DeleteUser removes an account.
func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// ResetPassword sets an admin-chosen password and forces a change on the
// next login.
func (s *UserService) ResetPassword(ctx context.Context, userID, password string) error {
	if len(password) < 6 {
		return ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hash), true); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	return nil
}
