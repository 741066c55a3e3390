package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"workhub.service/internal/core/model"
	"workhub.service/internal/ports/repository"
)

// AuthError is a login-flow validation failure with a user-safe message.
type AuthError string

func (e AuthError) Error() string { return string(e) }

const (
	ErrMissingCredentials = AuthError("Please enter both email and password.")
	ErrInvalidCredentials = AuthError("Invalid credentials.")
	ErrPasswordTooShort   = AuthError("Password must be at least 6 characters.")
	ErrPasswordMismatch   = AuthError("Passwords do not match.")
	ErrSamePassword       = AuthError("New password cannot be the same as your current password.")
)

const bcryptCost = 10

// LoginResult is the outcome of a successful credential check. When
// ResetRequired is set the session is not established; the employee must
// complete the first-login password change first.
type LoginResult struct {
	User          *model.User
	ResetRequired bool
	RedirectURL   string
}

// AuthService checks credentials and runs the first-login password flow.
// Session cookie issuance stays in the HTTP layer.
type AuthService struct {
	users repository.UserRepository
	// emailDomain completes bare login names into company addresses.
	emailDomain string
}

// NewAuthService creates the authentication service.
func NewAuthService(users repository.UserRepository, emailDomain string) *AuthService {
	return &AuthService{users: users, emailDomain: emailDomain}
}

// CompleteEmail appends the company domain to a bare login name.
func (s *AuthService) CompleteEmail(email string) string {
	if strings.Contains(email, "@") {
		return email
	}
	return email + "@" + s.emailDomain
}

// Login verifies credentials. Employees flagged for a password change get a
// ResetRequired result instead of a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	if email == "" || password == "" {
		return LoginResult{}, ErrMissingCredentials
	}

	user, err := s.users.GetByEmail(ctx, s.CompleteEmail(email))
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	if user.MustChangePassword && user.Role == model.RoleEmployee {
		return LoginResult{User: user, ResetRequired: true}, nil
	}

	redirect := "/employee-dashboard"
	if user.Role == model.RoleAdmin {
		redirect = "/admin"
	}
	return LoginResult{User: user, RedirectURL: redirect}, nil
}

// CompleteFirstLogin sets the employee's own password and clears the
// must-change flag.
func (s *AuthService) CompleteFirstLogin(ctx context.Context, userID, newPassword, confirmPassword string) error {
	if len(newPassword) < 6 {
		return ErrPasswordTooShort
	}
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(newPassword)) == nil {
		return ErrSamePassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hash), false); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// IsAuthError reports whether err is a login-flow validation failure.
func IsAuthError(err error) bool {
	var ae AuthError
	return errors.As(err, &ae)
}
