package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"workhub.service/internal/core/model"
)

// fakeUserRepo is an in-memory account store shared by the service tests.
type fakeUserRepo struct {
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func cloneUser(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func (r *fakeUserRepo) Create(ctx context.Context, u *model.User) error {
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return assert.AnError
		}
	}
	r.users[u.ID] = cloneUser(u)
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return cloneUser(r.users[id]), nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) List(ctx context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, id, name, email string, role model.Role) error {
	u := r.users[id]
	u.Name, u.Email, u.Role = name, email, role
	return nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, mustChange bool) error {
	u := r.users[id]
	u.PasswordHash = passwordHash
	u.MustChangePassword = mustChange
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id string) error {
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) SetFaceTemplate(ctx context.Context, id string, descriptor []float64, enrolledAt time.Time) error {
	u := r.users[id]
	u.FaceDescriptor = descriptor
	u.FaceEnrolled = true
	u.FaceEnrolledAt = &enrolledAt
	return nil
}

func (r *fakeUserRepo) ClearFaceTemplate(ctx context.Context, id string) error {
	u := r.users[id]
	u.FaceDescriptor = nil
	u.FaceEnrolled = false
	u.FaceEnrolledAt = nil
	return nil
}

func seedUser(t *testing.T, repo *fakeUserRepo, id, email, password string, role model.Role, mustChange bool) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	repo.users[id] = &model.User{
		ID:                 id,
		Name:               "Test User",
		Email:              email,
		PasswordHash:       string(hash),
		Role:               role,
		MustChangePassword: mustChange,
	}
}

const testDomain = "opsbeetech.com"

func TestCompleteEmail(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(), testDomain)

	assert.Equal(t, "jane@opsbeetech.com", svc.CompleteEmail("jane"))
	assert.Equal(t, "jane@other.org", svc.CompleteEmail("jane@other.org"))
}

func TestLogin(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "admin-1", "boss@opsbeetech.com", "secret123", model.RoleAdmin, false)
	seedUser(t, repo, "emp-1", "jane@opsbeetech.com", "secret123", model.RoleEmployee, false)
	seedUser(t, repo, "emp-2", "new@opsbeetech.com", "temp456", model.RoleEmployee, true)
	svc := NewAuthService(repo, testDomain)
	ctx := context.Background()

	t.Run("admin login redirects to admin", func(t *testing.T) {
		result, err := svc.Login(ctx, "boss", "secret123")
		require.NoError(t, err)
		assert.False(t, result.ResetRequired)
		assert.Equal(t, "/admin", result.RedirectURL)
		assert.Equal(t, "admin-1", result.User.ID)
	})

	t.Run("employee login redirects to dashboard", func(t *testing.T) {
		result, err := svc.Login(ctx, "jane@opsbeetech.com", "secret123")
		require.NoError(t, err)
		assert.Equal(t, "/employee-dashboard", result.RedirectURL)
	})

	t.Run("first login forces password reset", func(t *testing.T) {
		result, err := svc.Login(ctx, "new", "temp456")
		require.NoError(t, err)
		assert.True(t, result.ResetRequired)
		assert.Empty(t, result.RedirectURL)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "jane", "nope")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.True(t, IsAuthError(err))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Login(ctx, "ghost", "secret123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("missing credentials", func(t *testing.T) {
		_, err := svc.Login(ctx, "", "")
		assert.ErrorIs(t, err, ErrMissingCredentials)
	})
}

func TestCompleteFirstLogin(t *testing.T) {
	ctx := context.Background()

	newService := func(t *testing.T) (*AuthService, *fakeUserRepo) {
		repo := newFakeUserRepo()
		seedUser(t, repo, "emp-2", "new@opsbeetech.com", "temp456", model.RoleEmployee, true)
		return NewAuthService(repo, testDomain), repo
	}

	t.Run("happy path clears the must-change flag", func(t *testing.T) {
		svc, repo := newService(t)
		require.NoError(t, svc.CompleteFirstLogin(ctx, "emp-2", "brandnew", "brandnew"))

		user := repo.users["emp-2"]
		assert.False(t, user.MustChangePassword)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("brandnew")))

		result, err := svc.Login(ctx, "new", "brandnew")
		require.NoError(t, err)
		assert.False(t, result.ResetRequired)
	})

	t.Run("too short", func(t *testing.T) {
		svc, _ := newService(t)
		err := svc.CompleteFirstLogin(ctx, "emp-2", "abc", "abc")
		assert.ErrorIs(t, err, ErrPasswordTooShort)
	})

	t.Run("mismatch", func(t *testing.T) {
		svc, _ := newService(t)
		err := svc.CompleteFirstLogin(ctx, "emp-2", "brandnew", "different")
		assert.ErrorIs(t, err, ErrPasswordMismatch)
	})

	t.Run("same as current password", func(t *testing.T) {
		svc, _ := newService(t)
		err := svc.CompleteFirstLogin(ctx, "emp-2", "temp456", "temp456")
		assert.ErrorIs(t, err, ErrSamePassword)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, _ := newService(t)
		err := svc.CompleteFirstLogin(ctx, "ghost", "brandnew", "brandnew")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestAddUser(t *testing.T) {
	repo := newFakeUserRepo()
	auth := NewAuthService(repo, testDomain)
	svc := NewUserService(repo, auth)
	ctx := context.Background()

	user, err := svc.AddUser(ctx, "Jane Roe", "jane", "temp123", "")
	require.NoError(t, err)

	assert.Equal(t, "jane@opsbeetech.com", user.Email)
	assert.Equal(t, model.RoleEmployee, user.Role, "role defaults to employee")
	assert.True(t, user.MustChangePassword)
	assert.NotEqual(t, "temp123", user.PasswordHash)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.AddUser(ctx, "Other", "jane", "temp123", "")
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.AddUser(ctx, "", "x", "y", "")
		assert.ErrorIs(t, err, ErrMissingUserFields)
	})
}

func TestAdminResetPassword(t *testing.T) {
	repo := newFakeUserRepo()
	auth := NewAuthService(repo, testDomain)
	svc := NewUserService(repo, auth)
	ctx := context.Background()
	seedUser(t, repo, "emp-1", "jane@opsbeetech.com", "old12345", model.RoleEmployee, false)

	require.NoError(t, svc.ResetPassword(ctx, "emp-1", "newtemp1"))
	assert.True(t, repo.users["emp-1"].MustChangePassword, "admin reset forces a change on next login")

	err := svc.ResetPassword(ctx, "emp-1", "tiny")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}
