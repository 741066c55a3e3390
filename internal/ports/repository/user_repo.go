package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"workhub.service/internal/core/model"
)

// UserRepo is the concrete user store for PostgreSQL. The face descriptor is
// persisted as a nullable JSON array-of-numbers blob.
type UserRepo struct {
	DB *sql.DB
}

// NewUserRepository create new instance
func NewUserRepository(db *sql.DB) UserRepository {
	return &UserRepo{DB: db}
}

const userColumns = `id, name, email, password_hash, role, must_change_password,
	       face_descriptor, face_enrolled, face_enrolled_at, created_at`

// Create inserts a new account.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	query := `INSERT INTO users (id, name, email, password_hash, role, must_change_password, face_enrolled, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7)`

	_, err := r.DB.ExecContext(ctx, query, u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.MustChangePassword, u.CreatedAt)
	return err
}

// GetByID fetches an account, nil when it does not exist.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.userId", id))

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByEmail fetches an account by login email, nil when it does not exist.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.getOne(ctx, query, email)
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg any) (*model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// List returns all accounts ordered by creation time.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Update changes the admin-editable account fields.
func (r *UserRepo) Update(ctx context.Context, id, name, email string, role model.Role) error {
	query := `UPDATE users SET name = $1, email = $2, role = $3 WHERE id = $4`
	_, err := r.DB.ExecContext(ctx, query, name, email, role, id)
	return err
}

// UpdatePassword stores a new hash and the must-change flag.
func (r *UserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, mustChange bool) error {
	query := `UPDATE users SET password_hash = $1, must_change_password = $2 WHERE id = $3`
	_, err := r.DB.ExecContext(ctx, query, passwordHash, mustChange, id)
	return err
}

// Delete removes the account.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`
	_, err := r.DB.ExecContext(ctx, query, id)
	return err
}

// SetFaceTemplate overwrites the enrollment template and marks the user
// enrolled.
func (r *UserRepo) SetFaceTemplate(ctx context.Context, id string, descriptor []float64, enrolledAt time.Time) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.userId", id))

	blob, err := json.Marshal(descriptor)
	if err != nil {
		return fmt.Errorf("failed to marshal face descriptor: %w", err)
	}

	query := `UPDATE users SET face_descriptor = $1, face_enrolled = TRUE, face_enrolled_at = $2 WHERE id = $3`
	_, err = r.DB.ExecContext(ctx, query, blob, enrolledAt, id)
	return err
}

// ClearFaceTemplate removes the template and flips the enrolled flag; the
// user must re-enroll before face verification can run again.
func (r *UserRepo) ClearFaceTemplate(ctx context.Context, id string) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.userId", id))

	query := `UPDATE users SET face_descriptor = NULL, face_enrolled = FALSE, face_enrolled_at = NULL WHERE id = $1`
	_, err := r.DB.ExecContext(ctx, query, id)
	return err
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u          model.User
		descriptor []byte
		enrolledAt sql.NullTime
	)

	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.MustChangePassword,
		&descriptor, &u.FaceEnrolled, &enrolledAt, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(descriptor) > 0 {
		if err := json.Unmarshal(descriptor, &u.FaceDescriptor); err != nil {
			return nil, fmt.Errorf("failed to unmarshal face descriptor: %w", err)
		}
	}
	if enrolledAt.Valid {
		u.FaceEnrolledAt = &enrolledAt.Time
	}
	return &u, nil
}
