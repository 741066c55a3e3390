package repository

import (
	"context"
	"database/sql"
	"time"

	"workhub.service/internal/core/model"
)

// profileTxTimeout bounds the multi-statement profile update transaction.
const profileTxTimeout = 20 * time.Second

// ProfileRepo stores employee profiles in PostgreSQL. Child collections
// (work experience, education, certifications) are full replacements, not
// incremental merges: every update deletes and recreates them inside one
// transaction.
type ProfileRepo struct {
	DB *sql.DB
}

// NewProfileRepository create new instance
func NewProfileRepository(db *sql.DB) ProfileRepository {
	return &ProfileRepo{DB: db}
}

// GetByUserID loads a profile with all child collections, nil when the user
// has no profile yet.
func (r *ProfileRepo) GetByUserID(ctx context.Context, userID string) (*model.EmployeeProfile, error) {
	query := `SELECT user_id, designation, department, phone_number, alternate_phone, alternate_email,
	                 address, pincode, map_location, joining_date, date_of_birth, profile_image,
	                 guardian_name, guardian_designation, guardian_phone, guardian_email
              FROM employee_profiles WHERE user_id = $1`

	var (
		p           model.EmployeeProfile
		joiningDate sql.NullTime
		dateOfBirth sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &p.Designation, &p.Department, &p.PhoneNumber, &p.AlternatePhone, &p.AlternateEmail,
		&p.Address, &p.Pincode, &p.MapLocation, &joiningDate, &dateOfBirth, &p.ProfileImage,
		&p.GuardianName, &p.GuardianDesignation, &p.GuardianPhone, &p.GuardianEmail,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if joiningDate.Valid {
		p.JoiningDate = &joiningDate.Time
	}
	if dateOfBirth.Valid {
		p.DateOfBirth = &dateOfBirth.Time
	}

	if p.WorkExperiences, err = r.listWorkExperiences(ctx, userID); err != nil {
		return nil, err
	}
	if p.Educations, err = r.listEducations(ctx, userID); err != nil {
		return nil, err
	}
	if p.Certifications, err = r.listCertifications(ctx, userID); err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert writes the user's basic fields, the profile, and full replacements
// of all child rows in one transaction.
func (r *ProfileRepo) Upsert(ctx context.Context, p *model.EmployeeProfile, name, email string) error {
	ctx, cancel := context.WithTimeout(ctx, profileTxTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE users SET name = $1, email = $2 WHERE id = $3`, name, email, p.UserID); err != nil {
		return err
	}

	upsert := `INSERT INTO employee_profiles (user_id, designation, department, phone_number, alternate_phone,
	               alternate_email, address, pincode, map_location, joining_date, date_of_birth, profile_image,
	               guardian_name, guardian_designation, guardian_phone, guardian_email)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
               ON CONFLICT (user_id) DO UPDATE SET
                   designation = EXCLUDED.designation,
                   department = EXCLUDED.department,
                   phone_number = EXCLUDED.phone_number,
                   alternate_phone = EXCLUDED.alternate_phone,
                   alternate_email = EXCLUDED.alternate_email,
                   address = EXCLUDED.address,
                   pincode = EXCLUDED.pincode,
                   map_location = EXCLUDED.map_location,
                   joining_date = EXCLUDED.joining_date,
                   date_of_birth = EXCLUDED.date_of_birth,
                   profile_image = EXCLUDED.profile_image,
                   guardian_name = EXCLUDED.guardian_name,
                   guardian_designation = EXCLUDED.guardian_designation,
                   guardian_phone = EXCLUDED.guardian_phone,
                   guardian_email = EXCLUDED.guardian_email`

	_, err = tx.ExecContext(ctx, upsert,
		p.UserID, p.Designation, p.Department, p.PhoneNumber, p.AlternatePhone,
		p.AlternateEmail, p.Address, p.Pincode, p.MapLocation, p.JoiningDate, p.DateOfBirth, p.ProfileImage,
		p.GuardianName, p.GuardianDesignation, p.GuardianPhone, p.GuardianEmail,
	)
	if err != nil {
		return err
	}

	// Delete-all-then-recreate for the list-valued children.
	for _, table := range []string{"work_experiences", "educations", "certifications"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE user_id = $1`, p.UserID); err != nil {
			return err
		}
	}

	for _, w := range p.WorkExperiences {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO work_experiences (user_id, company, role, description, start_date, end_date)
             VALUES ($1, $2, $3, $4, $5, $6)`,
			p.UserID, w.Company, w.Role, w.Description, w.StartDate, w.EndDate)
		if err != nil {
			return err
		}
	}
	for _, e := range p.Educations {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO educations (user_id, level, institution, year, score) VALUES ($1, $2, $3, $4, $5)`,
			p.UserID, e.Level, e.Institution, e.Year, e.Score)
		if err != nil {
			return err
		}
	}
	for _, c := range p.Certifications {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO certifications (user_id, name, issuer, date) VALUES ($1, $2, $3, $4)`,
			p.UserID, c.Name, c.Issuer, c.Date)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *ProfileRepo) listWorkExperiences(ctx context.Context, userID string) ([]model.WorkExperience, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT company, role, description, start_date, end_date FROM work_experiences WHERE user_id = $1 ORDER BY start_date`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.WorkExperience
	for rows.Next() {
		var (
			w          model.WorkExperience
			start, end sql.NullTime
		)
		if err := rows.Scan(&w.Company, &w.Role, &w.Description, &start, &end); err != nil {
			return nil, err
		}
		if start.Valid {
			w.StartDate = &start.Time
		}
		if end.Valid {
			w.EndDate = &end.Time
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *ProfileRepo) listEducations(ctx context.Context, userID string) ([]model.Education, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT level, institution, year, score FROM educations WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Education
	for rows.Next() {
		var e model.Education
		if err := rows.Scan(&e.Level, &e.Institution, &e.Year, &e.Score); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *ProfileRepo) listCertifications(ctx context.Context, userID string) ([]model.Certification, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT name, issuer, date FROM certifications WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Certification
	for rows.Next() {
		var (
			c model.Certification
			d sql.NullTime
		)
		if err := rows.Scan(&c.Name, &c.Issuer, &d); err != nil {
			return nil, err
		}
		if d.Valid {
			c.Date = &d.Time
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
