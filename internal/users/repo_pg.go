package users

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const userColumns = `id, email, password_hash, full_name, role, school_name, logo, logo_url, worksheet_watermark_opacity, created_at, updated_at`

// Create inserts a new user and returns its ID.
func (r *PGRepo) Create(ctx context.Context, user User) (int64, error) {
	const query = `
INSERT INTO users (email, password_hash, full_name, role, school_name, created_at, updated_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $6)
RETURNING id`

	now := time.Now().UTC()
	var id int64
	err := r.DB.QueryRowContext(ctx, query,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.Role,
		user.SchoolName,
		now,
	).Scan(&id)
	if err != nil {
		if strings.Contains(err.Error(), "users_email_key") {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	return id, nil
}

// GetByID fetches a user by ID.
func (r *PGRepo) GetByID(ctx context.Context, userID int64) (User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, userID))
}

// GetByEmail fetches a user by email.
func (r *PGRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, email))
}

// UpdateBranding applies the non-nil branding fields.
func (r *PGRepo) UpdateBranding(ctx context.Context, userID int64, update BrandingUpdate) error {
	const query = `
UPDATE users
SET school_name = COALESCE($1, school_name),
    worksheet_watermark_opacity = COALESCE($2, worksheet_watermark_opacity),
    updated_at = $3
WHERE id = $4`

	var schoolName sql.NullString
	if update.SchoolName != nil {
		schoolName = sql.NullString{String: *update.SchoolName, Valid: true}
	}
	var opacity sql.NullFloat64
	if update.WatermarkOpacity != nil {
		opacity = sql.NullFloat64{Float64: *update.WatermarkOpacity, Valid: true}
	}

	res, err := r.DB.ExecContext(ctx, query, schoolName, opacity, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateLogo stores the new logo storage key into the URL-shaped field and
// clears the legacy path field.
func (r *PGRepo) UpdateLogo(ctx context.Context, userID int64, logoKey string) error {
	const query = `
UPDATE users
SET logo = NULL, logo_url = $1, updated_at = $2
WHERE id = $3`

	res, err := r.DB.ExecContext(ctx, query, logoKey, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) scanOne(row *sql.Row) (User, error) {
	var user User
	var schoolName sql.NullString
	var logo sql.NullString
	var logoURL sql.NullString
	var opacity sql.NullFloat64
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.Role,
		&schoolName,
		&logo,
		&logoURL,
		&opacity,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	if schoolName.Valid {
		user.SchoolName = schoolName.String
	}
	if logo.Valid {
		user.Logo = logo.String
	}
	if logoURL.Valid {
		user.LogoURL = logoURL.String
	}
	if opacity.Valid {
		user.WatermarkOpacity = &opacity.Float64
	}
	return user, nil
}

var _ Repo = (*PGRepo)(nil)
