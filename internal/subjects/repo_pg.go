package subjects

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// CreateTitle inserts a subject title.
func (r *PGRepo) CreateTitle(ctx context.Context, name string) (SubjectTitle, error) {
	const query = `
INSERT INTO subject_titles (name, created_at)
VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id, name, created_at`

	var title SubjectTitle
	err := r.DB.QueryRowContext(ctx, query, name, time.Now().UTC()).
		Scan(&title.ID, &title.Name, &title.CreatedAt)
	if err != nil {
		return SubjectTitle{}, err
	}
	return title, nil
}

// ListTitles returns all subject titles ordered by name.
func (r *PGRepo) ListTitles(ctx context.Context) ([]SubjectTitle, error) {
	const query = `SELECT id, name, created_at FROM subject_titles ORDER BY name`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SubjectTitle
	for rows.Next() {
		var title SubjectTitle
		if err := rows.Scan(&title.ID, &title.Name, &title.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, title)
	}
	return out, rows.Err()
}

// Approve records an approved linkage between a user and a subject title.
func (r *PGRepo) Approve(ctx context.Context, userID, subjectTitleID int64) error {
	const query = `
INSERT INTO user_subject_approvals (user_id, subject_title_id, approved, created_at)
VALUES ($1, $2, true, $3)
ON CONFLICT (user_id, subject_title_id) DO UPDATE SET approved = true`

	_, err := r.DB.ExecContext(ctx, query, userID, subjectTitleID, time.Now().UTC())
	return err
}

// IsApproved reports whether the user holds an approved linkage.
func (r *PGRepo) IsApproved(ctx context.Context, userID, subjectTitleID int64) (bool, error) {
	const query = `
SELECT approved FROM user_subject_approvals
WHERE user_id = $1 AND subject_title_id = $2`

	var approved bool
	err := r.DB.QueryRowContext(ctx, query, userID, subjectTitleID).Scan(&approved)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return approved, nil
}

var _ Repo = (*PGRepo)(nil)
