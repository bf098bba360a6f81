package worksheets

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

const worksheetColumns = `id, title, subject_title_id, file_key, page_count, has_text, created_by, created_at`

// Create inserts a new worksheet and returns its ID.
func (r *PGRepo) Create(ctx context.Context, ws Worksheet) (int64, error) {
	const query = `
INSERT INTO worksheets (title, subject_title_id, file_key, page_count, has_text, created_by, created_at)
VALUES ($1, NULLIF($2, 0), $3, $4, $5, $6, $7)
RETURNING id`

	createdAt := ws.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var id int64
	err := r.DB.QueryRowContext(ctx, query,
		ws.Title,
		ws.SubjectTitleID,
		ws.FileKey,
		ws.PageCount,
		ws.HasText,
		ws.CreatedBy,
		createdAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetByID fetches a worksheet by ID.
func (r *PGRepo) GetByID(ctx context.Context, worksheetID int64) (Worksheet, error) {
	const query = `SELECT ` + worksheetColumns + ` FROM worksheets WHERE id = $1`

	var ws Worksheet
	var subjectTitleID sql.NullInt64
	err := r.DB.QueryRowContext(ctx, query, worksheetID).Scan(
		&ws.ID,
		&ws.Title,
		&subjectTitleID,
		&ws.FileKey,
		&ws.PageCount,
		&ws.HasText,
		&ws.CreatedBy,
		&ws.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Worksheet{}, ErrNotFound
		}
		return Worksheet{}, err
	}
	if subjectTitleID.Valid {
		ws.SubjectTitleID = subjectTitleID.Int64
	}
	return ws, nil
}

// List returns worksheets ordered newest-first.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Worksheet, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `SELECT ` + worksheetColumns + ` FROM worksheets ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Worksheet
	for rows.Next() {
		var ws Worksheet
		var subjectTitleID sql.NullInt64
		if err := rows.Scan(
			&ws.ID,
			&ws.Title,
			&subjectTitleID,
			&ws.FileKey,
			&ws.PageCount,
			&ws.HasText,
			&ws.CreatedBy,
			&ws.CreatedAt,
		); err != nil {
			return nil, err
		}
		if subjectTitleID.Valid {
			ws.SubjectTitleID = subjectTitleID.Int64
		}
		out = append(out, ws)
	}
	return out, rows.Err()
}

// Delete removes a worksheet row.
func (r *PGRepo) Delete(ctx context.Context, worksheetID int64) error {
	const query = `DELETE FROM worksheets WHERE id = $1`

	res, err := r.DB.ExecContext(ctx, query, worksheetID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
