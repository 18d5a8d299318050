package candidates

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const candidateColumns = `id, owner_id, name, resume_path, resume_mime_type, resume_text, linkedin_url, linkedin_content, screening_notes, created_at, updated_at`

// cascadeStatements run inside one transaction before the candidate row is
// removed. This is the only place the per-candidate tables are listed.
var cascadeStatements = []string{
	`DELETE FROM executive_summary_fields WHERE candidate_id = $1`,
	`DELETE FROM linkedin_sections WHERE candidate_id = $1`,
	`DELETE FROM linkedin_analyses WHERE candidate_id = $1`,
	`DELETE FROM screening_analyses WHERE candidate_id = $1`,
	`DELETE FROM resume_analyses WHERE candidate_id = $1`,
}

func (r *PGRepo) Create(ctx context.Context, c Candidate) error {
	const query = `
INSERT INTO candidates (id, owner_id, name, resume_text, linkedin_url, linkedin_content, screening_notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`
	_, err := r.DB.ExecContext(ctx, query,
		c.ID,
		c.OwnerID,
		c.Name,
		c.ResumeText,
		c.LinkedInURL,
		c.LinkedInContent,
		c.ScreeningNotes,
		c.CreatedAt,
	)
	return err
}

func (r *PGRepo) Get(ctx context.Context, id string) (Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE id = $1`
	c, err := scanCandidate(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Candidate{}, ErrNotFound
		}
		return Candidate{}, err
	}
	return c, nil
}

func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Candidate, error) {
	query := `SELECT ` + candidateColumns + `
FROM candidates
WHERE owner_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, c Candidate) error {
	const query = `
UPDATE candidates
SET name = $2, linkedin_url = $3, linkedin_content = $4, screening_notes = $5, resume_text = $6, updated_at = now()
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, c.ID, c.Name, c.LinkedInURL, c.LinkedInContent, c.ScreeningNotes, c.ResumeText)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PGRepo) SetResume(ctx context.Context, id, path, mimeType, text string) error {
	const query = `
UPDATE candidates
SET resume_path = $2, resume_mime_type = $3, resume_text = $4, updated_at = now()
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, id, nullableString(path), nullableString(mimeType), text)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PGRepo) DeleteCascade(ctx context.Context, id string) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range cascadeStatements {
		if _, err = tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("delete dependents: %w", err)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM candidates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete candidate: %w", err)
	}
	if err = requireRow(res); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row rowScanner) (Candidate, error) {
	var c Candidate
	var resumePath, resumeMime sql.NullString
	err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Name,
		&resumePath,
		&resumeMime,
		&c.ResumeText,
		&c.LinkedInURL,
		&c.LinkedInContent,
		&c.ScreeningNotes,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return Candidate{}, err
	}
	c.ResumePath = resumePath.String
	c.ResumeMimeType = resumeMime.String
	return c, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
