package summaries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const fieldColumns = `field, value, status, merged_statements, source_breakdown, updated_at`

func (r *PGRepo) Get(ctx context.Context, candidateID, field string) (Field, error) {
	query := `SELECT ` + fieldColumns + ` FROM executive_summary_fields WHERE candidate_id = $1 AND field = $2`
	f, err := scanField(r.DB.QueryRowContext(ctx, query, candidateID, field))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Field{}, ErrNotFound
		}
		return Field{}, err
	}
	return f, nil
}

func (r *PGRepo) List(ctx context.Context, candidateID string) ([]Field, error) {
	query := `SELECT ` + fieldColumns + ` FROM executive_summary_fields WHERE candidate_id = $1 ORDER BY field`
	rows, err := r.DB.QueryContext(ctx, query, candidateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Field
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *PGRepo) Upsert(ctx context.Context, candidateID string, f Field) error {
	statements, err := json.Marshal(nonNilStatements(f.MergedStatements))
	if err != nil {
		return fmt.Errorf("marshal merged statements: %w", err)
	}
	breakdown, err := json.Marshal(nonNilBreakdown(f.SourceBreakdown))
	if err != nil {
		return fmt.Errorf("marshal source breakdown: %w", err)
	}
	const query = `
INSERT INTO executive_summary_fields (candidate_id, field, value, status, merged_statements, source_breakdown, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, now())
ON CONFLICT (candidate_id, field) DO UPDATE SET
    value = EXCLUDED.value,
    status = EXCLUDED.status,
    merged_statements = EXCLUDED.merged_statements,
    source_breakdown = EXCLUDED.source_breakdown,
    updated_at = now()`
	_, err = r.DB.ExecContext(ctx, query, candidateID, f.Name, f.Value, string(f.Status), string(statements), string(breakdown))
	return err
}

func (r *PGRepo) Reset(ctx context.Context, candidateID, field string) error {
	const query = `
UPDATE executive_summary_fields
SET value = '', status = 'empty', merged_statements = '[]'::jsonb, source_breakdown = '{}'::jsonb, updated_at = now()
WHERE candidate_id = $1 AND field = $2`
	_, err := r.DB.ExecContext(ctx, query, candidateID, field)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanField(row rowScanner) (Field, error) {
	var f Field
	var status string
	var statements, breakdown []byte
	var updatedAt time.Time
	if err := row.Scan(&f.Name, &f.Value, &status, &statements, &breakdown, &updatedAt); err != nil {
		return Field{}, err
	}
	f.Status = Status(status)
	f.UpdatedAt = &updatedAt
	if len(statements) > 0 {
		if err := json.Unmarshal(statements, &f.MergedStatements); err != nil {
			return Field{}, fmt.Errorf("decode merged statements: %w", err)
		}
	}
	if len(breakdown) > 0 {
		if err := json.Unmarshal(breakdown, &f.SourceBreakdown); err != nil {
			return Field{}, fmt.Errorf("decode source breakdown: %w", err)
		}
	}
	return f, nil
}

func nonNilStatements(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilBreakdown(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
