package sources

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) GetAnalysis(ctx context.Context, record Record, candidateID string) (Analysis, error) {
	cols := record.Columns()
	if len(cols) == 0 {
		return Analysis{}, ErrUnknownRecord
	}
	query := fmt.Sprintf(`SELECT %s, updated_at FROM %s WHERE candidate_id = $1`, strings.Join(cols, ", "), record)

	values := make([]string, len(cols))
	dest := make([]any, 0, len(cols)+1)
	for i := range values {
		dest = append(dest, &values[i])
	}
	var updatedAt time.Time
	dest = append(dest, &updatedAt)

	if err := r.DB.QueryRowContext(ctx, query, candidateID).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Analysis{}, ErrNotFound
		}
		return Analysis{}, err
	}

	a := Analysis{CandidateID: candidateID, Record: record, Found: true, Fields: make(map[string]string, len(cols)), UpdatedAt: &updatedAt}
	for i, col := range cols {
		a.Fields[col] = values[i]
	}
	return a, nil
}

func (r *PGRepo) UpsertAnalysis(ctx context.Context, record Record, candidateID string, fields map[string]string) error {
	query, args, err := upsertAnalysisQuery(record, candidateID, fields)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query, args...)
	return err
}

// upsertAnalysisQuery builds a single-row upsert over the whitelisted columns in fields.
func upsertAnalysisQuery(record Record, candidateID string, fields map[string]string) (string, []any, error) {
	if err := checkColumns(record, fields); err != nil {
		return "", nil, err
	}
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("%w: no fields to write", ErrInvalidInput)
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	args := []any{candidateID}
	placeholders := []string{"$1"}
	updates := make([]string, 0, len(names)+1)
	for i, name := range names {
		args = append(args, fields[name])
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+2))
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", name, name))
	}
	updates = append(updates, "updated_at = now()")

	query := fmt.Sprintf(`
INSERT INTO %s (candidate_id, %s, updated_at)
VALUES (%s, now())
ON CONFLICT (candidate_id) DO UPDATE SET %s`,
		record,
		strings.Join(names, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)
	return query, args, nil
}

func (r *PGRepo) PutSection(ctx context.Context, s LinkedInSection) error {
	const query = `
INSERT INTO linkedin_sections (candidate_id, section_type, content, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (candidate_id, section_type) DO UPDATE SET content = EXCLUDED.content, updated_at = now()`
	_, err := r.DB.ExecContext(ctx, query, s.CandidateID, string(s.Type), s.Content)
	return err
}

func (r *PGRepo) GetSection(ctx context.Context, candidateID string, t SectionType) (LinkedInSection, error) {
	const query = `
SELECT candidate_id, section_type, content, screenshot_path, updated_at
FROM linkedin_sections
WHERE candidate_id = $1 AND section_type = $2`
	s, err := scanSection(r.DB.QueryRowContext(ctx, query, candidateID, string(t)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LinkedInSection{}, ErrNotFound
		}
		return LinkedInSection{}, err
	}
	return s, nil
}

func (r *PGRepo) ListSections(ctx context.Context, candidateID string) ([]LinkedInSection, error) {
	const query = `
SELECT candidate_id, section_type, content, screenshot_path, updated_at
FROM linkedin_sections
WHERE candidate_id = $1`
	rows, err := r.DB.QueryContext(ctx, query, candidateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byType := map[SectionType]LinkedInSection{}
	for rows.Next() {
		s, err := scanSection(rows)
		if err != nil {
			return nil, err
		}
		byType[s.Type] = s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := []LinkedInSection{}
	for _, t := range SectionOrder {
		if s, ok := byType[t]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *PGRepo) SetSectionScreenshot(ctx context.Context, candidateID string, t SectionType, path string) (string, error) {
	const query = `
WITH prev AS (
    SELECT screenshot_path FROM linkedin_sections WHERE candidate_id = $1 AND section_type = $2
)
INSERT INTO linkedin_sections (candidate_id, section_type, screenshot_path, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (candidate_id, section_type) DO UPDATE SET screenshot_path = EXCLUDED.screenshot_path, updated_at = now()
RETURNING (SELECT screenshot_path FROM prev)`
	var prev sql.NullString
	if err := r.DB.QueryRowContext(ctx, query, candidateID, string(t), path).Scan(&prev); err != nil {
		return "", err
	}
	return prev.String, nil
}

func (r *PGRepo) DeleteSection(ctx context.Context, candidateID string, t SectionType) (LinkedInSection, error) {
	const query = `
DELETE FROM linkedin_sections
WHERE candidate_id = $1 AND section_type = $2
RETURNING candidate_id, section_type, content, screenshot_path, updated_at`
	s, err := scanSection(r.DB.QueryRowContext(ctx, query, candidateID, string(t)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LinkedInSection{}, ErrNotFound
		}
		return LinkedInSection{}, err
	}
	return s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSection(row rowScanner) (LinkedInSection, error) {
	var s LinkedInSection
	var sectionType string
	var screenshot sql.NullString
	if err := row.Scan(&s.CandidateID, &sectionType, &s.Content, &screenshot, &s.UpdatedAt); err != nil {
		return LinkedInSection{}, err
	}
	s.Type = SectionType(sectionType)
	s.ScreenshotPath = screenshot.String
	return s, nil
}
