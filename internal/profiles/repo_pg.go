package profiles

import (
	"context"
	"database/sql"
	"errors"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Upsert(ctx context.Context, p Profile) error {
	const query = `
INSERT INTO profiles (id, email, name, created_at, updated_at)
VALUES ($1, $2, $3, now(), now())
ON CONFLICT (id) DO UPDATE SET
  email = COALESCE(NULLIF(EXCLUDED.email, ''), profiles.email),
  name = COALESCE(NULLIF(EXCLUDED.name, ''), profiles.name),
  updated_at = now()`
	_, err := r.DB.ExecContext(ctx, query, p.ID, p.Email, p.Name)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (Profile, error) {
	const query = `
SELECT id, email, name, created_at, updated_at
FROM profiles
WHERE id = $1`
	var p Profile
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Email, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	return p, nil
}
