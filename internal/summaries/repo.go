package summaries

import "context"

// Repo persists executive-summary fields keyed by (candidate, field).
type Repo interface {
	Get(ctx context.Context, candidateID, field string) (Field, error)
	List(ctx context.Context, candidateID string) ([]Field, error)
	Upsert(ctx context.Context, candidateID string, f Field) error
	// Reset clears an existing row. A missing row is not an error.
	Reset(ctx context.Context, candidateID, field string) error
}
