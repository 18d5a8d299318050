package candidates

import "context"

// Repo persists candidates.
type Repo interface {
	Create(ctx context.Context, c Candidate) error
	Get(ctx context.Context, id string) (Candidate, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Candidate, error)
	Update(ctx context.Context, c Candidate) error
	SetResume(ctx context.Context, id, path, mimeType, text string) error
	// DeleteCascade removes every dependent row and then the candidate row.
	DeleteCascade(ctx context.Context, id string) error
}

// DependentDeleter removes per-candidate rows held outside this package.
// Only the memory repo uses it; PGRepo.DeleteCascade owns the SQL tables.
type DependentDeleter interface {
	DeleteByCandidate(ctx context.Context, candidateID string) error
}
