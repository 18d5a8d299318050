package candidates

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu         sync.RWMutex
	candidates map[string]Candidate

	// Dependents are cleared, in order, before the candidate itself.
	Dependents []DependentDeleter
}

func NewMemoryRepo(dependents ...DependentDeleter) *MemoryRepo {
	return &MemoryRepo{
		candidates: make(map[string]Candidate),
		Dependents: dependents,
	}
}

func (r *MemoryRepo) Create(ctx context.Context, c Candidate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.candidates[c.ID] = c
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Candidate, error) {
	if err := ctx.Err(); err != nil {
		return Candidate{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.candidates[id]
	if !ok {
		return Candidate{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	var out []Candidate
	for _, c := range r.candidates {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if offset >= len(out) {
		return []Candidate{}, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) Update(ctx context.Context, c Candidate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.candidates[c.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Name = c.Name
	existing.LinkedInURL = c.LinkedInURL
	existing.LinkedInContent = c.LinkedInContent
	existing.ScreeningNotes = c.ScreeningNotes
	existing.ResumeText = c.ResumeText
	existing.UpdatedAt = time.Now().UTC()
	r.candidates[c.ID] = existing
	return nil
}

func (r *MemoryRepo) SetResume(ctx context.Context, id, path, mimeType, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.candidates[id]
	if !ok {
		return ErrNotFound
	}
	c.ResumePath = path
	c.ResumeMimeType = mimeType
	c.ResumeText = text
	c.UpdatedAt = time.Now().UTC()
	r.candidates[id] = c
	return nil
}

func (r *MemoryRepo) DeleteCascade(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.RLock()
	_, ok := r.candidates[id]
	r.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	for _, dep := range r.Dependents {
		if err := dep.DeleteByCandidate(ctx, id); err != nil {
			return err
		}
	}
	r.mu.Lock()
	delete(r.candidates, id)
	r.mu.Unlock()
	return nil
}
