package summaries

import (
	"context"
	"sync"
	"time"
)

type fieldKey struct {
	candidateID string
	field       string
}

type MemoryRepo struct {
	mu   sync.RWMutex
	rows map[fieldKey]Field
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{rows: make(map[fieldKey]Field)}
}

func (r *MemoryRepo) Get(ctx context.Context, candidateID, field string) (Field, error) {
	if err := ctx.Err(); err != nil {
		return Field{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.rows[fieldKey{candidateID, field}]
	if !ok {
		return Field{}, ErrNotFound
	}
	return cloneField(f), nil
}

func (r *MemoryRepo) List(ctx context.Context, candidateID string) ([]Field, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Field
	for _, name := range Fields {
		if f, ok := r.rows[fieldKey{candidateID, name}]; ok {
			out = append(out, cloneField(f))
		}
	}
	return out, nil
}

func (r *MemoryRepo) Upsert(ctx context.Context, candidateID string, f Field) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	f.UpdatedAt = &now
	r.rows[fieldKey{candidateID, f.Name}] = cloneField(f)
	return nil
}

func (r *MemoryRepo) Reset(ctx context.Context, candidateID, field string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := fieldKey{candidateID, field}
	if _, ok := r.rows[key]; !ok {
		return nil
	}
	f := emptyField(field)
	now := time.Now().UTC()
	f.UpdatedAt = &now
	r.rows[key] = f
	return nil
}

func (r *MemoryRepo) DeleteByCandidate(ctx context.Context, candidateID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range Fields {
		delete(r.rows, fieldKey{candidateID, name})
	}
	return nil
}

// Rows returns the number of stored rows for a candidate.
func (r *MemoryRepo) Rows(candidateID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for key := range r.rows {
		if key.candidateID == candidateID {
			n++
		}
	}
	return n
}

func cloneField(f Field) Field {
	f.MergedStatements = append([]string(nil), f.MergedStatements...)
	breakdown := make(map[string]any, len(f.SourceBreakdown))
	for k, v := range f.SourceBreakdown {
		breakdown[k] = v
	}
	f.SourceBreakdown = breakdown
	return f
}
