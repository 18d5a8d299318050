package sources

import (
	"context"
	"sync"
	"time"
)

type analysisKey struct {
	record      Record
	candidateID string
}

type MemoryRepo struct {
	mu       sync.RWMutex
	analyses map[analysisKey]Analysis
	sections map[string]map[SectionType]LinkedInSection
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		analyses: make(map[analysisKey]Analysis),
		sections: make(map[string]map[SectionType]LinkedInSection),
	}
}

func (r *MemoryRepo) GetAnalysis(ctx context.Context, record Record, candidateID string) (Analysis, error) {
	if err := ctx.Err(); err != nil {
		return Analysis{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.analyses[analysisKey{record, candidateID}]
	if !ok {
		return Analysis{}, ErrNotFound
	}
	return copyAnalysis(a), nil
}

func (r *MemoryRepo) UpsertAnalysis(ctx context.Context, record Record, candidateID string, fields map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkColumns(record, fields); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := analysisKey{record, candidateID}
	a, ok := r.analyses[key]
	if !ok {
		a = emptyAnalysis(record, candidateID)
		a.Found = true
	}
	for k, v := range fields {
		a.Fields[k] = v
	}
	now := time.Now().UTC()
	a.UpdatedAt = &now
	r.analyses[key] = a
	return nil
}

func (r *MemoryRepo) PutSection(ctx context.Context, s LinkedInSection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	byType := r.sectionsFor(s.CandidateID)
	if existing, ok := byType[s.Type]; ok {
		s.ScreenshotPath = existing.ScreenshotPath
	}
	s.UpdatedAt = time.Now().UTC()
	byType[s.Type] = s
	return nil
}

func (r *MemoryRepo) GetSection(ctx context.Context, candidateID string, t SectionType) (LinkedInSection, error) {
	if err := ctx.Err(); err != nil {
		return LinkedInSection{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sections[candidateID][t]
	if !ok {
		return LinkedInSection{}, ErrNotFound
	}
	return s, nil
}

func (r *MemoryRepo) ListSections(ctx context.Context, candidateID string) ([]LinkedInSection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []LinkedInSection{}
	for _, t := range SectionOrder {
		if s, ok := r.sections[candidateID][t]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *MemoryRepo) SetSectionScreenshot(ctx context.Context, candidateID string, t SectionType, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	byType := r.sectionsFor(candidateID)
	s, ok := byType[t]
	if !ok {
		s = LinkedInSection{CandidateID: candidateID, Type: t}
	}
	prev := s.ScreenshotPath
	s.ScreenshotPath = path
	s.UpdatedAt = time.Now().UTC()
	byType[t] = s
	return prev, nil
}

func (r *MemoryRepo) DeleteSection(ctx context.Context, candidateID string, t SectionType) (LinkedInSection, error) {
	if err := ctx.Err(); err != nil {
		return LinkedInSection{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sections[candidateID][t]
	if !ok {
		return LinkedInSection{}, ErrNotFound
	}
	delete(r.sections[candidateID], t)
	return s, nil
}

func (r *MemoryRepo) DeleteByCandidate(ctx context.Context, candidateID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for record := range recordColumns {
		delete(r.analyses, analysisKey{record, candidateID})
	}
	delete(r.sections, candidateID)
	return nil
}

// sectionsFor must be called with the write lock held.
func (r *MemoryRepo) sectionsFor(candidateID string) map[SectionType]LinkedInSection {
	byType, ok := r.sections[candidateID]
	if !ok {
		byType = make(map[SectionType]LinkedInSection)
		r.sections[candidateID] = byType
	}
	return byType
}

func copyAnalysis(a Analysis) Analysis {
	fields := make(map[string]string, len(a.Fields))
	for k, v := range a.Fields {
		fields[k] = v
	}
	a.Fields = fields
	return a
}
