package sources

import "context"

// Repo persists source records and LinkedIn sections.
type Repo interface {
	// GetAnalysis returns ErrNotFound when the candidate has no row.
	GetAnalysis(ctx context.Context, record Record, candidateID string) (Analysis, error)
	// UpsertAnalysis writes only the given columns; others keep their value.
	UpsertAnalysis(ctx context.Context, record Record, candidateID string, fields map[string]string) error

	PutSection(ctx context.Context, s LinkedInSection) error
	GetSection(ctx context.Context, candidateID string, t SectionType) (LinkedInSection, error)
	ListSections(ctx context.Context, candidateID string) ([]LinkedInSection, error)
	// SetSectionScreenshot records path, creating the section if needed, and
	// returns the previous path.
	SetSectionScreenshot(ctx context.Context, candidateID string, t SectionType, path string) (string, error)
	DeleteSection(ctx context.Context, candidateID string, t SectionType) (LinkedInSection, error)
}
