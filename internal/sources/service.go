package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"execsummary-backend/internal/candidates"
	"execsummary-backend/internal/events"
	"execsummary-backend/internal/extract"
	"execsummary-backend/internal/shared/storage/object"
	"execsummary-backend/internal/shared/telemetry"
)

// CandidateLookup loads a candidate without an owner check.
type CandidateLookup interface {
	Lookup(ctx context.Context, id string) (candidates.Candidate, error)
}

type Service struct {
	Repo       Repo
	Candidates CandidateLookup
	Store      object.ObjectStore
	Events     events.Publisher
}

// GetAnalysis returns the record, or an empty one with Found false.
func (s *Service) GetAnalysis(ctx context.Context, record Record, candidateID string) (Analysis, error) {
	if len(record.Columns()) == 0 {
		return Analysis{}, ErrUnknownRecord
	}
	a, err := s.Repo.GetAnalysis(ctx, record, candidateID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return emptyAnalysis(record, candidateID), nil
		}
		return Analysis{}, fmt.Errorf("get %s: %w", record, err)
	}
	return a, nil
}

func (s *Service) GetResumeAnalysis(ctx context.Context, candidateID string) (Analysis, error) {
	return s.GetAnalysis(ctx, RecordResume, candidateID)
}

func (s *Service) GetLinkedInAnalysis(ctx context.Context, candidateID string) (Analysis, error) {
	return s.GetAnalysis(ctx, RecordLinkedIn, candidateID)
}

func (s *Service) GetScreeningAnalysis(ctx context.Context, candidateID string) (Analysis, error) {
	return s.GetAnalysis(ctx, RecordScreening, candidateID)
}

// All returns every source record of the candidate.
func (s *Service) All(ctx context.Context, candidateID string) (Bundle, error) {
	var b Bundle
	var err error
	if b.Resume, err = s.GetResumeAnalysis(ctx, candidateID); err != nil {
		return Bundle{}, err
	}
	if b.LinkedIn, err = s.GetLinkedInAnalysis(ctx, candidateID); err != nil {
		return Bundle{}, err
	}
	if b.Screening, err = s.GetScreeningAnalysis(ctx, candidateID); err != nil {
		return Bundle{}, err
	}
	if b.Sections, err = s.ListLinkedInSections(ctx, candidateID); err != nil {
		return Bundle{}, err
	}
	return b, nil
}

// UpsertFields writes the given fields of one record. Keys may be column
// names or their camelCase form.
func (s *Service) UpsertFields(ctx context.Context, record Record, candidateID string, fields map[string]string) error {
	if strings.TrimSpace(candidateID) == "" {
		return fmt.Errorf("%w: candidate id is required", ErrInvalidInput)
	}
	if len(record.Columns()) == 0 {
		return ErrUnknownRecord
	}
	if len(fields) == 0 {
		return fmt.Errorf("%w: no fields to write", ErrInvalidInput)
	}
	cols := make(map[string]string, len(fields))
	for name, value := range fields {
		col, ok := record.Column(name)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, name)
		}
		cols[col] = strings.TrimSpace(value)
	}
	if err := s.Repo.UpsertAnalysis(ctx, record, candidateID, cols); err != nil {
		return fmt.Errorf("upsert %s: %w", record, err)
	}
	return nil
}

// Edit applies author edits to a record and notifies listeners.
func (s *Service) Edit(ctx context.Context, record Record, candidateID string, fields map[string]string) (Analysis, error) {
	if err := s.UpsertFields(ctx, record, candidateID, fields); err != nil {
		return Analysis{}, err
	}
	events.Emit(ctx, s.Events, events.Event{Type: events.TypeCandidateUpdated, CandidateID: candidateID, Field: string(record)})
	return s.GetAnalysis(ctx, record, candidateID)
}

// ReadField returns the text a FieldRef points at. Missing rows read as "".
func (s *Service) ReadField(ctx context.Context, candidateID string, ref FieldRef) (string, error) {
	switch ref.Record {
	case RecordCandidate:
		return s.readCandidateField(ctx, candidateID, ref.Field)
	case RecordLinkedInAggregate:
		return s.LinkedInText(ctx, candidateID)
	}
	record := Record(ref.Record)
	col, ok := record.Column(ref.Field)
	if !ok {
		if len(record.Columns()) == 0 {
			return "", fmt.Errorf("%w: %s", ErrUnknownRecord, ref.Record)
		}
		return "", fmt.Errorf("%w: %s", ErrUnknownField, ref)
	}
	a, err := s.GetAnalysis(ctx, record, candidateID)
	if err != nil {
		return "", err
	}
	return a.Fields[col], nil
}

func (s *Service) readCandidateField(ctx context.Context, candidateID, field string) (string, error) {
	if !candidateFields[field] {
		return "", fmt.Errorf("%w: candidate.%s", ErrUnknownField, field)
	}
	c, err := s.Candidates.Lookup(ctx, candidateID)
	if err != nil {
		return "", err
	}
	switch field {
	case "name":
		return c.Name, nil
	case "resume_text":
		return c.ResumeText, nil
	case "linkedin_url":
		return c.LinkedInURL, nil
	case "linkedin_content":
		return c.LinkedInContent, nil
	default:
		return c.ScreeningNotes, nil
	}
}

// PutLinkedInSection stores pasted section content. HTML pastes are
// converted to markdown.
func (s *Service) PutLinkedInSection(ctx context.Context, candidateID string, t SectionType, content string) (LinkedInSection, error) {
	if _, err := ParseSectionType(string(t)); err != nil {
		return LinkedInSection{}, err
	}
	cleaned := extract.CleanPastedText(content)
	if cleaned == "" {
		return LinkedInSection{}, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	if err := s.Repo.PutSection(ctx, LinkedInSection{CandidateID: candidateID, Type: t, Content: cleaned}); err != nil {
		return LinkedInSection{}, fmt.Errorf("put section: %w", err)
	}
	events.Emit(ctx, s.Events, events.Event{Type: events.TypeCandidateUpdated, CandidateID: candidateID, Field: "linkedin." + string(t)})
	return s.Repo.GetSection(ctx, candidateID, t)
}

func (s *Service) GetLinkedInSection(ctx context.Context, candidateID string, t SectionType) (LinkedInSection, error) {
	return s.Repo.GetSection(ctx, candidateID, t)
}

func (s *Service) ListLinkedInSections(ctx context.Context, candidateID string) ([]LinkedInSection, error) {
	out, err := s.Repo.ListSections(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return out, nil
}

// DeleteLinkedInSection removes a section and its screenshot object.
func (s *Service) DeleteLinkedInSection(ctx context.Context, candidateID string, t SectionType) error {
	removed, err := s.Repo.DeleteSection(ctx, candidateID, t)
	if err != nil {
		return err
	}
	if removed.ScreenshotPath != "" {
		s.deleteObject(ctx, candidateID, removed.ScreenshotPath)
	}
	events.Emit(ctx, s.Events, events.Event{Type: events.TypeCandidateUpdated, CandidateID: candidateID, Field: "linkedin." + string(t)})
	return nil
}

// SetSectionScreenshot records an uploaded screenshot and removes the one it replaces.
func (s *Service) SetSectionScreenshot(ctx context.Context, candidateID string, t SectionType, path string) (LinkedInSection, error) {
	prev, err := s.Repo.SetSectionScreenshot(ctx, candidateID, t, path)
	if err != nil {
		return LinkedInSection{}, fmt.Errorf("set screenshot: %w", err)
	}
	if prev != "" && prev != path {
		s.deleteObject(ctx, candidateID, prev)
	}
	return s.Repo.GetSection(ctx, candidateID, t)
}

// LinkedInText joins the candidate's pasted LinkedIn content and every
// section in SectionOrder.
func (s *Service) LinkedInText(ctx context.Context, candidateID string) (string, error) {
	var parts []string
	if s.Candidates != nil {
		c, err := s.Candidates.Lookup(ctx, candidateID)
		if err != nil {
			return "", err
		}
		if v := strings.TrimSpace(c.LinkedInContent); v != "" {
			parts = append(parts, v)
		}
	}
	sections, err := s.ListLinkedInSections(ctx, candidateID)
	if err != nil {
		return "", err
	}
	for _, sec := range sections {
		if v := strings.TrimSpace(sec.Content); v != "" {
			parts = append(parts, sec.Type.title()+":\n"+v)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

// Presence reports which derived source records hold content.
func (s *Service) Presence(ctx context.Context, candidateID string) (candidates.Availability, error) {
	b, err := s.All(ctx, candidateID)
	if err != nil {
		return candidates.Availability{}, err
	}
	linkedIn := b.LinkedIn.HasContent()
	for _, sec := range b.Sections {
		if strings.TrimSpace(sec.Content) != "" {
			linkedIn = true
		}
	}
	return candidates.Availability{
		Resume:    b.Resume.HasContent(),
		LinkedIn:  linkedIn,
		Screening: b.Screening.HasContent(),
	}, nil
}

// ObjectKeys lists stored screenshot objects for the candidate.
func (s *Service) ObjectKeys(ctx context.Context, candidateID string) ([]string, error) {
	sections, err := s.ListLinkedInSections(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, sec := range sections {
		if sec.ScreenshotPath != "" {
			keys = append(keys, sec.ScreenshotPath)
		}
	}
	return keys, nil
}

func (s *Service) deleteObject(ctx context.Context, candidateID, key string) {
	if s.Store == nil {
		return
	}
	if err := s.Store.Delete(ctx, key); err != nil {
		telemetry.Warn("sources.delete_object_failed", map[string]any{
			"candidate_id": candidateID,
			"key":          key,
			"error":        err.Error(),
		})
	}
}

var _ candidates.SourceData = (*Service)(nil)
