package summaries

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"execsummary-backend/internal/events"
	"execsummary-backend/internal/shared/telemetry"
)

type Service struct {
	Repo   Repo
	Events events.Publisher
}

// Get returns every field of the candidate's summary. Fields without a row
// are reported as empty.
func (s *Service) Get(ctx context.Context, candidateID string) (Summary, error) {
	if strings.TrimSpace(candidateID) == "" {
		return Summary{}, fmt.Errorf("%w: candidate id is required", ErrInvalidInput)
	}
	rows, err := s.Repo.List(ctx, candidateID)
	if err != nil {
		return Summary{}, fmt.Errorf("list summary fields: %w", err)
	}
	out := Summary{CandidateID: candidateID, Fields: make(map[string]Field, len(Fields))}
	for _, name := range Fields {
		out.Fields[name] = emptyField(name)
	}
	for _, f := range rows {
		if _, ok := out.Fields[f.Name]; ok {
			out.Fields[f.Name] = f.normalize()
		}
	}
	return out, nil
}

// GetField returns one field, empty when no row exists.
func (s *Service) GetField(ctx context.Context, candidateID, field string) (Field, error) {
	name, err := ParseField(field)
	if err != nil {
		return Field{}, err
	}
	f, err := s.Repo.Get(ctx, candidateID, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return emptyField(name), nil
		}
		return Field{}, fmt.Errorf("get summary field: %w", err)
	}
	return f.normalize(), nil
}

// Value returns the stored text of a field, "" when absent.
func (s *Service) Value(ctx context.Context, candidateID, field string) (string, error) {
	f, err := s.GetField(ctx, candidateID, field)
	if err != nil {
		return "", err
	}
	return f.Value, nil
}

// Submit stores value as the final text of the field.
func (s *Service) Submit(ctx context.Context, candidateID, field, value string) (Field, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Field{}, fmt.Errorf("%w: value is required", ErrInvalidInput)
	}
	return s.write(ctx, candidateID, field, "submit", func(f *Field) {
		f.Value = value
		f.Status = StatusSubmitted
	})
}

// SaveDraft stores value as work in progress. An empty value empties the field.
func (s *Service) SaveDraft(ctx context.Context, candidateID, field, value string) (Field, error) {
	value = strings.TrimSpace(value)
	return s.write(ctx, candidateID, field, "draft", func(f *Field) {
		f.Value = value
		if value == "" {
			f.Status = StatusEmpty
		} else {
			f.Status = StatusDraft
		}
	})
}

// Edit reopens a submitted field as a draft, keeping its value.
func (s *Service) Edit(ctx context.Context, candidateID, field string) (Field, error) {
	current, err := s.GetField(ctx, candidateID, field)
	if err != nil {
		return Field{}, err
	}
	if current.Status != StatusSubmitted {
		return current, nil
	}
	return s.write(ctx, candidateID, field, "edit", func(f *Field) {
		f.Status = StatusDraft
	})
}

// Reset clears value, statements and breakdown. Resetting an empty or
// missing field is a no-op.
func (s *Service) Reset(ctx context.Context, candidateID, field string) (Field, error) {
	name, err := ParseField(field)
	if err != nil {
		return Field{}, err
	}
	if strings.TrimSpace(candidateID) == "" {
		return Field{}, fmt.Errorf("%w: candidate id is required", ErrInvalidInput)
	}
	if err := s.Repo.Reset(ctx, candidateID, name); err != nil {
		return Field{}, fmt.Errorf("reset summary field: %w", err)
	}
	s.logTransition(candidateID, name, "reset", StatusEmpty)
	events.Emit(ctx, s.Events, events.Event{Type: events.TypeCandidateUpdated, CandidateID: candidateID, Field: name})
	return emptyField(name), nil
}

// StoreSynthesis records a merge result as a draft the author still has to submit.
func (s *Service) StoreSynthesis(ctx context.Context, candidateID, field string, statements []string, breakdown map[string]any) (Field, error) {
	cleaned := make([]string, 0, len(statements))
	for _, st := range statements {
		if st = strings.TrimSpace(st); st != "" {
			cleaned = append(cleaned, st)
		}
	}
	if len(cleaned) == 0 {
		return Field{}, fmt.Errorf("%w: no statements to store", ErrInvalidInput)
	}
	name, err := ParseField(field)
	if err != nil {
		return Field{}, err
	}
	f := Field{
		Name:             name,
		Value:            strings.Join(cleaned, "\n"),
		Status:           StatusDraft,
		MergedStatements: cleaned,
		SourceBreakdown:  breakdown,
	}.normalize()
	if err := s.Repo.Upsert(ctx, candidateID, f); err != nil {
		return Field{}, fmt.Errorf("store synthesis: %w", err)
	}
	s.logTransition(candidateID, name, "synthesis", StatusDraft)
	return f, nil
}

// write applies mutate to the current field and upserts the result.
func (s *Service) write(ctx context.Context, candidateID, field, action string, mutate func(*Field)) (Field, error) {
	if strings.TrimSpace(candidateID) == "" {
		return Field{}, fmt.Errorf("%w: candidate id is required", ErrInvalidInput)
	}
	f, err := s.GetField(ctx, candidateID, field)
	if err != nil {
		return Field{}, err
	}
	mutate(&f)
	f = f.normalize()
	if err := s.Repo.Upsert(ctx, candidateID, f); err != nil {
		return Field{}, fmt.Errorf("%s summary field: %w", action, err)
	}
	s.logTransition(candidateID, f.Name, action, f.Status)
	events.Emit(ctx, s.Events, events.Event{Type: events.TypeCandidateUpdated, CandidateID: candidateID, Field: f.Name})
	return s.GetField(ctx, candidateID, f.Name)
}

func (s *Service) logTransition(candidateID, field, action string, status Status) {
	telemetry.Info("summary.field_updated", map[string]any{
		"candidate_id": candidateID,
		"field":        field,
		"action":       action,
		"status":       string(status),
	})
}
