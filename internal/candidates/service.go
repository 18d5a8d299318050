package candidates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"execsummary-backend/internal/events"
	"execsummary-backend/internal/extract"
	"execsummary-backend/internal/shared/storage/object"
	"execsummary-backend/internal/shared/telemetry"
)

const (
	defaultListLimit = 20
	maxListLimit     = 50
)

// ErrStorage wraps object store failures during the delete cascade.
var ErrStorage = errors.New("storage operation failed")

// ProfileEnsurer upserts the owning profile.
type ProfileEnsurer interface {
	Ensure(ctx context.Context, id, email, name string) error
}

// SourceData is what the candidate service needs from derived source records.
type SourceData interface {
	Presence(ctx context.Context, candidateID string) (Availability, error)
	ObjectKeys(ctx context.Context, candidateID string) ([]string, error)
}

type Service struct {
	Repo     Repo
	Store    object.ObjectStore
	Profiles ProfileEnsurer
	Sources  SourceData
	Events   events.Publisher
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Create stores a new candidate owned by the caller.
func (s *Service) Create(ctx context.Context, owner Identity, in CreateInput) (Candidate, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Candidate{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	ownerID := strings.TrimSpace(owner.ID)
	if ownerID == "" {
		return Candidate{}, fmt.Errorf("%w: owner is required", ErrInvalidInput)
	}
	if s.Profiles != nil {
		if err := s.Profiles.Ensure(ctx, ownerID, owner.Email, owner.Name); err != nil {
			return Candidate{}, fmt.Errorf("ensure profile: %w", err)
		}
	}

	now := s.now()
	c := Candidate{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		Name:           name,
		LinkedInURL:    strings.TrimSpace(in.LinkedInURL),
		ScreeningNotes: extract.CleanPastedText(in.ScreeningNotes),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Repo.Create(ctx, c); err != nil {
		return Candidate{}, fmt.Errorf("create candidate: %w", err)
	}
	return c, nil
}

// Get returns the candidate when it exists and belongs to ownerID.
func (s *Service) Get(ctx context.Context, ownerID, id string) (Candidate, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Candidate{}, fmt.Errorf("%w: candidate id is required", ErrInvalidInput)
	}
	if _, err := uuid.Parse(id); err != nil {
		return Candidate{}, ErrNotFound
	}
	c, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Candidate{}, err
	}
	if c.OwnerID != ownerID {
		return Candidate{}, ErrNotFound
	}
	return c, nil
}

// Lookup returns a candidate by id without an owner check. Callers must
// already have scoped the request to the owner.
func (s *Service) Lookup(ctx context.Context, id string) (Candidate, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Candidate{}, fmt.Errorf("%w: candidate id is required", ErrInvalidInput)
	}
	// ids are UUID columns; anything else cannot exist.
	if _, err := uuid.Parse(id); err != nil {
		return Candidate{}, ErrNotFound
	}
	return s.Repo.Get(ctx, id)
}

// List returns the owner's candidates, newest first.
func (s *Service) List(ctx context.Context, ownerID string, limit, offset int) ([]Candidate, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.ListByOwner(ctx, ownerID, limit, offset)
}

// Update applies the non-nil fields of in.
func (s *Service) Update(ctx context.Context, ownerID, id string, in UpdateInput) (Candidate, error) {
	c, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return Candidate{}, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Candidate{}, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		c.Name = name
	}
	if in.LinkedInURL != nil {
		c.LinkedInURL = strings.TrimSpace(*in.LinkedInURL)
	}
	if in.LinkedInContent != nil {
		c.LinkedInContent = extract.CleanPastedText(*in.LinkedInContent)
	}
	if in.ScreeningNotes != nil {
		c.ScreeningNotes = extract.CleanPastedText(*in.ScreeningNotes)
	}
	if err := s.Repo.Update(ctx, c); err != nil {
		return Candidate{}, fmt.Errorf("update candidate: %w", err)
	}
	s.emit(ctx, c.ID)
	return s.Repo.Get(ctx, c.ID)
}

// SetResumeText stores pasted resume text after cleaning.
func (s *Service) SetResumeText(ctx context.Context, ownerID, id, text string) (Candidate, error) {
	c, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return Candidate{}, err
	}
	cleaned := extract.CleanPastedText(text)
	if cleaned == "" {
		return Candidate{}, fmt.Errorf("%w: resume text is empty", ErrInvalidInput)
	}
	c.ResumeText = cleaned
	if err := s.Repo.Update(ctx, c); err != nil {
		return Candidate{}, fmt.Errorf("update resume text: %w", err)
	}
	s.emit(ctx, c.ID)
	return s.Repo.Get(ctx, c.ID)
}

// AttachResume records an uploaded resume and returns the previous object key.
func (s *Service) AttachResume(ctx context.Context, ownerID, id, path, mimeType, text string) (string, error) {
	c, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return "", err
	}
	if err := s.Repo.SetResume(ctx, id, path, mimeType, text); err != nil {
		return "", fmt.Errorf("set resume: %w", err)
	}
	s.emit(ctx, id)
	return c.ResumePath, nil
}

// Availability reports which sources have data for the candidate.
func (s *Service) Availability(ctx context.Context, ownerID, id string) (Availability, error) {
	c, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return Availability{}, err
	}
	out := Availability{
		Resume:    strings.TrimSpace(c.ResumeText) != "",
		LinkedIn:  strings.TrimSpace(c.LinkedInContent) != "",
		Screening: strings.TrimSpace(c.ScreeningNotes) != "",
	}
	if s.Sources != nil {
		derived, err := s.Sources.Presence(ctx, id)
		if err != nil {
			return Availability{}, fmt.Errorf("source presence: %w", err)
		}
		out.Resume = out.Resume || derived.Resume
		out.LinkedIn = out.LinkedIn || derived.LinkedIn
		out.Screening = out.Screening || derived.Screening
	}
	return out, nil
}

// Delete removes stored objects first, then every dependent row and the
// candidate in one repository call. A storage failure leaves the database untouched.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	c, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}

	var keys []string
	if c.ResumePath != "" {
		keys = append(keys, c.ResumePath)
	}
	if s.Sources != nil {
		more, err := s.Sources.ObjectKeys(ctx, id)
		if err != nil {
			return fmt.Errorf("list stored objects: %w", err)
		}
		keys = append(keys, more...)
	}
	if s.Store != nil {
		for _, key := range keys {
			if err := s.Store.Delete(ctx, key); err != nil {
				telemetry.Error("candidate.delete_object_failed", map[string]any{
					"candidate_id": id,
					"key":          key,
					"error":        err.Error(),
				})
				return fmt.Errorf("%w: %v", ErrStorage, err)
			}
		}
	}

	if err := s.Repo.DeleteCascade(ctx, id); err != nil {
		return fmt.Errorf("delete candidate: %w", err)
	}
	telemetry.Info("candidate.deleted", map[string]any{
		"candidate_id":    id,
		"objects_removed": len(keys),
	})
	events.Emit(ctx, s.Events, events.Event{Type: events.TypeCandidateDeleted, CandidateID: id})
	return nil
}

func (s *Service) emit(ctx context.Context, id string) {
	events.Emit(ctx, s.Events, events.Event{Type: events.TypeCandidateUpdated, CandidateID: id})
}
