package profiles

import (
	"context"
	"errors"
	"strings"
)

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// Ensure records the caller identity so candidates always have an owning profile.
func (s *Service) Ensure(ctx context.Context, id, email, name string) error {
	if s == nil || s.Repo == nil {
		return errors.New("profiles service not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("profile id is required")
	}
	return s.Repo.Upsert(ctx, Profile{
		ID:    id,
		Email: strings.TrimSpace(email),
		Name:  strings.TrimSpace(name),
	})
}

func (s *Service) GetByID(ctx context.Context, id string) (Profile, error) {
	if s == nil || s.Repo == nil {
		return Profile{}, errors.New("profiles service not configured")
	}
	if strings.TrimSpace(id) == "" {
		return Profile{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, id)
}
