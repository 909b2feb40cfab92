package profile

import (
	"context"
	"errors"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	return s.repo.Get(ctx, userID)
}

// Update merges patch into the stored profile, creating the row on first use.
func (s *Service) Update(ctx context.Context, userID, email string, patch Patch) (Profile, error) {
	current, err := s.repo.Get(ctx, userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Profile{}, err
	}
	next := current.Apply(patch)
	next.ID = userID
	if email != "" {
		next.Email = email
	}
	return s.repo.Upsert(ctx, next)
}
