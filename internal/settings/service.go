package settings

import (
	"context"
	"encoding/json"
	"errors"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Contact returns the stored contact details, or empty ones when unset.
func (s *Service) Contact(ctx context.Context) (ContactInfo, error) {
	var info ContactInfo
	raw, err := s.repo.Get(ctx, KeyContact)
	if errors.Is(err, ErrNotFound) {
		return info, nil
	}
	if err != nil {
		return info, err
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		return ContactInfo{}, err
	}
	return info, nil
}

func (s *Service) UpdateContact(ctx context.Context, patch ContactPatch) (ContactInfo, error) {
	current, err := s.Contact(ctx)
	if err != nil {
		return ContactInfo{}, err
	}
	next := current.Apply(patch)
	raw, err := json.Marshal(next)
	if err != nil {
		return ContactInfo{}, err
	}
	if err := s.repo.Put(ctx, KeyContact, raw); err != nil {
		return ContactInfo{}, err
	}
	return next, nil
}
