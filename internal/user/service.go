package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	repo   Repository
	owners map[string]bool
}

// NewService builds the account service. ownerEmails receive the owner role
// in every token issued for them.
func NewService(repo Repository, ownerEmails []string) *Service {
	owners := make(map[string]bool, len(ownerEmails))
	for _, e := range ownerEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			owners[e] = true
		}
	}
	return &Service{repo: repo, owners: owners}
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Register(ctx context.Context, email, password, fullName string) (User, error) {
	email = strings.TrimSpace(email)
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return User{}, ErrEmailExists
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	return s.repo.Create(ctx, User{
		ID:        uuid.New(),
		Email:     email,
		Password:  string(hashed),
		FullName:  strings.TrimSpace(fullName),
		CreatedAt: time.Now().UTC(),
	})
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	user, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return User{}, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}

	return user, nil
}

// RoleFor returns RoleOwner for configured owner emails.
func (s *Service) RoleFor(email string) string {
	if s.owners[strings.ToLower(strings.TrimSpace(email))] {
		return RoleOwner
	}
	return RoleUser
}
