package pincode

import (
	"context"
	"fmt"
	"log"

	"github.com/wichananm65/craftisland/internal/apperr"
	"github.com/wichananm65/craftisland/internal/realtime"
)

type Service struct {
	repo   Repository
	events realtime.Publisher
}

func NewService(repo Repository, events realtime.Publisher) *Service {
	if events == nil {
		events = realtime.Nop{}
	}
	return &Service{repo: repo, events: events}
}

func (s *Service) List(ctx context.Context) ([]string, error) {
	return s.repo.List(ctx)
}

// Add stores code. Adding a code that is already listed is a no-op.
func (s *Service) Add(ctx context.Context, code string) (string, error) {
	code, err := Validate(code)
	if err != nil {
		return "", err
	}
	if err := s.repo.Add(ctx, code); err != nil {
		return "", err
	}
	s.publish(ctx, realtime.Insert, code)
	return code, nil
}

func (s *Service) Remove(ctx context.Context, code string) error {
	if err := s.repo.Remove(ctx, code); err != nil {
		if err == ErrNotFound {
			return fmt.Errorf("%w: pincode %s", apperr.ErrNotFound, code)
		}
		return err
	}
	s.publish(ctx, realtime.Delete, code)
	return nil
}

func (s *Service) publish(ctx context.Context, typ, code string) {
	if err := s.events.Publish(ctx, realtime.Event{Table: realtime.TablePincodes, Type: typ, ID: code}); err != nil {
		log.Printf("[catalog] publish pincode %s %s: %v", typ, code, err)
	}
}
