package product

import (
	"context"
	"log"
	"strconv"

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

func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetByID(ctx context.Context, id int) (Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Capabilities(ctx context.Context) Capabilities {
	return s.repo.Capabilities(ctx)
}

func (s *Service) Create(ctx context.Context, p Product) (WriteResult, error) {
	p.Normalize()
	if err := p.Validate(); err != nil {
		return WriteResult{}, err
	}
	res, err := s.repo.Create(ctx, p)
	if err != nil {
		return WriteResult{}, err
	}
	s.publish(ctx, realtime.Insert, res.Product.ID)
	return res, nil
}

func (s *Service) Update(ctx context.Context, id int, p Product) (WriteResult, error) {
	p.Normalize()
	if err := p.Validate(); err != nil {
		return WriteResult{}, err
	}
	res, err := s.repo.Update(ctx, id, p)
	if err != nil {
		return WriteResult{}, err
	}
	s.publish(ctx, realtime.Update, id)
	return res, nil
}

func (s *Service) SetStock(ctx context.Context, id, stock int) (Product, error) {
	if stock < 0 {
		return Product{}, apperr.Validation("stock must be >= 0")
	}
	p, err := s.repo.SetStock(ctx, id, stock)
	if err != nil {
		return Product{}, err
	}
	s.publish(ctx, realtime.Update, id)
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, realtime.Delete, id)
	return nil
}

func (s *Service) publish(ctx context.Context, typ string, id int) {
	ev := realtime.Event{Table: realtime.TableProducts, Type: typ, ID: strconv.Itoa(id)}
	if err := s.events.Publish(ctx, ev); err != nil {
		log.Printf("[catalog] publish %s %d: %v", typ, id, err)
	}
}
