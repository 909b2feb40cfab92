package pincode

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var ErrNotFound = errors.New("pincode not found")

type Repository interface {
	List(ctx context.Context) ([]string, error)
	Add(ctx context.Context, code string) error
	Remove(ctx context.Context, code string) error
}

type InMemoryRepository struct {
	mu    sync.RWMutex
	codes map[string]bool
}

func NewInMemoryRepository(seed []string) *InMemoryRepository {
	r := &InMemoryRepository{codes: make(map[string]bool, len(seed))}
	for _, c := range seed {
		r.codes[c] = true
	}
	return r
}

func (r *InMemoryRepository) List(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.codes))
	for c := range r.codes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

func (r *InMemoryRepository) Add(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes[code] = true
	return nil
}

func (r *InMemoryRepository) Remove(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.codes[code] {
		return ErrNotFound
	}
	delete(r.codes, code)
	return nil
}
