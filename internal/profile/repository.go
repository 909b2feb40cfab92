package profile

import (
	"context"
	"sync"
)

type Repository interface {
	Get(ctx context.Context, id string) (Profile, error)
	Upsert(ctx context.Context, p Profile) (Profile, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type InMemoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

func NewInMemoryRepository(seed []Profile) *InMemoryRepository {
	r := &InMemoryRepository{profiles: make(map[string]Profile, len(seed))}
	for _, p := range seed {
		r.profiles[p.ID] = p
	}
	return r
}

func (r *InMemoryRepository) Get(_ context.Context, id string) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func (r *InMemoryRepository) Upsert(_ context.Context, p Profile) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.ID] = p
	return p, nil
}

func (r *InMemoryRepository) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.profiles))
	r.profiles = make(map[string]Profile)
	return n, nil
}
