package product

import (
	"context"
	"sort"
	"sync"
)

type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int) (Product, error)
	Create(ctx context.Context, p Product) (WriteResult, error)
	Update(ctx context.Context, id int, p Product) (WriteResult, error)
	Delete(ctx context.Context, id int) error
	SetStock(ctx context.Context, id, stock int) (Product, error)
	Capabilities(ctx context.Context) Capabilities
}

// InMemoryRepository is a simple in-memory implementation useful for tests and
// running the API without a database. Set ImagesSupported to false to mimic a
// schema without the image gallery column.
type InMemoryRepository struct {
	mu              sync.RWMutex
	storage         []Product
	nextID          int
	ImagesSupported bool
}

func NewInMemoryRepository(seed []Product) *InMemoryRepository {
	r := &InMemoryRepository{
		storage:         make([]Product, 0, len(seed)),
		nextID:          1,
		ImagesSupported: true,
	}

	maxID := 0
	for _, p := range seed {
		p.Normalize()
		r.storage = append(r.storage, p)
		if p.ID > maxID {
			maxID = p.ID
		}
	}
	sort.Slice(r.storage, func(i, j int) bool { return r.storage[i].ID < r.storage[j].ID })

	r.nextID = maxID + 1
	return r
}

func (r *InMemoryRepository) List(_ context.Context) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Product, 0, len(r.storage))
	for _, p := range r.storage {
		out = append(out, p.Clone())
	}
	return out, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.storage {
		if p.ID == id {
			return p.Clone(), nil
		}
	}
	return Product{}, ErrNotFound
}

func (r *InMemoryRepository) shape(p Product) (Product, bool) {
	p.Normalize()
	if r.ImagesSupported {
		return p, false
	}
	p.Images = []string{p.Image}
	return p, true
}

func (r *InMemoryRepository) Create(_ context.Context, p Product) (WriteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, degraded := r.shape(p)
	p.ID = r.nextID
	r.nextID++
	r.storage = append(r.storage, p.Clone())
	return WriteResult{Product: p, Degraded: degraded}, nil
}

func (r *InMemoryRepository) Update(_ context.Context, id int, p Product) (WriteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			p, degraded := r.shape(p)
			p.ID = id
			r.storage[i] = p.Clone()
			return WriteResult{Product: p, Degraded: degraded}, nil
		}
	}
	return WriteResult{}, ErrNotFound
}

func (r *InMemoryRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			r.storage = append(r.storage[:i], r.storage[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *InMemoryRepository) SetStock(_ context.Context, id, stock int) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			r.storage[i].Stock = stock
			return r.storage[i].Clone(), nil
		}
	}
	return Product{}, ErrNotFound
}

// DecrementStock lowers stock by qty, never below zero. A missing product is
// ignored, matching the Postgres UPDATE which simply touches no row.
func (r *InMemoryRepository) DecrementStock(_ context.Context, id, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			r.storage[i].Stock = max(r.storage[i].Stock-qty, 0)
			return nil
		}
	}
	return nil
}

func (r *InMemoryRepository) Capabilities(_ context.Context) Capabilities {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Capabilities{Images: r.ImagesSupported}
}
