package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/wichananm65/craftisland/internal/apperr"
	"github.com/wichananm65/craftisland/internal/product"
)

var ErrNotFound = fmt.Errorf("order %w", apperr.ErrNotFound)

type Repository interface {
	// Place stores the order, its line items and the stock decrements as one
	// unit: either all of them are written or none.
	Place(ctx context.Context, o Order) (Order, error)
	Get(ctx context.Context, id int) (Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	// UpdateStatus writes to only while the stored status is still from.
	// Otherwise it fails with ErrInvalidTransition and changes nothing.
	UpdateStatus(ctx context.Context, id int, from, to Status) error
	DeleteItems(ctx context.Context, orderID int) error
	Delete(ctx context.Context, id int) error
	DeleteAllItems(ctx context.Context) (int64, error)
	DeleteAllOrders(ctx context.Context) (int64, error)
}

// Products is what the in-memory repository needs from the catalog.
type Products interface {
	GetByID(ctx context.Context, id int) (product.Product, error)
	DecrementStock(ctx context.Context, id, qty int) error
	SetStock(ctx context.Context, id, stock int) (product.Product, error)
}

type InMemoryRepository struct {
	mu        sync.RWMutex
	orders    []Order
	nextOrder int
	nextItem  int
	products  Products
}

func NewInMemoryRepository(products Products) *InMemoryRepository {
	return &InMemoryRepository{nextOrder: 1, nextItem: 1, products: products}
}

func (r *InMemoryRepository) Place(ctx context.Context, o Order) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := make(map[int]int, len(o.Items))
	for _, li := range o.Items {
		if _, seen := before[li.ProductID]; seen {
			continue
		}
		p, err := r.products.GetByID(ctx, li.ProductID)
		if errors.Is(err, product.ErrNotFound) {
			continue
		}
		if err != nil {
			return Order{}, err
		}
		before[li.ProductID] = p.Stock
	}
	for _, li := range o.Items {
		if err := r.products.DecrementStock(ctx, li.ProductID, li.Qty); err != nil {
			r.restoreStock(ctx, before)
			return Order{}, err
		}
	}

	o.ID = r.nextOrder
	r.nextOrder++
	for i := range o.Items {
		o.Items[i].ID = r.nextItem
		o.Items[i].OrderID = o.ID
		r.nextItem++
	}
	r.orders = append(r.orders, o.Clone())
	return r.withSnapshots(ctx, o), nil
}

func (r *InMemoryRepository) restoreStock(ctx context.Context, before map[int]int) {
	for id, stock := range before {
		if _, err := r.products.SetStock(ctx, id, stock); err != nil {
			log.Printf("[orders] restore stock for product %d: %v", id, err)
		}
	}
}

func (r *InMemoryRepository) withSnapshots(ctx context.Context, o Order) Order {
	o = o.Clone()
	for i, li := range o.Items {
		p, err := r.products.GetByID(ctx, li.ProductID)
		if err != nil {
			o.Items[i].Product = nil
			continue
		}
		o.Items[i].Product = &ProductSnapshot{ID: p.ID, Name: p.Name, Image: p.Image, Category: p.Category}
	}
	return o
}

func (r *InMemoryRepository) Get(ctx context.Context, id int) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		if o.ID == id {
			return r.withSnapshots(ctx, o), nil
		}
	}
	return Order{}, ErrNotFound
}

func (r *InMemoryRepository) list(ctx context.Context, keep func(Order) bool) []Order {
	out := make([]Order, 0)
	for _, o := range r.orders {
		if keep(o) {
			out = append(out, r.withSnapshots(ctx, o))
		}
	}
	sortNewestFirst(out)
	return out
}

func (r *InMemoryRepository) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.list(ctx, func(o Order) bool { return o.UserID == userID }), nil
}

func (r *InMemoryRepository) ListAll(ctx context.Context) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.list(ctx, func(Order) bool { return true }), nil
}

func (r *InMemoryRepository) UpdateStatus(_ context.Context, id int, from, to Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.orders {
		if r.orders[i].ID != id {
			continue
		}
		if r.orders[i].Status != from {
			return fmt.Errorf("%w: order %d is %s, not %s", apperr.ErrInvalidTransition, id, r.orders[i].Status, from)
		}
		r.orders[i].Status = to
		return nil
	}
	return ErrNotFound
}

func (r *InMemoryRepository) DeleteItems(_ context.Context, orderID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.orders {
		if r.orders[i].ID == orderID {
			r.orders[i].Items = nil
			return nil
		}
	}
	return nil
}

func (r *InMemoryRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.orders {
		if r.orders[i].ID == id {
			r.orders = append(r.orders[:i], r.orders[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *InMemoryRepository) DeleteAllItems(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.orders {
		n += int64(len(r.orders[i].Items))
		r.orders[i].Items = nil
	}
	return n, nil
}

func (r *InMemoryRepository) DeleteAllOrders(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.orders))
	r.orders = nil
	return n, nil
}

func sortNewestFirst(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
}
