package storefront

import (
	"sync"

	"github.com/wichananm65/craftisland/internal/cart"
	"github.com/wichananm65/craftisland/internal/order"
	"github.com/wichananm65/craftisland/internal/product"
	"github.com/wichananm65/craftisland/internal/profile"
	"github.com/wichananm65/craftisland/internal/settings"
	"github.com/wichananm65/craftisland/internal/user"
)

type AuthStatus string

const (
	Unauthenticated AuthStatus = "Unauthenticated"
	SyncingProfile  AuthStatus = "SyncingProfile"
	Authenticated   AuthStatus = "Authenticated"
)

// Identity is the signed-in account. AccountRole comes from the session
// token and decides whether owner mode can be entered at all.
type Identity struct {
	UserID      string
	Email       string
	AccountRole string
}

// State is everything the storefront shows. Values handed out by Store are
// deep copies.
type State struct {
	Products []product.Product
	Pincodes []string
	Loading  bool

	AuthStatus AuthStatus
	// AuthLoading is true while a session is being checked; identity-gated
	// screens must wait for it to clear.
	AuthLoading bool
	Identity    Identity
	Scope       string
	Profile     profile.Profile
	// ProfileDirty is set by a local profile edit and cleared once the
	// remote upsert of that edit is confirmed.
	ProfileDirty bool
	Orders       []order.Order

	Cart     []cart.Item
	Wishlist []product.Product

	// Role is the active view: user.RoleUser or user.RoleOwner.
	Role        string
	OwnerOrders []order.Order
	ContactInfo settings.ContactInfo

	profileVersion uint64
}

func initialState(scope string) State {
	return State{
		Products:   []product.Product{},
		Pincodes:   []string{},
		AuthStatus: Unauthenticated,
		Scope:      scope,
		Cart:       []cart.Item{},
		Wishlist:   []product.Product{},
		Role:       user.RoleUser,
	}
}

func cloneOrders(in []order.Order) []order.Order {
	if in == nil {
		return nil
	}
	out := make([]order.Order, len(in))
	for i, o := range in {
		out[i] = o.Clone()
	}
	return out
}

func cloneProducts(in []product.Product) []product.Product {
	if in == nil {
		return nil
	}
	out := make([]product.Product, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}

func (s State) clone() State {
	out := s
	out.Products = cloneProducts(s.Products)
	out.Pincodes = append([]string(nil), s.Pincodes...)
	out.Orders = cloneOrders(s.Orders)
	out.OwnerOrders = cloneOrders(s.OwnerOrders)
	out.Wishlist = cloneProducts(s.Wishlist)
	if s.Cart != nil {
		out.Cart = make([]cart.Item, len(s.Cart))
		for i, it := range s.Cart {
			out.Cart[i] = cart.Item{Product: it.Product.Clone(), Qty: it.Qty}
		}
	}
	return out
}

// IsOwner reports whether owner mode is active.
func (s State) IsOwner() bool {
	return s.Role == user.RoleOwner
}

// Store holds the current State. Update applies a change under a lock and
// then calls every subscriber, outside the lock, with the new snapshot.
type Store struct {
	mu     sync.RWMutex
	state  State
	subs   map[int]func(State)
	nextID int
}

func NewStore(initial State) *Store {
	return &Store{state: initial.clone(), subs: map[int]func(State){}}
}

func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

func (s *Store) Update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	snap := s.state.clone()
	subs := make([]func(State), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snap)
	}
}

// Subscribe registers fn for every later update. The returned func removes
// it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}
