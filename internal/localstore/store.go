// Package localstore persists the cart, wishlist and a few device settings
// per identity scope. Failures are logged and returned; callers keep their
// in-memory state as the source of truth for the session.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/wichananm65/craftisland/internal/cart"
	"github.com/wichananm65/craftisland/internal/product"
)

// Guest is the scope used when nobody is signed in.
const Guest = "guest"

// MaxInlineImage is the longest inline data: image kept when persisting.
const MaxInlineImage = 1000

const (
	KeyContactInfo   = "contact_info"
	KeyOwnerPasscode = "owner_passcode"
	KeyRole          = "role"
	KeySession       = "session"
)

// Scope returns the namespace for an identity: the normalized email, or
// Guest when empty.
func Scope(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return Guest
	}
	return email
}

func CartKey(scope string) string     { return "cart:" + scope }
func WishlistKey(scope string) string { return "wishlist:" + scope }

// Scoped is what one scope has persisted.
type Scoped struct {
	Cart     []cart.Item
	Wishlist []product.Product
}

type Store struct {
	kv KV
}

func New(kv KV) *Store {
	return &Store{kv: kv}
}

// LoadScope reads both slots of a scope. Missing slots are empty lists. On a
// read or decode failure the affected list is empty and the error returned.
func (s *Store) LoadScope(ctx context.Context, scope string) (Scoped, error) {
	out := Scoped{Cart: []cart.Item{}, Wishlist: []product.Product{}}
	var errs []error
	if _, err := s.GetJSON(ctx, CartKey(scope), &out.Cart); err != nil {
		out.Cart = []cart.Item{}
		errs = append(errs, err)
	}
	if _, err := s.GetJSON(ctx, WishlistKey(scope), &out.Wishlist); err != nil {
		out.Wishlist = []product.Product{}
		errs = append(errs, err)
	}
	return out, errors.Join(errs...)
}

// SaveCart persists a sanitized copy of items. An empty cart removes the key
// instead of writing an empty list.
func (s *Store) SaveCart(ctx context.Context, scope string, items []cart.Item) error {
	if len(items) == 0 {
		return s.Delete(ctx, CartKey(scope))
	}
	clean := make([]cart.Item, len(items))
	for i, it := range items {
		clean[i] = cart.Item{Product: sanitize(it.Product), Qty: it.Qty}
	}
	return s.SetJSON(ctx, CartKey(scope), clean)
}

// SaveWishlist follows the same sanitization and emptiness rules as SaveCart.
func (s *Store) SaveWishlist(ctx context.Context, scope string, list []product.Product) error {
	if len(list) == 0 {
		return s.Delete(ctx, WishlistKey(scope))
	}
	clean := make([]product.Product, len(list))
	for i, p := range list {
		clean[i] = sanitize(p)
	}
	return s.SetJSON(ctx, WishlistKey(scope), clean)
}

func sanitize(p product.Product) product.Product {
	p = p.Clone()
	if strings.HasPrefix(p.Image, "data:") && len(p.Image) > MaxInlineImage {
		p.Image = ""
	}
	p.Images = nil
	return p
}

// GetJSON decodes key into v. It reports false with a nil error when the key
// is absent.
func (s *Store) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		log.Printf("[storage] read %s: %v", key, err)
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		log.Printf("[storage] decode %s: %v", key, err)
		return false, err
	}
	return true, nil
}

func (s *Store) SetJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("[storage] encode %s: %v", key, err)
		return err
	}
	if err := s.kv.Set(ctx, key, raw); err != nil {
		log.Printf("[storage] write %s: %v", key, err)
		return err
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.kv.Delete(ctx, key); err != nil {
		log.Printf("[storage] delete %s: %v", key, err)
		return err
	}
	return nil
}

// Clear removes every key on this device.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Clear(ctx); err != nil {
		log.Printf("[storage] clear: %v", err)
		return err
	}
	return nil
}
