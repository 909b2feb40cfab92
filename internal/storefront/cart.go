package storefront

import (
	"context"

	"github.com/wichananm65/craftisland/internal/apperr"
	"github.com/wichananm65/craftisland/internal/cart"
	"github.com/wichananm65/craftisland/internal/product"
)

// Cart and wishlist changes apply to memory first and are then written to the
// active scope. A failed write is returned, but the in-memory change stands.

func (a *App) mutateCart(ctx context.Context, fn func([]cart.Item) []cart.Item) error {
	a.persistMu.Lock()
	defer a.persistMu.Unlock()
	var items []cart.Item
	var scope string
	a.store.Update(func(s *State) {
		s.Cart = fn(s.Cart)
		items, scope = s.Cart, s.Scope
	})
	return a.local.SaveCart(ctx, scope, items)
}

func (a *App) mutateWishlist(ctx context.Context, fn func([]product.Product) []product.Product) error {
	a.persistMu.Lock()
	defer a.persistMu.Unlock()
	var list []product.Product
	var scope string
	a.store.Update(func(s *State) {
		s.Wishlist = fn(s.Wishlist)
		list, scope = s.Wishlist, s.Scope
	})
	return a.local.SaveWishlist(ctx, scope, list)
}

// AddToCart refuses products with no stock left. Quantities above the stock
// are left to checkout, where the server floors the decrement at zero.
func (a *App) AddToCart(ctx context.Context, p product.Product) error {
	if !p.InStock() {
		return apperr.Validation("%s is out of stock", p.Name)
	}
	return a.mutateCart(ctx, func(items []cart.Item) []cart.Item { return cart.Add(items, p) })
}

func (a *App) UpdateCartQty(ctx context.Context, id, delta int) error {
	return a.mutateCart(ctx, func(items []cart.Item) []cart.Item { return cart.UpdateQty(items, id, delta) })
}

func (a *App) RemoveFromCart(ctx context.Context, id int) error {
	return a.mutateCart(ctx, func(items []cart.Item) []cart.Item { return cart.Remove(items, id) })
}

func (a *App) ClearCart(ctx context.Context) error {
	return a.mutateCart(ctx, func([]cart.Item) []cart.Item { return []cart.Item{} })
}

func (a *App) ToggleWishlist(ctx context.Context, p product.Product) error {
	return a.mutateWishlist(ctx, func(list []product.Product) []product.Product { return cart.ToggleWishlist(list, p) })
}
