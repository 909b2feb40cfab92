// Package cart holds the client-side cart and wishlist operations. Every
// function returns a new slice and leaves its input untouched.
package cart

import (
	"github.com/shopspring/decimal"
	"github.com/wichananm65/craftisland/internal/product"
)

// Item is a product snapshot with a quantity. Qty is always at least 1 for
// an item that is present in a cart.
type Item struct {
	product.Product
	Qty int `json:"qty"`
}

func clone(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = Item{Product: it.Product.Clone(), Qty: it.Qty}
	}
	return out
}

func indexOf(items []Item, id int) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Add increments the quantity of p, or appends it with quantity 1.
func Add(items []Item, p product.Product) []Item {
	out := clone(items)
	if i := indexOf(out, p.ID); i >= 0 {
		out[i].Qty++
		return out
	}
	return append(out, Item{Product: p.Clone(), Qty: 1})
}

// UpdateQty applies delta to the item's quantity. A quantity that reaches 0
// removes the item. Unknown ids are ignored.
func UpdateQty(items []Item, id, delta int) []Item {
	out := clone(items)
	i := indexOf(out, id)
	if i < 0 {
		return out
	}
	out[i].Qty = max(out[i].Qty+delta, 0)
	if out[i].Qty == 0 {
		return append(out[:i], out[i+1:]...)
	}
	return out
}

func Remove(items []Item, id int) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range clone(items) {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return out
}

// Total sums effective price times quantity.
func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.EffectivePrice().Mul(decimal.NewFromInt(int64(it.Qty))))
	}
	return total
}

// Count is the number of units across all items.
func Count(items []Item) int {
	n := 0
	for _, it := range items {
		n += it.Qty
	}
	return n
}

// ToggleWishlist adds p when absent and removes it when present.
func ToggleWishlist(list []product.Product, p product.Product) []product.Product {
	out := make([]product.Product, 0, len(list)+1)
	found := false
	for _, w := range list {
		if w.ID == p.ID {
			found = true
			continue
		}
		out = append(out, w.Clone())
	}
	if !found {
		out = append(out, p.Clone())
	}
	return out
}

func InWishlist(list []product.Product, id int) bool {
	for _, w := range list {
		if w.ID == id {
			return true
		}
	}
	return false
}
