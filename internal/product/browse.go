package product

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// LowStockThreshold is the highest stock count still shown as "only N left".
const LowStockThreshold = 10

func (p Product) InStock() bool { return p.Stock > 0 }

func (p Product) LowStock() bool { return p.Stock > 0 && p.Stock <= LowStockThreshold }

type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
)

// Filter narrows a product list. Zero fields match everything; Category
// "All" is treated like an empty category.
type Filter struct {
	Search   string
	Category string
	MaxPrice *decimal.Decimal
}

func (f Filter) matches(p Product) bool {
	if q := strings.TrimSpace(f.Search); q != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q)) {
		return false
	}
	if f.Category != "" && f.Category != "All" && p.Category != f.Category {
		return false
	}
	if f.MaxPrice != nil && p.EffectivePrice().GreaterThan(*f.MaxPrice) {
		return false
	}
	return true
}

// Browse returns the products matching f, ordered by key. Unknown keys sort
// like SortNewest. The input slice is left untouched.
func Browse(products []Product, f Filter, key SortKey) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if f.matches(p) {
			out = append(out, p.Clone())
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	switch key {
	case SortPriceLow:
		sort.SliceStable(out, func(i, j int) bool { return out[i].EffectivePrice().LessThan(out[j].EffectivePrice()) })
	case SortPriceHigh:
		sort.SliceStable(out, func(i, j int) bool { return out[i].EffectivePrice().GreaterThan(out[j].EffectivePrice()) })
	}
	return out
}
