package storefront

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/wichananm65/craftisland/internal/apperr"
	"github.com/wichananm65/craftisland/internal/pincode"
	"github.com/wichananm65/craftisland/internal/product"
	"golang.org/x/sync/errgroup"
)

// RefreshCatalog replaces products and pincodes with the remote lists.
// Concurrent callers share one in-flight refresh, but a caller never settles
// for a fetch that started before its own request: it refreshes again until
// the lists were read after it asked. On failure the previous lists stay in
// place.
func (a *App) RefreshCatalog(ctx context.Context) error {
	want := a.catalogGen.Add(1)
	for {
		v, err, _ := a.catalog.Do("catalog", func() (any, error) {
			started := a.catalogGen.Load()
			return started, a.fetchCatalog(ctx)
		})
		if err != nil {
			return err
		}
		if v.(uint64) >= want {
			return nil
		}
	}
}

func (a *App) fetchCatalog(ctx context.Context) error {
	a.store.Update(func(s *State) { s.Loading = true })

	var products []product.Product
	var codes []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = a.remote.ListProducts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		codes, err = a.remote.ListPincodes(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		a.store.Update(func(s *State) { s.Loading = false })
		return err
	}

	sortByID(products)
	a.store.Update(func(s *State) {
		s.Products = products
		s.Pincodes = codes
		s.Loading = false
	})
	log.Printf("[catalog] refreshed %d products, %d pincodes", len(products), len(codes))
	return nil
}

// BrowseCatalog filters and orders the current product list without touching
// the remote.
func (a *App) BrowseCatalog(f product.Filter, key product.SortKey) []product.Product {
	return product.Browse(a.store.Snapshot().Products, f, key)
}

func sortByID(products []product.Product) {
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
}

func (a *App) requireOwner() error {
	if !a.store.Snapshot().IsOwner() {
		return fmt.Errorf("%w: enter owner mode first", apperr.ErrForbidden)
	}
	return nil
}

func notice(res product.WriteResult) string {
	if res.Degraded {
		return product.DegradedNotice
	}
	return ""
}

// AddProduct creates p remotely and then adds the stored row to the list.
// The returned notice is non-empty when the write lost its image gallery.
func (a *App) AddProduct(ctx context.Context, p product.Product) (string, error) {
	if err := a.requireOwner(); err != nil {
		return "", err
	}
	if err := p.Validate(); err != nil {
		return "", err
	}
	res, err := a.remote.CreateProduct(ctx, p)
	if err != nil {
		log.Printf("[catalog] add product failed: %v", err)
		return "", err
	}
	a.store.Update(func(s *State) {
		s.Products = append(s.Products, res.Product)
		sortByID(s.Products)
	})
	return notice(res), nil
}

func (a *App) UpdateProduct(ctx context.Context, id int, p product.Product) (string, error) {
	if err := a.requireOwner(); err != nil {
		return "", err
	}
	if err := p.Validate(); err != nil {
		return "", err
	}
	res, err := a.remote.UpdateProduct(ctx, id, p)
	if err != nil {
		log.Printf("[catalog] update product %d failed: %v", id, err)
		return "", err
	}
	a.store.Update(func(s *State) { replaceProduct(s, res.Product) })
	return notice(res), nil
}

func replaceProduct(s *State, p product.Product) {
	for i := range s.Products {
		if s.Products[i].ID == p.ID {
			s.Products[i] = p
			return
		}
	}
	s.Products = append(s.Products, p)
	sortByID(s.Products)
}

func (a *App) DeleteProduct(ctx context.Context, id int) error {
	if err := a.requireOwner(); err != nil {
		return err
	}
	if err := a.remote.DeleteProduct(ctx, id); err != nil {
		log.Printf("[catalog] delete product %d failed: %v", id, err)
		return err
	}
	a.store.Update(func(s *State) {
		kept := s.Products[:0]
		for _, p := range s.Products {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		s.Products = kept
	})
	return nil
}

func (a *App) UpdateProductStock(ctx context.Context, id, stock int) error {
	if err := a.requireOwner(); err != nil {
		return err
	}
	if stock < 0 {
		return apperr.Validation("stock must be >= 0")
	}
	p, err := a.remote.SetStock(ctx, id, stock)
	if err != nil {
		log.Printf("[catalog] stock update for %d failed: %v", id, err)
		return err
	}
	a.store.Update(func(s *State) { replaceProduct(s, p) })
	return nil
}

func (a *App) AddPincode(ctx context.Context, code string) error {
	if err := a.requireOwner(); err != nil {
		return err
	}
	code, err := pincode.Validate(code)
	if err != nil {
		return err
	}
	if err := a.remote.AddPincode(ctx, code); err != nil {
		return err
	}
	a.store.Update(func(s *State) {
		if !pincode.Contains(s.Pincodes, code) {
			s.Pincodes = append(s.Pincodes, code)
			sort.Strings(s.Pincodes)
		}
	})
	return nil
}

func (a *App) RemovePincode(ctx context.Context, code string) error {
	if err := a.requireOwner(); err != nil {
		return err
	}
	if err := a.remote.RemovePincode(ctx, code); err != nil {
		return err
	}
	a.store.Update(func(s *State) {
		kept := s.Pincodes[:0]
		for _, c := range s.Pincodes {
			if c != code {
				kept = append(kept, c)
			}
		}
		s.Pincodes = kept
	})
	return nil
}
