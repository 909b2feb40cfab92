package localstore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/craftisland/internal/cart"
	"github.com/wichananm65/craftisland/internal/product"
)

func craft(id int, name string) product.Product {
	return product.Product{
		ID:       id,
		Name:     name,
		Category: "Crafts",
		Price:    decimal.NewFromInt(250),
		Image:    "https://cdn.craftisland.in/p.jpg",
		Images:   []string{"https://cdn.craftisland.in/p.jpg", "https://cdn.craftisland.in/q.jpg"},
		Stock:    4,
	}
}

func TestScope(t *testing.T) {
	assert.Equal(t, Guest, Scope(""))
	assert.Equal(t, Guest, Scope("   "))
	assert.Equal(t, "asha@craftisland.in", Scope(" Asha@CraftIsland.in "))
}

func TestLoadScope_Isolation(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryKV())
	a, b := Scope("a@x.in"), Scope("b@x.in")

	require.NoError(t, s.SaveCart(ctx, a, cart.Add(nil, craft(1, "Loom"))))
	require.NoError(t, s.SaveWishlist(ctx, a, []product.Product{craft(2, "Yarn")}))

	got, err := s.LoadScope(ctx, b)
	require.NoError(t, err)
	assert.Empty(t, got.Cart)
	assert.Empty(t, got.Wishlist)

	require.NoError(t, s.SaveCart(ctx, b, cart.Add(nil, craft(3, "Chisel"))))

	got, err = s.LoadScope(ctx, a)
	require.NoError(t, err)
	require.Len(t, got.Cart, 1)
	assert.Equal(t, 1, got.Cart[0].ID)
	require.Len(t, got.Wishlist, 1)
	assert.Equal(t, 2, got.Wishlist[0].ID)
}

func TestSaveCart_StripsLargeInlineImage(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryKV())

	p := craft(5, "Beadwork Kit")
	p.Image = "data:image/png;base64," + strings.Repeat("A", 2000)
	d := decimal.NewFromInt(199)
	p.DiscountPrice = &d
	items := cart.UpdateQty(cart.Add(nil, p), 5, 2)

	require.NoError(t, s.SaveCart(ctx, Guest, items))
	got, err := s.LoadScope(ctx, Guest)
	require.NoError(t, err)
	require.Len(t, got.Cart, 1)

	saved := got.Cart[0]
	assert.Empty(t, saved.Image)
	assert.Nil(t, saved.Images)
	assert.Equal(t, "Beadwork Kit", saved.Name)
	assert.Equal(t, 3, saved.Qty)
	assert.True(t, saved.Price.Equal(decimal.NewFromInt(250)))
	require.NotNil(t, saved.DiscountPrice)
	assert.True(t, saved.DiscountPrice.Equal(d))

	// the caller's slice keeps its image
	assert.NotEmpty(t, items[0].Image)
}

func TestSaveCart_KeepsSmallAndRemoteImages(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryKV())

	small := craft(6, "Clay")
	small.Image = "data:image/gif;base64,R0lGOD"
	remote := craft(7, "Glaze")

	require.NoError(t, s.SaveWishlist(ctx, Guest, []product.Product{small, remote}))
	got, err := s.LoadScope(ctx, Guest)
	require.NoError(t, err)
	require.Len(t, got.Wishlist, 2)
	assert.Equal(t, small.Image, got.Wishlist[0].Image)
	assert.Equal(t, remote.Image, got.Wishlist[1].Image)
	assert.Nil(t, got.Wishlist[1].Images)
}

func TestSaveCart_EmptyRemovesKey(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	s := New(kv)
	scope := Scope("a@x.in")

	require.NoError(t, s.SaveCart(ctx, scope, cart.Add(nil, craft(1, "Loom"))))
	require.NoError(t, s.SaveCart(ctx, scope, nil))
	_, err := kv.Get(ctx, CartKey(scope))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SaveCart(ctx, Guest, []cart.Item{}))
	require.NoError(t, s.SaveWishlist(ctx, Guest, nil))
	assert.Empty(t, kv.Keys(), "empty guest lists are never written")
}

type brokenKV struct{}

var errQuota = errors.New("quota exceeded")

func (*brokenKV) Get(context.Context, string) ([]byte, error) { return nil, errQuota }
func (*brokenKV) Set(context.Context, string, []byte) error   { return errQuota }
func (*brokenKV) Delete(context.Context, string) error        { return errQuota }
func (*brokenKV) Clear(context.Context) error                 { return errQuota }

func TestStore_FailuresAreReturnedNotFatal(t *testing.T) {
	ctx := context.Background()
	s := New(&brokenKV{})

	got, err := s.LoadScope(ctx, Guest)
	assert.ErrorIs(t, err, errQuota)
	assert.NotNil(t, got.Cart)
	assert.NotNil(t, got.Wishlist)

	assert.ErrorIs(t, s.SaveCart(ctx, Guest, cart.Add(nil, craft(1, "Loom"))), errQuota)
	assert.ErrorIs(t, s.Clear(ctx), errQuota)
}

func TestLoadScope_CorruptSlot(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	s := New(kv)
	require.NoError(t, kv.Set(ctx, CartKey(Guest), []byte("{not json")))
	require.NoError(t, s.SaveWishlist(ctx, Guest, []product.Product{craft(2, "Yarn")}))

	got, err := s.LoadScope(ctx, Guest)
	assert.Error(t, err)
	assert.Empty(t, got.Cart)
	assert.Len(t, got.Wishlist, 1)
}

func TestJSONAndClear(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryKV())

	var role string
	found, err := s.GetJSON(ctx, KeyRole, &role)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.SetJSON(ctx, KeyRole, "owner"))
	found, err = s.GetJSON(ctx, KeyRole, &role)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "owner", role)

	require.NoError(t, s.Clear(ctx))
	found, _ = s.GetJSON(ctx, KeyRole, &role)
	assert.False(t, found)
}
