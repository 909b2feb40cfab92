package owner

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/wichananm65/craftisland/internal/apperr"
	"github.com/wichananm65/craftisland/internal/order"
	"github.com/wichananm65/craftisland/internal/product"
	"github.com/wichananm65/craftisland/internal/profile"
	"github.com/wichananm65/craftisland/internal/settings"
)

type fixture struct {
	orders   *order.InMemoryRepository
	profiles *profile.InMemoryRepository
	service  *Service
}

func newFixture(t *testing.T, orders order.Repository, mem *order.InMemoryRepository) fixture {
	t.Helper()
	profiles := profile.NewInMemoryRepository([]profile.Profile{{ID: "u1", FullName: "Asha"}})
	svc := NewService(orders, profiles, settings.NewInMemoryRepository(), nil, Config{DefaultPasscode: "@craftisland", AllowFactoryReset: true})
	return fixture{orders: mem, profiles: profiles, service: svc}
}

func seededOrders(t *testing.T) *order.InMemoryRepository {
	t.Helper()
	products := product.NewInMemoryRepository([]product.Product{
		{ID: 1, Name: "Bead Kit", Category: "Crafts", Price: decimal.NewFromInt(250), Stock: 10},
	})
	repo := order.NewInMemoryRepository(products)
	now := time.Now().UTC()
	for i, st := range []order.Status{order.Processing, order.Delivered} {
		_, err := repo.Place(context.Background(), order.Order{
			UserID:    "u1",
			Total:     decimal.NewFromInt(500),
			Status:    st,
			CreatedAt: now.Add(time.Duration(i) * time.Minute),
			Items:     []order.LineItem{{ProductID: 1, Qty: 2, PriceAtPurchase: decimal.NewFromInt(250)}},
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return repo
}

func TestUpdateOrderStatus_ForwardOnly(t *testing.T) {
	repo := seededOrders(t)
	f := newFixture(t, repo, repo)
	ctx := context.Background()

	// order 2 is Delivered
	if _, err := f.service.UpdateOrderStatus(ctx, 2, "Processing"); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	o, _ := repo.Get(ctx, 2)
	if o.Status != order.Delivered {
		t.Fatalf("persisted status must remain Delivered, got %s", o.Status)
	}

	if _, err := f.service.UpdateOrderStatus(ctx, 1, "Teleported"); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("expected unknown status rejected, got %v", err)
	}

	updated, err := f.service.UpdateOrderStatus(ctx, 1, "Accepted")
	if err != nil || updated.Status != order.Accepted {
		t.Fatalf("forward move failed: %+v %v", updated, err)
	}
}

// racingOwner lets another owner move the order right after it was read.
type racingOwner struct {
	*order.InMemoryRepository
	other func()
}

func (r racingOwner) Get(ctx context.Context, id int) (order.Order, error) {
	o, err := r.InMemoryRepository.Get(ctx, id)
	r.other()
	return o, err
}

func TestUpdateOrderStatus_ConcurrentOwnerCannotMoveBackward(t *testing.T) {
	repo := seededOrders(t)
	ctx := context.Background()
	race := racingOwner{InMemoryRepository: repo, other: func() {
		if err := repo.UpdateStatus(ctx, 1, order.Processing, order.Delivered); err != nil {
			t.Fatalf("other owner: %v", err)
		}
	}}
	f := newFixture(t, race, repo)

	// order 1 is read as Processing, then delivered by the other owner
	if _, err := f.service.UpdateOrderStatus(ctx, 1, "Accepted"); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	o, _ := repo.Get(ctx, 1)
	if o.Status != order.Delivered {
		t.Fatalf("status must stay Delivered, got %s", o.Status)
	}
}

type failingItems struct {
	*order.InMemoryRepository
}

func (failingItems) DeleteItems(context.Context, int) error {
	return errors.New("line item delete failed")
}

func TestDeleteOrder_AbortsWhenItemsFail(t *testing.T) {
	repo := seededOrders(t)
	f := newFixture(t, failingItems{repo}, repo)
	ctx := context.Background()

	if err := f.service.DeleteOrder(ctx, 1); err == nil {
		t.Fatalf("expected error")
	}
	o, err := repo.Get(ctx, 1)
	if err != nil {
		t.Fatalf("order must still exist: %v", err)
	}
	if len(o.Items) != 1 {
		t.Fatalf("line items must be untouched, got %d", len(o.Items))
	}
}

func TestDeleteOrder_RemovesOrderAndItems(t *testing.T) {
	repo := seededOrders(t)
	f := newFixture(t, repo, repo)
	ctx := context.Background()

	if err := f.service.DeleteOrder(ctx, 1); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := repo.Get(ctx, 1); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected order gone, got %v", err)
	}
	if err := f.service.DeleteOrder(ctx, 1); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestFactoryReset(t *testing.T) {
	repo := seededOrders(t)
	f := newFixture(t, repo, repo)
	ctx := context.Background()

	for _, phrase := range []string{"", "reset", "RESET "} {
		if _, err := f.service.FactoryReset(ctx, phrase); !errors.Is(err, apperr.ErrConfirmationRequired) {
			t.Fatalf("phrase %q: expected confirmation required, got %v", phrase, err)
		}
	}
	all, _ := repo.ListAll(ctx)
	if len(all) != 2 {
		t.Fatalf("no deletions expected without the phrase, got %d orders", len(all))
	}
	if _, err := f.profiles.Get(ctx, "u1"); err != nil {
		t.Fatalf("profile must survive: %v", err)
	}

	res, err := f.service.FactoryReset(ctx, ResetPhrase)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if res.Items != 2 || res.Orders != 2 || res.Profiles != 1 {
		t.Fatalf("unexpected reset result %+v", res)
	}
	all, _ = repo.ListAll(ctx)
	if len(all) != 0 {
		t.Fatalf("expected no orders after reset")
	}

	disabled := NewService(repo, f.profiles, settings.NewInMemoryRepository(), nil, Config{})
	if _, err := disabled.FactoryReset(ctx, ResetPhrase); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden when reset is disabled, got %v", err)
	}
}

func TestAnalytics(t *testing.T) {
	repo := seededOrders(t)
	f := newFixture(t, repo, repo)

	a, err := f.service.Analytics(context.Background())
	if err != nil {
		t.Fatalf("analytics failed: %v", err)
	}
	if !a.Revenue.Equal(decimal.NewFromInt(1000)) || a.ItemsSold != 4 || a.OrderCount != 2 {
		t.Fatalf("unexpected analytics %+v", a)
	}
	if a.ByStatus[order.Delivered] != 1 || a.ByStatus[order.Processing] != 1 {
		t.Fatalf("unexpected status counts %+v", a.ByStatus)
	}
}

func TestPasscode(t *testing.T) {
	repo := seededOrders(t)
	f := newFixture(t, repo, repo)
	ctx := context.Background()

	if ok, _ := f.service.VerifyPasscode(ctx, "@craftisland"); !ok {
		t.Fatalf("default passcode must verify")
	}
	if err := f.service.UpdatePasscode(ctx, "abc"); !errors.Is(err, apperr.ErrValidationFailed) {
		t.Fatalf("short passcode must be rejected, got %v", err)
	}
	if err := f.service.UpdatePasscode(ctx, "kiln42"); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if ok, _ := f.service.VerifyPasscode(ctx, "@craftisland"); ok {
		t.Fatalf("default passcode must stop working after an update")
	}
	if ok, _ := f.service.VerifyPasscode(ctx, "kiln42"); !ok {
		t.Fatalf("new passcode must verify")
	}
}

func TestOwnerRoutes(t *testing.T) {
	repo := seededOrders(t)
	f := newFixture(t, repo, repo)
	app := fiber.New()
	NewHandler(f.service).RegisterOwnerRoutes(app)

	req := httptest.NewRequest("PATCH", "/owner/orders/2/status", strings.NewReader(`{"status":"Accepted"}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected 409 for backward move, got %d", res.StatusCode)
	}

	req = httptest.NewRequest("POST", "/owner/factory-reset", strings.NewReader(`{"confirm":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 without phrase, got %d", res.StatusCode)
	}

	res, _ = app.Test(httptest.NewRequest("GET", "/owner/orders", nil))
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 listing orders, got %d", res.StatusCode)
	}
}
