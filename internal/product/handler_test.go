package product

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/wichananm65/craftisland/internal/realtime"
)

func newTestApp(repo *InMemoryRepository, hub *realtime.Hub) *fiber.App {
	var events realtime.Publisher = realtime.Nop{}
	if hub != nil {
		events = hub
	}
	h := NewHandler(NewService(repo, events))
	app := fiber.New()
	h.RegisterPublicRoutes(app)
	h.RegisterOwnerRoutes(app)
	return app
}

func TestProductRoutes_Registered(t *testing.T) {
	app := newTestApp(NewInMemoryRepository(nil), nil)

	routes := map[string]bool{}
	for _, grp := range app.Stack() {
		for _, r := range grp {
			routes[r.Method+" "+r.Path] = true
		}
	}
	for _, want := range []string{
		"GET /products",
		"GET /products/capabilities",
		"GET /products/:id<int>",
		"POST /products",
		"PUT /products/:id<int>",
		"PATCH /products/:id<int>/stock",
		"DELETE /products/:id<int>",
	} {
		if !routes[want] {
			t.Fatalf("expected route %q to be registered", want)
		}
	}
}

func TestGetProducts_OrderedByID(t *testing.T) {
	seed := []Product{
		{ID: 3, Name: "C", Category: "Tools", Price: decimal.NewFromInt(10)},
		{ID: 1, Name: "A", Category: "Crafts", Price: decimal.NewFromInt(10)},
	}
	app := newTestApp(NewInMemoryRepository(seed), nil)

	res, err := app.Test(httptest.NewRequest("GET", "/products", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var got []Product
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Fatalf("unexpected order %+v", got)
	}
}

func TestCreateProduct_ValidationErrors(t *testing.T) {
	app := newTestApp(NewInMemoryRepository(nil), nil)

	body := `{"name":"","price":"100","discountPrice":"150","category":"Pets","stock":-1}`
	req := httptest.NewRequest("POST", "/products", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	for _, field := range []string{"name", "discountPrice", "category", "stock", "validation_failed"} {
		if !strings.Contains(string(b), field) {
			t.Fatalf("expected %q in body %s", field, b)
		}
	}
}

func TestCreateProduct_DegradedNotice(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	repo.ImagesSupported = false
	hub := realtime.NewHub()
	events, cancel := hub.Subscribe(realtime.TableProducts)
	defer cancel()
	app := newTestApp(repo, hub)

	body := `{"name":"Loom","price":"1200","category":"Tools","images":["x.png","y.png"],"stock":2}`
	req := httptest.NewRequest("POST", "/products", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", res.StatusCode)
	}
	var out struct {
		Product  Product `json:"product"`
		Degraded bool    `json:"degraded"`
		Notice   string  `json:"notice"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Degraded || out.Notice == "" {
		t.Fatalf("expected degraded write with notice, got %+v", out)
	}
	if len(out.Product.Images) != 1 || out.Product.Image != "x.png" {
		t.Fatalf("expected single image, got %+v", out.Product)
	}

	select {
	case ev := <-events:
		if ev.Type != realtime.Insert || ev.ID != "1" {
			t.Fatalf("unexpected event %+v", ev)
		}
	default:
		t.Fatalf("expected an insert event")
	}
}

func TestSetStockAndDelete(t *testing.T) {
	repo := NewInMemoryRepository([]Product{{ID: 5, Name: "Yarn", Category: "Materials", Price: decimal.NewFromInt(80), Stock: 1}})
	app := newTestApp(repo, nil)

	req := httptest.NewRequest("PATCH", "/products/5/stock", strings.NewReader(`{"stock":9}`))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	if err != nil || res.StatusCode != fiber.StatusOK {
		t.Fatalf("stock update failed: %v %v", err, res)
	}
	p, _ := repo.GetByID(context.Background(), 5)
	if p.Stock != 9 {
		t.Fatalf("expected stock 9, got %d", p.Stock)
	}

	req = httptest.NewRequest("PATCH", "/products/5/stock", strings.NewReader(`{"stock":-2}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for negative stock, got %d", res.StatusCode)
	}

	res, _ = app.Test(httptest.NewRequest("DELETE", "/products/5", nil))
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", res.StatusCode)
	}
	res, _ = app.Test(httptest.NewRequest("DELETE", "/products/5", nil))
	if res.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", res.StatusCode)
	}
}
