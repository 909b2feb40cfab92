package order

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// helper to build an app with a middleware that injects a jwt.Token into
// locals when the X-User-ID header is provided.
func makeAppWithOrderHandler(h *Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"user_id": v}})
		}
		return c.Next()
	})
	h.RegisterProtectedRoutes(app)
	return app
}

func TestOrderRoutes(t *testing.T) {
	f := newFixture([]string{"560001"})
	app := makeAppWithOrderHandler(NewHandler(f.service))

	body := `{"shipping":{"name":"Asha","phone":"1","location":"560001","homeAddress":"x"},"paymentMethod":"Cash on Delivery","lines":[{"productId":2,"qty":2}]}`

	req := httptest.NewRequest("POST", "/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", res.StatusCode)
	}

	req = httptest.NewRequest("POST", "/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "u1")
	res, err := app.Test(req)
	if err != nil || res.StatusCode != fiber.StatusCreated {
		t.Fatalf("create failed: %v %v", err, res)
	}

	bad := strings.Replace(body, "560001", "560099", 1)
	req = httptest.NewRequest("POST", "/orders", strings.NewReader(bad))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "u1")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for unserviceable pincode, got %d", res.StatusCode)
	}
	var errBody map[string]string
	_ = json.NewDecoder(res.Body).Decode(&errBody)
	if errBody["kind"] != "out_of_service_area" {
		t.Fatalf("unexpected error body %v", errBody)
	}

	req = httptest.NewRequest("GET", "/orders", nil)
	req.Header.Set("X-User-ID", "u1")
	res, _ = app.Test(req)
	var list []Order
	if err := json.NewDecoder(res.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || !list[0].Total.Equal(dec("400")) {
		t.Fatalf("unexpected orders %+v", list)
	}
}
