package pincode

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/craftisland/internal/apperr"
)

func TestValidate(t *testing.T) {
	if code, err := Validate(" 560001 "); err != nil || code != "560001" {
		t.Fatalf("expected valid code, got %q %v", code, err)
	}
	for _, bad := range []string{"", "12345", "1234567", "56000a"} {
		if _, err := Validate(bad); !errors.Is(err, apperr.ErrValidationFailed) {
			t.Fatalf("%q: expected validation error, got %v", bad, err)
		}
	}
}

func TestCheckServiceable(t *testing.T) {
	allowed := []string{"560001", "560002"}
	err := CheckServiceable(allowed, "560099")
	if !errors.Is(err, apperr.ErrOutOfServiceArea) {
		t.Fatalf("expected out of service area, got %v", err)
	}
	if !strings.Contains(err.Error(), "560099") || !strings.Contains(err.Error(), "560001, 560002") {
		t.Fatalf("message must name the code and the allowed list: %v", err)
	}
	if err := CheckServiceable(allowed, "560002"); err != nil {
		t.Fatalf("expected allowed code to pass, got %v", err)
	}
	if err := CheckServiceable(nil, "999999"); err != nil {
		t.Fatalf("empty allow-list must accept any code, got %v", err)
	}
}

func TestHandler_AddDuplicateAndRemove(t *testing.T) {
	h := NewHandler(NewService(NewInMemoryRepository([]string{"560001"}), nil))
	app := fiber.New()
	h.RegisterPublicRoutes(app)
	h.RegisterOwnerRoutes(app)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/pincodes", strings.NewReader(`{"code":"560002"}`))
		req.Header.Set("Content-Type", "application/json")
		res, err := app.Test(req)
		if err != nil || res.StatusCode != fiber.StatusCreated {
			t.Fatalf("add #%d failed: %v %v", i, err, res)
		}
	}
	codes, _ := h.service.List(context.Background())
	if len(codes) != 2 {
		t.Fatalf("duplicate add must be a no-op, got %v", codes)
	}

	req := httptest.NewRequest("POST", "/pincodes", strings.NewReader(`{"code":"12"}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for short code, got %d", res.StatusCode)
	}

	res, _ = app.Test(httptest.NewRequest("DELETE", "/pincodes/560001", nil))
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 on remove, got %d", res.StatusCode)
	}
	res, _ = app.Test(httptest.NewRequest("DELETE", "/pincodes/560001", nil))
	if res.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 on second remove, got %d", res.StatusCode)
	}
}

func TestPostgresRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("SELECT code FROM pincodes").
		WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow("560001").AddRow("560002"))
	mock.ExpectExec("ON CONFLICT").WithArgs("560003").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM pincodes").WithArgs("000000").WillReturnResult(sqlmock.NewResult(0, 0))

	codes, err := repo.List(context.Background())
	if err != nil || len(codes) != 2 {
		t.Fatalf("unexpected list %v %v", codes, err)
	}
	if err := repo.Add(context.Background(), "560003"); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := repo.Remove(context.Background(), "000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
