package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("name is required"), fiber.StatusBadRequest},
		{fmt.Errorf("%w: allowed 560001", ErrOutOfServiceArea), fiber.StatusBadRequest},
		{ErrUnauthenticated, fiber.StatusUnauthorized},
		{ErrForbidden, fiber.StatusForbidden},
		{ErrNotFound, fiber.StatusNotFound},
		{ErrInvalidTransition, fiber.StatusConflict},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := Status(tc.err); got != tc.want {
			t.Errorf("Status(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestFromResponse_RoundTrip(t *testing.T) {
	orig := fmt.Errorf("%w: we do not deliver to 560099", ErrOutOfServiceArea)
	body := Body(orig)

	got := FromResponse(Status(orig), body["kind"].(string), body["message"].(string))
	if !errors.Is(got, ErrOutOfServiceArea) {
		t.Fatalf("expected ErrOutOfServiceArea, got %v", got)
	}
	if got.Error() != orig.Error() {
		t.Fatalf("message changed in round trip: %q vs %q", got.Error(), orig.Error())
	}
}

func TestFromResponse_UnknownKindUsesStatus(t *testing.T) {
	got := FromResponse(fiber.StatusNotFound, "", "product not found")
	if !errors.Is(got, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", got)
	}
	got = FromResponse(fiber.StatusBadGateway, "", "")
	if !errors.Is(got, ErrRemoteUnavailable) {
		t.Fatalf("expected ErrRemoteUnavailable, got %v", got)
	}
}
