// Package apperr holds the error kinds shared by the API server and the
// storefront client, and the mapping between them and HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var (
	ErrRemoteUnavailable    = errors.New("remote service unavailable")
	ErrSchemaMismatch       = errors.New("optional column missing from schema")
	ErrValidationFailed     = errors.New("validation failed")
	ErrOutOfServiceArea     = errors.New("pincode is not serviceable")
	ErrUnauthenticated      = errors.New("sign in required")
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("owner access required")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrConfirmationRequired = errors.New("confirmation phrase required")
	ErrConflict             = errors.New("already exists")
)

// Validation wraps ErrValidationFailed with a field-level message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidationFailed, fmt.Sprintf(format, args...))
}

// Status maps an error to the HTTP status the API answers with.
func Status(err error) int {
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.Is(err, ErrValidationFailed), errors.Is(err, ErrOutOfServiceArea):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrConfirmationRequired):
		return fiber.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidTransition):
		return fiber.StatusConflict
	case errors.Is(err, ErrSchemaMismatch):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, ErrRemoteUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// Kind is the stable code sent next to the message so clients do not have to
// parse error text.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrOutOfServiceArea):
		return "out_of_service_area"
	case errors.Is(err, ErrValidationFailed):
		return "validation_failed"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrConfirmationRequired):
		return "confirmation_required"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrSchemaMismatch):
		return "schema_mismatch"
	default:
		return "remote_unavailable"
	}
}

var kinds = map[string]error{
	"out_of_service_area":   ErrOutOfServiceArea,
	"validation_failed":     ErrValidationFailed,
	"unauthenticated":       ErrUnauthenticated,
	"confirmation_required": ErrConfirmationRequired,
	"forbidden":             ErrForbidden,
	"not_found":             ErrNotFound,
	"invalid_transition":    ErrInvalidTransition,
	"conflict":              ErrConflict,
	"schema_mismatch":       ErrSchemaMismatch,
	"remote_unavailable":    ErrRemoteUnavailable,
}

// FromResponse rebuilds a taxonomy error from an API error body. Unknown kinds
// fall back to the status code.
func FromResponse(status int, kind, message string) error {
	base, ok := kinds[kind]
	if !ok {
		base = fromStatus(status)
	}
	message = strings.TrimPrefix(message, base.Error()+": ")
	if message == "" || message == base.Error() {
		return base
	}
	return fmt.Errorf("%w: %s", base, message)
}

func fromStatus(status int) error {
	switch status {
	case fiber.StatusBadRequest:
		return ErrValidationFailed
	case fiber.StatusUnauthorized:
		return ErrUnauthenticated
	case fiber.StatusForbidden:
		return ErrForbidden
	case fiber.StatusNotFound:
		return ErrNotFound
	case fiber.StatusConflict:
		return ErrConflict
	default:
		return ErrRemoteUnavailable
	}
}

// Body is the JSON error shape used by every handler.
func Body(err error) fiber.Map {
	return fiber.Map{"message": err.Error(), "kind": Kind(err)}
}

// Respond writes err with its mapped status.
func Respond(c *fiber.Ctx, err error) error {
	return c.Status(Status(err)).JSON(Body(err))
}
