package user

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/craftisland/internal/apperr"
)

type Handler struct {
	service *Service
	secret  string
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

func NewHandler(service *Service, jwtSecret string) *Handler {
	return &Handler{service: service, secret: jwtSecret}
}

func (h *Handler) RegisterPublicRoutes(r fiber.Router) {
	r.Post("/sign-in", h.login)
	r.Post("/sign-up", h.register)
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	r.Get("/session", h.session)
}

func (h *Handler) login(c *fiber.Ctx) error {
	payload := new(loginRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	user, err := h.service.Authenticate(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid email or password", "kind": "unauthenticated"})
	}
	return h.respondWithSession(c, fiber.StatusOK, user)
}

func (h *Handler) register(c *fiber.Ctx) error {
	payload := new(registerRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	if payload.isMissingRequiredFields() {
		return apperr.Respond(c, apperr.Validation("email and password are required"))
	}

	created, err := h.service.Register(c.UserContext(), payload.Email, payload.Password, payload.FullName)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Email already exists", "kind": "conflict"})
		}
		return apperr.Respond(c, err)
	}
	return h.respondWithSession(c, fiber.StatusCreated, created)
}

// session validates a persisted token and returns the account behind it.
func (h *Handler) session(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	user, err := h.service.GetByID(c.UserContext(), userID)
	if err != nil {
		return apperr.Respond(c, apperr.ErrUnauthenticated)
	}
	return c.JSON(Session{User: sanitizeUser(user), Role: h.service.RoleFor(user.Email)})
}

func (h *Handler) respondWithSession(c *fiber.Ctx, status int, user User) error {
	role := h.service.RoleFor(user.Email)
	signed, err := IssueToken(h.secret, user, role)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to generate token"})
	}
	return c.Status(status).JSON(Session{Token: signed, User: sanitizeUser(user), Role: role})
}

func (r registerRequest) isMissingRequiredFields() bool {
	return strings.TrimSpace(r.Email) == "" || r.Password == ""
}
