package profile

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/craftisland/internal/apperr"
	"github.com/wichananm65/craftisland/internal/user"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	r.Get("/profile", h.getProfile)
	r.Put("/profile", h.updateProfile)
}

func (h *Handler) getProfile(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	p, err := h.service.Get(c.UserContext(), userID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(p)
}

// updateProfile accepts partial payloads; the row id is always the caller.
func (h *Handler) updateProfile(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	var patch Patch
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	p, err := h.service.Update(c.UserContext(), userID, user.GetEmailFromCtx(c), patch)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(p)
}
