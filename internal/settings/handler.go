package settings

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/craftisland/internal/apperr"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(r fiber.Router) {
	r.Get("/settings/contact", h.getContact)
}

func (h *Handler) RegisterOwnerRoutes(r fiber.Router) {
	r.Put("/settings/contact", h.updateContact)
}

func (h *Handler) getContact(c *fiber.Ctx) error {
	info, err := h.service.Contact(c.UserContext())
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(info)
}

func (h *Handler) updateContact(c *fiber.Ctx) error {
	var patch ContactPatch
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	info, err := h.service.UpdateContact(c.UserContext(), patch)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(info)
}
