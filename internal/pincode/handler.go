package pincode

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
	r.Get("/pincodes", h.list)
}

func (h *Handler) RegisterOwnerRoutes(r fiber.Router) {
	r.Post("/pincodes", h.add)
	r.Delete("/pincodes/:code", h.remove)
}

type addRequest struct {
	Code string `json:"code"`
}

func (h *Handler) list(c *fiber.Ctx) error {
	codes, err := h.service.List(c.UserContext())
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(codes)
}

func (h *Handler) add(c *fiber.Ctx) error {
	var req addRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	code, err := h.service.Add(c.UserContext(), req.Code)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"code": code})
}

func (h *Handler) remove(c *fiber.Ctx) error {
	if err := h.service.Remove(c.UserContext(), c.Params("code")); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Pincode removed"})
}
