package order

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/craftisland/internal/apperr"
	"github.com/wichananm65/craftisland/internal/user"
)

// Handler delegates order operations to the order service.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders", h.getOrders)
}

func (h *Handler) createOrder(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	payload := new(CheckoutInput)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	placed, err := h.service.Place(c.UserContext(), userID, *payload)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(placed)
}

func (h *Handler) getOrders(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	orders, err := h.service.ListByUser(c.UserContext(), userID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(orders)
}
