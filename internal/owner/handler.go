package owner

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/craftisland/internal/apperr"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterOwnerRoutes expects r to already enforce the owner role.
func (h *Handler) RegisterOwnerRoutes(r fiber.Router) {
	r.Get("/owner/orders", h.listOrders)
	r.Patch("/owner/orders/:id<int>/status", h.updateStatus)
	r.Delete("/owner/orders/:id<int>", h.deleteOrder)
	r.Post("/owner/factory-reset", h.factoryReset)
	r.Get("/owner/analytics", h.analytics)
	r.Post("/owner/passcode/verify", h.verifyPasscode)
	r.Put("/owner/passcode", h.updatePasscode)
}

type statusRequest struct {
	Status string `json:"status"`
}

type resetRequest struct {
	Confirm string `json:"confirm"`
}

type passcodeRequest struct {
	Passcode string `json:"passcode"`
}

func (h *Handler) listOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListAllOrders(c.UserContext())
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(orders)
}

func (h *Handler) updateStatus(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	updated, err := h.service.UpdateOrderStatus(c.UserContext(), id, req.Status)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(updated)
}

func (h *Handler) deleteOrder(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err := h.service.DeleteOrder(c.UserContext(), id); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Order deleted"})
}

func (h *Handler) factoryReset(c *fiber.Ctx) error {
	var req resetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	res, err := h.service.FactoryReset(c.UserContext(), req.Confirm)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(res)
}

func (h *Handler) analytics(c *fiber.Ctx) error {
	a, err := h.service.Analytics(c.UserContext())
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(a)
}

func (h *Handler) verifyPasscode(c *fiber.Ctx) error {
	var req passcodeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	ok, err := h.service.VerifyPasscode(c.UserContext(), req.Passcode)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"valid": ok})
}

func (h *Handler) updatePasscode(c *fiber.Ctx) error {
	var req passcodeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err := h.service.UpdatePasscode(c.UserContext(), req.Passcode); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Passcode updated"})
}
