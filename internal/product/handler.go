package product

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

func (h *Handler) RegisterPublicRoutes(r fiber.Router) {
	r.Get("/products", h.getProducts)
	r.Get("/products/capabilities", h.getCapabilities)
	r.Get("/products/:id<int>", h.getProduct)
}

// RegisterOwnerRoutes expects r to already enforce the owner role.
func (h *Handler) RegisterOwnerRoutes(r fiber.Router) {
	r.Post("/products", h.createProduct)
	r.Put("/products/:id<int>", h.updateProduct)
	r.Patch("/products/:id<int>/stock", h.setStock)
	r.Delete("/products/:id<int>", h.deleteProduct)
}

type stockRequest struct {
	Stock int `json:"stock"`
}

func (h *Handler) getProducts(c *fiber.Ctx) error {
	products, err := h.service.List(c.UserContext())
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(products)
}

func (h *Handler) getCapabilities(c *fiber.Ctx) error {
	return c.JSON(h.service.Capabilities(c.UserContext()))
}

func (h *Handler) getProduct(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	p, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(p)
}

func (h *Handler) createProduct(c *fiber.Ctx) error {
	p := new(Product)
	if err := c.BodyParser(p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	// validate payload and return all validation errors together
	if ves := validationErrors(*p); len(ves) > 0 {
		return validationResponse(c, *p, ves)
	}

	res, err := h.service.Create(c.UserContext(), *p)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(writeResponse(res))
}

func (h *Handler) updateProduct(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	p := new(Product)
	if err := c.BodyParser(p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if ves := validationErrors(*p); len(ves) > 0 {
		return validationResponse(c, *p, ves)
	}

	res, err := h.service.Update(c.UserContext(), id, *p)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(writeResponse(res))
}

func (h *Handler) setStock(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	var req stockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	p, err := h.service.SetStock(c.UserContext(), id, req.Stock)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(p)
}

func (h *Handler) deleteProduct(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product deleted"})
}

func validationResponse(c *fiber.Ctx, p Product, ves map[string]string) error {
	body := apperr.Body(p.Validate())
	body["errors"] = ves
	return c.Status(fiber.StatusBadRequest).JSON(body)
}

func writeResponse(res WriteResult) fiber.Map {
	body := fiber.Map{"product": res.Product, "degraded": res.Degraded}
	if res.Degraded {
		body["notice"] = DegradedNotice
	}
	return body
}
