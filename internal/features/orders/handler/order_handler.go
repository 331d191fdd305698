package handler

import (
	"net/http"

	"order-tracker/internal/core/auth"
	"order-tracker/internal/features/orders/domain"
	"order-tracker/internal/features/orders/ports"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles the customer-facing order endpoints.
type OrderHandler struct {
	service ports.OrderService
}

// NewOrderHandler creates a new instance of OrderHandler.
func NewOrderHandler(s ports.OrderService) *OrderHandler {
	return &OrderHandler{
		service: s,
	}
}

// PlaceOrderRequest represents the request body for placing an order.
type PlaceOrderRequest struct {
	Items []domain.LineItem `json:"items"`
}

// CancellationRequest represents the request body for a customer cancellation.
type CancellationRequest struct {
	Reason string `json:"reason"`
}

// ActorFromCtx maps the verified bearer token to the domain actor.
func ActorFromCtx(c *fiber.Ctx) (domain.Actor, bool) {
	p, ok := auth.FromCtx(c)
	if !ok {
		return domain.Actor{}, false
	}
	return domain.Actor{ID: p.Subject, Operator: p.IsOperator()}, true
}

// PlaceOrder handles POST /orders.
// @Summary Place an order
// @Description Creates a pending order for the calling customer.
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param order body PlaceOrderRequest true "Line items"
// @Success 201 {object} domain.Order
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /orders [post]
func (h *OrderHandler) PlaceOrder(c *fiber.Ctx) error {
	actor, ok := ActorFromCtx(c)
	if !ok {
		return RespondError(c, http.StatusUnauthorized, "unauthorized")
	}

	var req PlaceOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return RespondError(c, http.StatusBadRequest, "Invalid request body")
	}

	order, err := h.service.PlaceOrder(c.UserContext(), actor.ID, req.Items)
	if err != nil {
		return customerError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(order)
}

// GetOrder handles GET /orders/:id.
// @Summary Get an order
// @Description Returns the order with its tracking history. Customers only see their own orders.
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 404 {object} ErrorResponse
// @Router /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	actor, ok := ActorFromCtx(c)
	if !ok {
		return RespondError(c, http.StatusUnauthorized, "unauthorized")
	}

	order, err := h.service.GetOrder(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return customerError(c, err)
	}

	return c.Status(http.StatusOK).JSON(order)
}

// RequestCancellation handles POST /orders/:id/cancellation.
// @Summary Request cancellation
// @Description Files a cancellation request for a pending or processing order.
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param request body CancellationRequest true "Reason"
// @Success 200 {object} domain.Order
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /orders/{id}/cancellation [post]
func (h *OrderHandler) RequestCancellation(c *fiber.Ctx) error {
	actor, ok := ActorFromCtx(c)
	if !ok {
		return RespondError(c, http.StatusUnauthorized, "unauthorized")
	}

	var req CancellationRequest
	if err := c.BodyParser(&req); err != nil {
		return RespondError(c, http.StatusBadRequest, "Invalid request body")
	}

	order, err := h.service.RequestCancellation(c.UserContext(), actor, c.Params("id"), req.Reason)
	if err != nil {
		return customerError(c, err)
	}

	return c.Status(http.StatusOK).JSON(order)
}
