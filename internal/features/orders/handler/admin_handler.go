package handler

import (
	"net/http"
	"time"

	"order-tracker/internal/features/orders/domain"
	"order-tracker/internal/features/orders/ports"

	"github.com/gofiber/fiber/v2"
)

const defaultPageSize = 20

// AdminOrderHandler handles the operator dashboard endpoints.
type AdminOrderHandler struct {
	service ports.OrderService
}

// NewAdminOrderHandler creates a new instance of AdminOrderHandler.
func NewAdminOrderHandler(s ports.OrderService) *AdminOrderHandler {
	return &AdminOrderHandler{
		service: s,
	}
}

// AppendEventRequest represents the request body for logging a tracking event.
type AppendEventRequest struct {
	Status      string `json:"status"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// ResolveCancellationRequest carries the operator's note on a cancellation decision.
type ResolveCancellationRequest struct {
	Note string `json:"note"`
}

// ReturnRequest represents the request body for marking an order returned.
type ReturnRequest struct {
	Location    string `json:"location"`
	Description string `json:"description"`
}

// ListOrdersResponse is one page of the order list.
type ListOrdersResponse struct {
	Orders []*domain.Order `json:"orders"`
	Offset int             `json:"offset"`
	Limit  int             `json:"limit"`
}

// AuditEntryResponse is one row of the audit trail.
type AuditEntryResponse struct {
	Actor      string `json:"actor"`
	Action     string `json:"action"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	Location   string `json:"location,omitempty"`
	Note       string `json:"note,omitempty"`
	At         string `json:"at"`
}

// ListOrders handles GET /admin/orders.
// @Summary List orders
// @Description Returns orders newest first.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param offset query int false "Offset" default(0)
// @Param limit query int false "Page size (max 100)" default(20)
// @Success 200 {object} ListOrdersResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /admin/orders [get]
func (h *AdminOrderHandler) ListOrders(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", defaultPageSize)

	orders, err := h.service.ListOrders(c.UserContext(), offset, limit)
	if err != nil {
		return operatorError(c, err)
	}

	return c.Status(http.StatusOK).JSON(ListOrdersResponse{
		Orders: orders,
		Offset: offset,
		Limit:  limit,
	})
}

// GetOrder handles GET /admin/orders/:id.
// @Summary Get any order
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 404 {object} ErrorResponse
// @Router /admin/orders/{id} [get]
func (h *AdminOrderHandler) GetOrder(c *fiber.Ctx) error {
	actor, ok := ActorFromCtx(c)
	if !ok {
		return RespondError(c, http.StatusUnauthorized, "unauthorized")
	}

	order, err := h.service.GetOrder(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return operatorError(c, err)
	}

	return c.Status(http.StatusOK).JSON(order)
}

// AppendEvent handles POST /admin/orders/:id/events.
// @Summary Log a tracking event
// @Description Moves the order to status and appends a tracking event atomically.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param event body AppendEventRequest true "Event"
// @Success 200 {object} domain.Order
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/orders/{id}/events [post]
func (h *AdminOrderHandler) AppendEvent(c *fiber.Ctx) error {
	actor, ok := ActorFromCtx(c)
	if !ok {
		return RespondError(c, http.StatusUnauthorized, "unauthorized")
	}

	var req AppendEventRequest
	if err := c.BodyParser(&req); err != nil {
		return RespondError(c, http.StatusBadRequest, "Invalid request body")
	}

	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		return operatorError(c, err)
	}

	order, err := h.service.AppendEvent(c.UserContext(), actor, c.Params("id"), status, req.Location, req.Description)
	if err != nil {
		return operatorError(c, err)
	}

	return c.Status(http.StatusOK).JSON(order)
}

// ApproveCancellation handles POST /admin/orders/:id/cancellation/approve.
// @Summary Approve a cancellation request
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param request body ResolveCancellationRequest false "Note"
// @Success 200 {object} domain.Order
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/orders/{id}/cancellation/approve [post]
func (h *AdminOrderHandler) ApproveCancellation(c *fiber.Ctx) error {
	return h.resolveCancellation(c, true)
}

// DeclineCancellation handles POST /admin/orders/:id/cancellation/decline.
// @Summary Decline a cancellation request
// @Description Restores the status held before the request.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param request body ResolveCancellationRequest false "Note"
// @Success 200 {object} domain.Order
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/orders/{id}/cancellation/decline [post]
func (h *AdminOrderHandler) DeclineCancellation(c *fiber.Ctx) error {
	return h.resolveCancellation(c, false)
}

func (h *AdminOrderHandler) resolveCancellation(c *fiber.Ctx, approve bool) error {
	actor, ok := ActorFromCtx(c)
	if !ok {
		return RespondError(c, http.StatusUnauthorized, "unauthorized")
	}

	var req ResolveCancellationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return RespondError(c, http.StatusBadRequest, "Invalid request body")
		}
	}

	order, err := h.service.ResolveCancellation(c.UserContext(), actor, c.Params("id"), approve, req.Note)
	if err != nil {
		return operatorError(c, err)
	}

	return c.Status(http.StatusOK).JSON(order)
}

// MarkReturned handles POST /admin/orders/:id/return.
// @Summary Mark a delivered order returned
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param request body ReturnRequest true "Return details"
// @Success 200 {object} domain.Order
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/orders/{id}/return [post]
func (h *AdminOrderHandler) MarkReturned(c *fiber.Ctx) error {
	actor, ok := ActorFromCtx(c)
	if !ok {
		return RespondError(c, http.StatusUnauthorized, "unauthorized")
	}

	var req ReturnRequest
	if err := c.BodyParser(&req); err != nil {
		return RespondError(c, http.StatusBadRequest, "Invalid request body")
	}

	order, err := h.service.MarkReturned(c.UserContext(), actor, c.Params("id"), req.Location, req.Description)
	if err != nil {
		return operatorError(c, err)
	}

	return c.Status(http.StatusOK).JSON(order)
}

// AuditTrail handles GET /admin/orders/:id/audit.
// @Summary Audit trail of an order
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param limit query int false "Max rows (max 200)" default(50)
// @Success 200 {array} AuditEntryResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/orders/{id}/audit [get]
func (h *AdminOrderHandler) AuditTrail(c *fiber.Ctx) error {
	entries, err := h.service.AuditTrail(c.UserContext(), c.Params("id"), c.QueryInt("limit", 50))
	if err != nil {
		return operatorError(c, err)
	}

	out := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, AuditEntryResponse{
			Actor:      e.Actor,
			Action:     string(e.Action),
			FromStatus: string(e.FromStatus),
			ToStatus:   string(e.ToStatus),
			Location:   e.Location,
			Note:       e.Note,
			At:         e.At.UTC().Format(time.RFC3339),
		})
	}

	return c.Status(http.StatusOK).JSON(out)
}
