package handler

import (
	"errors"
	"net/http"

	"order-tracker/internal/core/logger"
	"order-tracker/internal/features/orders/domain"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorResponse represents the structure of an error response.
// Every handler in the service answers errors with this body.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// RayID is the unique request identifier for debugging.
	RayID string `json:"ray_id"`
}

// RayID returns the request id set by the requestid middleware, or "unknown".
func RayID(c *fiber.Ctx) string {
	id, ok := c.Locals("requestid").(string)
	if !ok {
		return "unknown"
	}
	return id
}

// RespondError writes an ErrorResponse carrying the request's ray id.
func RespondError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ErrorResponse{
		Message: msg,
		RayID:   RayID(c),
	})
}

// operatorError shows operators the specific rejection reason.
func operatorError(c *fiber.Ctx, err error) error {
	var terr *domain.TransitionError

	switch {
	case errors.As(err, &terr):
		return RespondError(c, http.StatusConflict, terr.Reason)
	case errors.Is(err, domain.ErrNotFound):
		return RespondError(c, http.StatusNotFound, "Order not found")
	case errors.Is(err, domain.ErrValidation):
		return RespondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		return RespondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrConcurrentModification):
		return RespondError(c, http.StatusConflict, "Order was modified by someone else, please retry")
	}

	logger.Get().Error("Order operation failed",
		zap.String("ray_id", RayID(c)),
		zap.Error(err),
	)
	return RespondError(c, http.StatusInternalServerError, "Internal Server Error")
}

// customerError never exposes the error taxonomy to shoppers.
func customerError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return RespondError(c, http.StatusNotFound, "Order not found")
	case errors.Is(err, domain.ErrValidation):
		return RespondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrConcurrentModification):
		return RespondError(c, http.StatusConflict, "Order can no longer be cancelled")
	}

	logger.Get().Error("Customer order request failed",
		zap.String("ray_id", RayID(c)),
		zap.Error(err),
	)
	return RespondError(c, http.StatusInternalServerError, "Something went wrong, please try again")
}
