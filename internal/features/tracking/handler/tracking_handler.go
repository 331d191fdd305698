package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"order-tracker/internal/core/logger"
	orders "order-tracker/internal/features/orders/domain"
	orderhandler "order-tracker/internal/features/orders/handler"
	orderports "order-tracker/internal/features/orders/ports"
	"order-tracker/internal/features/tracking/domain"
	"order-tracker/internal/features/tracking/ports"
	"order-tracker/internal/features/tracking/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const unableToLoad = "Unable to load tracking"

// TrackingHandler serves the read side: timelines and live streams.
type TrackingHandler struct {
	orders            orderports.OrderService
	feed              ports.Feed
	reconnectInterval time.Duration
	heartbeatInterval time.Duration
	log               *zap.Logger
}

// NewTrackingHandler creates a new TrackingHandler.
func NewTrackingHandler(orderService orderports.OrderService, feed ports.Feed, reconnectInterval, heartbeatInterval time.Duration) *TrackingHandler {
	return &TrackingHandler{
		orders:            orderService,
		feed:              feed,
		reconnectInterval: reconnectInterval,
		heartbeatInterval: heartbeatInterval,
		log:               logger.Named("stream"),
	}
}

// TimelineResponse is the progress view of one order.
type TimelineResponse struct {
	OrderID     string            `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	Timeline    domain.Projection `json:"timeline"`
	// LastEvent is the most recent tracking event, if any.
	LastEvent *orders.TrackingEvent `json:"last_event,omitempty"`
}

// GetTimeline godoc
// @Summary Get the progress timeline of an order
// @Description Projects the order status onto the linear stages. Cancelled, returned and cancellation-requested orders get a special projection.
// @Tags Tracking
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} TimelineResponse
// @Failure 404 {object} orderhandler.ErrorResponse
// @Failure 503 {object} orderhandler.ErrorResponse
// @Router /orders/{id}/timeline [get]
func (h *TrackingHandler) GetTimeline(c *fiber.Ctx) error {
	actor, ok := orderhandler.ActorFromCtx(c)
	if !ok {
		return orderhandler.RespondError(c, http.StatusUnauthorized, "unauthorized")
	}

	order, err := h.orders.GetOrder(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return h.loadError(c, err)
	}

	resp := TimelineResponse{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Timeline:    domain.Project(order.Status),
	}
	if last, ok := order.LastEvent(); ok {
		resp.LastEvent = &last
	}
	return c.JSON(resp)
}

// Stream godoc
// @Summary Live order updates
// @Description Server-sent events. The first event is a snapshot of the current record. Later events are snapshot, status_changed and connection.
// @Tags Tracking
// @Produce text/event-stream
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param access_token query string false "Bearer token for clients that cannot set headers"
// @Success 200 {string} string "event stream"
// @Failure 404 {object} orderhandler.ErrorResponse
// @Failure 503 {object} orderhandler.ErrorResponse
// @Router /orders/{id}/stream [get]
func (h *TrackingHandler) Stream(c *fiber.Ctx) error {
	actor, ok := orderhandler.ActorFromCtx(c)
	if !ok {
		return orderhandler.RespondError(c, http.StatusUnauthorized, "unauthorized")
	}

	id := c.Params("id")
	if _, err := h.orders.GetOrder(c.UserContext(), actor, id); err != nil {
		return h.loadError(c, err)
	}

	reconciler := service.NewReconciler(h.feed, id, h.reconnectInterval)
	if err := reconciler.Start(context.Background()); err != nil {
		return h.loadError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	log := h.log.With(zap.String("order_id", id), zap.String("viewer", actor.ID))
	log.Debug("Stream opened")

	heartbeat := h.heartbeatInterval
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer reconciler.Close()

		if err := writeEvents(w, reconciler.Events(), heartbeat); err != nil {
			log.Debug("Stream closed", zap.Error(err))
		}
	})
	return nil
}

func (h *TrackingHandler) loadError(c *fiber.Ctx, err error) error {
	if errors.Is(err, orders.ErrNotFound) {
		return orderhandler.RespondError(c, http.StatusNotFound, "Order not found")
	}

	h.log.Error("Failed to load tracking",
		zap.String("ray_id", orderhandler.RayID(c)),
		zap.String("order_id", c.Params("id")),
		zap.Error(err),
	)
	return orderhandler.RespondError(c, http.StatusServiceUnavailable, unableToLoad)
}

// writeEvents copies events to w as server-sent events until events is closed
// or a write fails. Heartbeat comments are written while idle.
func writeEvents(w *bufio.Writer, events <-chan domain.Event, heartbeat time.Duration) error {
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-events:
			if !ok {
				return nil
			}
			if err := writeEvent(w, e); err != nil {
				return err
			}

		case <-ticker.C:
			if _, err := w.WriteString(": heartbeat\n\n"); err != nil {
				return err
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}
	}
}

func writeEvent(w *bufio.Writer, e domain.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", e.Kind, err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Kind, data); err != nil {
		return err
	}
	return w.Flush()
}
