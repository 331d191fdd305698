package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"order-tracker/internal/core/logger"
	"order-tracker/internal/features/orders/domain"
	"order-tracker/internal/features/orders/ports"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// MaxPageSize bounds ListOrders.
	MaxPageSize = 100
	// numberAttempts bounds how often PlaceOrder draws a fresh order number after a collision.
	numberAttempts = 3

	tracerName = "order-tracker/orders"
)

// OrderService is the mutation gateway: every status change and tracking event
// goes through it. It validates input, delegates the atomic read-modify-write to
// the repository, and records the outcome.
type OrderService struct {
	// repo is the only path to the persisted order records.
	repo ports.OrderRepository
	// audit is optional; nil disables the audit trail.
	audit  ports.AuditRecorder
	tracer trace.Tracer
	log    *zap.Logger
}

// NewOrderService creates a new instance of OrderService. audit may be nil.
func NewOrderService(repo ports.OrderRepository, audit ports.AuditRecorder) *OrderService {
	return &OrderService{
		repo:   repo,
		audit:  audit,
		tracer: otel.Tracer(tracerName),
		log:    logger.Named("gateway"),
	}
}

// PlaceOrder creates a pending order with an empty tracking log.
func (s *OrderService) PlaceOrder(ctx context.Context, customerID string, items []domain.LineItem) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "orders.place", trace.WithAttributes(
		attribute.String("customer.id", customerID),
		attribute.Int("order.items", len(items)),
	))
	defer span.End()

	now, err := s.repo.Now(ctx)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("service: failed to read store clock: %w", err))
	}

	for attempt := 1; attempt <= numberAttempts; attempt++ {
		order, err := domain.NewOrder(uuid.NewString(), newOrderNumber(), customerID, items, now)
		if err != nil {
			return nil, s.fail(span, err)
		}

		err = s.repo.Create(ctx, order)
		if errors.Is(err, domain.ErrDuplicateOrder) {
			s.log.Warn("Order number collision, drawing a new one",
				zap.String("order_number", order.OrderNumber),
				zap.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			return nil, s.fail(span, fmt.Errorf("service: failed to place order: %w", err))
		}

		span.SetAttributes(attribute.String("order.id", order.ID))
		s.log.Info("Order placed",
			zap.String("order_id", order.ID),
			zap.String("order_number", order.OrderNumber),
			zap.String("customer_id", customerID),
		)
		return order, nil
	}

	return nil, s.fail(span, fmt.Errorf("service: %w: could not allocate an order number", domain.ErrDuplicateOrder))
}

// GetOrder returns the order if the actor may see it. Customers asking for
// someone else's order get ErrNotFound, not a permission error.
func (s *OrderService) GetOrder(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanView(order) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return order, nil
}

// ListOrders returns a page of orders for the operator dashboard, newest first.
func (s *OrderService) ListOrders(ctx context.Context, offset, limit int) ([]*domain.Order, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset cannot be negative", domain.ErrValidation)
	}
	if limit < 1 || limit > MaxPageSize {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrValidation, MaxPageSize)
	}

	orders, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}
	return orders, nil
}

// AppendEvent moves the order to status and logs a tracking event at location,
// checked against the persisted status rather than any caller-held copy.
func (s *OrderService) AppendEvent(ctx context.Context, actor domain.Actor, id string, status domain.Status, location, description string) (*domain.Order, error) {
	if err := domain.ValidateLocation(location); err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}

	return s.mutate(ctx, actor, id, mutation{
		action:   domain.AuditActionAppendEvent,
		location: location,
		note:     description,
		apply: func(o *domain.Order, now time.Time) error {
			return o.Advance(status, location, description, now)
		},
	})
}

// RequestCancellation files a customer cancellation. The current status is kept
// in PreviousStatus so a declined request can restore it.
func (s *OrderService) RequestCancellation(ctx context.Context, actor domain.Actor, id, reason string) (*domain.Order, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: cancellation reason is required", domain.ErrValidation)
	}

	return s.mutate(ctx, actor, id, mutation{
		action:   domain.AuditActionRequestCancellation,
		location: domain.CancellationRequestLocation,
		note:     reason,
		apply: func(o *domain.Order, now time.Time) error {
			return o.RequestCancellation(reason, now)
		},
	})
}

// ResolveCancellation approves (cancelled) or declines (previous status) a pending request.
func (s *OrderService) ResolveCancellation(ctx context.Context, actor domain.Actor, id string, approve bool, note string) (*domain.Order, error) {
	action := domain.AuditActionDeclineCancellation
	if approve {
		action = domain.AuditActionApproveCancellation
	}

	return s.mutate(ctx, actor, id, mutation{
		action:   action,
		location: domain.CancellationReviewLocation,
		note:     note,
		apply: func(o *domain.Order, now time.Time) error {
			_, err := o.ResolveCancellation(approve, note, now)
			return err
		},
	})
}

// MarkReturned records that a delivered order came back.
func (s *OrderService) MarkReturned(ctx context.Context, actor domain.Actor, id, location, description string) (*domain.Order, error) {
	if err := domain.ValidateLocation(location); err != nil {
		return nil, err
	}

	return s.mutate(ctx, actor, id, mutation{
		action:   domain.AuditActionMarkReturned,
		location: location,
		note:     description,
		apply: func(o *domain.Order, now time.Time) error {
			return o.MarkReturned(location, description, now)
		},
	})
}

// AuditTrail returns the recorded mutations of an order, newest first.
// It is empty when no audit database is configured.
func (s *OrderService) AuditTrail(ctx context.Context, id string, limit int) ([]domain.AuditEntry, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	if s.audit == nil {
		return []domain.AuditEntry{}, nil
	}

	entries, err := s.audit.List(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("service: failed to read audit trail: %w", err)
	}
	return entries, nil
}

type mutation struct {
	action   domain.AuditAction
	location string
	note     string
	apply    func(o *domain.Order, now time.Time) error
}

// mutate runs one gateway operation: optimistic update, span, log line and audit row.
func (s *OrderService) mutate(ctx context.Context, actor domain.Actor, id string, m mutation) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "orders."+strings.ToLower(string(m.action)), trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("actor.id", actor.ID),
		attribute.Bool("actor.operator", actor.Operator),
	))
	defer span.End()

	var from domain.Status
	attempts := 0
	order, err := s.repo.Update(ctx, id, func(o *domain.Order, now time.Time) error {
		attempts++
		if !actor.CanView(o) {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}
		from = o.Status
		return m.apply(o, now)
	})
	span.SetAttributes(attribute.Int("gateway.attempts", attempts))

	if err != nil {
		fields := []zap.Field{
			zap.String("order_id", id),
			zap.String("action", string(m.action)),
			zap.String("actor", actor.ID),
			zap.Error(err),
		}
		var terr *domain.TransitionError
		if errors.As(err, &terr) {
			fields = append(fields,
				zap.String("from", string(terr.From)),
				zap.String("to", string(terr.To)),
				zap.String("reason", terr.Reason),
			)
		}

		if isDomainError(err) {
			s.log.Warn("Order mutation rejected", fields...)
		} else {
			s.log.Error("Order mutation failed", fields...)
		}
		return nil, s.fail(span, err)
	}

	span.SetAttributes(
		attribute.String("order.status.from", string(from)),
		attribute.String("order.status.to", string(order.Status)),
		attribute.Int64("order.version", order.Version),
	)
	s.log.Info("Order updated",
		zap.String("order_id", id),
		zap.String("action", string(m.action)),
		zap.String("from", string(from)),
		zap.String("to", string(order.Status)),
		zap.Int64("version", order.Version),
		zap.Int("attempts", attempts),
	)

	s.recordAudit(ctx, domain.AuditEntry{
		OrderID:    id,
		Actor:      actor.ID,
		Action:     m.action,
		FromStatus: from,
		ToStatus:   order.Status,
		Location:   strings.TrimSpace(m.location),
		Note:       strings.TrimSpace(m.note),
		At:         lastEventTime(order),
	})

	return order, nil
}

// recordAudit writes the audit row. The mutation is already committed, so a
// failure here is logged and never surfaced to the caller.
func (s *OrderService) recordAudit(ctx context.Context, entry domain.AuditEntry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.log.Error("Failed to record audit entry",
			zap.String("order_id", entry.OrderID),
			zap.String("action", string(entry.Action)),
			zap.Error(err),
		)
	}
}

func (s *OrderService) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func isDomainError(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInvalidTransition) ||
		errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrConcurrentModification)
}

func lastEventTime(o *domain.Order) time.Time {
	if last, ok := o.LastEvent(); ok {
		return last.Timestamp
	}
	return time.Now().UTC()
}

// newOrderNumber returns a human-facing number such as ORD-3F9A1C0B7E.
func newOrderNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ORD-" + strings.ToUpper(raw[:10])
}
