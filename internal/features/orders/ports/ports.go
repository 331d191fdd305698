package ports

import (
	"context"
	"time"

	"order-tracker/internal/features/orders/domain"
)

// MutateFunc changes an order in place. now is the store clock read inside the
// same optimistic transaction. It may run more than once if the write conflicts,
// so it must not have side effects outside the order.
type MutateFunc func(order *domain.Order, now time.Time) error

// OrderRepository defines the secondary port for order storage.
// Update is the only write path for an existing order.
type OrderRepository interface {
	// Create stores a new order. The order number must be unique.
	Create(ctx context.Context, order *domain.Order) error
	// Get retrieves an order by id, returning domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.Order, error)
	// List returns orders newest first.
	List(ctx context.Context, offset, limit int) ([]*domain.Order, error)
	// Update applies fn to the current persisted order under optimistic concurrency
	// and notifies subscribers of the committed record.
	Update(ctx context.Context, id string, fn MutateFunc) (*domain.Order, error)
	// Now returns the store clock.
	Now(ctx context.Context) (time.Time, error)
}

// AuditRecorder persists the trail of committed mutations.
type AuditRecorder interface {
	Record(ctx context.Context, entry domain.AuditEntry) error
	// List returns the entries of one order, newest first.
	List(ctx context.Context, orderID string, limit int) ([]domain.AuditEntry, error)
}

// OrderService defines the primary port for order operations.
type OrderService interface {
	PlaceOrder(ctx context.Context, customerID string, items []domain.LineItem) (*domain.Order, error)
	GetOrder(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error)
	ListOrders(ctx context.Context, offset, limit int) ([]*domain.Order, error)
	AppendEvent(ctx context.Context, actor domain.Actor, id string, status domain.Status, location, description string) (*domain.Order, error)
	RequestCancellation(ctx context.Context, actor domain.Actor, id, reason string) (*domain.Order, error)
	ResolveCancellation(ctx context.Context, actor domain.Actor, id string, approve bool, note string) (*domain.Order, error)
	MarkReturned(ctx context.Context, actor domain.Actor, id, location, description string) (*domain.Order, error)
	AuditTrail(ctx context.Context, id string, limit int) ([]domain.AuditEntry, error)
}
