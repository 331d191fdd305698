package ports

import (
	"context"

	orders "order-tracker/internal/features/orders/domain"
)

// Feed is the change notification channel for order records.
type Feed interface {
	// Subscribe opens a push subscription on one order. The first value delivered
	// is the current record; every later value is a full record newer than the last.
	// It returns orders.ErrNotFound when the order does not exist.
	Subscribe(ctx context.Context, orderID string) (Subscription, error)
}

// Subscription is one live subscription to an order.
type Subscription interface {
	// Updates delivers full records. It is closed when the subscription ends.
	Updates() <-chan *orders.Order
	// Err reports why Updates was closed. It wraps orders.ErrSubscriptionLost
	// after a transport failure and is nil after Close.
	Err() error
	// Close ends the subscription and releases its transport. It is idempotent.
	Close() error
}
