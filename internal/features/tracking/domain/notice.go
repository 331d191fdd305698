package domain

import (
	"fmt"
	"time"

	orders "order-tracker/internal/features/orders/domain"
)

// ConnectionState is the health of a viewer's subscription.
type ConnectionState string

const (
	// ConnectionLive means pushes are flowing.
	ConnectionLive ConnectionState = "live"
	// ConnectionReconnecting means the channel dropped and last-known state is being shown.
	ConnectionReconnecting ConnectionState = "reconnecting"
	// ConnectionClosed means the viewer went away.
	ConnectionClosed ConnectionState = "closed"
)

// EventKind names what a reconciler emitted.
type EventKind string

const (
	// EventSnapshot carries the full record after any push.
	EventSnapshot EventKind = "snapshot"
	// EventStatusChanged is the one-shot notice for a new status value.
	EventStatusChanged EventKind = "status_changed"
	// EventConnection reports a ConnectionState change.
	EventConnection EventKind = "connection"
)

// StatusNotice is shown once per distinct status observed by a viewer.
type StatusNotice struct {
	OrderID    string        `json:"order_id"`
	From       orders.Status `json:"from"`
	To         orders.Status `json:"to"`
	Label      string        `json:"label"`
	Message    string        `json:"message"`
	ObservedAt time.Time     `json:"observed_at"`
}

// NewStatusNotice builds the notice for a change from one status to another.
func NewStatusNotice(order *orders.Order, from orders.Status, observedAt time.Time) StatusNotice {
	label := order.Status.Label()
	return StatusNotice{
		OrderID:    order.ID,
		From:       from,
		To:         order.Status,
		Label:      label,
		Message:    fmt.Sprintf("Order %s is now %s", displayNumber(order), label),
		ObservedAt: observedAt,
	}
}

// Event is one item of a reconciler's output stream. Exactly one of
// Order, Notice or State is meaningful, according to Kind.
type Event struct {
	Kind     EventKind       `json:"kind"`
	Order    *orders.Order   `json:"order,omitempty"`
	Timeline *Projection     `json:"timeline,omitempty"`
	Notice   *StatusNotice   `json:"notice,omitempty"`
	State    ConnectionState `json:"state,omitempty"`
}

// SnapshotEvent wraps a record together with its timeline.
func SnapshotEvent(order *orders.Order) Event {
	timeline := Project(order.Status)
	return Event{Kind: EventSnapshot, Order: order, Timeline: &timeline}
}

// NoticeEvent wraps a status notice.
func NoticeEvent(n StatusNotice) Event {
	return Event{Kind: EventStatusChanged, Notice: &n}
}

// ConnectionEvent wraps a connection state change.
func ConnectionEvent(state ConnectionState) Event {
	return Event{Kind: EventConnection, State: state}
}

func displayNumber(order *orders.Order) string {
	if order.OrderNumber != "" {
		return order.OrderNumber
	}
	return order.ID
}
