package domain

import (
	"strings"
	"time"
)

const (
	// CancellationRequestLocation is logged for customer cancellation requests.
	CancellationRequestLocation = "Customer request"
	// CancellationReviewLocation is logged when an operator approves or declines a cancellation.
	CancellationReviewLocation = "Order desk"
)

// LineItem represents an individual item within an order.
type LineItem struct {
	// Name is the descriptive name of the product.
	Name string `json:"name"`
	// UnitPrice is the price of a single unit at the time of purchase.
	UnitPrice float64 `json:"unit_price"`
	// Quantity is the number of units purchased.
	Quantity int `json:"quantity"`
	// Image is an optional URL to a picture of the product.
	Image string `json:"image,omitempty"`
}

// TrackingEvent represents a single entry in the order's append-only tracking log.
type TrackingEvent struct {
	// Status is the order status this event represents.
	Status Status `json:"status"`
	// Location is where the event happened.
	Location string `json:"location"`
	// Description is an optional annotation.
	Description string `json:"description,omitempty"`
	// Timestamp is assigned by the store clock at append time.
	Timestamp time.Time `json:"timestamp"`
}

// Order represents the durable state of one purchase.
type Order struct {
	// ID is the opaque unique identifier.
	ID string `json:"id"`
	// OrderNumber is the human-facing identifier.
	OrderNumber string `json:"order_number"`
	// CustomerID identifies the customer who placed the order.
	CustomerID string `json:"customer_id"`
	// Status is authoritative for state machine purposes.
	Status Status `json:"status"`
	// Items are immutable after placement.
	Items []LineItem `json:"items"`
	// TrackingHistory is authoritative for the displayed audit trail. Append-only.
	TrackingHistory []TrackingEvent `json:"tracking_history"`
	// CreatedAt is assigned by the store clock at placement.
	CreatedAt time.Time `json:"created_at"`
	// CancellationReason is set when the customer files a cancellation request.
	CancellationReason string `json:"cancellation_reason,omitempty"`
	// PreviousStatus is the status held before a cancellation request.
	PreviousStatus Status `json:"previous_status,omitempty"`
	// Version increments on every committed mutation.
	Version int64 `json:"version"`
}

// NewOrder creates a pending order with an empty tracking log.
func NewOrder(id, orderNumber, customerID string, items []LineItem, createdAt time.Time) (*Order, error) {
	if strings.TrimSpace(id) == "" || strings.TrimSpace(orderNumber) == "" {
		return nil, validationError("id and order number are required")
	}
	if strings.TrimSpace(customerID) == "" {
		return nil, validationError("customer is required")
	}
	if len(items) == 0 {
		return nil, validationError("an order needs at least one item")
	}
	for i, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			return nil, validationError("item %d: name is required", i)
		}
		if item.Quantity < 1 {
			return nil, validationError("item %d: quantity must be at least 1", i)
		}
		if item.UnitPrice < 0 {
			return nil, validationError("item %d: unit price cannot be negative", i)
		}
	}

	copied := make([]LineItem, len(items))
	copy(copied, items)

	return &Order{
		ID:              id,
		OrderNumber:     orderNumber,
		CustomerID:      customerID,
		Status:          StatusPending,
		Items:           copied,
		TrackingHistory: []TrackingEvent{},
		CreatedAt:       createdAt.UTC(),
		Version:         1,
	}, nil
}

// ValidateLocation checks the free-text location of a tracking event.
func ValidateLocation(location string) error {
	if strings.TrimSpace(location) == "" {
		return validationError("location is required")
	}
	return nil
}

// LastEvent returns the most recent tracking event, if any.
func (o *Order) LastEvent() (TrackingEvent, bool) {
	if len(o.TrackingHistory) == 0 {
		return TrackingEvent{}, false
	}
	return o.TrackingHistory[len(o.TrackingHistory)-1], true
}

// Advance moves the order to status to and logs the matching tracking event.
func (o *Order) Advance(to Status, location, description string, now time.Time) error {
	if err := ValidateLocation(location); err != nil {
		return err
	}
	if err := CheckTransition(o.Status, to, o.PreviousStatus); err != nil {
		return err
	}

	// Cancellation only moves through RequestCancellation and ResolveCancellation.
	switch {
	case to == StatusCancellationPending:
		return &TransitionError{From: o.Status, To: to, Reason: "cancellation must be requested by the customer"}
	case o.Status == StatusCancellationPending:
		return &TransitionError{From: o.Status, To: to, Reason: "a pending cancellation must be approved or declined first"}
	}

	o.record(to, location, description, now)
	return nil
}

// RequestCancellation files a customer cancellation, capturing the current status
// so a declined request can restore it.
func (o *Order) RequestCancellation(reason string, now time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return validationError("cancellation reason is required")
	}
	if err := CheckTransition(o.Status, StatusCancellationPending, o.PreviousStatus); err != nil {
		return err
	}

	o.PreviousStatus = o.Status
	o.CancellationReason = reason
	o.record(StatusCancellationPending, CancellationRequestLocation, reason, now)
	return nil
}

// ResolveCancellation approves (→ cancelled) or declines (→ previous status) a pending request.
// A declined request clears the reason and previous status; an approved one keeps them.
// It returns the status the order moved to.
func (o *Order) ResolveCancellation(approve bool, note string, now time.Time) (Status, error) {
	if o.Status != StatusCancellationPending {
		return "", &TransitionError{From: o.Status, To: StatusCancelled, Reason: "no cancellation request is pending"}
	}

	to := StatusCancelled
	if !approve {
		to = o.PreviousStatus
	}
	if err := CheckTransition(o.Status, to, o.PreviousStatus); err != nil {
		return "", err
	}

	if !approve {
		o.PreviousStatus = ""
		o.CancellationReason = ""
	}
	o.record(to, CancellationReviewLocation, strings.TrimSpace(note), now)
	return to, nil
}

// MarkReturned records that a delivered order came back.
func (o *Order) MarkReturned(location, description string, now time.Time) error {
	if err := ValidateLocation(location); err != nil {
		return err
	}
	if err := CheckReturn(o.Status); err != nil {
		return err
	}

	o.record(StatusReturned, location, description, now)
	return nil
}

// record sets the status and appends the event. The timestamp never precedes the
// last logged event, so the log stays ordered even if the store clock steps back.
func (o *Order) record(to Status, location, description string, now time.Time) {
	stamp := now.UTC()
	if last, ok := o.LastEvent(); ok && stamp.Before(last.Timestamp) {
		stamp = last.Timestamp
	}

	o.Status = to
	o.TrackingHistory = append(o.TrackingHistory, TrackingEvent{
		Status:      to,
		Location:    strings.TrimSpace(location),
		Description: strings.TrimSpace(description),
		Timestamp:   stamp,
	})
}
