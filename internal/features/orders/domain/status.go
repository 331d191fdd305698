package domain

import (
	"fmt"
)

// Status represents the lifecycle state of an order.
type Status string

const (
	// StatusPending indicates the order has been placed and awaits handling.
	StatusPending Status = "pending"
	// StatusProcessing indicates the order is being picked and packed.
	StatusProcessing Status = "processing"
	// StatusShipped indicates the order has left the origin facility.
	StatusShipped Status = "shipped"
	// StatusOutForDelivery indicates the order is on the last-mile vehicle.
	StatusOutForDelivery Status = "out-for-delivery"
	// StatusDelivered indicates the order reached the customer.
	StatusDelivered Status = "delivered"
	// StatusCancellationPending indicates the customer asked to cancel and an operator must decide.
	StatusCancellationPending Status = "cancellation-pending"
	// StatusCancelled indicates the cancellation was approved.
	StatusCancelled Status = "cancelled"
	// StatusReturned indicates a delivered order came back.
	StatusReturned Status = "returned"
)

type statusInfo struct {
	label    string
	priority int
	linear   bool
	terminal bool
}

var statusTable = map[Status]statusInfo{
	StatusPending:             {label: "Pending", priority: 0, linear: true},
	StatusProcessing:          {label: "Processing", priority: 1, linear: true},
	StatusShipped:             {label: "Shipped", priority: 2, linear: true},
	StatusOutForDelivery:      {label: "Out for Delivery", priority: 3, linear: true},
	StatusDelivered:           {label: "Delivered", priority: 4, linear: true, terminal: true},
	StatusCancellationPending: {label: "Cancellation Requested", priority: -1},
	StatusCancelled:           {label: "Cancelled", priority: -1, terminal: true},
	StatusReturned:            {label: "Returned", priority: -1, terminal: true},
}

var linearStages = []Status{
	StatusPending,
	StatusProcessing,
	StatusShipped,
	StatusOutForDelivery,
	StatusDelivered,
}

// LinearStages returns the stage table of the linear path, ordered by priority.
func LinearStages() []Status {
	out := make([]Status, len(linearStages))
	copy(out, linearStages)
	return out
}

// AllStatuses returns every known status, linear stages first.
func AllStatuses() []Status {
	return append(LinearStages(), StatusCancellationPending, StatusCancelled, StatusReturned)
}

// ParseStatus converts a raw string into a known Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, raw)
	}
	return s, nil
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	_, ok := statusTable[s]
	return ok
}

// Label returns the human-readable name shown to customers and operators.
func (s Status) Label() string {
	if info, ok := statusTable[s]; ok {
		return info.label
	}
	return string(s)
}

// Priority returns the position on the linear path. ok is false for side states.
func (s Status) Priority() (priority int, ok bool) {
	info, found := statusTable[s]
	if !found || !info.linear {
		return 0, false
	}
	return info.priority, true
}

// IsLinear reports whether s lies on the pending → delivered path.
func (s Status) IsLinear() bool {
	return statusTable[s].linear
}

// IsTerminal reports whether no ordinary transition may leave s.
func (s Status) IsTerminal() bool {
	return statusTable[s].terminal
}

// UnmarshalText rejects unknown statuses so decoded records only hold legal values.
// The empty string decodes to the zero Status.
func (s *Status) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*s = ""
		return nil
	}
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// CheckTransition decides whether an order may move from one status to another.
// previous is the status captured when a cancellation was requested; it is the only
// linear status a declined cancellation may return to.
func CheckTransition(from, to, previous Status) error {
	if !to.IsValid() {
		return &TransitionError{From: from, To: to, Reason: fmt.Sprintf("unknown status %q", to)}
	}
	if from.IsTerminal() {
		return &TransitionError{From: from, To: to, Reason: fmt.Sprintf("cannot transition from %s", from)}
	}

	switch {
	case from == StatusCancellationPending:
		if to == StatusCancelled {
			return nil
		}
		if to == previous && previous.IsLinear() {
			return nil
		}
		return &TransitionError{From: from, To: to, Reason: "a pending cancellation must be approved or declined first"}

	case to == StatusCancellationPending:
		if from == StatusPending || from == StatusProcessing {
			return nil
		}
		return &TransitionError{From: from, To: to, Reason: fmt.Sprintf("cancellation cannot be requested once %s", from)}

	case to == StatusCancelled:
		return &TransitionError{From: from, To: to, Reason: "cancellation must be requested before it is approved"}

	case to == StatusReturned:
		return &TransitionError{From: from, To: to, Reason: "only delivered orders can be returned"}
	}

	fromPriority, fromOK := from.Priority()
	toPriority, _ := to.Priority()
	if !fromOK {
		return &TransitionError{From: from, To: to, Reason: fmt.Sprintf("unknown current status %q", from)}
	}
	if toPriority < fromPriority {
		return &TransitionError{From: from, To: to, Reason: fmt.Sprintf("cannot move back from %s to %s", from, to)}
	}
	return nil
}

// CheckReturn decides whether an order in status from may be marked returned.
func CheckReturn(from Status) error {
	if from != StatusDelivered {
		return &TransitionError{From: from, To: StatusReturned, Reason: "only delivered orders can be returned"}
	}
	return nil
}
