package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an order id does not resolve.
	ErrNotFound = errors.New("order not found")
	// ErrInvalidTransition is returned when the state machine rejects a status change.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrValidation is returned for malformed input such as an empty location.
	ErrValidation = errors.New("validation error")
	// ErrConcurrentModification is returned when optimistic retries are exhausted.
	ErrConcurrentModification = errors.New("concurrent modification")
	// ErrDuplicateOrder is returned when an order id or order number is already taken.
	ErrDuplicateOrder = errors.New("order already exists")
	// ErrSubscriptionLost is returned when a change subscription drops at the transport level.
	ErrSubscriptionLost = errors.New("subscription lost")
)

// TransitionError carries the rejected transition and the reason shown to operators.
type TransitionError struct {
	From   Status
	To     Status
	Reason string
}

// Error implements error.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s: %s", e.From, e.To, e.Reason)
}

// Is lets errors.Is match ErrInvalidTransition.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
