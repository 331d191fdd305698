package adapters

import (
	"context"
	"errors"
	"fmt"
	"sync"

	orders "order-tracker/internal/features/orders/domain"
)

var errStreamEnded = errors.New("stream ended")

// reader pumps records from a transport into emit until the transport fails
// or emit reports that the subscription is closing.
type reader func(ctx context.Context, emit func(*orders.Order) bool) error

// subscription holds at most one undelivered record. A newer push replaces it
// and pushes whose version is not newer than the latest seen are dropped.
type subscription struct {
	updates chan *orders.Order
	cancel  context.CancelFunc
	release func() error

	delivered chan struct{}
	read      chan struct{}

	mu  sync.Mutex
	err error

	closeOnce sync.Once
	closeErr  error
}

func startSubscription(ctx context.Context, first *orders.Order, release func() error, read reader) *subscription {
	ctx, cancel := context.WithCancel(ctx)

	s := &subscription{
		updates:   make(chan *orders.Order),
		cancel:    cancel,
		release:   release,
		delivered: make(chan struct{}),
		read:      make(chan struct{}),
	}

	incoming := make(chan *orders.Order)
	go s.pump(ctx, read, incoming)
	go s.deliver(ctx, first, incoming)
	return s
}

// Updates implements ports.Subscription.
func (s *subscription) Updates() <-chan *orders.Order {
	return s.updates
}

// Err implements ports.Subscription.
func (s *subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close implements ports.Subscription.
func (s *subscription) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		if s.release != nil {
			s.closeErr = s.release()
		}
		<-s.read
		<-s.delivered
	})
	return s.closeErr
}

func (s *subscription) pump(ctx context.Context, read reader, incoming chan<- *orders.Order) {
	defer close(s.read)
	defer close(incoming)

	err := read(ctx, func(o *orders.Order) bool {
		select {
		case incoming <- o:
			return true
		case <-ctx.Done():
			return false
		}
	})
	if ctx.Err() != nil {
		return
	}
	if err == nil {
		err = errStreamEnded
	}

	s.mu.Lock()
	s.err = fmt.Errorf("%w: %v", orders.ErrSubscriptionLost, err)
	s.mu.Unlock()
}

func (s *subscription) deliver(ctx context.Context, pending *orders.Order, incoming <-chan *orders.Order) {
	defer close(s.delivered)
	defer close(s.updates)

	newest := pending.Version
	for {
		var out chan<- *orders.Order
		if pending != nil {
			out = s.updates
		}

		select {
		case <-ctx.Done():
			return

		case o, ok := <-incoming:
			if !ok {
				if pending != nil {
					select {
					case s.updates <- pending:
					case <-ctx.Done():
					}
				}
				return
			}
			if o.Version <= newest {
				continue
			}
			newest = o.Version
			pending = o

		case out <- pending:
			pending = nil
		}
	}
}
