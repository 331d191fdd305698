package service

import (
	"context"
	"sync"
	"time"

	"order-tracker/internal/core/logger"
	orders "order-tracker/internal/features/orders/domain"
	"order-tracker/internal/features/tracking/domain"
	"order-tracker/internal/features/tracking/ports"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const eventBuffer = 16

// Reconciler keeps one viewer's copy of an order in step with the feed.
//
// Every push replaces the held record and emits a snapshot event. A status
// notice is emitted only when the pushed status differs from the held one, so
// duplicate pushes are silent. The first record of a session sets the baseline
// without a notice. When the subscription drops, the held record is kept and
// the reconciler resubscribes, comparing the fresh snapshot the same way.
type Reconciler struct {
	feed    ports.Feed
	orderID string
	limiter *rate.Limiter
	now     func() time.Time
	log     *zap.Logger

	events chan domain.Event

	mu    sync.Mutex
	held  *orders.Order
	state domain.ConnectionState

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// NewReconciler creates a reconciler for one order. Resubscribe attempts are
// spaced at least reconnectInterval apart.
func NewReconciler(feed ports.Feed, orderID string, reconnectInterval time.Duration) *Reconciler {
	limit := rate.Inf
	if reconnectInterval > 0 {
		limit = rate.Every(reconnectInterval)
	}

	return &Reconciler{
		feed:    feed,
		orderID: orderID,
		limiter: rate.NewLimiter(limit, 1),
		now:     func() time.Time { return time.Now().UTC() },
		log:     logger.Named("reconciler").With(zap.String("order_id", orderID)),
		events:  make(chan domain.Event, eventBuffer),
		done:    make(chan struct{}),
	}
}

// Start opens the first subscription and returns its error, if any. Later
// disconnects are handled internally. Start must be called at most once.
func (r *Reconciler) Start(ctx context.Context) error {
	sub, err := r.feed.Subscribe(ctx, r.orderID)
	if err != nil {
		close(r.events)
		close(r.done)
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.state = domain.ConnectionLive
	r.mu.Unlock()

	go r.run(ctx, sub)
	return nil
}

// Events delivers snapshots, status notices and connection changes. It is
// closed after Close or when Start failed.
func (r *Reconciler) Events() <-chan domain.Event {
	return r.events
}

// Held returns the last record received, or nil before the first push.
func (r *Reconciler) Held() *orders.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.held
}

// State returns the current connection state.
func (r *Reconciler) State() domain.ConnectionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Close unsubscribes and waits until the subscription is released.
func (r *Reconciler) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		cancel := r.cancel
		r.mu.Unlock()

		if cancel != nil {
			cancel()
			<-r.done
		}

		r.mu.Lock()
		r.state = domain.ConnectionClosed
		r.mu.Unlock()
	})
}

func (r *Reconciler) run(ctx context.Context, sub ports.Subscription) {
	defer close(r.done)
	defer close(r.events)

	for {
		err := r.consume(ctx, sub)
		_ = sub.Close()
		if ctx.Err() != nil {
			return
		}

		r.log.Warn("Subscription lost, keeping last known state", zap.Error(err))
		if !r.setState(ctx, domain.ConnectionReconnecting) {
			return
		}

		sub = r.resubscribe(ctx)
		if sub == nil {
			return
		}

		r.log.Info("Subscription restored")
		if !r.setState(ctx, domain.ConnectionLive) {
			_ = sub.Close()
			return
		}
	}
}

func (r *Reconciler) consume(ctx context.Context, sub ports.Subscription) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case order, ok := <-sub.Updates():
			if !ok {
				if err := sub.Err(); err != nil {
					return err
				}
				return orders.ErrSubscriptionLost
			}
			if !r.apply(ctx, order) {
				return ctx.Err()
			}
		}
	}
}

func (r *Reconciler) resubscribe(ctx context.Context) ports.Subscription {
	for attempt := 1; ; attempt++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil
		}

		sub, err := r.feed.Subscribe(ctx, r.orderID)
		if err == nil {
			return sub
		}
		if ctx.Err() != nil {
			return nil
		}
		r.log.Warn("Resubscribe failed", zap.Int("attempt", attempt), zap.Error(err))
	}
}

// apply reconciles one pushed record. It returns false once ctx is done.
func (r *Reconciler) apply(ctx context.Context, order *orders.Order) bool {
	r.mu.Lock()
	prev := r.held
	if prev != nil && order.Version > 0 && order.Version <= prev.Version {
		r.mu.Unlock()
		return true
	}
	r.held = order
	r.mu.Unlock()

	if !r.emit(ctx, domain.SnapshotEvent(order)) {
		return false
	}
	if prev == nil || prev.Status == order.Status {
		return true
	}

	notice := domain.NewStatusNotice(order, prev.Status, r.now())
	r.log.Info("Order status changed",
		zap.String("from", string(notice.From)),
		zap.String("to", string(notice.To)),
	)
	return r.emit(ctx, domain.NoticeEvent(notice))
}

func (r *Reconciler) setState(ctx context.Context, state domain.ConnectionState) bool {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
	return r.emit(ctx, domain.ConnectionEvent(state))
}

func (r *Reconciler) emit(ctx context.Context, e domain.Event) bool {
	select {
	case r.events <- e:
		return true
	case <-ctx.Done():
		return false
	}
}
