package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	orders "order-tracker/internal/features/orders/domain"
	"order-tracker/internal/features/tracking/domain"
	"order-tracker/internal/features/tracking/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSubscription is a hand-driven ports.Subscription.
type fakeSubscription struct {
	updates chan *orders.Order

	mu     sync.Mutex
	err    error
	ended  bool
	closed bool
}

func newFakeSubscription(first *orders.Order) *fakeSubscription {
	s := &fakeSubscription{updates: make(chan *orders.Order, 8)}
	if first != nil {
		s.updates <- first
	}
	return s
}

func (s *fakeSubscription) Updates() <-chan *orders.Order { return s.updates }

func (s *fakeSubscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *fakeSubscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSubscription) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeSubscription) push(o *orders.Order) { s.updates <- o }

// drop ends the subscription as a transport failure would.
func (s *fakeSubscription) drop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true
	s.err = fmt.Errorf("%w: connection reset", orders.ErrSubscriptionLost)
	close(s.updates)
}

type feedResult struct {
	sub *fakeSubscription
	err error
}

// fakeFeed hands out results in order and fails once they run out.
type fakeFeed struct {
	mu      sync.Mutex
	results []feedResult
	calls   int
}

func (f *fakeFeed) Subscribe(ctx context.Context, orderID string) (ports.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.calls
	f.calls++
	if i >= len(f.results) {
		return nil, errors.New("feed unavailable")
	}
	if f.results[i].err != nil {
		return nil, f.results[i].err
	}
	return f.results[i].sub, nil
}

func (f *fakeFeed) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func record(id string, status orders.Status, version int64) *orders.Order {
	return &orders.Order{ID: id, OrderNumber: "ORD-" + id, Status: status, Version: version}
}

func nextEvent(t *testing.T, r *Reconciler) domain.Event {
	t.Helper()
	select {
	case e, ok := <-r.Events():
		require.True(t, ok, "events closed")
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an event")
		return domain.Event{}
	}
}

func expectNoEvent(t *testing.T, r *Reconciler) {
	t.Helper()
	select {
	case e := <-r.Events():
		t.Fatalf("unexpected event %s", e.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestReconciler_InitialSnapshotIsSilent(t *testing.T) {
	sub := newFakeSubscription(record("ord-1", orders.StatusProcessing, 2))
	r := NewReconciler(&fakeFeed{results: []feedResult{{sub: sub}}}, "ord-1", time.Millisecond)
	require.NoError(t, r.Start(context.Background()))
	defer r.Close()

	e := nextEvent(t, r)
	assert.Equal(t, domain.EventSnapshot, e.Kind)
	assert.Equal(t, orders.StatusProcessing, e.Order.Status)
	require.NotNil(t, e.Timeline)
	assert.False(t, e.Timeline.Special)
	expectNoEvent(t, r)

	assert.Equal(t, domain.ConnectionLive, r.State())
	assert.Equal(t, int64(2), r.Held().Version)
}

func TestReconciler_NotifiesOncePerStatusChange(t *testing.T) {
	sub := newFakeSubscription(record("ord-1", orders.StatusPending, 1))
	r := NewReconciler(&fakeFeed{results: []feedResult{{sub: sub}}}, "ord-1", time.Millisecond)
	require.NoError(t, r.Start(context.Background()))
	defer r.Close()

	nextEvent(t, r)

	shipped := record("ord-1", orders.StatusShipped, 2)
	sub.push(shipped)

	assert.Equal(t, domain.EventSnapshot, nextEvent(t, r).Kind)
	notice := nextEvent(t, r)
	require.Equal(t, domain.EventStatusChanged, notice.Kind)
	assert.Equal(t, orders.StatusPending, notice.Notice.From)
	assert.Equal(t, orders.StatusShipped, notice.Notice.To)
	assert.Equal(t, "Shipped", notice.Notice.Label)

	// The same record pushed again is silent.
	sub.push(shipped)
	expectNoEvent(t, r)

	// A newer record at the same status updates the view without a notice.
	sub.push(record("ord-1", orders.StatusShipped, 3))
	e := nextEvent(t, r)
	assert.Equal(t, domain.EventSnapshot, e.Kind)
	assert.Equal(t, int64(3), e.Order.Version)
	expectNoEvent(t, r)
}

func TestReconciler_ReconnectKeepsStateAndNotifiesOnce(t *testing.T) {
	first := newFakeSubscription(record("ord-1", orders.StatusShipped, 3))
	second := newFakeSubscription(record("ord-1", orders.StatusDelivered, 5))
	feed := &fakeFeed{results: []feedResult{
		{sub: first},
		{err: orders.ErrSubscriptionLost},
		{sub: second},
	}}

	r := NewReconciler(feed, "ord-1", time.Millisecond)
	require.NoError(t, r.Start(context.Background()))
	defer r.Close()

	nextEvent(t, r)
	first.drop()

	e := nextEvent(t, r)
	require.Equal(t, domain.EventConnection, e.Kind)
	assert.Equal(t, domain.ConnectionReconnecting, e.State)
	assert.True(t, first.isClosed())

	e = nextEvent(t, r)
	require.Equal(t, domain.EventConnection, e.Kind)
	assert.Equal(t, domain.ConnectionLive, e.State)

	e = nextEvent(t, r)
	require.Equal(t, domain.EventSnapshot, e.Kind)
	assert.Equal(t, orders.StatusDelivered, e.Order.Status)

	e = nextEvent(t, r)
	require.Equal(t, domain.EventStatusChanged, e.Kind)
	assert.Equal(t, orders.StatusShipped, e.Notice.From)
	assert.Equal(t, orders.StatusDelivered, e.Notice.To)
	expectNoEvent(t, r)

	assert.Equal(t, 3, feed.callCount())
	assert.Equal(t, domain.ConnectionLive, r.State())
}

func TestReconciler_ResubscribeUnchangedIsSilent(t *testing.T) {
	first := newFakeSubscription(record("ord-1", orders.StatusProcessing, 2))
	second := newFakeSubscription(record("ord-1", orders.StatusProcessing, 2))
	r := NewReconciler(&fakeFeed{results: []feedResult{{sub: first}, {sub: second}}}, "ord-1", time.Millisecond)
	require.NoError(t, r.Start(context.Background()))
	defer r.Close()

	nextEvent(t, r)
	first.drop()

	assert.Equal(t, domain.ConnectionReconnecting, nextEvent(t, r).State)
	assert.Equal(t, domain.ConnectionLive, nextEvent(t, r).State)
	expectNoEvent(t, r)
}

func TestReconciler_StartError(t *testing.T) {
	r := NewReconciler(&fakeFeed{results: []feedResult{{err: orders.ErrNotFound}}}, "ord-9", time.Millisecond)

	err := r.Start(context.Background())
	assert.ErrorIs(t, err, orders.ErrNotFound)

	_, ok := <-r.Events()
	assert.False(t, ok)
	r.Close()
}

func TestReconciler_CloseReleasesSubscription(t *testing.T) {
	sub := newFakeSubscription(record("ord-1", orders.StatusPending, 1))
	r := NewReconciler(&fakeFeed{results: []feedResult{{sub: sub}}}, "ord-1", time.Millisecond)
	require.NoError(t, r.Start(context.Background()))

	nextEvent(t, r)
	r.Close()

	assert.True(t, sub.isClosed())
	assert.Equal(t, domain.ConnectionClosed, r.State())

	_, ok := <-r.Events()
	assert.False(t, ok)

	r.Close()
}

func TestReconciler_CloseWhileReconnecting(t *testing.T) {
	sub := newFakeSubscription(record("ord-1", orders.StatusPending, 1))
	feed := &fakeFeed{results: []feedResult{{sub: sub}}}
	r := NewReconciler(feed, "ord-1", 10*time.Millisecond)
	require.NoError(t, r.Start(context.Background()))

	nextEvent(t, r)
	sub.drop()
	assert.Equal(t, domain.ConnectionReconnecting, nextEvent(t, r).State)

	require.Eventually(t, func() bool { return feed.callCount() >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, domain.ConnectionReconnecting, r.State())
	assert.Equal(t, orders.StatusPending, r.Held().Status)

	done := make(chan struct{})
	go func() {
		r.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}
}
