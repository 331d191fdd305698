package service

import (
	"context"
	"testing"
	"time"

	"order-tracker/internal/core/docstore"
	orderstore "order-tracker/internal/features/orders/adapters"
	orders "order-tracker/internal/features/orders/domain"
	"order-tracker/internal/features/tracking/adapters"
	"order-tracker/internal/features/tracking/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconciler_OverRedisFeed(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := docstore.NewRedisStore("redis://" + mr.Addr())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	repo := orderstore.NewRedisOrderRepository(store, 5)
	order, err := orders.NewOrder("ord-1", "ORD-1", "cust-1", []orders.LineItem{
		{Name: "Lamp", UnitPrice: 30, Quantity: 2},
	}, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, order))

	r := NewReconciler(adapters.NewRedisFeed(store), "ord-1", 10*time.Millisecond)
	require.NoError(t, r.Start(ctx))
	defer r.Close()

	e := nextEvent(t, r)
	require.Equal(t, domain.EventSnapshot, e.Kind)
	assert.Equal(t, orders.StatusPending, e.Order.Status)

	_, err = repo.Update(ctx, "ord-1", func(o *orders.Order, now time.Time) error {
		return o.Advance(orders.StatusShipped, "Hyderabad Hub", "Left origin facility", now)
	})
	require.NoError(t, err)

	e = nextEvent(t, r)
	require.Equal(t, domain.EventSnapshot, e.Kind)
	assert.Len(t, e.Order.TrackingHistory, 1)

	e = nextEvent(t, r)
	require.Equal(t, domain.EventStatusChanged, e.Kind)
	assert.Equal(t, "Order ORD-1 is now Shipped", e.Notice.Message)
}
