package adapters

import (
	"context"
	"errors"
	"fmt"

	"order-tracker/internal/core/docstore"
	"order-tracker/internal/core/logger"
	orderstore "order-tracker/internal/features/orders/adapters"
	orders "order-tracker/internal/features/orders/domain"
	"order-tracker/internal/features/tracking/ports"

	"go.uber.org/zap"
)

// RedisFeed implements ports.Feed on the document store's push channel.
type RedisFeed struct {
	store docstore.Store
	log   *zap.Logger
}

// NewRedisFeed creates a new RedisFeed.
func NewRedisFeed(store docstore.Store) *RedisFeed {
	return &RedisFeed{
		store: store,
		log:   logger.Named("feed"),
	}
}

// Subscribe listens on the order's change channel before reading the snapshot,
// so no commit between the two is missed.
func (f *RedisFeed) Subscribe(ctx context.Context, orderID string) (ports.Subscription, error) {
	stream, err := f.store.Subscribe(ctx, orderstore.ChangesChannel(orderID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", orders.ErrSubscriptionLost, err)
	}

	data, err := f.store.Get(ctx, orderstore.OrderKey(orderID))
	if err != nil {
		_ = stream.Close()
		if errors.Is(err, docstore.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", orders.ErrNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to load order %s: %w", orderID, err)
	}

	first, err := orderstore.DecodeOrder(data)
	if err != nil {
		_ = stream.Close()
		return nil, err
	}

	f.log.Debug("Subscribed to order changes",
		zap.String("order_id", orderID),
		zap.Int64("version", first.Version),
	)

	return startSubscription(ctx, first, stream.Close, func(ctx context.Context, emit func(*orders.Order) bool) error {
		for {
			data, err := stream.Next(ctx)
			if err != nil {
				return err
			}

			order, err := orderstore.DecodeOrder(data)
			if err != nil {
				f.log.Warn("Dropping undecodable push",
					zap.String("order_id", orderID),
					zap.Error(err),
				)
				continue
			}
			if !emit(order) {
				return nil
			}
		}
	}), nil
}
