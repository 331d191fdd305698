package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"order-tracker/internal/core/docstore"
	"order-tracker/internal/features/orders/domain"
	"order-tracker/internal/features/orders/ports"
)

const (
	orderKeyPrefix   = "order:"
	orderNumberAlias = "order:number:"
	ordersByCreated  = "orders:by_created"
)

// OrderKey is the document key holding an order record.
func OrderKey(id string) string {
	return orderKeyPrefix + id
}

// ChangesChannel is the push channel carrying every committed version of an order.
func ChangesChannel(id string) string {
	return orderKeyPrefix + id + ":changes"
}

// RedisOrderRepository implements ports.OrderRepository on the document store.
type RedisOrderRepository struct {
	store       docstore.Store
	maxAttempts int
}

// NewRedisOrderRepository creates a new RedisOrderRepository.
// maxAttempts bounds the optimistic retries of Update.
func NewRedisOrderRepository(store docstore.Store, maxAttempts int) *RedisOrderRepository {
	return &RedisOrderRepository{
		store:       store,
		maxAttempts: maxAttempts,
	}
}

// Create stores the order, its order-number alias and its listing entry in one transaction.
func (r *RedisOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}

	err = r.store.Create(ctx, OrderKey(order.ID), data, docstore.CreateOptions{
		Alias:      orderNumberAlias + order.OrderNumber,
		AliasValue: order.ID,
		Index:      ordersByCreated,
		IndexScore: float64(order.CreatedAt.UnixMilli()),
	})
	if errors.Is(err, docstore.ErrKeyExists) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateOrder, order.OrderNumber)
	}
	if err != nil {
		return fmt.Errorf("failed to save order %s: %w", order.ID, err)
	}
	return nil
}

// Get retrieves an order by id.
func (r *RedisOrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	data, err := r.store.Get(ctx, OrderKey(id))
	if errors.Is(err, docstore.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}

	return DecodeOrder(data)
}

// List returns a page of orders, newest first. Keys whose document vanished are skipped.
func (r *RedisOrderRepository) List(ctx context.Context, offset, limit int) ([]*domain.Order, error) {
	keys, err := r.store.Range(ctx, ordersByCreated, int64(offset), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	docs, err := r.store.GetMany(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	orders := make([]*domain.Order, 0, len(docs))
	for _, data := range docs {
		if data == nil {
			continue
		}
		order, err := DecodeOrder(data)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// Update runs fn against the persisted order inside an optimistic transaction,
// bumps the version and publishes the committed record on ChangesChannel.
func (r *RedisOrderRepository) Update(ctx context.Context, id string, fn ports.MutateFunc) (*domain.Order, error) {
	var committed *domain.Order

	_, err := r.store.Mutate(ctx, OrderKey(id), ChangesChannel(id), r.maxAttempts, func(current []byte, now time.Time) ([]byte, error) {
		order, err := DecodeOrder(current)
		if err != nil {
			return nil, err
		}

		if err := fn(order, now); err != nil {
			return nil, err
		}
		order.Version++

		data, err := json.Marshal(order)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal order: %w", err)
		}
		committed = order
		return data, nil
	})

	switch {
	case err == nil:
		return committed, nil
	case errors.Is(err, docstore.ErrKeyNotFound):
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	case errors.Is(err, docstore.ErrConflict):
		return nil, fmt.Errorf("%w: %s", domain.ErrConcurrentModification, err.Error())
	default:
		return nil, err
	}
}

// Now returns the store clock.
func (r *RedisOrderRepository) Now(ctx context.Context) (time.Time, error) {
	return r.store.Now(ctx)
}

// DecodeOrder parses a stored or pushed order document.
func DecodeOrder(data []byte) (*domain.Order, error) {
	var order domain.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order: %w", err)
	}
	return &order, nil
}
