package docstore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultHealthCheckInterval is how long a push stream may stay silent before it is pinged.
const DefaultHealthCheckInterval = 30 * time.Second

// RedisStore implements the Store interface using Redis.
// Optimistic writes use WATCH/MULTI/EXEC; pushes use PUBLISH/SUBSCRIBE.
type RedisStore struct {
	client      *redis.Client
	healthCheck time.Duration
}

// Option configures a RedisStore.
type Option func(*RedisStore)

// WithHealthCheckInterval sets how long a push stream may stay silent before it
// sends a PING. A stream whose PING goes unanswered for another interval fails
// with ErrStreamStalled.
func WithHealthCheckInterval(d time.Duration) Option {
	return func(r *RedisStore) {
		if d > 0 {
			r.healthCheck = d
		}
	}
}

// NewRedisStore creates a new Redis document store.
// The redisURL should be in the format: redis://[:password@]host[:port][/database]
func NewRedisStore(redisURL string, opts ...Option) (*RedisStore, error) {
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	r := &RedisStore{
		client:      redis.NewClient(redisOpts),
		healthCheck: DefaultHealthCheckInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Get retrieves a document from Redis by key.
func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return val, nil
}

// GetMany retrieves several documents with a single MGET.
func (r *RedisStore) GetMany(ctx context.Context, keys ...string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get %d keys: %w", len(keys), err)
	}

	out := make([][]byte, len(vals))
	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[i] = []byte(s)
		}
	}
	return out, nil
}

// Create stores a new document together with its alias and index entry.
func (r *RedisStore) Create(ctx context.Context, key string, value []byte, opts CreateOptions) error {
	watched := []string{key}
	if opts.Alias != "" {
		watched = append(watched, opts.Alias)
	}

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, watched...).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrKeyExists
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, value, 0)
			if opts.Alias != "" {
				pipe.Set(ctx, opts.Alias, opts.AliasValue, 0)
			}
			if opts.Index != "" {
				pipe.ZAdd(ctx, opts.Index, redis.Z{Score: opts.IndexScore, Member: key})
			}
			return nil
		})
		return err
	}, watched...)

	switch {
	case errors.Is(err, ErrKeyExists):
		return fmt.Errorf("%w: %s", ErrKeyExists, key)
	case errors.Is(err, redis.TxFailedErr):
		return fmt.Errorf("%w: %s", ErrKeyExists, key)
	case err != nil:
		return fmt.Errorf("failed to create key %s: %w", key, err)
	}
	return nil
}

// Range lists members of a sorted set from the highest score down.
func (r *RedisStore) Range(ctx context.Context, index string, offset, limit int64) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}

	members, err := r.client.ZRevRange(ctx, index, offset, offset+limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to range index %s: %w", index, err)
	}
	return members, nil
}

// Mutate runs fn inside WATCH/MULTI/EXEC and retries when another client changed the key.
// The new value is published on channel inside the same MULTI block, so subscribers see
// pushes in commit order.
func (r *RedisStore) Mutate(ctx context.Context, key, channel string, maxAttempts int, fn MutateFunc) ([]byte, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var next []byte
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			current, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return ErrKeyNotFound
			}
			if err != nil {
				return err
			}

			now, err := tx.Time(ctx).Result()
			if err != nil {
				return fmt.Errorf("failed to read server time: %w", err)
			}

			next, err = fn(current, now)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, next, 0)
				if channel != "" {
					pipe.Publish(ctx, channel, next)
				}
				return nil
			})
			return err
		}, key)

		if err == nil {
			return next, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
		}
		return nil, err
	}

	return nil, fmt.Errorf("%w: %s after %d attempts", ErrConflict, key, maxAttempts)
}

// Subscribe opens a pub/sub subscription and waits for Redis to confirm it.
func (r *RedisStore) Subscribe(ctx context.Context, channel string) (MessageStream, error) {
	ps := r.client.Subscribe(ctx, channel)

	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	return &redisStream{pubsub: ps, healthCheck: r.healthCheck}, nil
}

// Now returns the Redis server clock.
func (r *RedisStore) Now(ctx context.Context) (time.Time, error) {
	now, err := r.client.Time(ctx).Result()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read server time: %w", err)
	}
	return now, nil
}

// Ping checks if Redis is reachable.
func (r *RedisStore) Ping(ctx context.Context) error {
	err := r.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// redisStream adapts a go-redis PubSub to MessageStream.
type redisStream struct {
	pubsub      *redis.PubSub
	healthCheck time.Duration
}

// Next returns the payload of the next published message.
// Control frames (subscription confirmations, pongs) are skipped. After a
// silent interval the connection is pinged; a second silent interval means
// the server or the link is gone.
func (s *redisStream) Next(ctx context.Context) ([]byte, error) {
	pinged := false
	for {
		msg, err := s.pubsub.ReceiveTimeout(ctx, s.healthCheck)
		if err != nil {
			if !isTimeout(err) || ctx.Err() != nil {
				return nil, err
			}
			if pinged {
				return nil, fmt.Errorf("%w: no reply to ping within %s", ErrStreamStalled, s.healthCheck)
			}
			if err := s.pubsub.Ping(ctx); err != nil {
				return nil, fmt.Errorf("failed to ping push stream: %w", err)
			}
			pinged = true
			continue
		}
		pinged = false

		switch m := msg.(type) {
		case *redis.Message:
			return []byte(m.Payload), nil
		case *redis.Subscription, *redis.Pong:
			continue
		default:
			return nil, fmt.Errorf("unexpected pubsub message %T", m)
		}
	}
}

// Close unsubscribes and releases the dedicated connection.
func (s *redisStream) Close() error {
	return s.pubsub.Close()
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
