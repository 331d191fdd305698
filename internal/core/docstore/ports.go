package docstore

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrKeyNotFound is returned when a document does not exist.
	ErrKeyNotFound = errors.New("document not found")
	// ErrKeyExists is returned by Create when the document or its alias already exists.
	ErrKeyExists = errors.New("document already exists")
	// ErrConflict is returned by Mutate when every attempt lost the race to another writer.
	ErrConflict = errors.New("document modified concurrently")
	// ErrStreamStalled is returned by MessageStream.Next when the connection stops answering.
	ErrStreamStalled = errors.New("push stream stalled")
)

// MutateFunc computes the next value of a document from its current value.
// now is the store's clock, read inside the same optimistic transaction.
// It may be invoked more than once when a write conflicts.
type MutateFunc func(current []byte, now time.Time) ([]byte, error)

// CreateOptions describes the secondary keys written atomically with a new document.
type CreateOptions struct {
	// Alias is a unique secondary key that must also be absent. It stores AliasValue.
	Alias      string
	AliasValue string
	// Index is a sorted set receiving the document key with IndexScore.
	Index      string
	IndexScore float64
}

// Store defines the document store operations interface following hexagonal architecture.
// This is a port that can be implemented by different backends that offer an atomic
// read-modify-write primitive and a push channel.
type Store interface {
	// Get retrieves a document by key.
	Get(ctx context.Context, key string) ([]byte, error)

	// GetMany retrieves several documents; missing keys yield nil entries.
	GetMany(ctx context.Context, keys ...string) ([][]byte, error)

	// Create stores a new document, failing with ErrKeyExists if it (or its alias) exists.
	Create(ctx context.Context, key string, value []byte, opts CreateOptions) error

	// Range lists members of a sorted index, highest score first.
	Range(ctx context.Context, index string, offset, limit int64) ([]string, error)

	// Mutate applies fn under optimistic concurrency and publishes the new value on
	// channel in the same transaction. It gives up with ErrConflict after maxAttempts.
	Mutate(ctx context.Context, key, channel string, maxAttempts int, fn MutateFunc) ([]byte, error)

	// Subscribe opens a push stream on channel. The subscription is active on return.
	Subscribe(ctx context.Context, channel string) (MessageStream, error)

	// Now returns the store's clock.
	Now(ctx context.Context) (time.Time, error)

	// Ping checks if the store is reachable.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}

// MessageStream is a live push subscription.
type MessageStream interface {
	// Next blocks until a message arrives or the stream fails.
	Next(ctx context.Context) ([]byte, error)
	// Close ends the subscription; a blocked Next returns an error.
	Close() error
}
