package adapters

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"order-tracker/internal/core/logger"
	orders "order-tracker/internal/features/orders/domain"
	"order-tracker/internal/features/tracking/domain"
	"order-tracker/internal/features/tracking/ports"

	"go.uber.org/zap"
)

const (
	maxEventSize = 1 << 20

	// DefaultIdleTimeout is twice the server's default heartbeat interval.
	DefaultIdleTimeout = 30 * time.Second
)

// ErrStreamIdle is reported when the server sends nothing, not even a heartbeat,
// for longer than the idle timeout.
var ErrStreamIdle = errors.New("event stream idle")

// SSEFeed implements ports.Feed against the stream endpoint of a remote API.
// Only snapshot events are consumed; the caller reconciles them itself.
type SSEFeed struct {
	baseURL     string
	client      *http.Client
	idleTimeout time.Duration
	log         *zap.Logger
}

// SSEOption configures an SSEFeed.
type SSEOption func(*SSEFeed)

// WithIdleTimeout sets how long the stream may stay silent before the
// subscription is considered lost. Zero disables the check.
func WithIdleTimeout(d time.Duration) SSEOption {
	return func(f *SSEFeed) {
		f.idleTimeout = d
	}
}

// NewSSEFeed creates a new SSEFeed. client carries authentication and must not
// impose a total timeout on the response.
func NewSSEFeed(baseURL string, client *http.Client, opts ...SSEOption) *SSEFeed {
	f := &SSEFeed{
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      client,
		idleTimeout: DefaultIdleTimeout,
		log:         logger.Named("feed"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Subscribe opens the stream and blocks until the first snapshot arrives.
func (f *SSEFeed) Subscribe(ctx context.Context, orderID string) (ports.Subscription, error) {
	endpoint := f.baseURL + "/orders/" + url.PathEscape(orderID) + "/stream"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", orders.ErrSubscriptionLost, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", orders.ErrNotFound, orderID)
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("stream request failed with status %d", resp.StatusCode)
	}

	body := newIdleReader(resp.Body, f.idleTimeout)
	events := newEventReader(body)
	first, err := f.nextSnapshot(events)
	if err != nil {
		body.Close()
		return nil, fmt.Errorf("%w: %v", orders.ErrSubscriptionLost, err)
	}

	return startSubscription(ctx, first, body.Close, func(ctx context.Context, emit func(*orders.Order) bool) error {
		for {
			order, err := f.nextSnapshot(events)
			if err != nil {
				return err
			}
			if !emit(order) {
				return nil
			}
		}
	}), nil
}

func (f *SSEFeed) nextSnapshot(events *eventReader) (*orders.Order, error) {
	for {
		name, data, err := events.Next()
		if err != nil {
			return nil, err
		}
		if name != string(domain.EventSnapshot) {
			continue
		}

		var event domain.Event
		if err := json.Unmarshal(data, &event); err != nil || event.Order == nil {
			f.log.Warn("Dropping malformed snapshot event", zap.Error(err))
			continue
		}
		return event.Order, nil
	}
}

// idleReader closes the body when no bytes arrive within timeout, which
// unblocks a pending Read. Heartbeat comments count as traffic.
type idleReader struct {
	body    io.ReadCloser
	timeout time.Duration
	timer   *time.Timer
	idle    atomic.Bool
}

func newIdleReader(body io.ReadCloser, timeout time.Duration) *idleReader {
	r := &idleReader{body: body, timeout: timeout}
	if timeout > 0 {
		r.timer = time.AfterFunc(timeout, func() {
			r.idle.Store(true)
			r.body.Close()
		})
	}
	return r
}

func (r *idleReader) Read(p []byte) (int, error) {
	n, err := r.body.Read(p)
	if r.idle.Load() {
		return n, fmt.Errorf("%w: nothing received for %s", ErrStreamIdle, r.timeout)
	}
	if n > 0 && r.timer != nil {
		r.timer.Reset(r.timeout)
	}
	return n, err
}

func (r *idleReader) Close() error {
	if r.timer != nil {
		r.timer.Stop()
	}
	return r.body.Close()
}

// eventReader splits a text/event-stream body into events.
type eventReader struct {
	scanner *bufio.Scanner
}

func newEventReader(r io.Reader) *eventReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)
	return &eventReader{scanner: scanner}
}

// Next returns the name and data of the next event. Comment lines are skipped
// and an event without a name is reported as "message".
func (r *eventReader) Next() (string, []byte, error) {
	var (
		name string
		data bytes.Buffer
		seen bool
	)

	for r.scanner.Scan() {
		line := r.scanner.Text()

		switch {
		case line == "":
			if !seen {
				continue
			}
			if name == "" {
				name = "message"
			}
			return name, data.Bytes(), nil

		case strings.HasPrefix(line, ":"):
			continue

		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			seen = true

		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
			seen = true
		}
	}

	if err := r.scanner.Err(); err != nil {
		return "", nil, err
	}
	return "", nil, io.EOF
}

