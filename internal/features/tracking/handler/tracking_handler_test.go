package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"order-tracker/internal/core/auth"
	"order-tracker/internal/core/docstore"
	"order-tracker/internal/core/httpclient"
	orderstore "order-tracker/internal/features/orders/adapters"
	orders "order-tracker/internal/features/orders/domain"
	orderhandler "order-tracker/internal/features/orders/handler"
	orderservice "order-tracker/internal/features/orders/service"
	"order-tracker/internal/features/tracking/adapters"
	"order-tracker/internal/features/tracking/domain"
	"order-tracker/internal/features/tracking/ports"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "tracking-secret"

var (
	operator = orders.Actor{ID: "op-1", Operator: true}
	customer = orders.Actor{ID: "cust-1"}
)

type brokenFeed struct{}

func (brokenFeed) Subscribe(ctx context.Context, orderID string) (ports.Subscription, error) {
	return nil, errors.New("redis: connection refused")
}

type fixture struct {
	app    *fiber.App
	orders *orderservice.OrderService
}

func newFixture(t *testing.T, feed func(store docstore.Store) ports.Feed) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	store, err := docstore.NewRedisStore("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	svc := orderservice.NewOrderService(orderstore.NewRedisOrderRepository(store, 5), nil)
	h := NewTrackingHandler(svc, feed(store), 10*time.Millisecond, 20*time.Millisecond)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "test-ray-id")
		return c.Next()
	})
	app.Use(auth.Middleware(testSecret))
	app.Get("/orders/:id/timeline", h.GetTimeline)
	app.Get("/orders/:id/stream", h.Stream)

	return &fixture{app: app, orders: svc}
}

func redisFeed(store docstore.Store) ports.Feed { return adapters.NewRedisFeed(store) }

func token(t *testing.T, actor orders.Actor) string {
	t.Helper()
	role := auth.RoleCustomer
	if actor.Operator {
		role = auth.RoleOperator
	}
	tok, err := auth.IssueToken(testSecret, actor.ID, role, time.Hour)
	require.NoError(t, err)
	return tok
}

func (f *fixture) place(t *testing.T) *orders.Order {
	t.Helper()
	order, err := f.orders.PlaceOrder(context.Background(), customer.ID, []orders.LineItem{
		{Name: "Kettle", UnitPrice: 24.5, Quantity: 1},
	})
	require.NoError(t, err)
	return order
}

func (f *fixture) get(t *testing.T, path string, actor orders.Actor) *http.Response {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	req.Header.Set("Authorization", "Bearer "+token(t, actor))
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestTrackingHandler_GetTimeline(t *testing.T) {
	f := newFixture(t, redisFeed)
	order := f.place(t)

	_, err := f.orders.AppendEvent(context.Background(), operator, order.ID, orders.StatusOutForDelivery, "Koramangala", "With courier")
	require.NoError(t, err)

	resp := f.get(t, "/orders/"+order.ID+"/timeline", customer)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body TimelineResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, order.ID, body.OrderID)
	assert.False(t, body.Timeline.Special)
	require.Len(t, body.Timeline.Stages, 5)
	assert.True(t, body.Timeline.Stages[3].Current)
	assert.False(t, body.Timeline.Stages[4].Complete)
	require.NotNil(t, body.LastEvent)
	assert.Equal(t, "Koramangala", body.LastEvent.Location)
}

func TestTrackingHandler_GetTimeline_Special(t *testing.T) {
	f := newFixture(t, redisFeed)
	order := f.place(t)

	_, err := f.orders.RequestCancellation(context.Background(), customer, order.ID, "Ordered twice")
	require.NoError(t, err)

	resp := f.get(t, "/orders/"+order.ID+"/timeline", customer)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body TimelineResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Timeline.Special)
	assert.Equal(t, "Cancellation Requested", body.Timeline.Label)
	assert.Empty(t, body.Timeline.Stages)
}

func TestTrackingHandler_GetTimeline_NotVisible(t *testing.T) {
	f := newFixture(t, redisFeed)
	order := f.place(t)

	resp := f.get(t, "/orders/"+order.ID+"/timeline", orders.Actor{ID: "someone-else"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.get(t, "/orders/missing/timeline", operator)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTrackingHandler_Stream_UnableToLoad(t *testing.T) {
	f := newFixture(t, func(docstore.Store) ports.Feed { return brokenFeed{} })
	order := f.place(t)

	resp := f.get(t, "/orders/"+order.ID+"/stream", customer)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body orderhandler.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Unable to load tracking", body.Message)
	assert.Equal(t, "test-ray-id", body.RayID)
}

func TestTrackingHandler_Stream_NotFound(t *testing.T) {
	f := newFixture(t, redisFeed)

	resp := f.get(t, "/orders/missing/stream", customer)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body orderhandler.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Order not found", body.Message)
	assert.Equal(t, "test-ray-id", body.RayID)
}

// TestTrackingHandler_ErrorBodyMatchesOrders checks tracking errors use the same
// body as the order routes, including the fallback ray id.
func TestTrackingHandler_ErrorBodyMatchesOrders(t *testing.T) {
	h := NewTrackingHandler(nil, brokenFeed{}, time.Millisecond, time.Millisecond)
	app := fiber.New()
	app.Get("/orders/:id/timeline", h.GetTimeline)

	resp, err := app.Test(httptest.NewRequest("GET", "/orders/ord-1/timeline", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var raw map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.Equal(t, map[string]string{"message": "unauthorized", "ray_id": "unknown"}, raw)
}

func TestTrackingHandler_Stream_Live(t *testing.T) {
	f := newFixture(t, redisFeed)
	order := f.place(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = f.app.Listener(ln) }()
	defer f.app.ShutdownWithTimeout(2 * time.Second)

	client := httpclient.NewClient(0, httpclient.WithBearerToken(token(t, customer)))
	feed := adapters.NewSSEFeed("http://"+ln.Addr().String(), client)

	sub, err := feed.Subscribe(context.Background(), order.ID)
	require.NoError(t, err)
	defer sub.Close()

	first := receive(t, sub)
	assert.Equal(t, orders.StatusPending, first.Status)

	_, err = f.orders.AppendEvent(context.Background(), operator, order.ID, orders.StatusShipped, "Hyderabad Hub", "Left origin facility")
	require.NoError(t, err)

	second := receive(t, sub)
	assert.Equal(t, orders.StatusShipped, second.Status)
	require.Len(t, second.TrackingHistory, 1)
	assert.Equal(t, "Hyderabad Hub", second.TrackingHistory[0].Location)
}

func receive(t *testing.T, sub ports.Subscription) *orders.Order {
	t.Helper()
	select {
	case o, ok := <-sub.Updates():
		require.True(t, ok, "stream ended: %v", sub.Err())
		return o
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for the stream")
		return nil
	}
}

func TestWriteEvents(t *testing.T) {
	events := make(chan domain.Event, 3)
	events <- domain.SnapshotEvent(&orders.Order{ID: "ord-1", Status: orders.StatusShipped, Version: 2})
	events <- domain.NoticeEvent(domain.StatusNotice{OrderID: "ord-1", From: orders.StatusProcessing, To: orders.StatusShipped})
	events <- domain.ConnectionEvent(domain.ConnectionReconnecting)
	close(events)

	var buf bytes.Buffer
	require.NoError(t, writeEvents(bufio.NewWriter(&buf), events, time.Hour))

	out := buf.String()
	assert.Contains(t, out, "event: snapshot\ndata: {")
	assert.Contains(t, out, "event: status_changed\ndata: {")
	assert.Contains(t, out, "event: connection\ndata: {\"kind\":\"connection\",\"state\":\"reconnecting\"}\n\n")
	assert.Equal(t, 3, strings.Count(out, "\n\n"))
}

type goneWriter struct {
	written bytes.Buffer
}

func (w *goneWriter) Write(p []byte) (int, error) {
	w.written.Write(p)
	return 0, errors.New("client gone")
}

func TestWriteEvents_HeartbeatDetectsGoneClient(t *testing.T) {
	w := &goneWriter{}
	events := make(chan domain.Event)

	err := writeEvents(bufio.NewWriter(w), events, 5*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, w.written.String(), ": heartbeat")
}
