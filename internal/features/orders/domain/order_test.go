package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	order, err := NewOrder("ord-1", "ORD-0000000001", "cust-1", []LineItem{
		{Name: "Kettle", UnitPrice: 24.5, Quantity: 1},
	}, testNow)
	require.NoError(t, err)
	return order
}

func TestNewOrder(t *testing.T) {
	tests := []struct {
		name        string
		customerID  string
		items       []LineItem
		expectedErr error
	}{
		{
			name:       "Valid order",
			customerID: "cust-1",
			items:      []LineItem{{Name: "Kettle", UnitPrice: 24.5, Quantity: 2, Image: "https://cdn.example.com/k.jpg"}},
		},
		{
			name:        "Missing customer",
			items:       []LineItem{{Name: "Kettle", UnitPrice: 1, Quantity: 1}},
			expectedErr: ErrValidation,
		},
		{
			name:        "No items",
			customerID:  "cust-1",
			expectedErr: ErrValidation,
		},
		{
			name:        "Zero quantity",
			customerID:  "cust-1",
			items:       []LineItem{{Name: "Kettle", UnitPrice: 1, Quantity: 0}},
			expectedErr: ErrValidation,
		},
		{
			name:        "Negative price",
			customerID:  "cust-1",
			items:       []LineItem{{Name: "Kettle", UnitPrice: -1, Quantity: 1}},
			expectedErr: ErrValidation,
		},
		{
			name:        "Blank item name",
			customerID:  "cust-1",
			items:       []LineItem{{Name: "  ", UnitPrice: 1, Quantity: 1}},
			expectedErr: ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := NewOrder("ord-1", "ORD-1", tt.customerID, tt.items, testNow)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, order)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, StatusPending, order.Status)
			assert.Empty(t, order.TrackingHistory)
			assert.Equal(t, tt.items, order.Items)
			assert.Equal(t, testNow, order.CreatedAt)
			assert.Equal(t, int64(1), order.Version)
		})
	}
}

func TestOrder_Advance(t *testing.T) {
	order := newTestOrder(t)
	order.Status = StatusProcessing

	err := order.Advance(StatusShipped, "Hyderabad Hub", "Left origin facility", testNow)
	require.NoError(t, err)

	assert.Equal(t, StatusShipped, order.Status)
	require.Len(t, order.TrackingHistory, 1)
	event := order.TrackingHistory[0]
	assert.Equal(t, StatusShipped, event.Status)
	assert.Equal(t, "Hyderabad Hub", event.Location)
	assert.Equal(t, "Left origin facility", event.Description)
	assert.Equal(t, testNow, event.Timestamp)
}

func TestOrder_Advance_Rejected(t *testing.T) {
	t.Run("EmptyLocation", func(t *testing.T) {
		order := newTestOrder(t)
		err := order.Advance(StatusProcessing, "   ", "", testNow)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, StatusPending, order.Status)
		assert.Empty(t, order.TrackingHistory)
	})

	t.Run("FromDelivered", func(t *testing.T) {
		order := newTestOrder(t)
		order.Status = StatusDelivered
		err := order.Advance(StatusProcessing, "Warehouse", "", testNow)

		var terr *TransitionError
		require.ErrorAs(t, err, &terr)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, "cannot transition from delivered", terr.Reason)
		assert.Equal(t, StatusDelivered, order.Status)
		assert.Empty(t, order.TrackingHistory)
	})
}

func TestOrder_Record_TimestampNeverGoesBack(t *testing.T) {
	order := newTestOrder(t)

	require.NoError(t, order.Advance(StatusProcessing, "Warehouse", "", testNow))
	require.NoError(t, order.Advance(StatusShipped, "Hub", "", testNow.Add(-time.Minute)))

	require.Len(t, order.TrackingHistory, 2)
	assert.Equal(t, testNow, order.TrackingHistory[1].Timestamp)
}

func TestOrder_CancellationDeclined(t *testing.T) {
	order := newTestOrder(t)

	require.NoError(t, order.RequestCancellation("Ordered by mistake", testNow))
	assert.Equal(t, StatusCancellationPending, order.Status)
	assert.Equal(t, StatusPending, order.PreviousStatus)
	assert.Equal(t, "Ordered by mistake", order.CancellationReason)

	last, ok := order.LastEvent()
	require.True(t, ok)
	assert.Equal(t, CancellationRequestLocation, last.Location)
	assert.Equal(t, "Ordered by mistake", last.Description)

	to, err := order.ResolveCancellation(false, "Already packed", testNow.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, StatusPending, to)
	assert.Equal(t, StatusPending, order.Status)
	assert.Empty(t, order.PreviousStatus)
	assert.Empty(t, order.CancellationReason)
	assert.Len(t, order.TrackingHistory, 2)
	assert.Equal(t, "Ordered by mistake", order.TrackingHistory[0].Description)
}

func TestOrder_Advance_CancellationOnlyThroughReview(t *testing.T) {
	t.Run("IntoCancellationPending", func(t *testing.T) {
		order := newTestOrder(t)
		err := order.Advance(StatusCancellationPending, "Desk", "", testNow)

		var terr *TransitionError
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, "cancellation must be requested by the customer", terr.Reason)
		assert.Equal(t, StatusPending, order.Status)
		assert.Empty(t, order.PreviousStatus)
		assert.Empty(t, order.TrackingHistory)
	})

	t.Run("OutOfCancellationPending", func(t *testing.T) {
		order := newTestOrder(t)
		require.NoError(t, order.RequestCancellation("Ordered by mistake", testNow))

		for _, to := range []Status{StatusPending, StatusCancelled} {
			err := order.Advance(to, "Desk", "", testNow)
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s", to)
		}
		assert.Equal(t, StatusCancellationPending, order.Status)
		assert.Equal(t, "Ordered by mistake", order.CancellationReason)
		assert.Len(t, order.TrackingHistory, 1)
	})
}

func TestOrder_CancellationApproved(t *testing.T) {
	order := newTestOrder(t)
	order.Status = StatusProcessing

	require.NoError(t, order.RequestCancellation("Found it cheaper", testNow))
	to, err := order.ResolveCancellation(true, "", testNow)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, to)
	assert.Equal(t, StatusProcessing, order.PreviousStatus)

	err = order.Advance(StatusShipped, "Hub", "", testNow)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestOrder_RequestCancellation_Rejected(t *testing.T) {
	t.Run("BlankReason", func(t *testing.T) {
		order := newTestOrder(t)
		assert.ErrorIs(t, order.RequestCancellation(" ", testNow), ErrValidation)
	})

	t.Run("AfterShipping", func(t *testing.T) {
		order := newTestOrder(t)
		order.Status = StatusShipped
		assert.ErrorIs(t, order.RequestCancellation("Too slow", testNow), ErrInvalidTransition)
		assert.Empty(t, order.PreviousStatus)
	})

	t.Run("NothingPending", func(t *testing.T) {
		order := newTestOrder(t)
		_, err := order.ResolveCancellation(true, "", testNow)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestOrder_MarkReturned(t *testing.T) {
	order := newTestOrder(t)

	err := order.MarkReturned("Returns desk", "", testNow)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	order.Status = StatusDelivered
	require.NoError(t, order.MarkReturned("Returns desk", "Damaged box", testNow))
	assert.Equal(t, StatusReturned, order.Status)

	err = order.MarkReturned("Returns desk", "", testNow)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestOrder_JSONRoundTrip(t *testing.T) {
	order := newTestOrder(t)
	require.NoError(t, order.RequestCancellation("Changed my mind", testNow))

	data, err := json.Marshal(order)
	require.NoError(t, err)

	var decoded Order
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, order.Status, decoded.Status)
	assert.Equal(t, order.PreviousStatus, decoded.PreviousStatus)
	assert.Equal(t, order.CancellationReason, decoded.CancellationReason)
	assert.Equal(t, order.TrackingHistory, decoded.TrackingHistory)
}

func TestOrder_UnmarshalUnknownStatus(t *testing.T) {
	var decoded Order
	err := json.Unmarshal([]byte(`{"id":"1","status":"lost-in-space"}`), &decoded)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestActor_CanView(t *testing.T) {
	order := newTestOrder(t)

	assert.True(t, Actor{ID: "cust-1"}.CanView(order))
	assert.False(t, Actor{ID: "cust-2"}.CanView(order))
	assert.False(t, Actor{}.CanView(order))
	assert.True(t, Actor{ID: "op-1", Operator: true}.CanView(order))
	assert.False(t, Actor{Operator: true}.CanView(nil))
}
