package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, s := range AllStatuses() {
		parsed, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseStatus("SHIPPED")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ParseStatus("")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestStatus_Label(t *testing.T) {
	assert.Equal(t, "Out for Delivery", StatusOutForDelivery.Label())
	assert.Equal(t, "Cancellation Requested", StatusCancellationPending.Label())
	assert.Equal(t, "mystery", Status("mystery").Label())
}

func TestStatus_Priority(t *testing.T) {
	for i, s := range LinearStages() {
		p, ok := s.Priority()
		assert.True(t, ok)
		assert.Equal(t, i, p)
	}

	_, ok := StatusCancelled.Priority()
	assert.False(t, ok)
}

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		name     string
		from     Status
		to       Status
		previous Status
		legal    bool
	}{
		{name: "pending to processing", from: StatusPending, to: StatusProcessing, legal: true},
		{name: "skip to out for delivery", from: StatusProcessing, to: StatusOutForDelivery, legal: true},
		{name: "another event at the same stage", from: StatusShipped, to: StatusShipped, legal: true},
		{name: "out for delivery to delivered", from: StatusOutForDelivery, to: StatusDelivered, legal: true},
		{name: "moving back", from: StatusShipped, to: StatusProcessing},
		{name: "request cancellation while pending", from: StatusPending, to: StatusCancellationPending, legal: true},
		{name: "request cancellation while processing", from: StatusProcessing, to: StatusCancellationPending, legal: true},
		{name: "request cancellation after shipping", from: StatusShipped, to: StatusCancellationPending},
		{name: "cancel without request", from: StatusPending, to: StatusCancelled},
		{name: "approve cancellation", from: StatusCancellationPending, to: StatusCancelled, previous: StatusPending, legal: true},
		{name: "decline cancellation", from: StatusCancellationPending, to: StatusProcessing, previous: StatusProcessing, legal: true},
		{name: "decline to a different stage", from: StatusCancellationPending, to: StatusShipped, previous: StatusProcessing},
		{name: "advance while cancellation pending", from: StatusCancellationPending, to: StatusShipped, previous: StatusShipped},
		{name: "return through the linear path", from: StatusOutForDelivery, to: StatusReturned},
		{name: "unknown target", from: StatusPending, to: Status("lost")},
		{name: "unknown current", from: Status("lost"), to: StatusProcessing},
		{name: "from delivered", from: StatusDelivered, to: StatusDelivered},
		{name: "from cancelled", from: StatusCancelled, to: StatusPending},
		{name: "from returned", from: StatusReturned, to: StatusProcessing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckTransition(tt.from, tt.to, tt.previous)
			if tt.legal {
				assert.NoError(t, err)
				return
			}

			var terr *TransitionError
			require.ErrorAs(t, err, &terr)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, tt.from, terr.From)
			assert.Equal(t, tt.to, terr.To)
			assert.NotEmpty(t, terr.Reason)
		})
	}
}

func TestCheckReturn(t *testing.T) {
	assert.NoError(t, CheckReturn(StatusDelivered))
	for _, s := range AllStatuses() {
		if s == StatusDelivered {
			continue
		}
		assert.ErrorIs(t, CheckReturn(s), ErrInvalidTransition, "from %s", s)
	}
}

func TestTransitionError_Message(t *testing.T) {
	err := CheckTransition(StatusDelivered, StatusProcessing, "")
	assert.EqualError(t, err, "invalid transition delivered -> processing: cannot transition from delivered")
}
