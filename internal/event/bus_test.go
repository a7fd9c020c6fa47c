package event

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBusFanOut(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	first, stopFirst := bus.Subscribe()
	second, stopSecond := bus.Subscribe()
	defer stopFirst()
	defer stopSecond()

	bus.Publish(Event{ID: "e1", Type: TypeLoginSucceeded})

	require.Equal(t, "e1", (<-first).ID)
	require.Equal(t, "e1", (<-second).ID)
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	events, unsubscribe := bus.Subscribe()

	unsubscribe()
	_, open := <-events
	require.False(t, open)

	// Publishing after unsubscribe must not panic on the closed channel.
	bus.Publish(Event{ID: "e1", Type: TypeLoginFailed})

	// Unsubscribing twice is safe.
	unsubscribe()
}

func TestBusPublishNeverBlocks(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	// Overfill the subscriber buffer; the extra events are dropped, not
	// queued against the publisher.
	for i := 0; i < subscriberBuffer+50; i++ {
		bus.Publish(Event{ID: "e", Type: TypeLoginFailed})
	}

	require.Len(t, events, subscriberBuffer)
}
