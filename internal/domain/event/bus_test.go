package event_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/praxisworks/simforge/internal/domain/event"
)

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := event.NewBus(nil)
	var got []event.Envelope
	bus.Subscribe(event.KindSimulationStarted, "collector", func(env event.Envelope) {
		got = append(got, env)
	})

	env := event.New("sim-1", event.SimulationStarted{SimulationID: "sim-1"})
	bus.Publish(env)

	require.Len(t, got, 1)
	require.Equal(t, env.ID, got[0].ID)
}

func TestBusHistoryRoundTrip(t *testing.T) {
	bus := event.NewBus(nil)
	const n = 10
	var ids []string
	for i := 0; i < n; i++ {
		env := event.New(fmt.Sprintf("sim-%d", i), event.SimulationStarted{})
		ids = append(ids, env.ID)
		bus.Publish(env)
	}
	history := bus.History()
	require.Len(t, history, n)
	for i, env := range history {
		require.Equal(t, ids[i], env.ID, "history must preserve publish order")
	}
}

func TestBusHistoryBounded(t *testing.T) {
	bus := event.NewBus(nil).WithHistoryLimit(3)
	for i := 0; i < 5; i++ {
		bus.Publish(event.New(fmt.Sprintf("agg-%d", i), event.SimulationPaused{}))
	}
	history := bus.History()
	require.Len(t, history, 3)
	require.Equal(t, "agg-2", history[0].AggregateID)
}

func TestBusSubscribeIdempotent(t *testing.T) {
	bus := event.NewBus(nil)
	calls := 0
	handler := func(event.Envelope) { calls++ }
	bus.Subscribe(event.KindDocumentGenerated, "h", handler)
	bus.Subscribe(event.KindDocumentGenerated, "h", handler)

	bus.Publish(event.New("sim-1", event.DocumentGenerated{}))
	require.Equal(t, 1, calls)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := event.NewBus(nil)
	calls := 0
	bus.Subscribe(event.KindDocumentGenerated, "h", func(event.Envelope) { calls++ })
	bus.Unsubscribe(event.KindDocumentGenerated, "h")
	bus.Unsubscribe(event.KindDocumentGenerated, "h") // second removal is a no-op

	bus.Publish(event.New("sim-1", event.DocumentGenerated{}))
	require.Zero(t, calls)
}

func TestBusPanickingHandlerDoesNotAbortDelivery(t *testing.T) {
	bus := event.NewBus(nil)
	delivered := false
	bus.Subscribe(event.KindSimulationFailed, "bad", func(event.Envelope) { panic("handler bug") })
	bus.Subscribe(event.KindSimulationFailed, "good", func(event.Envelope) { delivered = true })

	sunk := false
	bus.WithSink(sinkFunc(func(event.Envelope) error { sunk = true; return nil }))

	bus.Publish(event.New("sim-1", event.SimulationFailed{Reason: "x"}))
	require.True(t, delivered)
	require.True(t, sunk)
}

func TestBusSinkFailureIsNonFatal(t *testing.T) {
	bus := event.NewBus(nil).WithSink(sinkFunc(func(event.Envelope) error {
		return errors.New("stream down")
	}))
	require.NotPanics(t, func() {
		bus.Publish(event.New("sim-1", event.SimulationCancelled{}))
	})
	require.Len(t, bus.History(), 1)
}

type sinkFunc func(event.Envelope) error

func (f sinkFunc) Publish(env event.Envelope) error { return f(env) }
