package bus_test

import (
	"testing"
	"time"

	"github.com/betterstudio/studio-sync/internal/bus"
	"github.com/betterstudio/studio-sync/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBus(t *testing.T) {
	t.Run("delivers to all subscribers in order", func(t *testing.T) {
		b := bus.NewMemory()
		defer b.Close()

		var got []string
		b.Subscribe(func(env state.Envelope) {
			got = append(got, env.State.Config.Model)
		})

		for _, m := range []string{"a", "b", "c"} {
			s := state.Default()
			s.Config.Model = m
			require.NoError(t, b.Publish(state.NewEnvelope("ctx", s)))
		}
		assert.Equal(t, []string{"a", "b", "c"}, got)
	})

	t.Run("publish with no listeners is a no-op", func(t *testing.T) {
		b := bus.NewMemory()
		defer b.Close()
		assert.NoError(t, b.Publish(state.NewEnvelope("ctx", state.Default())))
	})

	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		b := bus.NewMemory()
		defer b.Close()

		calls := 0
		unsub := b.Subscribe(func(state.Envelope) { calls++ })
		require.NoError(t, b.Publish(state.NewEnvelope("ctx", state.Default())))
		unsub()
		require.NoError(t, b.Publish(state.NewEnvelope("ctx", state.Default())))
		assert.Equal(t, 1, calls)
	})
}

func TestHubRelay(t *testing.T) {
	h := bus.NewHub(nil)
	require.NoError(t, h.Start("127.0.0.1:0"))
	defer h.Close()

	c1, err := bus.Dial(h.Addr(), "ctx-1", nil)
	require.NoError(t, err)
	defer c1.Close()

	c2, err := bus.Dial(h.Addr(), "ctx-2", nil)
	require.NoError(t, err)
	defer c2.Close()

	received1 := make(chan state.Envelope, 4)
	received2 := make(chan state.Envelope, 4)
	c1.Subscribe(func(env state.Envelope) { received1 <- env })
	c2.Subscribe(func(env state.Envelope) { received2 <- env })

	s := state.Default()
	s.Config.Model = "gemini-3-flash"
	require.NoError(t, c1.Publish(state.NewEnvelope("ctx-1", s)))

	select {
	case env := <-received2:
		assert.Equal(t, "gemini-3-flash", env.State.Config.Model)
		assert.Equal(t, "ctx-1", env.Sender)
	case <-time.After(3 * time.Second):
		t.Fatal("envelope never relayed")
	}

	// The hub must not echo to the sender.
	select {
	case <-received1:
		t.Fatal("sender received its own envelope")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestHubRefusesNonLoopback(t *testing.T) {
	h := bus.NewHub(nil)
	assert.Error(t, h.Start("0.0.0.0:0"))
}
