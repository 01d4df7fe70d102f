package bus

import (
	"sync"

	"github.com/betterstudio/studio-sync/internal/state"
)

// Memory is an in-process bus for contexts living in one process (and for
// tests). Delivery is synchronous and in publish order to every
// subscriber; receivers drop envelopes carrying their own sender id.
type Memory struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(state.Envelope)
	closed bool
}

// NewMemory creates an empty in-process bus.
func NewMemory() *Memory {
	return &Memory{subs: map[int]func(state.Envelope){}}
}

// Publish delivers env to every subscriber. No listeners is not an error.
func (m *Memory) Publish(env state.Envelope) error {
	m.mu.Lock()
	handlers := make([]func(state.Envelope), 0, len(m.subs))
	if !m.closed {
		for _, h := range m.subs {
			handlers = append(handlers, h)
		}
	}
	m.mu.Unlock()

	for _, h := range handlers {
		h(env)
	}
	return nil
}

// Subscribe registers handler and returns its unsubscribe func.
func (m *Memory) Subscribe(handler func(state.Envelope)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.subs[id] = handler
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Close drops all subscribers.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = map[int]func(state.Envelope){}
	m.closed = true
	return nil
}
