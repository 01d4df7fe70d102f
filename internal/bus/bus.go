// Package bus carries full-state envelopes between same-session contexts
// with near-zero latency. The bus is best-effort and stateless: no replay,
// no acknowledgement, no delivery to the publisher itself, and publishing
// with no listeners is a no-op. Correctness never depends on it — contexts
// that miss a broadcast converge through the store's change watch.
package bus

import "github.com/betterstudio/studio-sync/internal/state"

// Bus is the publish/subscribe contract.
type Bus interface {
	// Publish sends the envelope to every other subscriber, best effort.
	Publish(env state.Envelope) error
	// Subscribe registers a handler invoked once per received envelope in
	// arrival order. The returned func unsubscribes.
	Subscribe(handler func(state.Envelope)) (unsubscribe func())
	Close() error
}
