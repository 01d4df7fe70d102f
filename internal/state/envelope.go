package state

import (
	"encoding/json"
	"fmt"
)

// EnvelopeType is the only message type carried on the bus.
const EnvelopeType = "heartbeat"

// Envelope is the broadcast message unit: a tagged full-state snapshot.
// There are no deltas and no ordering token; the last received envelope
// wins. Sender carries the publishing context's id so transports can avoid
// echoing a message back to its origin.
type Envelope struct {
	Type   string `json:"type"`
	Sender string `json:"sender,omitempty"`
	State  State  `json:"state"`
}

// NewEnvelope wraps a snapshot for broadcast.
func NewEnvelope(sender string, s State) Envelope {
	return Envelope{Type: EnvelopeType, Sender: sender, State: s}
}

// Encode serializes an envelope for the wire.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEnvelope parses a wire frame. Frames of the wrong type decode with
// ok=false and are dropped by callers.
func DecodeEnvelope(data []byte) (Envelope, bool, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, false, fmt.Errorf("decoding envelope: %w", err)
	}
	return e, e.Type == EnvelopeType, nil
}
