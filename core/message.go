package core

import (
	"fmt"

	"github.com/layer-3/smartwallet/internal/layout"
)

// Message is what a passkey signs: the authenticator's current nonce, the
// signing time in unix seconds and an application payload.
type Message struct {
	Nonce     uint64
	Timestamp int64
	Payload   []byte
}

// Bytes returns the signed encoding of m.
func (m *Message) Bytes() []byte {
	w := layout.NewWriter(8 + 8 + 4 + len(m.Payload))
	w.U64(m.Nonce)
	w.I64(m.Timestamp)
	w.Vec(m.Payload)
	return w.Bytes()
}

// ParseMessage decodes a signed message. The whole input must be consumed.
func ParseMessage(b []byte) (*Message, error) {
	r := layout.NewReader(b)
	m := &Message{
		Nonce:     r.U64(),
		Timestamp: r.I64(),
		Payload:   r.Vec(),
	}
	if err := r.Finish(); err != nil {
		return nil, fmt.Errorf("%w: message: %v", ErrInvalidInstructionData, err)
	}
	return m, nil
}
