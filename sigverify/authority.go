package sigverify

import (
	"fmt"
	"math"

	"github.com/layer-3/smartwallet/core"
)

// Authority checks a signed message against an authenticator's state.
type Authority struct {
	// Window is the accepted distance, in seconds, between the message
	// timestamp and the current time, in either direction.
	Window int64
}

// NewAuthority returns a validator with the given window. A negative window
// is treated as zero.
func NewAuthority(window int64) Authority {
	if window < 0 {
		window = 0
	}
	return Authority{Window: window}
}

// Validate checks freshness first, then the nonce, then the key, and returns
// the payload for the caller to interpret. A timestamp exactly Window away
// from now is accepted.
func (a Authority) Validate(msg *core.Message, now int64, nonce uint64, stored, presented core.Passkey) ([]byte, error) {
	if msg.Timestamp > saturatingAdd(now, a.Window) {
		return nil, fmt.Errorf("%w: timestamp %d, now %d", core.ErrInvalidTimestamp, msg.Timestamp, now)
	}
	if now > saturatingAdd(msg.Timestamp, a.Window) {
		return nil, fmt.Errorf("%w: timestamp %d, now %d", core.ErrSignatureExpired, msg.Timestamp, now)
	}
	if msg.Nonce != nonce {
		return nil, fmt.Errorf("%w: expected %d, got %d", core.ErrInvalidNonce, nonce, msg.Nonce)
	}
	if stored != presented {
		return nil, core.ErrInvalidPubkey
	}
	return msg.Payload, nil
}

func saturatingAdd(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	if b < 0 && a < math.MinInt64-b {
		return math.MinInt64
	}
	return a + b
}
