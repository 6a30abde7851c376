// Package sdk builds engine transactions on the client side: passkey
// signing, verification records and the account lists every instruction
// expects.
package sdk

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"io"

	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/sigverify"
)

// Passkey is a P-256 signing key standing in for a platform authenticator.
type Passkey struct {
	key *ecdsa.PrivateKey
}

// GeneratePasskey creates a fresh key. A nil reader uses crypto/rand.
func GeneratePasskey(r io.Reader) (*Passkey, error) {
	if r == nil {
		r = rand.Reader
	}
	key, err := ecdsa.GenerateKey(elliptic.P256(), r)
	if err != nil {
		return nil, err
	}
	return &Passkey{key: key}, nil
}

// PasskeyFromKey wraps an existing P-256 key.
func PasskeyFromKey(key *ecdsa.PrivateKey) *Passkey {
	return &Passkey{key: key}
}

// PublicKey returns the compressed public key.
func (p *Passkey) PublicKey() core.Passkey {
	var out core.Passkey
	copy(out[:], elliptic.MarshalCompressed(elliptic.P256(), p.key.X, p.key.Y))
	return out
}

// Sign returns a low-S r||s signature over sha256(message).
func (p *Passkey) Sign(message []byte) ([]byte, error) {
	return sigverify.Sign(p.key, message, rand.Reader)
}
