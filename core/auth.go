package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// PasskeyLength is the size of a compressed P-256 public key.
const PasskeyLength = 33

// SignatureLength is the size of a raw r||s P-256 signature.
const SignatureLength = 64

// Passkey is a compressed secp256r1 public key (0x02/0x03 prefix + X).
type Passkey [PasskeyLength]byte

// ParsePasskey decodes a hex encoded compressed public key.
func ParsePasskey(s string) (Passkey, error) {
	var p Passkey
	b, err := hex.DecodeString(trimHex(s))
	if err != nil || len(b) != PasskeyLength {
		return p, fmt.Errorf("%w: %q", ErrInvalidPasskey, s)
	}
	copy(p[:], b)
	return p, nil
}

func (p Passkey) String() string { return hex.EncodeToString(p[:]) }

func (p Passkey) Bytes() []byte { return p[:] }

func (p Passkey) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Passkey) UnmarshalText(text []byte) error {
	parsed, err := ParsePasskey(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// AuthenticatorSeed binds a passkey to a wallet. It is the only seed of the
// authenticator record address.
func AuthenticatorSeed(passkey Passkey, wallet Address) [32]byte {
	h := sha256.New()
	h.Write(passkey[:])
	h.Write(wallet[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func trimHex(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
