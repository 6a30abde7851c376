package core

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
)

// AddressLength is the size of an account address in bytes.
const AddressLength = 32

// Address identifies an account or a program.
type Address [AddressLength]byte

// ParseAddress decodes a base58 address.
func ParseAddress(s string) (Address, error) {
	var a Address
	b := base58.Decode(s)
	if len(b) != AddressLength {
		return a, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	copy(a[:], b)
	return a, nil
}

// MustParseAddress is like ParseAddress but panics on malformed input.
// It is meant for well-known program ids.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AddressFromBytes copies b into an Address. b must be 32 bytes long.
func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressLength {
		return a, fmt.Errorf("%w: length %d", ErrInvalidAddress, len(b))
	}
	copy(a[:], b)
	return a, nil
}

func (a Address) String() string { return base58.Encode(a[:]) }

func (a Address) Bytes() []byte { return a[:] }

func (a Address) IsZero() bool { return a == Address{} }

func (a Address) Equal(b Address) bool { return bytes.Equal(a[:], b[:]) }

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
