// Package pda derives program-owned addresses.
//
// A derived address is sha256(seeds || program || "ProgramDerivedAddress")
// that does not decode to an ed25519 point, so no private key can sign for
// it. Only the owning program can authorize it, by presenting the seeds.
package pda

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"filippo.io/edwards25519"

	"github.com/layer-3/smartwallet/core"
)

const (
	MaxSeeds      = 16
	MaxSeedLength = 32
)

var (
	// ErrOnCurve is returned when a candidate address is a valid curve point.
	ErrOnCurve = errors.New("pda: address is on curve")
	// ErrSeeds is returned for too many or too long seeds.
	ErrSeeds = errors.New("pda: invalid seeds")
	// ErrNoBump is returned when no bump yields an off-curve address.
	ErrNoBump = errors.New("pda: unable to find a viable bump")
)

var marker = []byte("ProgramDerivedAddress")

// CreateProgramAddress hashes seeds under program. The seeds must already
// include the bump.
func CreateProgramAddress(seeds [][]byte, program core.Address) (core.Address, error) {
	if len(seeds) > MaxSeeds {
		return core.Address{}, ErrSeeds
	}
	h := sha256.New()
	for _, s := range seeds {
		if len(s) > MaxSeedLength {
			return core.Address{}, ErrSeeds
		}
		h.Write(s)
	}
	h.Write(program[:])
	h.Write(marker)

	var addr core.Address
	copy(addr[:], h.Sum(nil))
	if isOnCurve(addr) {
		return core.Address{}, ErrOnCurve
	}
	return addr, nil
}

// FindProgramAddress returns the first off-curve address, trying bumps from
// 255 down to 0.
func FindProgramAddress(seeds [][]byte, program core.Address) (core.Address, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return core.Address{}, 0, ErrSeeds
	}
	withBump := append(append([][]byte(nil), seeds...), []byte{0})
	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)][0] = uint8(bump)
		addr, err := CreateProgramAddress(withBump, program)
		if err == nil {
			return addr, uint8(bump), nil
		}
		if !errors.Is(err, ErrOnCurve) {
			return core.Address{}, 0, err
		}
	}
	return core.Address{}, 0, ErrNoBump
}

func isOnCurve(a core.Address) bool {
	_, err := new(edwards25519.Point).SetBytes(a[:])
	return err == nil
}

// Derived is a program address together with the seeds that authorize it.
// It can only be produced by derivation, never from a raw address.
type Derived struct {
	address core.Address
	program core.Address
	seeds   [][]byte
	bump    uint8
}

// Find derives the canonical address for seeds under program.
func Find(program core.Address, seeds ...[]byte) (Derived, error) {
	addr, bump, err := FindProgramAddress(seeds, program)
	if err != nil {
		return Derived{}, err
	}
	return Derived{address: addr, program: program, seeds: seeds, bump: bump}, nil
}

// WithBump re-derives the address using a stored bump.
func WithBump(program core.Address, bump uint8, seeds ...[]byte) (Derived, error) {
	all := append(append([][]byte(nil), seeds...), []byte{bump})
	addr, err := CreateProgramAddress(all, program)
	if err != nil {
		return Derived{}, err
	}
	return Derived{address: addr, program: program, seeds: seeds, bump: bump}, nil
}

// Address is the derived program address.
func (d Derived) Address() core.Address { return d.address }

// Program is the program the address was derived for.
func (d Derived) Program() core.Address { return d.program }

// Bump is the seed byte that pushed the address off the curve.
func (d Derived) Bump() uint8 { return d.bump }

// SignerSeeds returns the seeds followed by the bump, the form a program
// presents when it signs for the address.
func (d Derived) SignerSeeds() [][]byte {
	out := make([][]byte, 0, len(d.seeds)+1)
	out = append(out, d.seeds...)
	return append(out, []byte{d.bump})
}

// Expect fails with core.ErrInvalidBump unless supplied is d's address.
func (d Derived) Expect(supplied core.Address) error {
	if supplied != d.address {
		return fmt.Errorf("%w: got %s, want %s", core.ErrInvalidBump, supplied, d.address)
	}
	return nil
}

// WalletSeeds are the seeds of wallet number id.
func WalletSeeds(id uint64) [][]byte {
	le := make([]byte, 8)
	binary.LittleEndian.PutUint64(le, id)
	return [][]byte{[]byte(core.SeedSmartWallet), le}
}

// Wallet derives the wallet address for id.
func Wallet(program core.Address, id uint64) (Derived, error) {
	return Find(program, WalletSeeds(id)...)
}

// WalletConfig derives the per-wallet config record address.
func WalletConfig(program, wallet core.Address) (Derived, error) {
	return Find(program, []byte(core.SeedWalletConfig), wallet.Bytes())
}

// Authenticator derives the record address binding passkey to wallet.
func Authenticator(program core.Address, passkey core.Passkey, wallet core.Address) (Derived, error) {
	seed := core.AuthenticatorSeed(passkey, wallet)
	return Find(program, seed[:])
}

// Singleton derives a single-seed record such as the engine config.
func Singleton(program core.Address, seed string) (Derived, error) {
	return Find(program, []byte(seed))
}

// MustFind is Find for seeds known to be valid. It panics otherwise.
func MustFind(program core.Address, seeds ...[]byte) Derived {
	d, err := Find(program, seeds...)
	if err != nil {
		panic(err)
	}
	return d
}
