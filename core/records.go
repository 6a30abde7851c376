package core

import (
	"fmt"

	"github.com/layer-3/smartwallet/internal/layout"
)

// Record discriminants, stored as the first data byte of every engine record.
const (
	KindConfig        uint8 = 1
	KindWhitelist     uint8 = 2
	KindSequence      uint8 = 3
	KindWalletConfig  uint8 = 4
	KindAuthenticator uint8 = 5
)

// Encoded record sizes, discriminant included.
const (
	ConfigSize        = 1 + 32 + 8 + 32 + 8 + 8 + 1 + 1
	WhitelistSize     = 1 + 4 + MaxWhitelistEntries*AddressLength + 1
	SequenceSize      = 1 + 8 + 1
	WalletConfigSize  = 1 + 8 + 32 + 1
	AuthenticatorSize = 1 + PasskeyLength + 32 + 8 + 1
)

// Config holds the engine-wide tunables.
type Config struct {
	Admin                  Address
	CreateWalletFee        uint64
	DefaultRuleProgram     Address
	ReplayWindow           int64
	ReimbursementAllowance uint64
	AuthorityBump          uint8
	Bump                   uint8
}

// Whitelist is the ordered set of rule programs wallets may use.
type Whitelist struct {
	Programs []Address
	Bump     uint8
}

// Contains reports whether p is whitelisted.
func (w *Whitelist) Contains(p Address) bool {
	for _, q := range w.Programs {
		if q == p {
			return true
		}
	}
	return false
}

// Sequence numbers wallets.
type Sequence struct {
	Seq  uint64
	Bump uint8
}

// WalletConfig is the per-wallet record.
type WalletConfig struct {
	ID          uint64
	RuleProgram Address
	Bump        uint8
}

// Authenticator is a passkey enrolled on a wallet. Nonce is the replay
// counter for messages signed by this passkey.
type Authenticator struct {
	Passkey Passkey
	Wallet  Address
	Nonce   uint64
	Bump    uint8
}

// MarshalBinary encodes the Config record.
func (c *Config) MarshalBinary() ([]byte, error) {
	w := layout.NewWriter(ConfigSize)
	w.U8(KindConfig)
	w.Raw(c.Admin[:])
	w.U64(c.CreateWalletFee)
	w.Raw(c.DefaultRuleProgram[:])
	w.I64(c.ReplayWindow)
	w.U64(c.ReimbursementAllowance)
	w.U8(c.AuthorityBump)
	w.U8(c.Bump)
	return w.Bytes(), nil
}

// UnmarshalBinary decodes a Config record.
func (c *Config) UnmarshalBinary(data []byte) error {
	r, err := recordReader(data, KindConfig, ConfigSize)
	if err != nil {
		return err
	}
	r.Raw(c.Admin[:])
	c.CreateWalletFee = r.U64()
	r.Raw(c.DefaultRuleProgram[:])
	c.ReplayWindow = r.I64()
	c.ReimbursementAllowance = r.U64()
	c.AuthorityBump = r.U8()
	c.Bump = r.U8()
	return r.Err()
}

// MarshalBinary encodes the Whitelist record.
func (wl *Whitelist) MarshalBinary() ([]byte, error) {
	if len(wl.Programs) > MaxWhitelistEntries {
		return nil, ErrWhitelistFull
	}
	w := layout.NewWriter(WhitelistSize)
	w.U8(KindWhitelist)
	w.U32(uint32(len(wl.Programs)))
	for _, p := range wl.Programs {
		w.Raw(p[:])
	}
	w.Raw(make([]byte, (MaxWhitelistEntries-len(wl.Programs))*AddressLength))
	w.U8(wl.Bump)
	return w.Bytes(), nil
}

// UnmarshalBinary decodes a Whitelist record.
func (wl *Whitelist) UnmarshalBinary(data []byte) error {
	r, err := recordReader(data, KindWhitelist, WhitelistSize)
	if err != nil {
		return err
	}
	n := r.U32()
	if n > MaxWhitelistEntries {
		return fmt.Errorf("%w: whitelist length %d", ErrInvalidAccountData, n)
	}
	wl.Programs = make([]Address, n)
	for i := range wl.Programs {
		r.Raw(wl.Programs[i][:])
	}
	r.Raw(make([]byte, (MaxWhitelistEntries-int(n))*AddressLength))
	wl.Bump = r.U8()
	return r.Err()
}

// MarshalBinary encodes the Sequence record.
func (s *Sequence) MarshalBinary() ([]byte, error) {
	w := layout.NewWriter(SequenceSize)
	w.U8(KindSequence)
	w.U64(s.Seq)
	w.U8(s.Bump)
	return w.Bytes(), nil
}

// UnmarshalBinary decodes a Sequence record.
func (s *Sequence) UnmarshalBinary(data []byte) error {
	r, err := recordReader(data, KindSequence, SequenceSize)
	if err != nil {
		return err
	}
	s.Seq = r.U64()
	s.Bump = r.U8()
	return r.Err()
}

// MarshalBinary encodes the WalletConfig record.
func (c *WalletConfig) MarshalBinary() ([]byte, error) {
	w := layout.NewWriter(WalletConfigSize)
	w.U8(KindWalletConfig)
	w.U64(c.ID)
	w.Raw(c.RuleProgram[:])
	w.U8(c.Bump)
	return w.Bytes(), nil
}

// UnmarshalBinary decodes a WalletConfig record.
func (c *WalletConfig) UnmarshalBinary(data []byte) error {
	r, err := recordReader(data, KindWalletConfig, WalletConfigSize)
	if err != nil {
		return err
	}
	c.ID = r.U64()
	r.Raw(c.RuleProgram[:])
	c.Bump = r.U8()
	return r.Err()
}

// MarshalBinary encodes the Authenticator record.
func (a *Authenticator) MarshalBinary() ([]byte, error) {
	w := layout.NewWriter(AuthenticatorSize)
	w.U8(KindAuthenticator)
	w.Raw(a.Passkey[:])
	w.Raw(a.Wallet[:])
	w.U64(a.Nonce)
	w.U8(a.Bump)
	return w.Bytes(), nil
}

// UnmarshalBinary decodes a Authenticator record.
func (a *Authenticator) UnmarshalBinary(data []byte) error {
	r, err := recordReader(data, KindAuthenticator, AuthenticatorSize)
	if err != nil {
		return err
	}
	r.Raw(a.Passkey[:])
	r.Raw(a.Wallet[:])
	a.Nonce = r.U64()
	a.Bump = r.U8()
	return r.Err()
}

// AdvanceNonce increments the replay counter.
func (a *Authenticator) AdvanceNonce() error {
	if a.Nonce == ^uint64(0) {
		return ErrArithmeticOverflow
	}
	a.Nonce++
	return nil
}

func recordReader(data []byte, kind uint8, size int) (*layout.Reader, error) {
	if len(data) != size {
		return nil, fmt.Errorf("%w: size %d, want %d", ErrInvalidAccountData, len(data), size)
	}
	if data[0] != kind {
		return nil, fmt.Errorf("%w: discriminant %d, want %d", ErrInvalidAccountData, data[0], kind)
	}
	r := layout.NewReader(data)
	r.U8()
	return r, nil
}
