package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSizes(t *testing.T) {
	cases := []struct {
		rec  interface{ MarshalBinary() ([]byte, error) }
		size int
	}{
		{&Config{ReplayWindow: 30}, ConfigSize},
		{&Whitelist{Programs: []Address{DefaultRuleID}}, WhitelistSize},
		{&Sequence{Seq: 1}, SequenceSize},
		{&WalletConfig{ID: 1}, WalletConfigSize},
		{&Authenticator{Nonce: 1}, AuthenticatorSize},
	}
	for _, c := range cases {
		b, err := c.rec.MarshalBinary()
		require.NoError(t, err)
		assert.Len(t, b, c.size)
	}
}

func TestConfigRecord(t *testing.T) {
	in := &Config{
		Admin:                  ProgramID,
		CreateWalletFee:        7,
		DefaultRuleProgram:     DefaultRuleID,
		ReplayWindow:           30,
		ReimbursementAllowance: 10_000,
		AuthorityBump:          254,
		Bump:                   253,
	}
	b, err := in.MarshalBinary()
	require.NoError(t, err)

	out := &Config{}
	require.NoError(t, out.UnmarshalBinary(b))
	assert.Equal(t, in, out)
}

func TestWhitelistRecord(t *testing.T) {
	in := &Whitelist{Programs: []Address{DefaultRuleID, TransferLimitID}, Bump: 250}
	b, err := in.MarshalBinary()
	require.NoError(t, err)

	out := &Whitelist{}
	require.NoError(t, out.UnmarshalBinary(b))
	assert.Equal(t, in, out)
	assert.True(t, out.Contains(TransferLimitID))
	assert.False(t, out.Contains(ProgramID))
}

func TestWhitelistFull(t *testing.T) {
	wl := &Whitelist{Programs: make([]Address, MaxWhitelistEntries+1)}
	_, err := wl.MarshalBinary()
	assert.ErrorIs(t, err, ErrWhitelistFull)
}

func TestRecordDiscriminant(t *testing.T) {
	b, err := (&Sequence{Seq: 4}).MarshalBinary()
	require.NoError(t, err)

	b[0] = KindWalletConfig
	assert.ErrorIs(t, (&Sequence{}).UnmarshalBinary(b), ErrInvalidAccountData)
	assert.ErrorIs(t, (&Sequence{}).UnmarshalBinary(b[:5]), ErrInvalidAccountData)
}

func TestAuthenticatorAdvanceNonce(t *testing.T) {
	a := &Authenticator{Nonce: 41}
	require.NoError(t, a.AdvanceNonce())
	assert.Equal(t, uint64(42), a.Nonce)

	a.Nonce = ^uint64(0)
	assert.ErrorIs(t, a.AdvanceNonce(), ErrArithmeticOverflow)
}
