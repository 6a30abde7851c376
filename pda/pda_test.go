package pda

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/smartwallet/core"
)

func TestFindIsOffCurveAndReproducible(t *testing.T) {
	d, err := Find(core.ProgramID, []byte("config"))
	require.NoError(t, err)
	assert.False(t, isOnCurve(d.Address()))
	assert.Equal(t, core.ProgramID, d.Program())

	again, err := Find(core.ProgramID, []byte("config"))
	require.NoError(t, err)
	assert.Equal(t, d, again)

	addr, err := CreateProgramAddress(d.SignerSeeds(), core.ProgramID)
	require.NoError(t, err)
	assert.Equal(t, d.Address(), addr)

	rebuilt, err := WithBump(core.ProgramID, d.Bump(), []byte("config"))
	require.NoError(t, err)
	assert.Equal(t, d.Address(), rebuilt.Address())
}

func TestAddressDependsOnProgramAndSeeds(t *testing.T) {
	a := MustFind(core.ProgramID, []byte("config"))
	b := MustFind(core.DefaultRuleID, []byte("config"))
	c := MustFind(core.ProgramID, []byte("whitelist_rule_programs"))
	assert.NotEqual(t, a.Address(), b.Address())
	assert.NotEqual(t, a.Address(), c.Address())
}

func TestSeedLimits(t *testing.T) {
	_, err := CreateProgramAddress([][]byte{bytes.Repeat([]byte{1}, MaxSeedLength+1)}, core.ProgramID)
	assert.ErrorIs(t, err, ErrSeeds)

	seeds := make([][]byte, MaxSeeds+1)
	for i := range seeds {
		seeds[i] = []byte{byte(i)}
	}
	_, err = CreateProgramAddress(seeds, core.ProgramID)
	assert.ErrorIs(t, err, ErrSeeds)
}

func TestOnCurveDetection(t *testing.T) {
	// ed25519 base point
	var base core.Address
	base[0] = 0x58
	for i := 1; i < len(base); i++ {
		base[i] = 0x66
	}
	assert.True(t, isOnCurve(base))
}

func TestExpect(t *testing.T) {
	d := MustFind(core.ProgramID, []byte("authority"))
	require.NoError(t, d.Expect(d.Address()))
	assert.ErrorIs(t, d.Expect(core.ProgramID), core.ErrInvalidBump)
}

func TestWalletAddresses(t *testing.T) {
	w0, err := Wallet(core.ProgramID, 0)
	require.NoError(t, err)
	w1, err := Wallet(core.ProgramID, 1)
	require.NoError(t, err)
	assert.NotEqual(t, w0.Address(), w1.Address())
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0}, WalletSeeds(1)[1])

	var pk core.Passkey
	pk[0] = 0x02
	a0, err := Authenticator(core.ProgramID, pk, w0.Address())
	require.NoError(t, err)
	a1, err := Authenticator(core.ProgramID, pk, w1.Address())
	require.NoError(t, err)
	assert.NotEqual(t, a0.Address(), a1.Address())

	c0, err := WalletConfig(core.ProgramID, w0.Address())
	require.NoError(t, err)
	assert.NotEqual(t, w0.Address(), c0.Address())
}
