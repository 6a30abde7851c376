package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/smartwallet/core"
)

func TestMemoryStoreMissingAccount(t *testing.T) {
	s := NewMemoryStore()
	acc, err := s.GetAccount(context.Background(), core.Address{1})
	require.NoError(t, err)
	assert.Nil(t, acc)
}

func TestMemoryStoreCommit(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a, b := core.Address{1}, core.Address{2}

	written := &core.Account{Lamports: 10, Owner: core.ProgramID, Data: []byte{1, 2, 3}}
	require.NoError(t, s.CommitAccounts(ctx, map[core.Address]*core.Account{
		a: written,
		b: {Lamports: 5},
	}))

	// the store keeps its own copy
	written.Data[0] = 9
	got, err := s.GetAccount(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got.Data)
	assert.Equal(t, core.ProgramID, got.Owner)

	got.Lamports = 0
	again, err := s.GetAccount(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), again.Lamports)

	require.NoError(t, s.CommitAccounts(ctx, map[core.Address]*core.Account{b: {}}))
	gone, err := s.GetAccount(ctx, b)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestAccountEncoding(t *testing.T) {
	acc := &core.Account{Lamports: 42, Owner: core.DefaultRuleID, Executable: true, Data: []byte("rule")}
	decoded, err := decodeAccount(encodeAccount(acc))
	require.NoError(t, err)
	assert.Equal(t, acc, decoded)

	_, err = decodeAccount(encodeAccount(acc)[:20])
	assert.Error(t, err)
}
