package runtime

import (
	"context"
	"fmt"

	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/ports"
)

// NativeLoaderID owns every registered program account.
var NativeLoaderID = core.MustParseAddress("NativeLoader1111111111111111111111111111111")

// SysvarOwnerID owns sysvar accounts.
var SysvarOwnerID = core.MustParseAddress("Sysvar1111111111111111111111111111111111111")

// state is a copy-on-write overlay over the store for one transaction.
// Nothing reaches the store unless commit is called.
type state struct {
	ctx      context.Context
	store    ports.AccountStore
	programs map[core.Address]Program

	accounts map[core.Address]*core.Account
	virtual  map[core.Address]bool
	opening  map[core.Address]uint64
}

func newState(ctx context.Context, store ports.AccountStore, programs map[core.Address]Program) *state {
	return &state{
		ctx:      ctx,
		store:    store,
		programs: programs,
		accounts: make(map[core.Address]*core.Account),
		virtual:  make(map[core.Address]bool),
		opening:  make(map[core.Address]uint64),
	}
}

func (s *state) load(addr core.Address) (*core.Account, error) {
	if acc, ok := s.accounts[addr]; ok {
		return acc, nil
	}

	var acc *core.Account
	switch {
	case s.programs[addr] != nil:
		acc = &core.Account{Owner: NativeLoaderID, Executable: true}
		s.virtual[addr] = true
	case addr == core.InstructionsSysvar:
		acc = &core.Account{Owner: SysvarOwnerID}
		s.virtual[addr] = true
	default:
		stored, err := s.store.GetAccount(s.ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("failed to load account %s: %w", addr, err)
		}
		if stored == nil {
			stored = &core.Account{}
		}
		acc = stored.Clone()
	}

	s.accounts[addr] = acc
	s.opening[addr] = acc.Lamports
	return acc, nil
}

// balanced reports whether the lamports held by loaded accounts changed by
// exactly -burned.
func (s *state) balanced(burned uint64) bool {
	var before, after uint64
	for addr, acc := range s.accounts {
		before += s.opening[addr]
		after += acc.Lamports
	}
	return before-burned == after
}

func (s *state) commit() error {
	out := make(map[core.Address]*core.Account, len(s.accounts))
	for addr, acc := range s.accounts {
		if s.virtual[addr] {
			continue
		}
		out[addr] = acc
	}
	return s.store.CommitAccounts(s.ctx, out)
}
