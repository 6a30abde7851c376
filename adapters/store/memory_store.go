package store

import (
	"context"
	"sync"

	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/ports"
)

// MemoryStore is an in-memory implementation of the AccountStore interface
type MemoryStore struct {
	accounts map[core.Address]*core.Account
	mu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() ports.AccountStore {
	return &MemoryStore{
		accounts: make(map[core.Address]*core.Account),
	}
}

// GetAccount returns a copy of the stored account
func (s *MemoryStore) GetAccount(ctx context.Context, address core.Address) (*core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, exists := s.accounts[address]
	if !exists {
		return nil, nil
	}
	return acc.Clone(), nil
}

// CommitAccounts replaces the given accounts under a single lock. Empty
// accounts are dropped.
func (s *MemoryStore) CommitAccounts(ctx context.Context, accounts map[core.Address]*core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for addr, acc := range accounts {
		if acc == nil || acc.IsEmpty() {
			delete(s.accounts, addr)
			continue
		}
		s.accounts[addr] = acc.Clone()
	}
	return nil
}
