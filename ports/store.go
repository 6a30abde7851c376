package ports

import (
	"context"

	"github.com/layer-3/smartwallet/core"
)

// AccountStore persists account state
type AccountStore interface {
	// GetAccount returns nil and no error for an address that was never written
	GetAccount(ctx context.Context, address core.Address) (*core.Account, error)
	// CommitAccounts writes all accounts atomically
	CommitAccounts(ctx context.Context, accounts map[core.Address]*core.Account) error
}
