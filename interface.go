package smartwallet

import (
	"context"

	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/sdk"
	"github.com/layer-3/smartwallet/service"
)

// Client represents the public interface for relaying passkey-authorized
// wallet actions
type Client interface {
	// CreateWallet creates the next wallet, controlled by passkey
	CreateWallet(ctx context.Context, passkey core.Passkey) (*service.WalletInfo, *service.AuthenticatorInfo, error)

	// Wallet loads a wallet
	Wallet(ctx context.Context, address core.Address) (*service.WalletInfo, error)

	// Authenticator loads the record of a passkey on a wallet
	Authenticator(ctx context.Context, wallet core.Address, passkey core.Passkey) (*service.AuthenticatorInfo, error)

	// PrepareMessage returns the message the passkey must sign to authorize req
	PrepareMessage(ctx context.Context, req *sdk.Request) (core.Message, error)

	// Execute relays a signed request
	Execute(ctx context.Context, req *sdk.Request, msg core.Message, signature []byte) (*service.ExecuteResult, error)
}

var _ Client = (*service.WalletService)(nil)
