package sdk

import (
	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/pda"
)

// WalletAddresses are the accounts that make up wallet number ID.
type WalletAddresses struct {
	ID           uint64
	Wallet       core.Address
	WalletConfig core.Address
}

// Wallet derives the addresses of wallet id.
func Wallet(id uint64) (WalletAddresses, error) {
	w, err := pda.Wallet(core.ProgramID, id)
	if err != nil {
		return WalletAddresses{}, err
	}
	c, err := pda.WalletConfig(core.ProgramID, w.Address())
	if err != nil {
		return WalletAddresses{}, err
	}
	return WalletAddresses{ID: id, Wallet: w.Address(), WalletConfig: c.Address()}, nil
}

// WalletConfigAddress derives the config record of wallet.
func WalletConfigAddress(wallet core.Address) (core.Address, error) {
	d, err := pda.WalletConfig(core.ProgramID, wallet)
	if err != nil {
		return core.Address{}, err
	}
	return d.Address(), nil
}

// AuthenticatorAddress derives the record binding passkey to wallet.
func AuthenticatorAddress(passkey core.Passkey, wallet core.Address) (core.Address, error) {
	d, err := pda.Authenticator(core.ProgramID, passkey, wallet)
	if err != nil {
		return core.Address{}, err
	}
	return d.Address(), nil
}
