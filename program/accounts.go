package program

import (
	"encoding"
	"fmt"

	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/pda"
	"github.com/layer-3/smartwallet/runtime"
)

var (
	configAddress    = pda.MustFind(core.ProgramID, []byte(core.SeedConfig))
	whitelistAddress = pda.MustFind(core.ProgramID, []byte(core.SeedWhitelist))
	sequenceAddress  = pda.MustFind(core.ProgramID, []byte(core.SeedSequence))
	authorityAddress = pda.MustFind(core.ProgramID, []byte(core.SeedAuthority))
)

// ConfigAddress is the engine config record.
func ConfigAddress() core.Address { return configAddress.Address() }

// WhitelistAddress is the rule program whitelist record.
func WhitelistAddress() core.Address { return whitelistAddress.Address() }

// SequenceAddress is the wallet sequence record.
func SequenceAddress() core.Address { return sequenceAddress.Address() }

// AuthorityAddress is the engine authority account.
func AuthorityAddress() core.Address { return authorityAddress.Address() }

func requireAccounts(accounts []*runtime.AccountInfo, n int) error {
	if len(accounts) < n {
		return fmt.Errorf("%w: expected at least %d accounts, got %d", core.ErrInvalidAccountInput, n, len(accounts))
	}
	return nil
}

func requireSigner(info *runtime.AccountInfo) error {
	if !info.IsSigner {
		return fmt.Errorf("%w: %s must sign", core.ErrInvalidAccountInput, info.Key)
	}
	return nil
}

func requireProgram(info *runtime.AccountInfo, id core.Address) error {
	if info.Key != id {
		return fmt.Errorf("%w: expected program %s, got %s", core.ErrInvalidAccountInput, id, info.Key)
	}
	return nil
}

func readRecord(info *runtime.AccountInfo, rec encoding.BinaryUnmarshaler) error {
	if info.Owner() != core.ProgramID {
		return fmt.Errorf("%w: %s is owned by %s", core.ErrInvalidAccountData, info.Key, info.Owner())
	}
	return rec.UnmarshalBinary(info.Data())
}

func writeRecord(ctx *runtime.Context, info *runtime.AccountInfo, rec encoding.BinaryMarshaler) error {
	data, err := rec.MarshalBinary()
	if err != nil {
		return err
	}
	return ctx.SetData(info, data)
}

func createRecord(ctx *runtime.Context, payer, target *runtime.AccountInfo, d pda.Derived, size int, rec encoding.BinaryMarshaler) error {
	if err := ctx.CreateDerivedAccount(payer, target, d, size, core.ProgramID); err != nil {
		return err
	}
	return writeRecord(ctx, target, rec)
}

func loadConfig(info *runtime.AccountInfo) (*core.Config, error) {
	if err := configAddress.Expect(info.Key); err != nil {
		return nil, err
	}
	cfg := &core.Config{}
	if err := readRecord(info, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadWhitelist(info *runtime.AccountInfo) (*core.Whitelist, error) {
	if err := whitelistAddress.Expect(info.Key); err != nil {
		return nil, err
	}
	wl := &core.Whitelist{}
	if err := readRecord(info, wl); err != nil {
		return nil, err
	}
	return wl, nil
}

func loadSequence(info *runtime.AccountInfo) (*core.Sequence, error) {
	if err := sequenceAddress.Expect(info.Key); err != nil {
		return nil, err
	}
	seq := &core.Sequence{}
	if err := readRecord(info, seq); err != nil {
		return nil, err
	}
	return seq, nil
}

// loadWallet decodes a wallet config record and checks that it and the
// wallet sit at their derived addresses.
func loadWallet(wallet, walletConfig *runtime.AccountInfo) (*core.WalletConfig, pda.Derived, error) {
	cfg := &core.WalletConfig{}
	if err := readRecord(walletConfig, cfg); err != nil {
		return nil, pda.Derived{}, err
	}
	walletPDA, err := pda.WithBump(core.ProgramID, cfg.Bump, pda.WalletSeeds(cfg.ID)...)
	if err != nil {
		return nil, pda.Derived{}, fmt.Errorf("%w: %v", core.ErrInvalidBump, err)
	}
	if err := walletPDA.Expect(wallet.Key); err != nil {
		return nil, pda.Derived{}, err
	}
	cfgPDA, err := pda.WalletConfig(core.ProgramID, wallet.Key)
	if err != nil {
		return nil, pda.Derived{}, err
	}
	if err := cfgPDA.Expect(walletConfig.Key); err != nil {
		return nil, pda.Derived{}, err
	}
	return cfg, walletPDA, nil
}

// loadAuthenticator decodes the authenticator for passkey on wallet.
func loadAuthenticator(info *runtime.AccountInfo, passkey core.Passkey, wallet core.Address) (*core.Authenticator, pda.Derived, error) {
	d, err := pda.Authenticator(core.ProgramID, passkey, wallet)
	if err != nil {
		return nil, pda.Derived{}, err
	}
	if err := d.Expect(info.Key); err != nil {
		return nil, pda.Derived{}, err
	}
	auth := &core.Authenticator{}
	if err := readRecord(info, auth); err != nil {
		return nil, pda.Derived{}, err
	}
	if auth.Passkey != passkey {
		return nil, pda.Derived{}, core.ErrInvalidPasskey
	}
	if auth.Wallet != wallet {
		return nil, pda.Derived{}, core.ErrInvalidAuthenticator
	}
	return auth, d, nil
}
