package program

import (
	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/pda"
	"github.com/layer-3/smartwallet/runtime"
)

// CreateSmartWallet accounts, in order. Accounts past the fixed ones are
// handed to the default rule's init entry point.
const (
	createSigner = iota
	createSequence
	createWhitelist
	createWallet
	createWalletConfig
	createAuthenticator
	createConfig
	createDefaultRule
	createSystemProgram
	createAccountCount
)

func (p *Program) createSmartWallet(ctx *runtime.Context, accounts []*runtime.AccountInfo, args CreateSmartWalletArgs) error {
	if err := requireAccounts(accounts, createAccountCount); err != nil {
		return err
	}
	signer := accounts[createSigner]
	if err := requireSigner(signer); err != nil {
		return err
	}
	if err := requireProgram(accounts[createSystemProgram], core.SystemProgramID); err != nil {
		return err
	}

	cfg, err := loadConfig(accounts[createConfig])
	if err != nil {
		return err
	}
	seq, err := loadSequence(accounts[createSequence])
	if err != nil {
		return err
	}
	wl, err := loadWhitelist(accounts[createWhitelist])
	if err != nil {
		return err
	}

	rule := accounts[createDefaultRule]
	if rule.Key != cfg.DefaultRuleProgram {
		return core.ErrInvalidRuleProgram
	}
	if !wl.Contains(rule.Key) {
		return core.ErrProgramNotInWhitelist
	}
	if !core.SelectorInitRule.Matches(args.RuleData) {
		return core.ErrInvalidRuleInstruction
	}

	wallet := accounts[createWallet]
	walletPDA, err := pda.Wallet(core.ProgramID, seq.Seq)
	if err != nil {
		return err
	}
	if err := ctx.CreateDerivedAccount(signer, wallet, walletPDA, 0, core.ProgramID); err != nil {
		return err
	}

	cfgPDA, err := pda.WalletConfig(core.ProgramID, wallet.Key)
	if err != nil {
		return err
	}
	walletCfg := &core.WalletConfig{ID: seq.Seq, RuleProgram: rule.Key, Bump: walletPDA.Bump()}
	if err := createRecord(ctx, signer, accounts[createWalletConfig], cfgPDA, core.WalletConfigSize, walletCfg); err != nil {
		return err
	}

	authPDA, err := pda.Authenticator(core.ProgramID, args.Passkey, wallet.Key)
	if err != nil {
		return err
	}
	auth := &core.Authenticator{Passkey: args.Passkey, Wallet: wallet.Key, Bump: authPDA.Bump()}
	if err := createRecord(ctx, signer, accounts[createAuthenticator], authPDA, core.AuthenticatorSize, auth); err != nil {
		return err
	}

	if err := invokeSigned(ctx, rule.Key, accounts[createAccountCount:], args.RuleData, authPDA); err != nil {
		return err
	}

	if seq.Seq == ^uint64(0) {
		return core.ErrArithmeticOverflow
	}
	seq.Seq++
	if err := writeRecord(ctx, accounts[createSequence], seq); err != nil {
		return err
	}

	if err := transferFromWallet(ctx, wallet, signer, cfg.CreateWalletFee); err != nil {
		return err
	}

	ctx.Log("created wallet %d at %s", walletCfg.ID, wallet.Key)
	return nil
}
