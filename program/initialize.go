package program

import (
	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/runtime"
)

// Initialize accounts, in order.
const (
	initPayer = iota
	initConfig
	initWhitelist
	initSequence
	initAuthority
	initDefaultRule
	initSystemProgram
	initAccountCount
)

// initialize creates the engine singletons. The payer becomes the admin.
func (p *Program) initialize(ctx *runtime.Context, accounts []*runtime.AccountInfo, args InitializeArgs) error {
	if err := requireAccounts(accounts, initAccountCount); err != nil {
		return err
	}
	payer := accounts[initPayer]
	if err := requireSigner(payer); err != nil {
		return err
	}
	if err := requireProgram(accounts[initSystemProgram], core.SystemProgramID); err != nil {
		return err
	}
	defaultRule := accounts[initDefaultRule]
	if !defaultRule.Executable() {
		return core.ErrInvalidRuleProgram
	}
	if !accounts[initConfig].IsEmpty() {
		return core.ErrAlreadyInitialized
	}
	if args.ReplayWindow < 0 {
		return core.ErrInvalidInstructionData
	}

	cfg := &core.Config{
		Admin:                  payer.Key,
		CreateWalletFee:        args.CreateWalletFee,
		DefaultRuleProgram:     defaultRule.Key,
		ReplayWindow:           args.ReplayWindow,
		ReimbursementAllowance: args.ReimbursementAllowance,
		AuthorityBump:          authorityAddress.Bump(),
		Bump:                   configAddress.Bump(),
	}
	if err := createRecord(ctx, payer, accounts[initConfig], configAddress, core.ConfigSize, cfg); err != nil {
		return err
	}

	wl := &core.Whitelist{Programs: []core.Address{defaultRule.Key}, Bump: whitelistAddress.Bump()}
	if err := createRecord(ctx, payer, accounts[initWhitelist], whitelistAddress, core.WhitelistSize, wl); err != nil {
		return err
	}

	seq := &core.Sequence{Seq: 0, Bump: sequenceAddress.Bump()}
	if err := createRecord(ctx, payer, accounts[initSequence], sequenceAddress, core.SequenceSize, seq); err != nil {
		return err
	}

	if err := ctx.CreateDerivedAccount(payer, accounts[initAuthority], authorityAddress, 0, core.ProgramID); err != nil {
		return err
	}

	ctx.Log("initialized with default rule %s", defaultRule.Key)
	return nil
}
