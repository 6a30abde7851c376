package program

import (
	"bytes"
	"fmt"

	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/internal/layout"
	"github.com/layer-3/smartwallet/pda"
	"github.com/layer-3/smartwallet/runtime"
	"github.com/layer-3/smartwallet/sigverify"
)

// ExecuteInstruction accounts, in order. NewAuthenticator may be set to the
// engine's own id when no passkey is enrolled. Remaining accounts follow.
const (
	execPayer = iota
	execConfig
	execWallet
	execWalletConfig
	execAuthenticator
	execWhitelist
	execRuleProgram
	execInstructionsSysvar
	execSystemProgram
	execCpiProgram
	execNewAuthenticator
	execAccountCount
)

// execution is one authorized request being carried out.
type execution struct {
	ctx       *runtime.Context
	args      *core.ExecuteArgs
	cfg       *core.Config
	whitelist *core.Whitelist

	payer, wallet, walletConfig, authenticator *runtime.AccountInfo
	ruleProgram, cpiProgram, newAuthenticator  *runtime.AccountInfo

	walletCfg *core.WalletConfig
	walletPDA pda.Derived
	auth      *core.Authenticator
	authPDA   pda.Derived

	ruleAccounts []*runtime.AccountInfo
	cpiAccounts  []*runtime.AccountInfo
}

func (p *Program) execute(ctx *runtime.Context, accounts []*runtime.AccountInfo, args *core.ExecuteArgs) error {
	if err := requireAccounts(accounts, execAccountCount); err != nil {
		return err
	}
	x := &execution{
		ctx:           ctx,
		args:          args,
		payer:         accounts[execPayer],
		wallet:        accounts[execWallet],
		walletConfig:  accounts[execWalletConfig],
		authenticator: accounts[execAuthenticator],
		ruleProgram:   accounts[execRuleProgram],
		cpiProgram:    accounts[execCpiProgram],
	}
	if accounts[execNewAuthenticator].Key != core.ProgramID {
		x.newAuthenticator = accounts[execNewAuthenticator]
	}
	if err := requireSigner(x.payer); err != nil {
		return err
	}
	payerBefore := x.payer.Lamports()

	if err := x.load(accounts); err != nil {
		return err
	}
	if err := x.authorize(accounts[execInstructionsSysvar]); err != nil {
		return err
	}

	var err error
	switch args.Action {
	case core.ActionExecuteCpi:
		err = x.executeCpi()
	case core.ActionChangeProgramRule:
		err = x.changeProgramRule()
	case core.ActionCallRuleProgram:
		err = x.callRuleProgram()
	case core.ActionCheckAuthenticator:
		// control check only: the nonce and balances stay untouched
		ctx.Log("authenticator %s verified", x.authenticator.Key)
		return nil
	}
	if err != nil {
		return err
	}

	if err := x.auth.AdvanceNonce(); err != nil {
		return err
	}
	if err := writeRecord(ctx, x.authenticator, x.auth); err != nil {
		return err
	}

	return x.reimburse(payerBefore)
}

// load decodes and cross-checks every record the request touches.
func (x *execution) load(accounts []*runtime.AccountInfo) error {
	var err error
	if err = requireProgram(accounts[execSystemProgram], core.SystemProgramID); err != nil {
		return err
	}
	if x.cfg, err = loadConfig(accounts[execConfig]); err != nil {
		return err
	}
	if x.walletCfg, x.walletPDA, err = loadWallet(x.wallet, x.walletConfig); err != nil {
		return err
	}
	if x.auth, x.authPDA, err = loadAuthenticator(x.authenticator, x.args.Passkey, x.wallet.Key); err != nil {
		return err
	}
	if x.whitelist, err = loadWhitelist(accounts[execWhitelist]); err != nil {
		return err
	}
	if !x.ruleProgram.Executable() || !x.cpiProgram.Executable() {
		return fmt.Errorf("%w: rule and cpi programs must be executable", core.ErrInvalidAccountInput)
	}

	remaining := accounts[execAccountCount:]
	if x.ruleAccounts, err = accountSlice(remaining, &x.args.RuleData); err != nil {
		return err
	}
	if x.args.CpiData != nil {
		if x.cpiAccounts, err = accountSlice(remaining, x.args.CpiData); err != nil {
			return err
		}
	}
	return nil
}

// authorize checks the verification record, the message freshness and
// sequence, and that the signed payload commits to this request.
func (x *execution) authorize(sysvar *runtime.AccountInfo) error {
	if sysvar.Key != core.InstructionsSysvar {
		return fmt.Errorf("%w: expected instructions sysvar", core.ErrInvalidAccountInput)
	}
	ix, err := x.ctx.InstructionAt(sysvar, int(x.args.VerifyInstructionIndex))
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrSignatureVerificationFailed, err)
	}
	rec := &sigverify.Record{ProgramID: ix.ProgramID, AccountCount: len(ix.Accounts), Data: ix.Data}
	if err := sigverify.VerifyRecord(rec, x.args.Passkey, x.args.Signature, x.args.Message.Bytes()); err != nil {
		return err
	}

	payload, err := sigverify.NewAuthority(x.cfg.ReplayWindow).
		Validate(&x.args.Message, x.ctx.UnixTimestamp(), x.auth.Nonce, x.auth.Passkey, x.args.Passkey)
	if err != nil {
		return err
	}

	digest := x.binding().Digest()
	if !bytes.Equal(payload, digest[:]) {
		return core.ErrPayloadMismatch
	}
	return nil
}

func (x *execution) binding() *core.ActionBinding {
	b := &core.ActionBinding{
		Action: x.args.Action,
		Rule: core.Invocation{
			Program:  x.ruleProgram.Key,
			Data:     x.args.RuleData.Data,
			Accounts: keys(x.ruleAccounts),
		},
		NewPasskey: x.args.NewPasskey,
	}
	if x.args.CpiData != nil {
		b.Cpi = &core.Invocation{
			Program:  x.cpiProgram.Key,
			Data:     x.args.CpiData.Data,
			Accounts: keys(x.cpiAccounts),
		}
	}
	return b
}

// requireActiveRule checks that the named rule program is whitelisted and is
// the one the wallet currently uses.
func (x *execution) requireActiveRule() error {
	rule := x.ruleProgram.Key
	if !x.whitelist.Contains(rule) {
		return fmt.Errorf("%w: %s", core.ErrProgramNotInWhitelist, rule)
	}
	if rule != x.walletCfg.RuleProgram {
		return fmt.Errorf("%w: wallet uses %s, got %s", core.ErrInvalidRuleProgram, x.walletCfg.RuleProgram, rule)
	}
	return nil
}

func (x *execution) invokeRule(program core.Address, infos []*runtime.AccountInfo, data []byte) error {
	return invokeSigned(x.ctx, program, infos, data, x.authPDA)
}

func (x *execution) executeCpi() error {
	if err := x.requireActiveRule(); err != nil {
		return err
	}
	if !core.SelectorCheckRule.Matches(x.args.RuleData.Data) {
		return core.ErrInvalidRuleInstruction
	}
	if x.args.CpiData == nil {
		return fmt.Errorf("%w: missing cpi data", core.ErrInvalidAccountInput)
	}

	if err := x.invokeRule(x.ruleProgram.Key, x.ruleAccounts, x.args.RuleData.Data); err != nil {
		return err
	}

	data := x.args.CpiData.Data
	if core.IsNativeTransfer(x.cpiProgram.Key, data) {
		return nativeTransfer(x.ctx, x.wallet, x.cpiAccounts, data)
	}
	return invokeSigned(x.ctx, x.cpiProgram.Key, x.cpiAccounts, data, x.walletPDA)
}

func (x *execution) changeProgramRule() error {
	if x.args.CpiData == nil {
		return fmt.Errorf("%w: missing cpi data", core.ErrInvalidAccountInput)
	}
	oldRule, newRule := x.ruleProgram.Key, x.cpiProgram.Key
	if !x.whitelist.Contains(oldRule) {
		return fmt.Errorf("%w: %s", core.ErrProgramNotInWhitelist, oldRule)
	}
	if !x.whitelist.Contains(newRule) {
		return fmt.Errorf("%w: %s", core.ErrProgramNotInWhitelist, newRule)
	}
	if oldRule != x.walletCfg.RuleProgram {
		return fmt.Errorf("%w: wallet uses %s, got %s", core.ErrInvalidRuleProgram, x.walletCfg.RuleProgram, oldRule)
	}
	if !core.SelectorDestroy.Matches(x.args.RuleData.Data) || !core.SelectorInitRule.Matches(x.args.CpiData.Data) {
		return core.ErrInvalidRuleInstruction
	}
	def := x.cfg.DefaultRuleProgram
	if oldRule == newRule || (oldRule == def) == (newRule == def) {
		return fmt.Errorf("%w: exactly one side must be the default rule", core.ErrInvalidRuleProgram)
	}

	if err := x.invokeRule(oldRule, x.ruleAccounts, x.args.RuleData.Data); err != nil {
		return err
	}
	if err := x.invokeRule(newRule, x.cpiAccounts, x.args.CpiData.Data); err != nil {
		return err
	}

	x.walletCfg.RuleProgram = newRule
	x.ctx.Log("wallet %s now uses rule %s", x.wallet.Key, newRule)
	return writeRecord(x.ctx, x.walletConfig, x.walletCfg)
}

func (x *execution) callRuleProgram() error {
	if err := x.requireActiveRule(); err != nil {
		return err
	}
	data := x.args.RuleData.Data
	if !core.SelectorCheckRule.Matches(data) && !core.SelectorAddMember.Matches(data) {
		return core.ErrInvalidRuleInstruction
	}

	if x.args.NewPasskey != nil {
		if err := x.enroll(*x.args.NewPasskey); err != nil {
			return err
		}
	}
	return x.invokeRule(x.ruleProgram.Key, x.ruleAccounts, data)
}

// enroll creates an authenticator record for passkey on the wallet.
func (x *execution) enroll(passkey core.Passkey) error {
	if x.newAuthenticator == nil {
		return fmt.Errorf("%w: missing new authenticator account", core.ErrInvalidAccountInput)
	}
	d, err := pda.Authenticator(core.ProgramID, passkey, x.wallet.Key)
	if err != nil {
		return err
	}
	rec := &core.Authenticator{Passkey: passkey, Wallet: x.wallet.Key, Bump: d.Bump()}
	if err := createRecord(x.ctx, x.payer, x.newAuthenticator, d, core.AuthenticatorSize, rec); err != nil {
		return err
	}
	x.ctx.Log("enrolled authenticator %s", x.newAuthenticator.Key)
	return nil
}

// reimburse pays the payer back, from the wallet, what it spent during the
// instruction plus the configured allowance.
func (x *execution) reimburse(before uint64) error {
	after := saturatingSub(x.payer.Lamports(), x.cfg.ReimbursementAllowance)
	amount := saturatingSub(before, after)
	return transferFromWallet(x.ctx, x.wallet, x.payer, amount)
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// DecodeExecute reads an execute instruction, as loaded from the
// instructions sysvar, and returns its arguments and target program.
func DecodeExecute(ix *runtime.Instruction) (*core.ExecuteArgs, core.Address, error) {
	if ix.ProgramID != core.ProgramID || len(ix.Data) == 0 || ix.Data[0] != IxExecute || len(ix.Accounts) < execAccountCount {
		return nil, core.Address{}, fmt.Errorf("%w: not an execute instruction", core.ErrInvalidInstructionData)
	}
	args, err := core.DecodeExecuteArgs(layout.NewReader(ix.Data[1:]))
	if err != nil {
		return nil, core.Address{}, err
	}
	return args, ix.Accounts[execCpiProgram].Address, nil
}
