// Package defaultrule is the rule program every wallet starts with. It
// allows any action signed by one of the wallet's own authenticators.
package defaultrule

import (
	"fmt"

	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/internal/layout"
	"github.com/layer-3/smartwallet/pda"
	"github.com/layer-3/smartwallet/rules"
	"github.com/layer-3/smartwallet/runtime"
)

var (
	// ErrUnauthorized is returned when the signer is not an authenticator of the
	// rule's wallet, or did not install the rule it tries to destroy
	ErrUnauthorized = core.NewError(6100, "UnauthorizedAuthenticator", "authenticator does not belong to rule wallet")
	// ErrInvalidRule is returned when the rule record is missing or misplaced
	ErrInvalidRule = core.NewError(6101, "InvalidRule", "invalid rule account")
)

var ruleDiscriminator = rules.AccountDiscriminator("Rule")

// RuleSize is the encoded size of a Rule record.
const RuleSize = 8 + 32 + 32 + 1

// Rule records which wallet a default rule serves and which authenticator
// installed it.
type Rule struct {
	SmartWallet   core.Address
	Admin         core.Address
	IsInitialized bool
}

// MarshalBinary encodes r with its account discriminator.
func (r *Rule) MarshalBinary() ([]byte, error) {
	w := layout.NewWriter(RuleSize)
	w.Raw(ruleDiscriminator[:])
	w.Raw(r.SmartWallet[:])
	w.Raw(r.Admin[:])
	w.Bool(r.IsInitialized)
	return w.Bytes(), nil
}

// UnmarshalBinary decodes a Rule record, rejecting foreign or short data
// with ErrInvalidRule.
func (r *Rule) UnmarshalBinary(data []byte) error {
	if len(data) != RuleSize || [8]byte(data[:8]) != ruleDiscriminator {
		return ErrInvalidRule
	}
	rd := layout.NewReader(data[8:])
	rd.Raw(r.SmartWallet[:])
	rd.Raw(r.Admin[:])
	r.IsInitialized = rd.Bool()
	return rd.Finish()
}

// RuleAddress derives the rule record of wallet.
func RuleAddress(wallet core.Address) (pda.Derived, error) {
	return pda.Find(core.DefaultRuleID, []byte(core.SeedRule), wallet.Bytes())
}

// Program implements runtime.Program.
type Program struct{}

// New returns the default rule program.
func New() *Program { return &Program{} }

// ID returns core.DefaultRuleID.
func (*Program) ID() core.Address { return core.DefaultRuleID }

// Process dispatches init_rule, check_rule and destroy.
func (p *Program) Process(ctx *runtime.Context, accounts []*runtime.AccountInfo, data []byte) error {
	sel, r, err := rules.Decode(data)
	if err != nil {
		return err
	}
	if err := rules.Finish(r); err != nil {
		return err
	}
	switch sel {
	case core.SelectorInitRule:
		return p.initRule(ctx, accounts)
	case core.SelectorCheckRule:
		return p.checkRule(ctx, accounts)
	case core.SelectorDestroy:
		return p.destroy(ctx, accounts)
	default:
		return fmt.Errorf("%w: unknown selector %x", core.ErrInvalidInstructionData, sel)
	}
}

// init_rule accounts: payer, smart wallet, authenticator, rule, system program.
func (p *Program) initRule(ctx *runtime.Context, accounts []*runtime.AccountInfo) error {
	if len(accounts) < 5 {
		return core.ErrInvalidAccountInput
	}
	payer, wallet, authInfo, ruleInfo := accounts[0], accounts[1], accounts[2], accounts[3]

	auth, err := rules.SignedAuthenticator(authInfo)
	if err != nil {
		return err
	}
	if auth.Wallet != wallet.Key {
		return ErrUnauthorized
	}
	d, err := RuleAddress(wallet.Key)
	if err != nil {
		return err
	}
	if err := ctx.CreateDerivedAccount(payer, ruleInfo, d, RuleSize, core.DefaultRuleID); err != nil {
		return err
	}
	rule := &Rule{SmartWallet: wallet.Key, Admin: authInfo.Key, IsInitialized: true}
	data, err := rule.MarshalBinary()
	if err != nil {
		return err
	}
	return ctx.SetData(ruleInfo, data)
}

// check_rule accounts: authenticator, rule.
func (p *Program) checkRule(ctx *runtime.Context, accounts []*runtime.AccountInfo) error {
	if len(accounts) < 2 {
		return core.ErrInvalidAccountInput
	}
	auth, err := rules.SignedAuthenticator(accounts[0])
	if err != nil {
		return err
	}
	rule, err := loadRule(accounts[1], auth.Wallet)
	if err != nil {
		return err
	}
	if rule.SmartWallet != auth.Wallet {
		return ErrUnauthorized
	}
	return nil
}

// destroy accounts: smart wallet, authenticator, rule. Only the
// authenticator that installed the rule may remove it. The rent goes back
// to the wallet.
func (p *Program) destroy(ctx *runtime.Context, accounts []*runtime.AccountInfo) error {
	if len(accounts) < 3 {
		return core.ErrInvalidAccountInput
	}
	wallet, authInfo, ruleInfo := accounts[0], accounts[1], accounts[2]
	auth, err := rules.SignedAuthenticator(authInfo)
	if err != nil {
		return err
	}
	if auth.Wallet != wallet.Key {
		return ErrUnauthorized
	}
	rule, err := loadRule(ruleInfo, wallet.Key)
	if err != nil {
		return err
	}
	if rule.Admin != authInfo.Key {
		return ErrUnauthorized
	}
	return ctx.Close(ruleInfo, wallet)
}

func loadRule(info *runtime.AccountInfo, wallet core.Address) (*Rule, error) {
	if info.Owner() != core.DefaultRuleID {
		return nil, ErrInvalidRule
	}
	d, err := RuleAddress(wallet)
	if err != nil {
		return nil, err
	}
	if d.Address() != info.Key {
		return nil, ErrInvalidRule
	}
	rule := &Rule{}
	if err := rule.UnmarshalBinary(info.Data()); err != nil {
		return nil, err
	}
	if !rule.IsInitialized {
		return nil, ErrInvalidRule
	}
	return rule, nil
}
