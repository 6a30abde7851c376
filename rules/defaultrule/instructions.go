package defaultrule

import (
	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/rules"
	"github.com/layer-3/smartwallet/runtime"
)

// InitRuleInstruction installs the default rule on wallet.
func InitRuleInstruction(payer, wallet, authenticator core.Address) (runtime.Instruction, error) {
	d, err := RuleAddress(wallet)
	if err != nil {
		return runtime.Instruction{}, err
	}
	return runtime.Instruction{
		ProgramID: core.DefaultRuleID,
		Accounts: []runtime.AccountMeta{
			runtime.Signer(payer, true),
			runtime.Readonly(wallet),
			runtime.Signer(authenticator, false),
			runtime.Writable(d.Address()),
			runtime.Readonly(core.SystemProgramID),
		},
		Data: rules.Encode(core.SelectorInitRule, nil),
	}, nil
}

// CheckRuleInstruction checks authenticator against wallet's rule.
func CheckRuleInstruction(wallet, authenticator core.Address) (runtime.Instruction, error) {
	d, err := RuleAddress(wallet)
	if err != nil {
		return runtime.Instruction{}, err
	}
	return runtime.Instruction{
		ProgramID: core.DefaultRuleID,
		Accounts: []runtime.AccountMeta{
			runtime.Signer(authenticator, false),
			runtime.Readonly(d.Address()),
		},
		Data: rules.Encode(core.SelectorCheckRule, nil),
	}, nil
}

// DestroyInstruction removes wallet's rule record.
func DestroyInstruction(wallet, authenticator core.Address) (runtime.Instruction, error) {
	d, err := RuleAddress(wallet)
	if err != nil {
		return runtime.Instruction{}, err
	}
	return runtime.Instruction{
		ProgramID: core.DefaultRuleID,
		Accounts: []runtime.AccountMeta{
			runtime.Writable(wallet),
			runtime.Signer(authenticator, false),
			runtime.Writable(d.Address()),
		},
		Data: rules.Encode(core.SelectorDestroy, nil),
	}, nil
}
