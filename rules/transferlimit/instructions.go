package transferlimit

import (
	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/rules"
	"github.com/layer-3/smartwallet/runtime"
)

// InitRuleInstruction installs a limit on wallet, signed by authenticator.
func InitRuleInstruction(payer, wallet, authenticator core.Address, args InitRuleArgs) (runtime.Instruction, error) {
	member, err := MemberAddress(wallet, authenticator)
	if err != nil {
		return runtime.Instruction{}, err
	}
	ruleData, err := RuleDataAddress(wallet, args.Token)
	if err != nil {
		return runtime.Instruction{}, err
	}
	return runtime.Instruction{
		ProgramID: core.TransferLimitID,
		Accounts: []runtime.AccountMeta{
			runtime.Signer(payer, true),
			runtime.Readonly(wallet),
			runtime.Signer(authenticator, false),
			runtime.Writable(member.Address()),
			runtime.Writable(ruleData.Address()),
			runtime.Readonly(core.SystemProgramID),
		},
		Data: rules.Encode(core.SelectorInitRule, args.encode),
	}, nil
}

// CheckRuleInstruction asks whether authenticator may run args on wallet.
func CheckRuleInstruction(wallet, authenticator core.Address, args CheckRuleArgs) (runtime.Instruction, error) {
	member, err := MemberAddress(wallet, authenticator)
	if err != nil {
		return runtime.Instruction{}, err
	}
	ruleData, err := RuleDataAddress(wallet, args.Token)
	if err != nil {
		return runtime.Instruction{}, err
	}
	return runtime.Instruction{
		ProgramID: core.TransferLimitID,
		Accounts: []runtime.AccountMeta{
			runtime.Signer(authenticator, false),
			runtime.Readonly(member.Address()),
			runtime.Readonly(ruleData.Address()),
			runtime.Readonly(core.InstructionsSysvar),
		},
		Data: rules.Encode(core.SelectorCheckRule, args.encode),
	}, nil
}

// AddMemberInstruction grants newAuthenticator the member role, signed by
// an admin authenticator.
func AddMemberInstruction(payer, wallet, authenticator, newAuthenticator core.Address, args AddMemberArgs) (runtime.Instruction, error) {
	admin, err := MemberAddress(wallet, authenticator)
	if err != nil {
		return runtime.Instruction{}, err
	}
	member, err := MemberAddress(wallet, newAuthenticator)
	if err != nil {
		return runtime.Instruction{}, err
	}
	return runtime.Instruction{
		ProgramID: core.TransferLimitID,
		Accounts: []runtime.AccountMeta{
			runtime.Signer(payer, true),
			runtime.Readonly(wallet),
			runtime.Signer(authenticator, false),
			runtime.Readonly(newAuthenticator),
			runtime.Readonly(admin.Address()),
			runtime.Writable(member.Address()),
			runtime.Readonly(core.SystemProgramID),
		},
		Data: rules.Encode(core.SelectorAddMember, args.encode),
	}, nil
}

// DestroyInstruction removes wallet's limit for token.
func DestroyInstruction(wallet, authenticator core.Address, token *core.Address) (runtime.Instruction, error) {
	admin, err := MemberAddress(wallet, authenticator)
	if err != nil {
		return runtime.Instruction{}, err
	}
	ruleData, err := RuleDataAddress(wallet, token)
	if err != nil {
		return runtime.Instruction{}, err
	}
	return runtime.Instruction{
		ProgramID: core.TransferLimitID,
		Accounts: []runtime.AccountMeta{
			runtime.Writable(wallet),
			runtime.Signer(authenticator, false),
			runtime.Readonly(admin.Address()),
			runtime.Writable(ruleData.Address()),
		},
		Data: rules.Encode(core.SelectorDestroy, nil),
	}, nil
}
