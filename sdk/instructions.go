package sdk

import (
	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/program"
	"github.com/layer-3/smartwallet/rules/defaultrule"
	"github.com/layer-3/smartwallet/runtime"
	"github.com/layer-3/smartwallet/sigverify"
)

// InitializeInstruction creates the engine singletons. payer becomes admin.
func InitializeInstruction(payer core.Address, args program.InitializeArgs) runtime.Instruction {
	return runtime.Instruction{
		ProgramID: core.ProgramID,
		Accounts: []runtime.AccountMeta{
			runtime.Signer(payer, true),
			runtime.Writable(program.ConfigAddress()),
			runtime.Writable(program.WhitelistAddress()),
			runtime.Writable(program.SequenceAddress()),
			runtime.Writable(program.AuthorityAddress()),
			runtime.Readonly(core.DefaultRuleID),
			runtime.Readonly(core.SystemProgramID),
		},
		Data: program.EncodeInitialize(args),
	}
}

// UpsertWhitelistInstruction adds a rule program, signed by the admin.
func UpsertWhitelistInstruction(admin, rule core.Address) runtime.Instruction {
	return runtime.Instruction{
		ProgramID: core.ProgramID,
		Accounts: []runtime.AccountMeta{
			runtime.Signer(admin, false),
			runtime.Readonly(program.ConfigAddress()),
			runtime.Writable(program.WhitelistAddress()),
		},
		Data: program.EncodeUpsertWhitelist(program.UpsertWhitelistArgs{Program: rule}),
	}
}

// CreateSmartWalletInstruction creates wallet number id for passkey with the
// default rule installed. id must be the current sequence value.
func CreateSmartWalletInstruction(payer core.Address, id uint64, passkey core.Passkey) (runtime.Instruction, WalletAddresses, error) {
	addrs, err := Wallet(id)
	if err != nil {
		return runtime.Instruction{}, addrs, err
	}
	auth, err := AuthenticatorAddress(passkey, addrs.Wallet)
	if err != nil {
		return runtime.Instruction{}, addrs, err
	}
	ruleIx, err := defaultrule.InitRuleInstruction(payer, addrs.Wallet, auth)
	if err != nil {
		return runtime.Instruction{}, addrs, err
	}

	accounts := []runtime.AccountMeta{
		runtime.Signer(payer, true),
		runtime.Writable(program.SequenceAddress()),
		runtime.Readonly(program.WhitelistAddress()),
		runtime.Writable(addrs.Wallet),
		runtime.Writable(addrs.WalletConfig),
		runtime.Writable(auth),
		runtime.Readonly(program.ConfigAddress()),
		runtime.Readonly(core.DefaultRuleID),
		runtime.Readonly(core.SystemProgramID),
	}
	accounts = append(accounts, delegated(ruleIx.Accounts, payer)...)

	return runtime.Instruction{
		ProgramID: core.ProgramID,
		Accounts:  accounts,
		Data:      program.EncodeCreateSmartWallet(program.CreateSmartWalletArgs{Passkey: passkey, RuleData: ruleIx.Data}),
	}, addrs, nil
}

// VerificationInstruction carries a secp256r1 verification record.
func VerificationInstruction(passkey core.Passkey, signature, message []byte) runtime.Instruction {
	return runtime.Instruction{
		ProgramID: core.Secp256r1ProgramID,
		Data:      sigverify.BuildRecord(passkey, signature, message),
	}
}

// delegated rewrites the metas of an instruction the engine will invoke on
// the caller's behalf. Only the payer can sign at the top level; the engine
// signs for its derived accounts itself.
func delegated(metas []runtime.AccountMeta, payer core.Address) []runtime.AccountMeta {
	out := make([]runtime.AccountMeta, len(metas))
	for i, m := range metas {
		m.IsSigner = m.IsSigner && m.Address == payer
		out[i] = m
	}
	return out
}
