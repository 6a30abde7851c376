package sdk

import (
	"errors"
	"time"

	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/program"
	"github.com/layer-3/smartwallet/runtime"
)

// ErrMissingInvocation is returned when an action lacks the instruction it needs.
var ErrMissingInvocation = errors.New("sdk: action requires a delegated instruction")

// Request is an action to be authorized by a passkey and relayed by Payer.
//
// Rule is the call into the wallet's rule program: check_rule for
// ActionExecuteCpi and ActionCallRuleProgram (or add_member for the
// latter), destroy for ActionChangeProgramRule. Cpi is the delegated
// instruction for ActionExecuteCpi and the new rule's init_rule for
// ActionChangeProgramRule.
type Request struct {
	Payer      core.Address
	Wallet     core.Address
	Passkey    core.Passkey
	Action     core.Action
	Rule       runtime.Instruction
	Cpi        *runtime.Instruction
	NewPasskey *core.Passkey
}

// Binding is what the passkey commits to.
func (r *Request) Binding() *core.ActionBinding {
	b := &core.ActionBinding{
		Action: r.Action,
		Rule: core.Invocation{
			Program:  r.Rule.ProgramID,
			Data:     r.Rule.Data,
			Accounts: r.Rule.Keys(),
		},
		NewPasskey: r.NewPasskey,
	}
	if r.Cpi != nil {
		b.Cpi = &core.Invocation{
			Program:  r.Cpi.ProgramID,
			Data:     r.Cpi.Data,
			Accounts: r.Cpi.Keys(),
		}
	}
	return b
}

// Message returns the message to sign for nonce at time now.
func (r *Request) Message(nonce uint64, now time.Time) core.Message {
	digest := r.Binding().Digest()
	return core.Message{Nonce: nonce, Timestamp: now.Unix(), Payload: digest[:]}
}

// Transaction assembles the verification record and the execute instruction
// for a message signed by r.Passkey.
func (r *Request) Transaction(msg core.Message, signature []byte) (*runtime.Transaction, error) {
	if r.Cpi == nil && (r.Action == core.ActionExecuteCpi || r.Action == core.ActionChangeProgramRule) {
		return nil, ErrMissingInvocation
	}
	walletConfig, err := WalletConfigAddress(r.Wallet)
	if err != nil {
		return nil, err
	}
	auth, err := AuthenticatorAddress(r.Passkey, r.Wallet)
	if err != nil {
		return nil, err
	}

	cpiProgram := core.SystemProgramID
	newAuth := runtime.Readonly(core.ProgramID)
	if r.Cpi != nil {
		cpiProgram = r.Cpi.ProgramID
	}
	if r.NewPasskey != nil {
		addr, err := AuthenticatorAddress(*r.NewPasskey, r.Wallet)
		if err != nil {
			return nil, err
		}
		newAuth = runtime.Writable(addr)
	}

	accounts := []runtime.AccountMeta{
		runtime.Signer(r.Payer, true),
		runtime.Readonly(program.ConfigAddress()),
		runtime.Writable(r.Wallet),
		runtime.Writable(walletConfig),
		runtime.Writable(auth),
		runtime.Readonly(program.WhitelistAddress()),
		runtime.Readonly(r.Rule.ProgramID),
		runtime.Readonly(core.InstructionsSysvar),
		runtime.Readonly(core.SystemProgramID),
		runtime.Readonly(cpiProgram),
		newAuth,
	}

	args := &core.ExecuteArgs{
		Passkey:                r.Passkey,
		Signature:              signature,
		Message:                msg,
		VerifyInstructionIndex: 0,
		RuleData: core.CpiData{
			Data:       r.Rule.Data,
			StartIndex: 0,
			Length:     uint8(len(r.Rule.Accounts)),
		},
		Action:     r.Action,
		NewPasskey: r.NewPasskey,
	}
	accounts = append(accounts, delegated(r.Rule.Accounts, r.Payer)...)
	if r.Cpi != nil {
		args.CpiData = &core.CpiData{
			Data:       r.Cpi.Data,
			StartIndex: uint8(len(r.Rule.Accounts)),
			Length:     uint8(len(r.Cpi.Accounts)),
		}
		accounts = append(accounts, delegated(r.Cpi.Accounts, r.Payer)...)
	}

	return &runtime.Transaction{
		FeePayer: r.Payer,
		Instructions: []runtime.Instruction{
			VerificationInstruction(r.Passkey, signature, msg.Bytes()),
			{ProgramID: core.ProgramID, Accounts: accounts, Data: program.EncodeExecute(args)},
		},
	}, nil
}

// Sign signs r with passkey for nonce at now and assembles the transaction.
func (r *Request) Sign(passkey *Passkey, nonce uint64, now time.Time) (*runtime.Transaction, error) {
	msg := r.Message(nonce, now)
	sig, err := passkey.Sign(msg.Bytes())
	if err != nil {
		return nil, err
	}
	return r.Transaction(msg, sig)
}
