package core

import (
	"crypto/sha256"
	"fmt"

	"github.com/layer-3/smartwallet/internal/layout"
)

// Action selects what an authorized request does.
type Action uint8

const (
	// ActionExecuteCpi runs the wallet's rule check and then an arbitrary
	// instruction signed by the wallet.
	ActionExecuteCpi Action = iota
	// ActionChangeProgramRule swaps the wallet's rule program.
	ActionChangeProgramRule
	// ActionCheckAuthenticator only proves control of the passkey.
	ActionCheckAuthenticator
	// ActionCallRuleProgram calls the rule program directly, optionally
	// enrolling a new passkey first.
	ActionCallRuleProgram
)

func (a Action) String() string {
	switch a {
	case ActionExecuteCpi:
		return "execute_cpi"
	case ActionChangeProgramRule:
		return "change_program_rule"
	case ActionCheckAuthenticator:
		return "check_authenticator"
	case ActionCallRuleProgram:
		return "call_rule_program"
	default:
		return fmt.Sprintf("action(%d)", uint8(a))
	}
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool { return a <= ActionCallRuleProgram }

// ParseAction maps the String form back to an Action.
func ParseAction(s string) (Action, error) {
	for a := ActionExecuteCpi; a.Valid(); a++ {
		if a.String() == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown action %q", ErrInvalidInstructionData, s)
}

// CpiData locates one delegated instruction: its data and the window of
// remaining accounts it uses.
type CpiData struct {
	Data       []byte
	StartIndex uint8
	Length     uint8
}

// ExecuteArgs is the argument block of the execute instruction.
type ExecuteArgs struct {
	Passkey                Passkey
	Signature              []byte
	Message                Message
	VerifyInstructionIndex uint8
	RuleData               CpiData
	CpiData                *CpiData
	Action                 Action
	NewPasskey             *Passkey
}

func writeCpiData(w *layout.Writer, c *CpiData) {
	w.Vec(c.Data)
	w.U8(c.StartIndex)
	w.U8(c.Length)
}

func readCpiData(r *layout.Reader) CpiData {
	return CpiData{Data: r.Vec(), StartIndex: r.U8(), Length: r.U8()}
}

// Encode writes the argument block.
func (a *ExecuteArgs) Encode(w *layout.Writer) {
	w.Raw(a.Passkey[:])
	w.Vec(a.Signature)
	w.Vec(a.Message.Bytes())
	w.U8(a.VerifyInstructionIndex)
	writeCpiData(w, &a.RuleData)
	w.Option(a.CpiData != nil, func(w *layout.Writer) { writeCpiData(w, a.CpiData) })
	w.U8(uint8(a.Action))
	w.Option(a.NewPasskey != nil, func(w *layout.Writer) { w.Raw(a.NewPasskey[:]) })
}

// DecodeExecuteArgs reads an argument block, rejecting trailing bytes.
func DecodeExecuteArgs(r *layout.Reader) (*ExecuteArgs, error) {
	a := &ExecuteArgs{}
	r.Raw(a.Passkey[:])
	a.Signature = r.Vec()
	rawMessage := r.Vec()
	a.VerifyInstructionIndex = r.U8()
	a.RuleData = readCpiData(r)
	if r.Option() {
		c := readCpiData(r)
		a.CpiData = &c
	}
	a.Action = Action(r.U8())
	if r.Option() {
		var p Passkey
		r.Raw(p[:])
		a.NewPasskey = &p
	}
	if err := r.Finish(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInstructionData, err)
	}
	if !a.Action.Valid() {
		return nil, fmt.Errorf("%w: unknown action %d", ErrInvalidInstructionData, a.Action)
	}
	msg, err := ParseMessage(rawMessage)
	if err != nil {
		return nil, err
	}
	a.Message = *msg
	return a, nil
}

// Invocation is a program call as seen by the signer: target, data and the
// ordered account keys.
type Invocation struct {
	Program  Address
	Data     []byte
	Accounts []Address
}

// ActionBinding is everything a signed payload commits to.
type ActionBinding struct {
	Action     Action
	Rule       Invocation
	Cpi        *Invocation
	NewPasskey *Passkey
}

var actionDomain = []byte("smartwallet:action:v1")

// Digest is the payload a passkey signs to authorize b.
func (b *ActionBinding) Digest() [32]byte {
	w := layout.NewWriter(256)
	w.Raw(actionDomain)
	w.U8(uint8(b.Action))
	writeInvocation(w, &b.Rule)
	w.Option(b.Cpi != nil, func(w *layout.Writer) { writeInvocation(w, b.Cpi) })
	w.Option(b.NewPasskey != nil, func(w *layout.Writer) { w.Raw(b.NewPasskey[:]) })
	return sha256.Sum256(w.Bytes())
}

func writeInvocation(w *layout.Writer, inv *Invocation) {
	w.Raw(inv.Program[:])
	w.Vec(inv.Data)
	w.U32(uint32(len(inv.Accounts)))
	for _, a := range inv.Accounts {
		w.Raw(a[:])
	}
}
