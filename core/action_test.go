package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/smartwallet/internal/layout"
)

func TestActionNames(t *testing.T) {
	for _, name := range []string{"execute_cpi", "change_program_rule", "check_authenticator", "call_rule_program"} {
		a, err := ParseAction(name)
		require.NoError(t, err)
		assert.Equal(t, name, a.String())
	}
	_, err := ParseAction("withdraw")
	assert.ErrorIs(t, err, ErrInvalidInstructionData)
}

func TestExecuteArgsEncoding(t *testing.T) {
	var pk, newPk Passkey
	pk[0], newPk[0] = 0x02, 0x03
	in := &ExecuteArgs{
		Passkey:                pk,
		Signature:              make([]byte, SignatureLength),
		Message:                Message{Nonce: 2, Timestamp: 100, Payload: []byte{1}},
		VerifyInstructionIndex: 0,
		RuleData:               CpiData{Data: []byte{1, 2}, StartIndex: 0, Length: 2},
		CpiData:                &CpiData{Data: []byte{3}, StartIndex: 2, Length: 1},
		Action:                 ActionCallRuleProgram,
		NewPasskey:             &newPk,
	}
	w := layout.NewWriter(0)
	in.Encode(w)

	out, err := DecodeExecuteArgs(layout.NewReader(w.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeExecuteArgsRejectsUnknownAction(t *testing.T) {
	in := &ExecuteArgs{Signature: make([]byte, SignatureLength), Action: Action(9)}
	w := layout.NewWriter(0)
	in.Encode(w)

	_, err := DecodeExecuteArgs(layout.NewReader(w.Bytes()))
	assert.ErrorIs(t, err, ErrInvalidInstructionData)
}

func TestDigestCoversEveryField(t *testing.T) {
	var pk Passkey
	pk[0] = 0x02
	base := func() *ActionBinding {
		return &ActionBinding{
			Action: ActionExecuteCpi,
			Rule:   Invocation{Program: DefaultRuleID, Data: []byte{1}, Accounts: []Address{ProgramID}},
			Cpi:    &Invocation{Program: SystemProgramID, Data: []byte{2}, Accounts: []Address{TokenProgramID}},
		}
	}
	ref := base().Digest()

	mutations := map[string]func(b *ActionBinding){
		"action":       func(b *ActionBinding) { b.Action = ActionCheckAuthenticator },
		"rule program": func(b *ActionBinding) { b.Rule.Program = TransferLimitID },
		"rule data":    func(b *ActionBinding) { b.Rule.Data = []byte{9} },
		"rule account": func(b *ActionBinding) { b.Rule.Accounts[0] = DefaultRuleID },
		"cpi program":  func(b *ActionBinding) { b.Cpi.Program = TokenProgramID },
		"cpi data":     func(b *ActionBinding) { b.Cpi.Data = nil },
		"cpi accounts": func(b *ActionBinding) { b.Cpi.Accounts = append(b.Cpi.Accounts, ProgramID) },
		"no cpi":       func(b *ActionBinding) { b.Cpi = nil },
		"new passkey":  func(b *ActionBinding) { b.NewPasskey = &pk },
	}
	for name, mutate := range mutations {
		b := base()
		mutate(b)
		assert.NotEqual(t, ref, b.Digest(), name)
	}
	assert.Equal(t, ref, base().Digest())
}

func TestSelectors(t *testing.T) {
	assert.True(t, SelectorCheckRule.Matches(append(SelectorCheckRule[:], 1, 2)))
	assert.False(t, SelectorCheckRule.Matches(SelectorInitRule[:]))
	assert.False(t, SelectorCheckRule.Matches(SelectorCheckRule[:4]))
	assert.NotEqual(t, SelectorDestroy, SelectorAddMember)
}

func TestIsNativeTransfer(t *testing.T) {
	data := []byte{2, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0}
	assert.True(t, IsNativeTransfer(SystemProgramID, data))
	assert.False(t, IsNativeTransfer(TokenProgramID, data))
	assert.False(t, IsNativeTransfer(SystemProgramID, []byte{0, 0, 0, 0}))
}
