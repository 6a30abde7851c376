package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/internal/layout"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindDefault, KindOf(core.DefaultRuleID))
	assert.Equal(t, KindTransferLimit, KindOf(core.TransferLimitID))
	assert.Equal(t, KindExternal, KindOf(core.ProgramID))
	assert.Equal(t, "transfer_limit", KindTransferLimit.String())
}

func TestEntryPoint(t *testing.T) {
	assert.Equal(t, "check_rule", EntryPoint(Encode(core.SelectorCheckRule, nil)))
	assert.Equal(t, "add_member", EntryPoint(Encode(core.SelectorAddMember, func(w *layout.Writer) { w.U8(1) })))
	assert.Equal(t, "", EntryPoint([]byte{1, 2, 3}))
}

func TestEncodeDecode(t *testing.T) {
	data := Encode(core.SelectorDestroy, func(w *layout.Writer) { w.U64(7) })

	sel, r, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, core.SelectorDestroy, sel)
	assert.Equal(t, uint64(7), r.U64())
	assert.NoError(t, Finish(r))

	_, r, err = Decode(data)
	require.NoError(t, err)
	assert.ErrorIs(t, Finish(r), core.ErrInvalidInstructionData)

	_, _, err = Decode([]byte{1})
	assert.ErrorIs(t, err, core.ErrInvalidInstructionData)
}

func TestAccountDiscriminator(t *testing.T) {
	assert.NotEqual(t, AccountDiscriminator("Member"), AccountDiscriminator("RuleData"))
	assert.Equal(t, AccountDiscriminator("Rule"), AccountDiscriminator("Rule"))
}
