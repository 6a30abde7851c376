package http

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"

	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/runtime"
	"github.com/layer-3/smartwallet/sdk"
)

// AccountMetaJSON is an account reference in an instruction
type AccountMetaJSON struct {
	Address    core.Address `json:"address"`
	IsSigner   bool         `json:"is_signer"`
	IsWritable bool         `json:"is_writable"`
}

// InstructionJSON is the wire form of a runtime instruction
type InstructionJSON struct {
	ProgramID core.Address      `json:"program_id"`
	Accounts  []AccountMetaJSON `json:"accounts"`
	Data      hexutil.Bytes     `json:"data"`
}

func newInstructionJSON(ix runtime.Instruction) InstructionJSON {
	out := InstructionJSON{ProgramID: ix.ProgramID, Data: ix.Data, Accounts: make([]AccountMetaJSON, len(ix.Accounts))}
	for i, m := range ix.Accounts {
		out.Accounts[i] = AccountMetaJSON{Address: m.Address, IsSigner: m.IsSigner, IsWritable: m.IsWritable}
	}
	return out
}

func (j InstructionJSON) instruction() runtime.Instruction {
	ix := runtime.Instruction{ProgramID: j.ProgramID, Data: j.Data, Accounts: make([]runtime.AccountMeta, len(j.Accounts))}
	for i, m := range j.Accounts {
		ix.Accounts[i] = runtime.AccountMeta{Address: m.Address, IsSigner: m.IsSigner, IsWritable: m.IsWritable}
	}
	return ix
}

// ActionJSON describes an action a passkey authorizes
type ActionJSON struct {
	Passkey    core.Passkey     `json:"passkey" binding:"required"`
	Action     string           `json:"action" binding:"required"`
	Rule       InstructionJSON  `json:"rule"`
	Cpi        *InstructionJSON `json:"cpi,omitempty"`
	NewPasskey *core.Passkey    `json:"new_passkey,omitempty"`
}

func newActionJSON(req *sdk.Request) ActionJSON {
	out := ActionJSON{
		Passkey:    req.Passkey,
		Action:     req.Action.String(),
		Rule:       newInstructionJSON(req.Rule),
		NewPasskey: req.NewPasskey,
	}
	if req.Cpi != nil {
		cpi := newInstructionJSON(*req.Cpi)
		out.Cpi = &cpi
	}
	return out
}

func (j *ActionJSON) request(wallet core.Address) (*sdk.Request, error) {
	action, err := core.ParseAction(j.Action)
	if err != nil {
		return nil, err
	}
	req := &sdk.Request{
		Wallet:     wallet,
		Passkey:    j.Passkey,
		Action:     action,
		Rule:       j.Rule.instruction(),
		NewPasskey: j.NewPasskey,
	}
	if j.Cpi != nil {
		cpi := j.Cpi.instruction()
		req.Cpi = &cpi
	}
	return req, nil
}

// MessageJSON is a message to be signed by a passkey
type MessageJSON struct {
	Nonce     uint64        `json:"nonce"`
	Timestamp int64         `json:"timestamp"`
	Payload   hexutil.Bytes `json:"payload"`
	Bytes     hexutil.Bytes `json:"bytes"`
}

func newMessageJSON(msg core.Message) MessageJSON {
	return MessageJSON{Nonce: msg.Nonce, Timestamp: msg.Timestamp, Payload: msg.Payload, Bytes: msg.Bytes()}
}

// PreparedAction is returned by the message endpoints
type PreparedAction struct {
	Request ActionJSON  `json:"request"`
	Message MessageJSON `json:"message"`
}

// ExecuteRequest relays a signed action
type ExecuteRequest struct {
	ActionJSON
	Message   hexutil.Bytes `json:"message" binding:"required"`
	Signature hexutil.Bytes `json:"signature" binding:"required"`
}

func sol(lamports uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -9).String()
}
