// Package program is the smart-wallet engine: it creates passkey-controlled
// wallets and executes actions authorized by a fresh passkey signature and
// the wallet's rule program.
package program

import (
	"fmt"

	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/internal/layout"
	"github.com/layer-3/smartwallet/runtime"
)

// Program implements runtime.Program for the engine.
type Program struct{}

// New returns the engine program.
func New() *Program { return &Program{} }

// ID returns core.ProgramID.
func (*Program) ID() core.Address { return core.ProgramID }

// Process decodes an engine instruction and runs it.
func (p *Program) Process(ctx *runtime.Context, accounts []*runtime.AccountInfo, data []byte) error {
	if len(data) == 0 {
		return core.ErrInvalidInstructionData
	}
	r := layout.NewReader(data[1:])

	switch data[0] {
	case IxInitialize:
		args, err := decodeInitialize(r)
		if err != nil {
			return err
		}
		return p.initialize(ctx, accounts, args)

	case IxCreateSmartWallet:
		args, err := decodeCreateSmartWallet(r)
		if err != nil {
			return err
		}
		return p.createSmartWallet(ctx, accounts, args)

	case IxExecute:
		args, err := core.DecodeExecuteArgs(r)
		if err != nil {
			return err
		}
		return p.execute(ctx, accounts, args)

	case IxUpsertWhitelist:
		args, err := decodeUpsertWhitelist(r)
		if err != nil {
			return err
		}
		return p.upsertWhitelist(ctx, accounts, args)

	default:
		return fmt.Errorf("%w: unknown instruction %d", core.ErrInvalidInstructionData, data[0])
	}
}
