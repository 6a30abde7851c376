package program

import (
	"fmt"

	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/internal/layout"
)

// Instruction discriminators.
const (
	IxInitialize        uint8 = 1
	IxCreateSmartWallet uint8 = 2
	IxExecute           uint8 = 3
	IxUpsertWhitelist   uint8 = 4
)

// InitializeArgs are the engine-wide tunables fixed at initialization.
type InitializeArgs struct {
	CreateWalletFee        uint64
	ReplayWindow           int64
	ReimbursementAllowance uint64
}

// CreateSmartWalletArgs creates a wallet controlled by Passkey. RuleData is
// passed to the default rule's init entry point.
type CreateSmartWalletArgs struct {
	Passkey  core.Passkey
	RuleData []byte
}

// UpsertWhitelistArgs adds Program to the rule program whitelist.
type UpsertWhitelistArgs struct {
	Program core.Address
}

// EncodeInitialize returns instruction data for Initialize.
func EncodeInitialize(args InitializeArgs) []byte {
	w := layout.NewWriter(25)
	w.U8(IxInitialize)
	w.U64(args.CreateWalletFee)
	w.I64(args.ReplayWindow)
	w.U64(args.ReimbursementAllowance)
	return w.Bytes()
}

// EncodeCreateSmartWallet returns instruction data for CreateSmartWallet.
func EncodeCreateSmartWallet(args CreateSmartWalletArgs) []byte {
	w := layout.NewWriter(1 + core.PasskeyLength + 4 + len(args.RuleData))
	w.U8(IxCreateSmartWallet)
	w.Raw(args.Passkey[:])
	w.Vec(args.RuleData)
	return w.Bytes()
}

// EncodeExecute returns instruction data for ExecuteInstruction.
func EncodeExecute(args *core.ExecuteArgs) []byte {
	w := layout.NewWriter(256)
	w.U8(IxExecute)
	args.Encode(w)
	return w.Bytes()
}

// EncodeUpsertWhitelist returns instruction data for UpsertWhitelistRulePrograms.
func EncodeUpsertWhitelist(args UpsertWhitelistArgs) []byte {
	w := layout.NewWriter(33)
	w.U8(IxUpsertWhitelist)
	w.Raw(args.Program[:])
	return w.Bytes()
}

func decodeInitialize(r *layout.Reader) (InitializeArgs, error) {
	args := InitializeArgs{
		CreateWalletFee:        r.U64(),
		ReplayWindow:           r.I64(),
		ReimbursementAllowance: r.U64(),
	}
	return args, finish(r)
}

func decodeCreateSmartWallet(r *layout.Reader) (CreateSmartWalletArgs, error) {
	var args CreateSmartWalletArgs
	r.Raw(args.Passkey[:])
	args.RuleData = r.Vec()
	return args, finish(r)
}

func decodeUpsertWhitelist(r *layout.Reader) (UpsertWhitelistArgs, error) {
	var args UpsertWhitelistArgs
	r.Raw(args.Program[:])
	return args, finish(r)
}

func finish(r *layout.Reader) error {
	if err := r.Finish(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidInstructionData, err)
	}
	return nil
}
