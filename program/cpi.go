package program

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/pda"
	"github.com/layer-3/smartwallet/runtime"
)

// accountSlice returns the window of remaining accounts described by c.
func accountSlice(remaining []*runtime.AccountInfo, c *core.CpiData) ([]*runtime.AccountInfo, error) {
	start, end := int(c.StartIndex), int(c.StartIndex)+int(c.Length)
	if end > len(remaining) {
		return nil, fmt.Errorf("%w: accounts [%d:%d] out of %d remaining", core.ErrInvalidAccountInput, start, end, len(remaining))
	}
	return remaining[start:end], nil
}

func keys(infos []*runtime.AccountInfo) []core.Address {
	out := make([]core.Address, len(infos))
	for i, info := range infos {
		out[i] = info.Key
	}
	return out
}

// invokeSigned calls program with infos, marking signer's address as a
// signer and proving it with signer's seeds.
func invokeSigned(ctx *runtime.Context, program core.Address, infos []*runtime.AccountInfo, data []byte, signer pda.Derived) error {
	metas := make([]runtime.AccountMeta, len(infos))
	for i, info := range infos {
		metas[i] = runtime.AccountMeta{
			Address:    info.Key,
			IsSigner:   info.IsSigner || info.Key == signer.Address(),
			IsWritable: info.IsWritable,
		}
	}
	ix := runtime.Instruction{ProgramID: program, Accounts: metas, Data: data}
	return ctx.Invoke(ix, infos, signer.SignerSeeds())
}

// transferFromWallet moves lamports out of the engine-owned wallet.
func transferFromWallet(ctx *runtime.Context, wallet, to *runtime.AccountInfo, lamports uint64) error {
	if lamports == 0 {
		return nil
	}
	err := ctx.Transfer(wallet, to, lamports)
	if errors.Is(err, runtime.ErrInsufficientLamports) {
		return fmt.Errorf("%w: %v", core.ErrInsufficientFunds, err)
	}
	return err
}

// nativeTransfer executes a system transfer whose source is the wallet.
// The wallet carries no system signature, so the engine moves the lamports
// itself. slice must be [wallet, destination, ...].
func nativeTransfer(ctx *runtime.Context, wallet *runtime.AccountInfo, slice []*runtime.AccountInfo, data []byte) error {
	if len(data) < 12 {
		return fmt.Errorf("%w: transfer data is %d bytes", core.ErrInvalidInstructionData, len(data))
	}
	if len(slice) < 2 {
		return fmt.Errorf("%w: transfer needs source and destination", core.ErrInvalidAccountInput)
	}
	if slice[0].Key != wallet.Key {
		return fmt.Errorf("%w: transfer source %s is not the wallet", core.ErrInvalidAccountInput, slice[0].Key)
	}
	amount := binary.LittleEndian.Uint64(data[4:12])
	ctx.Log("native transfer of %d lamports to %s", amount, slice[1].Key)
	return transferFromWallet(ctx, wallet, slice[1], amount)
}
