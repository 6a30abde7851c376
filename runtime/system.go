package runtime

import (
	"fmt"

	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/internal/layout"
)

// System instruction tags.
const (
	SystemCreateAccount uint32 = 0
	SystemAssign        uint32 = 1
	SystemTransfer      uint32 = 2
	SystemAllocate      uint32 = 8
)

// SystemProgram creates accounts, assigns owners and moves lamports out of
// system-owned accounts.
type SystemProgram struct{}

func (SystemProgram) ID() core.Address { return core.SystemProgramID }

func (SystemProgram) Process(ctx *Context, accounts []*AccountInfo, data []byte) error {
	r := layout.NewReader(data)
	tag := r.U32()
	if r.Err() != nil {
		return ErrInvalidInstruction
	}

	switch tag {
	case SystemCreateAccount:
		lamports, space := r.U64(), r.U64()
		var owner core.Address
		r.Raw(owner[:])
		if err := r.Finish(); err != nil || len(accounts) < 2 {
			return ErrInvalidInstruction
		}
		from, to := accounts[0], accounts[1]
		if err := requireSigner(from, to); err != nil {
			return err
		}
		if !to.IsEmpty() {
			return fmt.Errorf("%w: %s", ErrAccountAlreadyInUse, to.Key)
		}
		if err := ctx.Transfer(from, to, lamports); err != nil {
			return err
		}
		if err := allocate(ctx, to, space); err != nil {
			return err
		}
		to.account.Owner = owner
		return nil

	case SystemAssign:
		var owner core.Address
		r.Raw(owner[:])
		if err := r.Finish(); err != nil || len(accounts) < 1 {
			return ErrInvalidInstruction
		}
		if err := requireSigner(accounts[0]); err != nil {
			return err
		}
		if err := ctx.checkWritable(accounts[0]); err != nil {
			return err
		}
		if err := ctx.checkOwned(accounts[0]); err != nil {
			return err
		}
		accounts[0].account.Owner = owner
		return nil

	case SystemTransfer:
		lamports := r.U64()
		if err := r.Finish(); err != nil || len(accounts) < 2 {
			return ErrInvalidInstruction
		}
		from, to := accounts[0], accounts[1]
		if err := requireSigner(from); err != nil {
			return err
		}
		if from.DataLen() != 0 {
			return fmt.Errorf("%w: transfer source %s carries data", ErrInvalidInstruction, from.Key)
		}
		return ctx.Transfer(from, to, lamports)

	case SystemAllocate:
		space := r.U64()
		if err := r.Finish(); err != nil || len(accounts) < 1 {
			return ErrInvalidInstruction
		}
		if err := requireSigner(accounts[0]); err != nil {
			return err
		}
		return allocate(ctx, accounts[0], space)

	default:
		return fmt.Errorf("%w: tag %d", ErrInvalidInstruction, tag)
	}
}

func allocate(ctx *Context, info *AccountInfo, space uint64) error {
	if err := ctx.checkWritable(info); err != nil {
		return err
	}
	if err := ctx.checkOwned(info); err != nil {
		return err
	}
	if info.DataLen() != 0 {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyInUse, info.Key)
	}
	if space > MaxAccountDataSize {
		return fmt.Errorf("%w: %d bytes", ErrAccountDataSize, space)
	}
	info.account.Data = make([]byte, space)
	return nil
}

func requireSigner(infos ...*AccountInfo) error {
	for _, info := range infos {
		if !info.IsSigner {
			return fmt.Errorf("%w: %s", ErrMissingSignature, info.Key)
		}
	}
	return nil
}

// CreateAccountInstruction funds a new account with space bytes owned by owner.
func CreateAccountInstruction(from, to core.Address, lamports, space uint64, owner core.Address) Instruction {
	w := layout.NewWriter(52)
	w.U32(SystemCreateAccount)
	w.U64(lamports)
	w.U64(space)
	w.Raw(owner[:])
	return Instruction{
		ProgramID: core.SystemProgramID,
		Accounts:  []AccountMeta{Signer(from, true), Signer(to, true)},
		Data:      w.Bytes(),
	}
}

// TransferInstruction moves lamports out of a system-owned account.
func TransferInstruction(from, to core.Address, lamports uint64) Instruction {
	return Instruction{
		ProgramID: core.SystemProgramID,
		Accounts:  []AccountMeta{Signer(from, true), Writable(to)},
		Data:      TransferData(lamports),
	}
}

// TransferData encodes a system transfer.
func TransferData(lamports uint64) []byte {
	w := layout.NewWriter(12)
	w.U32(SystemTransfer)
	w.U64(lamports)
	return w.Bytes()
}

// AllocateInstruction sizes a system-owned account.
func AllocateInstruction(account core.Address, space uint64) Instruction {
	w := layout.NewWriter(12)
	w.U32(SystemAllocate)
	w.U64(space)
	return Instruction{
		ProgramID: core.SystemProgramID,
		Accounts:  []AccountMeta{Signer(account, true)},
		Data:      w.Bytes(),
	}
}

// AssignInstruction hands a system-owned account to owner.
func AssignInstruction(account, owner core.Address) Instruction {
	w := layout.NewWriter(36)
	w.U32(SystemAssign)
	w.Raw(owner[:])
	return Instruction{
		ProgramID: core.SystemProgramID,
		Accounts:  []AccountMeta{Signer(account, true)},
		Data:      w.Bytes(),
	}
}
