package runtime

import (
	"context"
	"fmt"

	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/pda"
)

// MaxInvokeDepth bounds nested invocations, the top-level instruction
// counting as depth 1.
const MaxInvokeDepth = 4

// MaxAccountDataSize bounds allocations made through the system program.
const MaxAccountDataSize = 10 * 1024 * 1024

// Context is handed to a program for one invocation.
type Context struct {
	ctx     context.Context
	rt      *Runtime
	tx      *txState
	program core.Address
	depth   int
}

type txState struct {
	state *state
	tx    *Transaction
	index int
	now   int64
	logs  []string
}

// Context returns the request context.
func (c *Context) Context() context.Context { return c.ctx }

// ProgramID is the program currently executing.
func (c *Context) ProgramID() core.Address { return c.program }

// Depth is the invocation depth, 1 for a top-level instruction.
func (c *Context) Depth() int { return c.depth }

// UnixTimestamp is the clock reading taken when the transaction started.
func (c *Context) UnixTimestamp() int64 { return c.tx.now }

// CurrentInstructionIndex is the position of the executing top-level instruction.
func (c *Context) CurrentInstructionIndex() int { return c.tx.index }

// Log appends a program log line to the receipt.
func (c *Context) Log(format string, args ...any) {
	c.tx.logs = append(c.tx.logs, "Program log: "+fmt.Sprintf(format, args...))
}

// InstructionAt loads a top-level instruction of the running transaction.
// sysvar must be the instructions sysvar account.
func (c *Context) InstructionAt(sysvar *AccountInfo, index int) (*Instruction, error) {
	if sysvar.Key != core.InstructionsSysvar {
		return nil, fmt.Errorf("%w: not the instructions sysvar", ErrMissingAccount)
	}
	ixs := c.tx.tx.Instructions
	if index < 0 || index >= len(ixs) {
		return nil, fmt.Errorf("%w: %d", ErrInstructionIndex, index)
	}
	return ixs[index].clone(), nil
}

// Invoke calls another program. Each entry of signerSeeds must derive,
// under the calling program, an address the callee sees as a signer.
func (c *Context) Invoke(ix Instruction, accounts []*AccountInfo, signerSeeds ...[][]byte) error {
	if c.depth >= MaxInvokeDepth {
		return ErrCallDepth
	}

	pdaSigners := make(map[core.Address]bool, len(signerSeeds))
	for _, seeds := range signerSeeds {
		addr, err := pda.CreateProgramAddress(seeds, c.program)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSeeds, err)
		}
		pdaSigners[addr] = true
	}

	byKey := make(map[core.Address]*AccountInfo, len(accounts))
	for _, a := range accounts {
		byKey[a.Key] = a
	}

	infos := make([]*AccountInfo, len(ix.Accounts))
	for i, meta := range ix.Accounts {
		caller, ok := byKey[meta.Address]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingAccount, meta.Address)
		}
		if meta.IsSigner && !caller.IsSigner && !pdaSigners[meta.Address] {
			return fmt.Errorf("%w: %s is not a signer", ErrPrivilegeEscalation, meta.Address)
		}
		if meta.IsWritable && !caller.IsWritable {
			return fmt.Errorf("%w: %s is not writable", ErrPrivilegeEscalation, meta.Address)
		}
		infos[i] = &AccountInfo{
			Key:        meta.Address,
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
			account:    caller.account,
		}
	}

	return c.rt.process(c.ctx, c.tx, ix.ProgramID, infos, ix.Data, c.depth+1)
}

// Transfer moves lamports between accounts. The source must be owned by the
// executing program.
func (c *Context) Transfer(from, to *AccountInfo, lamports uint64) error {
	if err := c.checkWritable(from); err != nil {
		return err
	}
	if err := c.checkOwned(from); err != nil {
		return err
	}
	if !to.IsWritable {
		return fmt.Errorf("%w: %s", ErrReadonlyAccount, to.Key)
	}
	if from.account == to.account {
		return nil
	}
	if from.account.Lamports < lamports {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientLamports, from.Key, from.account.Lamports, lamports)
	}
	if to.account.Lamports+lamports < to.account.Lamports {
		return core.ErrArithmeticOverflow
	}
	from.account.Lamports -= lamports
	to.account.Lamports += lamports
	return nil
}

// SetData overwrites the data of an account owned by the executing program.
// The length may not change.
func (c *Context) SetData(info *AccountInfo, data []byte) error {
	if err := c.checkWritable(info); err != nil {
		return err
	}
	if err := c.checkOwned(info); err != nil {
		return err
	}
	if len(data) != len(info.account.Data) {
		return fmt.Errorf("%w: %s has %d bytes, got %d", ErrAccountDataSize, info.Key, len(info.account.Data), len(data))
	}
	copy(info.account.Data, data)
	return nil
}

// Close drains an owned account into dest and returns it to the system
// program with no data.
func (c *Context) Close(info, dest *AccountInfo) error {
	if err := c.Transfer(info, dest, info.account.Lamports); err != nil {
		return err
	}
	info.account.Data = nil
	info.account.Owner = core.SystemProgramID
	return nil
}

func (c *Context) checkWritable(info *AccountInfo) error {
	if !info.IsWritable {
		return fmt.Errorf("%w: %s", ErrReadonlyAccount, info.Key)
	}
	if info.account.Executable {
		return fmt.Errorf("%w: %s is executable", ErrReadonlyAccount, info.Key)
	}
	return nil
}

func (c *Context) checkOwned(info *AccountInfo) error {
	if info.account.Owner != c.program {
		return fmt.Errorf("%w: %s owned by %s", ErrExternalAccountModified, info.Key, info.account.Owner)
	}
	return nil
}

// CreateDerivedAccount allocates space bytes at d, owned by owner and funded
// to the rent-exempt minimum by payer. d must be derived under the executing
// program, which signs for it. A pre-funded address is topped up instead.
func (c *Context) CreateDerivedAccount(payer, target *AccountInfo, d pda.Derived, space int, owner core.Address) error {
	if d.Program() != c.program {
		return fmt.Errorf("%w: %s is not derived under %s", ErrInvalidSeeds, target.Key, c.program)
	}
	if err := d.Expect(target.Key); err != nil {
		return err
	}
	accounts := []*AccountInfo{payer, target}
	seeds := d.SignerSeeds()
	rent := MinimumBalance(space)

	if target.Lamports() == 0 {
		ix := CreateAccountInstruction(payer.Key, target.Key, rent, uint64(space), owner)
		return c.Invoke(ix, accounts, seeds)
	}

	if target.Owner() != core.SystemProgramID || target.DataLen() != 0 {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyInUse, target.Key)
	}
	if target.Lamports() < rent {
		if err := c.Invoke(TransferInstruction(payer.Key, target.Key, rent-target.Lamports()), accounts); err != nil {
			return err
		}
	}
	if err := c.Invoke(AllocateInstruction(target.Key, uint64(space)), accounts, seeds); err != nil {
		return err
	}
	return c.Invoke(AssignInstruction(target.Key, owner), accounts, seeds)
}
