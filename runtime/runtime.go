// Package runtime simulates the account-model host the wallet engine runs
// on: programs own accounts, instructions name the accounts they touch,
// programs call each other with derived-address signatures, and a
// transaction either commits every change or none.
package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/ports"
)

// Program is an on-chain program.
type Program interface {
	ID() core.Address
	Process(ctx *Context, accounts []*AccountInfo, data []byte) error
}

// Runtime executes transactions against an AccountStore. Transactions are
// serialized.
type Runtime struct {
	store           ports.AccountStore
	clock           ports.Clock
	logger          zerolog.Logger
	feePerSignature uint64

	mu       sync.Mutex
	programs map[core.Address]Program
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the runtime logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Runtime) { r.logger = l }
}

// WithFeePerSignature sets the fee charged to the fee payer per signature.
func WithFeePerSignature(lamports uint64) Option {
	return func(r *Runtime) { r.feePerSignature = lamports }
}

// New creates a runtime with the system program and the secp256r1
// precompile registered.
func New(store ports.AccountStore, clock ports.Clock, opts ...Option) *Runtime {
	r := &Runtime{
		store:    store,
		clock:    clock,
		logger:   zerolog.Nop(),
		programs: make(map[core.Address]Program),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.Register(SystemProgram{})
	r.Register(secp256r1Precompile{})
	return r
}

// Register makes p callable. Registering an id twice replaces the program.
func (r *Runtime) Register(p Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.programs[p.ID()] = p
}

// Account returns the committed state of addr. Unknown addresses yield an
// empty system account.
func (r *Runtime) Account(ctx context.Context, addr core.Address) (*core.Account, error) {
	acc, err := r.store.GetAccount(ctx, addr)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return &core.Account{}, nil
	}
	return acc, nil
}

// Airdrop credits lamports to addr outside of any transaction.
func (r *Runtime) Airdrop(ctx context.Context, addr core.Address, lamports uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, err := r.Account(ctx, addr)
	if err != nil {
		return err
	}
	if acc.Lamports+lamports < acc.Lamports {
		return core.ErrArithmeticOverflow
	}
	acc.Lamports += lamports
	return r.store.CommitAccounts(ctx, map[core.Address]*core.Account{addr: acc})
}

// Execute runs tx atomically. On failure the returned receipt still
// carries the program logs, and no state is written.
func (r *Runtime) Execute(ctx context.Context, tx *Transaction) (*Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	receipt := &Receipt{ID: uuid.New().String()}
	logger := r.logger.With().Str("tx", receipt.ID).Logger()

	if len(tx.Instructions) == 0 {
		return receipt, ErrEmptyTransaction
	}
	if err := verifyPrecompiles(tx); err != nil {
		logger.Debug().Err(err).Msg("precompile rejected transaction")
		return receipt, err
	}

	st := newState(ctx, r.store, r.programs)
	ts := &txState{state: st, tx: tx, now: r.clock.Now().Unix()}

	fee := r.feePerSignature * tx.signatureCount()
	payer, err := st.load(tx.FeePayer)
	if err != nil {
		return receipt, err
	}
	if payer.Lamports < fee {
		return receipt, fmt.Errorf("%w: %s", ErrInsufficientFundsForFee, tx.FeePayer)
	}
	payer.Lamports -= fee

	for i := range tx.Instructions {
		ix := &tx.Instructions[i]
		if ix.ProgramID == core.Secp256r1ProgramID {
			continue
		}
		ts.index = i

		infos := make([]*AccountInfo, len(ix.Accounts))
		for j, meta := range ix.Accounts {
			if meta.IsSigner && !tx.signed(meta.Address) {
				receipt.Logs = ts.logs
				return receipt, fmt.Errorf("%w: %s", ErrMissingSignature, meta.Address)
			}
			acc, err := st.load(meta.Address)
			if err != nil {
				return receipt, err
			}
			infos[j] = &AccountInfo{
				Key:        meta.Address,
				IsSigner:   meta.IsSigner,
				IsWritable: meta.IsWritable,
				account:    acc,
			}
		}

		if err := r.process(ctx, ts, ix.ProgramID, infos, ix.Data, 1); err != nil {
			receipt.Logs = ts.logs
			logger.Debug().Err(err).Int("instruction", i).Msg("transaction failed")
			return receipt, fmt.Errorf("instruction %d: %w", i, err)
		}
	}

	receipt.Logs = ts.logs
	if !st.balanced(fee) {
		return receipt, ErrUnbalanced
	}
	if err := st.commit(); err != nil {
		return receipt, fmt.Errorf("failed to commit transaction: %w", err)
	}
	receipt.Fee = fee

	logger.Debug().
		Int("instructions", len(tx.Instructions)).
		Uint64("fee", fee).
		Msg("transaction committed")
	return receipt, nil
}

func (r *Runtime) process(ctx context.Context, ts *txState, programID core.Address, infos []*AccountInfo, data []byte, depth int) error {
	prog, ok := r.programs[programID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProgram, programID)
	}
	if _, err := ts.state.load(programID); err != nil {
		return err
	}

	ts.logs = append(ts.logs, fmt.Sprintf("Program %s invoke [%d]", programID, depth))
	c := &Context{ctx: ctx, rt: r, tx: ts, program: programID, depth: depth}
	if err := prog.Process(c, infos, data); err != nil {
		ts.logs = append(ts.logs, fmt.Sprintf("Program %s failed: %v", programID, err))
		return err
	}
	ts.logs = append(ts.logs, fmt.Sprintf("Program %s success", programID))
	return nil
}
