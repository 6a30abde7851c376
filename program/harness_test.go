package program_test

import (
	"context"
	"crypto/sha256"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/layer-3/smartwallet/adapters/clock"
	"github.com/layer-3/smartwallet/adapters/store"
	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/program"
	"github.com/layer-3/smartwallet/rules/defaultrule"
	"github.com/layer-3/smartwallet/rules/transferlimit"
	"github.com/layer-3/smartwallet/runtime"
	"github.com/layer-3/smartwallet/sdk"
)

const txFee = 5000

var rogueID = named("rogue-rule")

// rogueRule accepts every instruction. It is registered but never
// whitelisted.
type rogueRule struct{}

func (rogueRule) ID() core.Address { return rogueID }

func (rogueRule) Process(ctx *runtime.Context, accounts []*runtime.AccountInfo, _ []byte) error {
	if len(accounts) > 0 && accounts[0].IsSigner {
		ctx.Log("signed by %s", accounts[0].Key)
	}
	return nil
}

func named(name string) core.Address {
	return core.Address(sha256.Sum256([]byte(name)))
}

type harness struct {
	t       *testing.T
	ctx     context.Context
	rt      *runtime.Runtime
	clock   *clock.FixedClock
	relayer core.Address
}

func defaultInit() program.InitializeArgs {
	return program.InitializeArgs{
		ReplayWindow:           core.DefaultReplayWindow,
		ReimbursementAllowance: core.DefaultReimbursementAllowance,
	}
}

func newHarness(t *testing.T, args program.InitializeArgs) *harness {
	t.Helper()
	c := clock.NewFixedClock(time.Unix(1_700_000_000, 0))
	rt := runtime.New(store.NewMemoryStore(), c, runtime.WithFeePerSignature(txFee))
	rt.Register(program.New())
	rt.Register(defaultrule.New())
	rt.Register(transferlimit.New())
	rt.Register(rogueRule{})

	h := &harness{t: t, ctx: context.Background(), rt: rt, clock: c, relayer: named("relayer")}
	require.NoError(t, rt.Airdrop(h.ctx, h.relayer, 100*core.LamportsPerSOL))
	h.mustRun(
		sdk.InitializeInstruction(h.relayer, args),
		sdk.UpsertWhitelistInstruction(h.relayer, core.TransferLimitID),
	)
	return h
}

func (h *harness) run(ixs ...runtime.Instruction) (*runtime.Receipt, error) {
	return h.rt.Execute(h.ctx, &runtime.Transaction{FeePayer: h.relayer, Instructions: ixs})
}

func (h *harness) mustRun(ixs ...runtime.Instruction) *runtime.Receipt {
	h.t.Helper()
	receipt, err := h.run(ixs...)
	require.NoError(h.t, err, "logs: %v", receipt.Logs)
	return receipt
}

func (h *harness) account(addr core.Address) *core.Account {
	h.t.Helper()
	acc, err := h.rt.Account(h.ctx, addr)
	require.NoError(h.t, err)
	return acc
}

func (h *harness) lamports(addr core.Address) uint64 {
	h.t.Helper()
	return h.account(addr).Lamports
}

func (h *harness) fund(addr core.Address, lamports uint64) {
	h.t.Helper()
	require.NoError(h.t, h.rt.Airdrop(h.ctx, addr, lamports))
}

func (h *harness) sequence() uint64 {
	h.t.Helper()
	seq := &core.Sequence{}
	require.NoError(h.t, seq.UnmarshalBinary(h.account(program.SequenceAddress()).Data))
	return seq.Seq
}

func (h *harness) whitelist() *core.Whitelist {
	h.t.Helper()
	wl := &core.Whitelist{}
	require.NoError(h.t, wl.UnmarshalBinary(h.account(program.WhitelistAddress()).Data))
	return wl
}

func (h *harness) walletConfig(w sdk.WalletAddresses) *core.WalletConfig {
	h.t.Helper()
	cfg := &core.WalletConfig{}
	require.NoError(h.t, cfg.UnmarshalBinary(h.account(w.WalletConfig).Data))
	return cfg
}

// authenticator returns nil if passkey is not enrolled on wallet.
func (h *harness) authenticator(wallet core.Address, passkey core.Passkey) *core.Authenticator {
	h.t.Helper()
	addr, err := sdk.AuthenticatorAddress(passkey, wallet)
	require.NoError(h.t, err)
	acc := h.account(addr)
	if acc.Owner != core.ProgramID {
		return nil
	}
	auth := &core.Authenticator{}
	require.NoError(h.t, auth.UnmarshalBinary(acc.Data))
	return auth
}

func (h *harness) authAddress(wallet core.Address, passkey core.Passkey) core.Address {
	h.t.Helper()
	addr, err := sdk.AuthenticatorAddress(passkey, wallet)
	require.NoError(h.t, err)
	return addr
}

func (h *harness) nonce(wallet core.Address, passkey core.Passkey) uint64 {
	if auth := h.authenticator(wallet, passkey); auth != nil {
		return auth.Nonce
	}
	return 0
}

func newPasskey(t *testing.T) *sdk.Passkey {
	t.Helper()
	pk, err := sdk.GeneratePasskey(nil)
	require.NoError(t, err)
	return pk
}

func (h *harness) createWallet(pk *sdk.Passkey) sdk.WalletAddresses {
	h.t.Helper()
	ix, addrs, err := sdk.CreateSmartWalletInstruction(h.relayer, h.sequence(), pk.PublicKey())
	require.NoError(h.t, err)
	h.mustRun(ix)
	return addrs
}

// signAt signs req with signer at the given time using the current nonce
// of req.Passkey.
func (h *harness) signAt(req *sdk.Request, signer *sdk.Passkey, at time.Time) *runtime.Transaction {
	h.t.Helper()
	req.Payer = h.relayer
	tx, err := req.Sign(signer, h.nonce(req.Wallet, req.Passkey), at)
	require.NoError(h.t, err)
	return tx
}

func (h *harness) send(req *sdk.Request, signer *sdk.Passkey) (*runtime.Receipt, error) {
	h.t.Helper()
	return h.rt.Execute(h.ctx, h.signAt(req, signer, h.clock.Now()))
}

func (h *harness) transferRequest(w sdk.WalletAddresses, pk core.Passkey, to core.Address, lamports uint64) *sdk.Request {
	h.t.Helper()
	check, err := defaultrule.CheckRuleInstruction(w.Wallet, h.authAddress(w.Wallet, pk))
	require.NoError(h.t, err)
	transfer := runtime.TransferInstruction(w.Wallet, to, lamports)
	return &sdk.Request{
		Wallet:  w.Wallet,
		Passkey: pk,
		Action:  core.ActionExecuteCpi,
		Rule:    check,
		Cpi:     &transfer,
	}
}
