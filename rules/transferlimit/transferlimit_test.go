package transferlimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	smartwallet "github.com/layer-3/smartwallet"
	"github.com/layer-3/smartwallet/adapters/clock"
	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/rules/defaultrule"
	"github.com/layer-3/smartwallet/rules/transferlimit"
	"github.com/layer-3/smartwallet/runtime"
	"github.com/layer-3/smartwallet/sdk"
	"github.com/layer-3/smartwallet/service"
)

const limit = 5000

type fixture struct {
	t      *testing.T
	ctx    context.Context
	svc    *service.WalletService
	wallet core.Address
	admin  *sdk.Passkey
}

func newPasskey(t *testing.T) *sdk.Passkey {
	t.Helper()
	pk, err := sdk.GeneratePasskey(nil)
	require.NoError(t, err)
	return pk
}

// newFixture creates a funded wallet and moves it onto the transfer limit
// rule, with its first passkey as admin.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	svc, err := smartwallet.NewLocal(ctx, smartwallet.LocalOptions{
		Clock: clock.NewFixedClock(time.Unix(1_700_000_000, 0)),
	})
	require.NoError(t, err)

	f := &fixture{t: t, ctx: ctx, svc: svc, admin: newPasskey(t)}
	wallet, _, err := svc.CreateWallet(ctx, f.admin.PublicKey())
	require.NoError(t, err)
	f.wallet = wallet.Address
	require.NoError(t, svc.Airdrop(ctx, f.wallet, core.LamportsPerSOL))

	key := f.admin.PublicKey()
	auth := f.authAddress(key)
	destroy, err := defaultrule.DestroyInstruction(f.wallet, auth)
	require.NoError(t, err)
	install, err := transferlimit.InitRuleInstruction(svc.Relayer(), f.wallet, auth, transferlimit.InitRuleArgs{
		Passkey:     key,
		LimitAmount: limit,
		LimitPeriod: 86400,
	})
	require.NoError(t, err)
	_, err = f.execute(&sdk.Request{
		Wallet:  f.wallet,
		Passkey: key,
		Action:  core.ActionChangeProgramRule,
		Rule:    destroy,
		Cpi:     &install,
	}, f.admin)
	require.NoError(t, err)

	info, err := svc.Wallet(ctx, f.wallet)
	require.NoError(t, err)
	require.Equal(t, core.TransferLimitID, info.RuleProgram)
	return f
}

func (f *fixture) authAddress(passkey core.Passkey) core.Address {
	f.t.Helper()
	addr, err := sdk.AuthenticatorAddress(passkey, f.wallet)
	require.NoError(f.t, err)
	return addr
}

func (f *fixture) execute(req *sdk.Request, signer *sdk.Passkey) (*service.ExecuteResult, error) {
	f.t.Helper()
	msg, err := f.svc.PrepareMessage(f.ctx, req)
	require.NoError(f.t, err)
	sig, err := signer.Sign(msg.Bytes())
	require.NoError(f.t, err)
	return f.svc.Execute(f.ctx, req, msg, sig)
}

func (f *fixture) transfer(signer *sdk.Passkey, to core.Address, lamports uint64) error {
	f.t.Helper()
	req, err := f.svc.NativeTransferRequest(f.ctx, f.wallet, signer.PublicKey(), to, lamports)
	require.NoError(f.t, err)
	_, err = f.execute(req, signer)
	return err
}

func (f *fixture) addMember(by *sdk.Passkey, member core.Passkey) error {
	f.t.Helper()
	ix, err := transferlimit.AddMemberInstruction(
		f.svc.Relayer(), f.wallet, f.authAddress(by.PublicKey()), f.authAddress(member),
		transferlimit.AddMemberArgs{NewPasskey: member},
	)
	require.NoError(f.t, err)
	_, err = f.execute(&sdk.Request{
		Wallet:     f.wallet,
		Passkey:    by.PublicKey(),
		Action:     core.ActionCallRuleProgram,
		Rule:       ix,
		NewPasskey: &member,
	}, by)
	return err
}

func (f *fixture) balance(addr core.Address) uint64 {
	f.t.Helper()
	b, err := f.svc.Balance(f.ctx, addr)
	require.NoError(f.t, err)
	return b
}

func TestAdminIsNotLimited(t *testing.T) {
	f := newFixture(t)
	dest := core.Address{9}

	require.NoError(t, f.transfer(f.admin, dest, 10*limit))
	assert.Equal(t, uint64(10*limit), f.balance(dest))
}

func TestMemberTransfersWithinLimit(t *testing.T) {
	f := newFixture(t)
	member := newPasskey(t)
	require.NoError(t, f.addMember(f.admin, member.PublicKey()))

	auth, err := f.svc.Authenticator(f.ctx, f.wallet, member.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), auth.Nonce)

	dest := core.Address{9}
	require.NoError(t, f.transfer(member, dest, limit))
	assert.Equal(t, uint64(limit), f.balance(dest))

	err = f.transfer(member, dest, limit+1)
	assert.ErrorIs(t, err, transferlimit.ErrTransferLimitExceeded)
	assert.Equal(t, uint64(limit), f.balance(dest))

	auth, err = f.svc.Authenticator(f.ctx, f.wallet, member.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), auth.Nonce)
}

func TestMemberCheckMustMatchExecution(t *testing.T) {
	f := newFixture(t)
	member := newPasskey(t)
	require.NoError(t, f.addMember(f.admin, member.PublicKey()))

	req, err := f.svc.NativeTransferRequest(f.ctx, f.wallet, member.PublicKey(), core.Address{9}, 100*limit)
	require.NoError(t, err)
	// the check describes a small transfer, the execution a large one
	small := runtime.TransferInstruction(f.wallet, core.Address{9}, 1)
	req.Rule, err = transferlimit.CheckRuleInstruction(f.wallet, f.authAddress(member.PublicKey()), transferlimit.CheckRuleArgs{
		CpiData:   small.Data,
		ProgramID: small.ProgramID,
	})
	require.NoError(t, err)

	_, err = f.execute(req, member)
	assert.ErrorIs(t, err, transferlimit.ErrCheckMismatch)
	assert.Equal(t, uint64(0), f.balance(core.Address{9}))
}

func TestMemberCannotAddMembers(t *testing.T) {
	f := newFixture(t)
	member := newPasskey(t)
	require.NoError(t, f.addMember(f.admin, member.PublicKey()))

	outsider := newPasskey(t)
	err := f.addMember(member, outsider.PublicKey())
	assert.ErrorIs(t, err, transferlimit.ErrUnauthorized)

	_, err = f.svc.Authenticator(f.ctx, f.wallet, outsider.PublicKey())
	assert.ErrorIs(t, err, service.ErrAuthenticatorNotFound)
}

func TestUnenrolledPasskeyCannotTransfer(t *testing.T) {
	f := newFixture(t)
	stranger := newPasskey(t)

	req, err := f.svc.NativeTransferRequest(f.ctx, f.wallet, stranger.PublicKey(), core.Address{9}, 1)
	require.NoError(t, err)
	req.Payer = f.svc.Relayer()
	msg := req.Message(0, time.Unix(1_700_000_000, 0))
	sig, err := stranger.Sign(msg.Bytes())
	require.NoError(t, err)

	_, err = f.svc.Execute(f.ctx, req, msg, sig)
	assert.ErrorIs(t, err, core.ErrInvalidAccountData)
}
