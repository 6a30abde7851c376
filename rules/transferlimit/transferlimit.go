// Package transferlimit is a rule program with two roles. Admins may do
// anything; members may only move lamports or tokens up to a per-wallet
// limit. The passkey that installs the rule becomes its first admin.
package transferlimit

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/internal/layout"
	"github.com/layer-3/smartwallet/program"
	"github.com/layer-3/smartwallet/rules"
	"github.com/layer-3/smartwallet/runtime"
)

var (
	// ErrMemberNotInitialized is returned when the signer has no membership record
	ErrMemberNotInitialized = core.NewError(6200, "MemberNotInitialized", "member not initialized")
	// ErrUnauthorized is returned when a member attempts something only admins may do
	ErrUnauthorized = core.NewError(6201, "UnAuthorize", "unauthorized")
	// ErrTransferLimitExceeded is returned when a member transfer exceeds the limit
	ErrTransferLimitExceeded = core.NewError(6202, "TransferLimitExceeded", "transfer limit exceeded")
	// ErrCheckMismatch is returned when the checked instruction is not the one being executed
	ErrCheckMismatch = core.NewError(6203, "CheckMismatch", "checked instruction does not match execution")
	// ErrInvalidRuleData is returned when the limit record is misplaced or malformed
	ErrInvalidRuleData = core.NewError(6204, "InvalidRuleData", "invalid rule data account")
)

// SPL token instruction tags that move tokens.
const (
	tokenTransfer        = 3
	tokenTransferChecked = 12
)

// InitRuleArgs installs a limit and makes Passkey's authenticator an admin.
type InitRuleArgs struct {
	Passkey     core.Passkey
	Token       *core.Address
	LimitAmount uint64
	LimitPeriod uint64
}

// CheckRuleArgs describes the delegated instruction being authorized.
type CheckRuleArgs struct {
	Token     *core.Address
	CpiData   []byte
	ProgramID core.Address
}

// AddMemberArgs grants the member role to NewPasskey's authenticator.
type AddMemberArgs struct {
	NewPasskey core.Passkey
}

func writeToken(w *layout.Writer, token *core.Address) {
	w.Option(token != nil, func(w *layout.Writer) { w.Raw(token[:]) })
}

func readToken(r *layout.Reader) *core.Address {
	if !r.Option() {
		return nil
	}
	var t core.Address
	r.Raw(t[:])
	return &t
}

func (a *InitRuleArgs) encode(w *layout.Writer) {
	w.Raw(a.Passkey[:])
	writeToken(w, a.Token)
	w.U64(a.LimitAmount)
	w.U64(a.LimitPeriod)
}

func (a *CheckRuleArgs) encode(w *layout.Writer) {
	writeToken(w, a.Token)
	w.Vec(a.CpiData)
	w.Raw(a.ProgramID[:])
}

func (a *AddMemberArgs) encode(w *layout.Writer) {
	w.Raw(a.NewPasskey[:])
}

// Program implements runtime.Program.
type Program struct{}

// New returns the transfer limit rule program.
func New() *Program { return &Program{} }

// ID returns core.TransferLimitID.
func (*Program) ID() core.Address { return core.TransferLimitID }

// Process dispatches the rule instructions by selector.
func (p *Program) Process(ctx *runtime.Context, accounts []*runtime.AccountInfo, data []byte) error {
	sel, r, err := rules.Decode(data)
	if err != nil {
		return err
	}

	switch sel {
	case core.SelectorInitRule:
		args := InitRuleArgs{}
		r.Raw(args.Passkey[:])
		args.Token = readToken(r)
		args.LimitAmount = r.U64()
		args.LimitPeriod = r.U64()
		if err := rules.Finish(r); err != nil {
			return err
		}
		return p.initRule(ctx, accounts, &args)

	case core.SelectorCheckRule:
		args := CheckRuleArgs{Token: readToken(r), CpiData: r.Vec()}
		r.Raw(args.ProgramID[:])
		if err := rules.Finish(r); err != nil {
			return err
		}
		return p.checkRule(ctx, accounts, &args)

	case core.SelectorAddMember:
		args := AddMemberArgs{}
		r.Raw(args.NewPasskey[:])
		if err := rules.Finish(r); err != nil {
			return err
		}
		return p.addMember(ctx, accounts, &args)

	case core.SelectorDestroy:
		if err := rules.Finish(r); err != nil {
			return err
		}
		return p.destroy(ctx, accounts)

	default:
		return fmt.Errorf("%w: unknown selector %x", core.ErrInvalidInstructionData, sel)
	}
}

// init_rule accounts: payer, smart wallet, authenticator, member, rule data,
// system program.
func (p *Program) initRule(ctx *runtime.Context, accounts []*runtime.AccountInfo, args *InitRuleArgs) error {
	if len(accounts) < 6 {
		return core.ErrInvalidAccountInput
	}
	payer, wallet, authInfo, memberInfo, ruleInfo := accounts[0], accounts[1], accounts[2], accounts[3], accounts[4]

	auth, err := rules.SignedAuthenticator(authInfo)
	if err != nil {
		return err
	}
	if auth.Wallet != wallet.Key {
		return ErrUnauthorized
	}
	if auth.Passkey != args.Passkey {
		return core.ErrInvalidPasskey
	}

	if memberInfo.IsEmpty() {
		d, err := MemberAddress(wallet.Key, authInfo.Key)
		if err != nil {
			return err
		}
		if err := ctx.CreateDerivedAccount(payer, memberInfo, d, MemberSize, core.TransferLimitID); err != nil {
			return err
		}
		m := &Member{SmartWallet: wallet.Key, Authenticator: authInfo.Key, Role: RoleAdmin, IsInitialized: true, Bump: d.Bump()}
		if err := store(ctx, memberInfo, m); err != nil {
			return err
		}
	} else if _, err := loadMember(memberInfo, wallet.Key, authInfo.Key); err != nil {
		return err
	}

	d, err := RuleDataAddress(wallet.Key, args.Token)
	if err != nil {
		return err
	}
	if ruleInfo.IsEmpty() {
		if err := ctx.CreateDerivedAccount(payer, ruleInfo, d, RuleDataSize, core.TransferLimitID); err != nil {
			return err
		}
	} else if err := d.Expect(ruleInfo.Key); err != nil {
		return err
	}
	rd := &RuleData{
		SmartWallet:   wallet.Key,
		Token:         args.Token,
		LimitAmount:   args.LimitAmount,
		LimitPeriod:   args.LimitPeriod,
		IsInitialized: true,
		Bump:          d.Bump(),
	}
	ctx.Log("limit %d per %d for wallet %s", args.LimitAmount, args.LimitPeriod, wallet.Key)
	return store(ctx, ruleInfo, rd)
}

// check_rule accounts: authenticator, member, rule data, instructions sysvar.
func (p *Program) checkRule(ctx *runtime.Context, accounts []*runtime.AccountInfo, args *CheckRuleArgs) error {
	if len(accounts) < 4 {
		return core.ErrInvalidAccountInput
	}
	authInfo, memberInfo, ruleInfo, sysvar := accounts[0], accounts[1], accounts[2], accounts[3]

	auth, err := rules.SignedAuthenticator(authInfo)
	if err != nil {
		return err
	}
	member, err := loadMember(memberInfo, auth.Wallet, authInfo.Key)
	if err != nil {
		return err
	}
	if member.Role == RoleAdmin {
		return nil
	}

	rd, err := loadRuleData(ruleInfo, auth.Wallet, args.Token)
	if err != nil {
		return err
	}
	if rd == nil || !rd.IsInitialized {
		return nil
	}

	if err := matchExecution(ctx, sysvar, args); err != nil {
		return err
	}
	amount, ok := transferAmount(args.ProgramID, args.Token, args.CpiData)
	if !ok {
		return ErrUnauthorized
	}
	if amount > rd.LimitAmount {
		return fmt.Errorf("%w: %d over limit %d", ErrTransferLimitExceeded, amount, rd.LimitAmount)
	}
	return nil
}

// add_member accounts: payer, smart wallet, authenticator, new
// authenticator, admin member, new member, system program.
func (p *Program) addMember(ctx *runtime.Context, accounts []*runtime.AccountInfo, args *AddMemberArgs) error {
	if len(accounts) < 7 {
		return core.ErrInvalidAccountInput
	}
	payer, wallet, authInfo, newAuthInfo, adminInfo, memberInfo := accounts[0], accounts[1], accounts[2], accounts[3], accounts[4], accounts[5]

	if err := requireAdmin(wallet, authInfo, adminInfo); err != nil {
		return err
	}
	newAuth, err := rules.Authenticator(newAuthInfo)
	if err != nil {
		return err
	}
	if newAuth.Wallet != wallet.Key || newAuth.Passkey != args.NewPasskey {
		return core.ErrInvalidAuthenticator
	}

	d, err := MemberAddress(wallet.Key, newAuthInfo.Key)
	if err != nil {
		return err
	}
	if err := ctx.CreateDerivedAccount(payer, memberInfo, d, MemberSize, core.TransferLimitID); err != nil {
		return err
	}
	m := &Member{SmartWallet: wallet.Key, Authenticator: newAuthInfo.Key, Role: RoleMember, IsInitialized: true, Bump: d.Bump()}
	ctx.Log("added member %s to wallet %s", newAuthInfo.Key, wallet.Key)
	return store(ctx, memberInfo, m)
}

// destroy accounts: smart wallet, authenticator, admin member, rule data.
// Membership records are kept so the rule can be reinstalled.
func (p *Program) destroy(ctx *runtime.Context, accounts []*runtime.AccountInfo) error {
	if len(accounts) < 4 {
		return core.ErrInvalidAccountInput
	}
	wallet, authInfo, adminInfo, ruleInfo := accounts[0], accounts[1], accounts[2], accounts[3]

	if err := requireAdmin(wallet, authInfo, adminInfo); err != nil {
		return err
	}
	if ruleInfo.Owner() != core.TransferLimitID {
		return ErrInvalidRuleData
	}
	rd := &RuleData{}
	if err := rd.UnmarshalBinary(ruleInfo.Data()); err != nil {
		return err
	}
	if rd.SmartWallet != wallet.Key {
		return ErrInvalidRuleData
	}
	d, err := RuleDataAddress(wallet.Key, rd.Token)
	if err != nil {
		return err
	}
	if d.Address() != ruleInfo.Key {
		return ErrInvalidRuleData
	}
	return ctx.Close(ruleInfo, wallet)
}

func requireAdmin(wallet, authInfo, adminInfo *runtime.AccountInfo) error {
	auth, err := rules.SignedAuthenticator(authInfo)
	if err != nil {
		return err
	}
	if auth.Wallet != wallet.Key {
		return ErrUnauthorized
	}
	admin, err := loadMember(adminInfo, wallet.Key, authInfo.Key)
	if err != nil {
		return err
	}
	if admin.Role != RoleAdmin {
		return ErrUnauthorized
	}
	return nil
}

func loadMember(info *runtime.AccountInfo, wallet, authenticator core.Address) (*Member, error) {
	if info.Owner() != core.TransferLimitID {
		return nil, ErrMemberNotInitialized
	}
	d, err := MemberAddress(wallet, authenticator)
	if err != nil {
		return nil, err
	}
	if d.Address() != info.Key {
		return nil, ErrMemberNotInitialized
	}
	m := &Member{}
	if err := m.UnmarshalBinary(info.Data()); err != nil {
		return nil, err
	}
	if !m.IsInitialized || m.SmartWallet != wallet || m.Authenticator != authenticator {
		return nil, ErrMemberNotInitialized
	}
	return m, nil
}

// loadRuleData returns nil when no limit was ever installed.
func loadRuleData(info *runtime.AccountInfo, wallet core.Address, token *core.Address) (*RuleData, error) {
	d, err := RuleDataAddress(wallet, token)
	if err != nil {
		return nil, err
	}
	if d.Address() != info.Key {
		return nil, ErrInvalidRuleData
	}
	if info.IsEmpty() {
		return nil, nil
	}
	if info.Owner() != core.TransferLimitID {
		return nil, ErrInvalidRuleData
	}
	rd := &RuleData{}
	if err := rd.UnmarshalBinary(info.Data()); err != nil {
		return nil, err
	}
	return rd, nil
}

// matchExecution checks that args describe the delegated instruction of the
// engine instruction currently executing.
func matchExecution(ctx *runtime.Context, sysvar *runtime.AccountInfo, args *CheckRuleArgs) error {
	ix, err := ctx.InstructionAt(sysvar, ctx.CurrentInstructionIndex())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCheckMismatch, err)
	}
	exec, target, err := program.DecodeExecute(ix)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCheckMismatch, err)
	}
	if exec.CpiData == nil || target != args.ProgramID || !bytes.Equal(exec.CpiData.Data, args.CpiData) {
		return ErrCheckMismatch
	}
	return nil
}

// transferAmount extracts the amount of a native or token transfer.
func transferAmount(programID core.Address, token *core.Address, data []byte) (uint64, bool) {
	switch {
	case programID == core.SystemProgramID && token == nil:
		if !core.IsNativeTransfer(programID, data) || len(data) < 12 {
			return 0, false
		}
		return binary.LittleEndian.Uint64(data[4:12]), true
	case programID == core.TokenProgramID && token != nil:
		if len(data) < 9 || (data[0] != tokenTransfer && data[0] != tokenTransferChecked) {
			return 0, false
		}
		return binary.LittleEndian.Uint64(data[1:9]), true
	default:
		return 0, false
	}
}

func store(ctx *runtime.Context, info *runtime.AccountInfo, rec interface{ MarshalBinary() ([]byte, error) }) error {
	data, err := rec.MarshalBinary()
	if err != nil {
		return err
	}
	return ctx.SetData(info, data)
}
