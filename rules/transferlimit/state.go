package transferlimit

import (
	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/internal/layout"
	"github.com/layer-3/smartwallet/pda"
	"github.com/layer-3/smartwallet/rules"
)

// Role of a wallet member.
type Role uint8

const (
	RoleAdmin Role = iota
	RoleMember
)

func (r Role) String() string {
	if r == RoleAdmin {
		return "admin"
	}
	return "member"
}

var (
	memberDiscriminator   = rules.AccountDiscriminator("Member")
	ruleDataDiscriminator = rules.AccountDiscriminator("RuleData")
)

const (
	MemberSize   = 8 + 32 + 32 + 1 + 1 + 1
	RuleDataSize = 8 + 32 + 1 + 32 + 8 + 8 + 1 + 1
)

// Member grants an authenticator a role on a wallet.
type Member struct {
	SmartWallet   core.Address
	Authenticator core.Address
	Role          Role
	IsInitialized bool
	Bump          uint8
}

// RuleData is the spending limit for one token, or for lamports when Token
// is nil.
type RuleData struct {
	SmartWallet   core.Address
	Token         *core.Address
	LimitAmount   uint64
	LimitPeriod   uint64
	IsInitialized bool
	Bump          uint8
}

// MarshalBinary encodes m with its account discriminator.
func (m *Member) MarshalBinary() ([]byte, error) {
	w := layout.NewWriter(MemberSize)
	w.Raw(memberDiscriminator[:])
	w.Raw(m.SmartWallet[:])
	w.Raw(m.Authenticator[:])
	w.U8(uint8(m.Role))
	w.Bool(m.IsInitialized)
	w.U8(m.Bump)
	return w.Bytes(), nil
}

// UnmarshalBinary decodes a Member record.
func (m *Member) UnmarshalBinary(data []byte) error {
	if len(data) != MemberSize || [8]byte(data[:8]) != memberDiscriminator {
		return ErrMemberNotInitialized
	}
	r := layout.NewReader(data[8:])
	r.Raw(m.SmartWallet[:])
	r.Raw(m.Authenticator[:])
	m.Role = Role(r.U8())
	m.IsInitialized = r.Bool()
	m.Bump = r.U8()
	return rules.Finish(r)
}

// MarshalBinary encodes d with its account discriminator.
func (d *RuleData) MarshalBinary() ([]byte, error) {
	w := layout.NewWriter(RuleDataSize)
	w.Raw(ruleDataDiscriminator[:])
	w.Raw(d.SmartWallet[:])
	w.Bool(d.Token != nil)
	var token core.Address
	if d.Token != nil {
		token = *d.Token
	}
	w.Raw(token[:])
	w.U64(d.LimitAmount)
	w.U64(d.LimitPeriod)
	w.Bool(d.IsInitialized)
	w.U8(d.Bump)
	return w.Bytes(), nil
}

// UnmarshalBinary decodes a RuleData record.
func (d *RuleData) UnmarshalBinary(data []byte) error {
	if len(data) != RuleDataSize || [8]byte(data[:8]) != ruleDataDiscriminator {
		return ErrInvalidRuleData
	}
	r := layout.NewReader(data[8:])
	r.Raw(d.SmartWallet[:])
	hasToken := r.Bool()
	var token core.Address
	r.Raw(token[:])
	d.Token = nil
	if hasToken {
		d.Token = &token
	}
	d.LimitAmount = r.U64()
	d.LimitPeriod = r.U64()
	d.IsInitialized = r.Bool()
	d.Bump = r.U8()
	return rules.Finish(r)
}

// MemberAddress derives the membership record of authenticator on wallet.
func MemberAddress(wallet, authenticator core.Address) (pda.Derived, error) {
	return pda.Find(core.TransferLimitID, []byte(core.SeedMember), wallet.Bytes(), authenticator.Bytes())
}

// RuleDataAddress derives the limit record of wallet for token, or for
// lamports when token is nil.
func RuleDataAddress(wallet core.Address, token *core.Address) (pda.Derived, error) {
	var key core.Address
	if token != nil {
		key = *token
	}
	return pda.Find(core.TransferLimitID, []byte(core.SeedRuleData), wallet.Bytes(), key.Bytes())
}
