package core

import "crypto/sha256"

// Well-known program and sysvar ids.
var (
	ProgramID          = MustParseAddress("HPN843A4SZB7tfcLF9pu6hbvwTgv7HtdRscXoZWbAdXs")
	DefaultRuleID      = MustParseAddress("AULUCD8kw4Nnjb1hUsWyvucZ5tzwu3wCH7Dstc5p6AMj")
	TransferLimitID    = MustParseAddress("Dy9SC7En4NsVPYuiDdPJMCxfsV2Vd11YqtLVYabApzXb")
	SystemProgramID    = Address{}
	Secp256r1ProgramID = MustParseAddress("Secp256r1SigVerify1111111111111111111111111")
	InstructionsSysvar = MustParseAddress("Sysvar1nstructions1111111111111111111111111")
	TokenProgramID     = MustParseAddress("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
)

// Address derivation seeds.
const (
	SeedConfig       = "config"
	SeedWhitelist    = "whitelist_rule_programs"
	SeedSequence     = "smart_wallet_seq"
	SeedAuthority    = "authority"
	SeedSmartWallet  = "smart_wallet"
	SeedWalletConfig = "smart_wallet_config"
	SeedRule         = "rule"
	SeedMember       = "member"
	SeedRuleData     = "rule_data"
)

const (
	// MaxWhitelistEntries bounds the rule program whitelist.
	MaxWhitelistEntries = 10

	// DefaultReplayWindow is the accepted clock skew, in seconds, on either
	// side of a message timestamp.
	DefaultReplayWindow int64 = 30

	// DefaultReimbursementAllowance is paid by the wallet to the payer of an
	// execute transaction on top of what the payer spent inside it, to cover
	// transaction fees.
	DefaultReimbursementAllowance uint64 = 10_000

	// LamportsPerSOL is used for display only.
	LamportsPerSOL = 1_000_000_000
)

// Selector is the 8-byte discriminator that prefixes rule instruction data.
type Selector [8]byte

// SelectorFor derives sha256("global:<name>")[:8].
func SelectorFor(name string) Selector {
	sum := sha256.Sum256([]byte("global:" + name))
	var s Selector
	copy(s[:], sum[:8])
	return s
}

// Rule entry points.
var (
	SelectorInitRule  = SelectorFor("init_rule")
	SelectorCheckRule = SelectorFor("check_rule")
	SelectorDestroy   = SelectorFor("destroy")
	SelectorAddMember = SelectorFor("add_member")
)

// Matches reports whether data starts with s.
func (s Selector) Matches(data []byte) bool {
	return len(data) >= len(s) && Selector(data[:8]) == s
}

// NativeTransferTag is the system program's transfer instruction tag.
var NativeTransferTag = [4]byte{2, 0, 0, 0}

// IsNativeTransfer reports whether an instruction targets the system
// program with transfer data.
func IsNativeTransfer(program Address, data []byte) bool {
	return program == SystemProgramID && len(data) >= 4 && [4]byte(data[:4]) == NativeTransferTag
}
