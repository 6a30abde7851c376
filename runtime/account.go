package runtime

import "github.com/layer-3/smartwallet/core"

// AccountInfo is a program's view of an account during one invocation.
// Infos for the same address share state across nested invocations.
type AccountInfo struct {
	Key        core.Address
	IsSigner   bool
	IsWritable bool

	account *core.Account
}

func (a *AccountInfo) Lamports() uint64 { return a.account.Lamports }

func (a *AccountInfo) Owner() core.Address { return a.account.Owner }

func (a *AccountInfo) Executable() bool { return a.account.Executable }

// Data returns a copy of the account data.
func (a *AccountInfo) Data() []byte { return append([]byte(nil), a.account.Data...) }

func (a *AccountInfo) DataLen() int { return len(a.account.Data) }

// IsEmpty reports whether the account was never created.
func (a *AccountInfo) IsEmpty() bool { return a.account.IsEmpty() }

// MinimumBalance is the rent-exempt balance for space bytes of data.
func MinimumBalance(space int) uint64 {
	return uint64(128+space) * 3480 * 2
}
