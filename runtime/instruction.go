package runtime

import "github.com/layer-3/smartwallet/core"

// AccountMeta references an account from an instruction.
type AccountMeta struct {
	Address    core.Address
	IsSigner   bool
	IsWritable bool
}

// Readonly returns a non-signer, readonly reference.
func Readonly(a core.Address) AccountMeta { return AccountMeta{Address: a} }

// Writable returns a non-signer, writable reference.
func Writable(a core.Address) AccountMeta { return AccountMeta{Address: a, IsWritable: true} }

// Signer returns a signer reference.
func Signer(a core.Address, writable bool) AccountMeta {
	return AccountMeta{Address: a, IsSigner: true, IsWritable: writable}
}

// Instruction is a call to a program.
type Instruction struct {
	ProgramID core.Address
	Accounts  []AccountMeta
	Data      []byte
}

// Keys returns the account addresses in order.
func (ix *Instruction) Keys() []core.Address {
	out := make([]core.Address, len(ix.Accounts))
	for i, m := range ix.Accounts {
		out[i] = m.Address
	}
	return out
}

func (ix *Instruction) clone() *Instruction {
	c := &Instruction{
		ProgramID: ix.ProgramID,
		Accounts:  append([]AccountMeta(nil), ix.Accounts...),
		Data:      append([]byte(nil), ix.Data...),
	}
	return c
}

// Transaction is an ordered list of instructions executed atomically.
// FeePayer always signs; Signers lists any additional signatures.
type Transaction struct {
	FeePayer     core.Address
	Signers      []core.Address
	Instructions []Instruction
}

func (tx *Transaction) signed(a core.Address) bool {
	if a == tx.FeePayer {
		return true
	}
	for _, s := range tx.Signers {
		if s == a {
			return true
		}
	}
	return false
}

func (tx *Transaction) signatureCount() uint64 {
	n := uint64(1)
	for _, s := range tx.Signers {
		if s != tx.FeePayer {
			n++
		}
	}
	return n
}

// Receipt describes an executed transaction.
type Receipt struct {
	ID   string
	Fee  uint64
	Logs []string
}
