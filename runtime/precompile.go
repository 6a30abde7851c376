package runtime

import (
	"fmt"

	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/sigverify"
)

// secp256r1Precompile verifies P-256 signatures before any program runs.
// Invoking it as a program is a no-op.
type secp256r1Precompile struct{}

func (secp256r1Precompile) ID() core.Address { return core.Secp256r1ProgramID }

func (secp256r1Precompile) Process(*Context, []*AccountInfo, []byte) error { return nil }

func verifyPrecompiles(tx *Transaction) error {
	for i := range tx.Instructions {
		ix := &tx.Instructions[i]
		if ix.ProgramID != core.Secp256r1ProgramID {
			continue
		}
		if err := verifySecp256r1(tx, ix); err != nil {
			return fmt.Errorf("%w: instruction %d: %v", ErrPrecompileFailed, i, err)
		}
	}
	return nil
}

func verifySecp256r1(tx *Transaction, ix *Instruction) error {
	entries, err := sigverify.ParseOffsets(ix.Data)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return sigverify.ErrMalformedRecord
	}

	source := func(index uint16) ([]byte, error) {
		if index == sigverify.SelfInstruction {
			return ix.Data, nil
		}
		if int(index) >= len(tx.Instructions) {
			return nil, sigverify.ErrMalformedRecord
		}
		return tx.Instructions[index].Data, nil
	}
	slice := func(index, offset uint16, size int) ([]byte, error) {
		data, err := source(index)
		if err != nil {
			return nil, err
		}
		return sigverify.Slice(data, int(offset), size)
	}

	for _, e := range entries {
		sig, err := slice(e.SignatureInstructionIndex, e.SignatureOffset, core.SignatureLength)
		if err != nil {
			return err
		}
		key, err := slice(e.PubkeyInstructionIndex, e.PubkeyOffset, core.PasskeyLength)
		if err != nil {
			return err
		}
		msg, err := slice(e.MessageInstructionIndex, e.MessageOffset, int(e.MessageSize))
		if err != nil {
			return err
		}
		if err := sigverify.VerifyP256(key, sig, msg); err != nil {
			return err
		}
	}
	return nil
}
