// Package sigverify checks passkey authorization: that a transaction carries
// a secp256r1 verification record for exactly the expected key, signature
// and message, and that the signed message is fresh and in sequence.
package sigverify

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto/secp256r1"

	"github.com/layer-3/smartwallet/core"
)

// Verification record layout. All offsets point into the record itself.
const (
	OffsetsStart    = 2
	OffsetsSize     = 14
	PubkeyOffset    = OffsetsStart + OffsetsSize
	SignatureOffset = PubkeyOffset + core.PasskeyLength
	MessageOffset   = SignatureOffset + core.SignatureLength

	// SelfInstruction as an instruction index means "this instruction".
	SelfInstruction uint16 = 0xFFFF
)

var (
	// ErrMalformedRecord is returned when offsets point outside the data.
	ErrMalformedRecord = errors.New("sigverify: malformed record")
	// ErrBadSignature is returned when a P-256 signature does not verify.
	ErrBadSignature = errors.New("sigverify: bad signature")
)

var p256HalfOrder = new(big.Int).Rsh(elliptic.P256().Params().N, 1)

// Record is a loaded instruction as the engine sees it in the instructions
// sysvar.
type Record struct {
	ProgramID    core.Address
	AccountCount int
	Data         []byte
}

// Offsets is one signature entry of a verification record.
type Offsets struct {
	SignatureOffset           uint16
	SignatureInstructionIndex uint16
	PubkeyOffset              uint16
	PubkeyInstructionIndex    uint16
	MessageOffset             uint16
	MessageSize               uint16
	MessageInstructionIndex   uint16
}

// BuildRecord lays out a single-signature record that references only itself.
func BuildRecord(passkey core.Passkey, signature []byte, message []byte) []byte {
	data := make([]byte, MessageOffset+len(message))
	data[0] = 1
	o := Offsets{
		SignatureOffset:           SignatureOffset,
		SignatureInstructionIndex: SelfInstruction,
		PubkeyOffset:              PubkeyOffset,
		PubkeyInstructionIndex:    SelfInstruction,
		MessageOffset:             MessageOffset,
		MessageSize:               uint16(len(message)),
		MessageInstructionIndex:   SelfInstruction,
	}
	o.put(data[OffsetsStart:])
	copy(data[PubkeyOffset:], passkey[:])
	copy(data[SignatureOffset:], signature)
	copy(data[MessageOffset:], message)
	return data
}

func (o *Offsets) put(b []byte) {
	le := binary.LittleEndian
	le.PutUint16(b[0:], o.SignatureOffset)
	le.PutUint16(b[2:], o.SignatureInstructionIndex)
	le.PutUint16(b[4:], o.PubkeyOffset)
	le.PutUint16(b[6:], o.PubkeyInstructionIndex)
	le.PutUint16(b[8:], o.MessageOffset)
	le.PutUint16(b[10:], o.MessageSize)
	le.PutUint16(b[12:], o.MessageInstructionIndex)
}

// ParseOffsets returns the signature entries declared by a record.
func ParseOffsets(data []byte) ([]Offsets, error) {
	if len(data) < OffsetsStart {
		return nil, ErrMalformedRecord
	}
	n := int(data[0])
	if len(data) < OffsetsStart+n*OffsetsSize {
		return nil, ErrMalformedRecord
	}
	le := binary.LittleEndian
	out := make([]Offsets, n)
	for i := range out {
		b := data[OffsetsStart+i*OffsetsSize:]
		out[i] = Offsets{
			SignatureOffset:           le.Uint16(b[0:]),
			SignatureInstructionIndex: le.Uint16(b[2:]),
			PubkeyOffset:              le.Uint16(b[4:]),
			PubkeyInstructionIndex:    le.Uint16(b[6:]),
			MessageOffset:             le.Uint16(b[8:]),
			MessageSize:               le.Uint16(b[10:]),
			MessageInstructionIndex:   le.Uint16(b[12:]),
		}
	}
	return out, nil
}

// Slice returns data[offset:offset+size] or ErrMalformedRecord.
func Slice(data []byte, offset, size int) ([]byte, error) {
	if offset < 0 || size < 0 || offset+size > len(data) {
		return nil, ErrMalformedRecord
	}
	return data[offset : offset+size], nil
}

// VerifyRecord checks that rec is a secp256r1 verification record for
// exactly passkey, signature and message. It does not verify the signature
// itself; the precompile has already done so when the transaction ran.
// Every mismatch, including short data, fails with
// core.ErrSignatureVerificationFailed.
func VerifyRecord(rec *Record, passkey core.Passkey, signature []byte, message []byte) error {
	fail := func(reason string) error {
		return fmt.Errorf("%w: %s", core.ErrSignatureVerificationFailed, reason)
	}
	if rec.ProgramID != core.Secp256r1ProgramID {
		return fail("not a secp256r1 record")
	}
	if rec.AccountCount != 0 {
		return fail("record has accounts")
	}
	if len(signature) != core.SignatureLength {
		return fail("signature length")
	}
	data := rec.Data
	if len(data) != MessageOffset+len(message) {
		return fail("record length")
	}
	if data[0] != 1 {
		return fail("signature count")
	}
	if data[1] != 0 {
		return fail("header padding")
	}
	offsets, err := ParseOffsets(data)
	if err != nil {
		return fail(err.Error())
	}
	want := Offsets{
		SignatureOffset:           SignatureOffset,
		SignatureInstructionIndex: SelfInstruction,
		PubkeyOffset:              PubkeyOffset,
		PubkeyInstructionIndex:    SelfInstruction,
		MessageOffset:             MessageOffset,
		MessageSize:               uint16(len(message)),
		MessageInstructionIndex:   SelfInstruction,
	}
	if len(message) > int(^uint16(0)) || offsets[0] != want {
		return fail("offsets")
	}
	if !bytes.Equal(data[PubkeyOffset:SignatureOffset], passkey[:]) {
		return fail("pubkey")
	}
	if !bytes.Equal(data[SignatureOffset:MessageOffset], signature) {
		return fail("signature")
	}
	if !bytes.Equal(data[MessageOffset:], message) {
		return fail("message")
	}
	return nil
}

// VerifyP256 checks a raw r||s signature over sha256(message). High-S
// signatures are rejected.
func VerifyP256(passkey []byte, signature []byte, message []byte) error {
	if len(passkey) != core.PasskeyLength || len(signature) != core.SignatureLength {
		return ErrBadSignature
	}
	x, y := elliptic.UnmarshalCompressed(elliptic.P256(), passkey)
	if x == nil {
		return ErrBadSignature
	}
	r := new(big.Int).SetBytes(signature[:32])
	s := new(big.Int).SetBytes(signature[32:])
	if s.Cmp(p256HalfOrder) > 0 {
		return ErrBadSignature
	}
	digest := sha256.Sum256(message)
	if !secp256r1.Verify(digest[:], r, s, x, y) {
		return ErrBadSignature
	}
	return nil
}

// Sign produces a low-S r||s signature over sha256(message). It is the
// client half of VerifyP256.
func Sign(key *ecdsa.PrivateKey, message []byte, rand io.Reader) ([]byte, error) {
	digest := sha256.Sum256(message)
	r, s, err := ecdsa.Sign(rand, key, digest[:])
	if err != nil {
		return nil, err
	}
	if s.Cmp(p256HalfOrder) > 0 {
		s.Sub(elliptic.P256().Params().N, s)
	}
	out := make([]byte, core.SignatureLength)
	r.FillBytes(out[:32])
	s.FillBytes(out[32:])
	return out, nil
}
