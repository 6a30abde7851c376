// Package layout implements the little-endian Borsh encoding shared by
// instruction data, verification messages and persisted records.
//
// Vectors carry a u32 length prefix, options a single tag byte (0 or 1) and
// fixed arrays are written raw. Writer and Reader wrap the Borsh encoder and
// decoder of github.com/gagliardetto/binary; Reader adds a sticky error and
// strict tag checking on top.
package layout

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// ErrShortBuffer is returned when a read runs past the end of the input.
var ErrShortBuffer = errors.New("layout: short buffer")

// ErrInvalidOption is returned when an option tag is neither 0 nor 1.
var ErrInvalidOption = errors.New("layout: invalid option tag")

// ErrTrailingBytes is returned by Reader.Finish when input remains.
var ErrTrailingBytes = errors.New("layout: trailing bytes")

var le = binary.LittleEndian

// Writer appends encoded values to an internal buffer.
type Writer struct {
	buf bytes.Buffer
	enc *bin.Encoder
	err error
}

// NewWriter returns a writer with capacity for n bytes.
func NewWriter(n int) *Writer {
	w := &Writer{}
	w.buf.Grow(n)
	w.enc = bin.NewBorshEncoder(&w.buf)
	return w
}

// Bytes returns the encoded output.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// Err returns the first encoder error. Writes into the in-memory buffer do
// not fail, so it is nil in practice.
func (w *Writer) Err() error { return w.err }

func (w *Writer) keep(err error) {
	if w.err == nil && err != nil {
		w.err = err
	}
}

func (w *Writer) U8(v uint8) { w.keep(w.enc.WriteUint8(v)) }

func (w *Writer) Bool(v bool) { w.keep(w.enc.WriteBool(v)) }

func (w *Writer) U16(v uint16) { w.keep(w.enc.WriteUint16(v, le)) }

func (w *Writer) U32(v uint32) { w.keep(w.enc.WriteUint32(v, le)) }

func (w *Writer) U64(v uint64) { w.keep(w.enc.WriteUint64(v, le)) }

func (w *Writer) I64(v int64) { w.keep(w.enc.WriteInt64(v, le)) }

// Raw appends b without a length prefix.
func (w *Writer) Raw(b []byte) { w.keep(w.enc.WriteBytes(b, false)) }

// Vec appends b with a u32 length prefix.
func (w *Writer) Vec(b []byte) { w.keep(w.enc.WriteBytes(b, true)) }

// Option writes the tag byte and, if present, calls fn to write the value.
func (w *Writer) Option(present bool, fn func(*Writer)) {
	w.keep(w.enc.WriteOption(present))
	if present {
		fn(w)
	}
}

// Reader consumes encoded values. The first error sticks and every later
// read returns zero values, so callers check Err once at the end.
type Reader struct {
	dec *bin.Decoder
	err error
}

func NewReader(b []byte) *Reader {
	return &Reader{dec: bin.NewBorshDecoder(b)}
}

func (r *Reader) Err() error { return r.err }

// Remaining reports the number of unread bytes.
func (r *Reader) Remaining() int { return r.dec.Remaining() }

// Finish returns the sticky error, or ErrTrailingBytes if input is left over.
func (r *Reader) Finish() error {
	if r.err != nil {
		return r.err
	}
	if r.Remaining() != 0 {
		return ErrTrailingBytes
	}
	return nil
}

// need reports whether n more bytes can be read, recording ErrShortBuffer
// when they cannot.
func (r *Reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || r.Remaining() < n {
		r.err = ErrShortBuffer
		return false
	}
	return true
}

func (r *Reader) fail(err error) {
	if r.err == nil && err != nil {
		r.err = fmt.Errorf("%w: %v", ErrShortBuffer, err)
	}
}

func (r *Reader) U8() uint8 {
	if !r.need(1) {
		return 0
	}
	v, err := r.dec.ReadUint8()
	r.fail(err)
	return v
}

func (r *Reader) Bool() bool {
	switch r.U8() {
	case 0:
		return false
	case 1:
		return true
	default:
		if r.err == nil {
			r.err = ErrInvalidOption
		}
		return false
	}
}

func (r *Reader) U16() uint16 {
	if !r.need(2) {
		return 0
	}
	v, err := r.dec.ReadUint16(le)
	r.fail(err)
	return v
}

func (r *Reader) U32() uint32 {
	if !r.need(4) {
		return 0
	}
	v, err := r.dec.ReadUint32(le)
	r.fail(err)
	return v
}

func (r *Reader) U64() uint64 {
	if !r.need(8) {
		return 0
	}
	v, err := r.dec.ReadUint64(le)
	r.fail(err)
	return v
}

func (r *Reader) I64() int64 {
	if !r.need(8) {
		return 0
	}
	v, err := r.dec.ReadInt64(le)
	r.fail(err)
	return v
}

func (r *Reader) take(n int) []byte {
	if !r.need(n) {
		return nil
	}
	b, err := r.dec.ReadNBytes(n)
	if err != nil {
		r.fail(err)
		return nil
	}
	return b
}

// Raw copies the next len(dst) bytes into dst.
func (r *Reader) Raw(dst []byte) {
	if b := r.take(len(dst)); b != nil {
		copy(dst, b)
	}
}

// Vec reads a u32 length prefix and returns a copy of the bytes that follow.
func (r *Reader) Vec() []byte {
	n := r.U32()
	b := r.take(int(n))
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Option reads the tag byte and reports whether a value follows.
func (r *Reader) Option() bool {
	return r.Bool()
}
