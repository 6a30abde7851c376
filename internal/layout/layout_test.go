package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterReader(t *testing.T) {
	w := NewWriter(0)
	w.U8(7)
	w.Bool(true)
	w.U16(0x0102)
	w.U32(0x01020304)
	w.U64(1 << 40)
	w.I64(-5)
	w.Raw([]byte{0xaa, 0xbb})
	w.Vec([]byte("hello"))
	w.Option(false, nil)
	w.Option(true, func(w *Writer) { w.U8(9) })
	require.NoError(t, w.Err())

	r := NewReader(w.Bytes())
	assert.Equal(t, uint8(7), r.U8())
	assert.True(t, r.Bool())
	assert.Equal(t, uint16(0x0102), r.U16())
	assert.Equal(t, uint32(0x01020304), r.U32())
	assert.Equal(t, uint64(1<<40), r.U64())
	assert.Equal(t, int64(-5), r.I64())
	raw := make([]byte, 2)
	r.Raw(raw)
	assert.Equal(t, []byte{0xaa, 0xbb}, raw)
	assert.Equal(t, []byte("hello"), r.Vec())
	assert.False(t, r.Option())
	require.True(t, r.Option())
	assert.Equal(t, uint8(9), r.U8())
	require.NoError(t, r.Finish())
}

func TestLittleEndian(t *testing.T) {
	w := NewWriter(0)
	w.U32(1)
	w.Vec([]byte{0xff})
	assert.Equal(t, []byte{1, 0, 0, 0, 1, 0, 0, 0, 0xff}, w.Bytes())
}

func TestReaderShortBufferSticks(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	assert.Equal(t, uint64(0), r.U64())
	assert.ErrorIs(t, r.Err(), ErrShortBuffer)

	// later reads keep returning zero values
	assert.Equal(t, uint8(0), r.U8())
	assert.ErrorIs(t, r.Finish(), ErrShortBuffer)
}

func TestReaderVecLengthPastEnd(t *testing.T) {
	w := NewWriter(0)
	w.U32(100)
	w.Raw([]byte{1, 2})

	r := NewReader(w.Bytes())
	assert.Nil(t, r.Vec())
	assert.ErrorIs(t, r.Err(), ErrShortBuffer)
}

func TestReaderVecCopies(t *testing.T) {
	w := NewWriter(0)
	w.Vec([]byte{1, 2, 3})
	buf := w.Bytes()

	v := NewReader(buf).Vec()
	buf[4] = 9
	assert.Equal(t, []byte{1, 2, 3}, v)
}

func TestReaderInvalidOption(t *testing.T) {
	r := NewReader([]byte{2})
	assert.False(t, r.Option())
	assert.ErrorIs(t, r.Err(), ErrInvalidOption)
}

func TestReaderTrailingBytes(t *testing.T) {
	r := NewReader([]byte{1, 2})
	r.U8()
	assert.Equal(t, 1, r.Remaining())
	assert.ErrorIs(t, r.Finish(), ErrTrailingBytes)
}
