package rope

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilderPrimitivesRoundTrip(t *testing.T) {
	b := NewBuilder()
	b.AppendU8(0x2a)
	b.AppendI32LE(-7)
	b.AppendI64LE(1 << 40)
	b.AppendF64LE(42.5)
	require.NoError(t, b.AppendCString("hello"))
	require.NoError(t, b.AppendUTF8String("world"))

	r := b.Build().Reader()

	u8, err := r.ReadBytes(1)
	require.NoError(t, err)
	require.Equal(t, byte(0x2a), u8[0])

	i32, err := r.ReadI32LE()
	require.NoError(t, err)
	require.Equal(t, int32(-7), i32)

	i64, err := r.ReadI64LE()
	require.NoError(t, err)
	require.Equal(t, int64(1<<40), i64)

	f64, err := r.ReadF64LE()
	require.NoError(t, err)
	require.Equal(t, 42.5, f64)

	cs, err := r.ReadCString()
	require.NoError(t, err)
	require.Equal(t, "hello", cs)

	us, err := r.ReadUTF8String()
	require.NoError(t, err)
	require.Equal(t, "world", us)

	require.Equal(t, 0, r.Remaining())
}

func TestAppendCStringRejectsInteriorNul(t *testing.T) {
	b := NewBuilder()
	err := b.AppendCString("bad\x00name")
	require.ErrorIs(t, err, ErrNulInCString)
}

func TestAppendRopeSplicesWithoutCopy(t *testing.T) {
	a := NewBuilder()
	a.AppendBytes([]byte("abc"))
	sub := a.Build()

	b := NewBuilder()
	b.AppendBytes([]byte("XY"))
	b.AppendRope(sub)
	b.AppendBytes([]byte("Z"))

	require.Equal(t, []byte("XYabcZ"), b.Build().Bytes())
}

func TestSliceSharesChunksAcrossBoundaries(t *testing.T) {
	a := NewBuilder()
	a.AppendBytes([]byte("hello "))
	first := a.Build()

	c := NewBuilder()
	c.AppendRope(first)
	c.AppendBytes([]byte("world"))
	full := c.Build()

	require.Equal(t, 11, full.Len())
	mid := full.Slice(3, 8)
	require.Equal(t, []byte("lo wo"), mid.Bytes())
}

func TestReadTruncatedFailsCleanly(t *testing.T) {
	b := NewBuilder()
	b.AppendU8(0x01)
	r := b.Build().Reader()
	_, err := r.ReadI32LE()
	require.ErrorIs(t, err, ErrTruncated)
}
