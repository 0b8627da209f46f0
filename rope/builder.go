package rope

import (
	"encoding/binary"
	"math"
)

// defaultTailCap is the initial capacity of a Builder's growable tail chunk.
const defaultTailCap = 256

// Builder accumulates bytes into a growable tail chunk and splices in
// complete Ropes without copying them. Build produces an immutable Rope.
type Builder struct {
	done Rope
	tail []byte
}

// NewBuilder returns an empty Builder ready for appends.
func NewBuilder() *Builder {
	return &Builder{tail: make([]byte, 0, defaultTailCap)}
}

// flushTail moves the current tail chunk into done and starts a fresh one.
func (b *Builder) flushTail() {
	if len(b.tail) == 0 {
		return
	}
	b.done = b.done.AppendChunk(b.tail)
	b.tail = make([]byte, 0, defaultTailCap)
}

// AppendU8 appends a single byte.
func (b *Builder) AppendU8(v byte) *Builder {
	b.tail = append(b.tail, v)
	return b
}

// AppendI32LE appends a little-endian int32.
func (b *Builder) AppendI32LE(v int32) *Builder {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(v))
	b.tail = append(b.tail, buf[:]...)
	return b
}

// AppendI64LE appends a little-endian int64.
func (b *Builder) AppendI64LE(v int64) *Builder {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	b.tail = append(b.tail, buf[:]...)
	return b
}

// AppendF64LE appends an IEEE-754 little-endian float64.
func (b *Builder) AppendF64LE(v float64) *Builder {
	return b.AppendI64LE(int64(math.Float64bits(v)))
}

// AppendBytes appends raw bytes verbatim.
func (b *Builder) AppendBytes(p []byte) *Builder {
	b.tail = append(b.tail, p...)
	return b
}

// ErrNulInCString is returned by AppendCString when s contains an interior
// 0x00 byte, which BSON forbids in field names and cstring values.
var ErrNulInCString = errString("rope: cstring must not contain a 0x00 byte")

// AppendCString appends s followed by a 0x00 terminator. It fails if s
// contains an interior 0x00.
func (b *Builder) AppendCString(s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return ErrNulInCString
		}
	}
	b.tail = append(b.tail, s...)
	b.tail = append(b.tail, 0x00)
	return nil
}

// ErrStringTooLarge is returned by AppendUTF8String when the encoded length
// (including the terminator) does not fit in an int32.
var ErrStringTooLarge = errString("rope: utf8 string length exceeds int32")

// AppendUTF8String appends the BSON utf8-string encoding: int32 length
// (including the trailing terminator), the UTF-8 bytes, then 0x00.
func (b *Builder) AppendUTF8String(s string) error {
	n := int64(len(s)) + 1
	if n > int64(maxInt32) {
		return ErrStringTooLarge
	}
	b.AppendI32LE(int32(n))
	b.tail = append(b.tail, s...)
	b.tail = append(b.tail, 0x00)
	return nil
}

// AppendRope splices r in after everything appended so far, without copying
// r's chunks.
func (b *Builder) AppendRope(r Rope) *Builder {
	b.flushTail()
	b.done = b.done.Append(r)
	return b
}

// Len reports the number of bytes appended so far.
func (b *Builder) Len() int {
	return b.done.Len() + len(b.tail)
}

// Build finalizes the accumulated bytes into an immutable Rope. The Builder
// may continue to be used afterwards; previously built Ropes are unaffected.
func (b *Builder) Build() Rope {
	b.flushTail()
	return b.done
}

const maxInt32 = int32(1<<31 - 1)

type errString string

func (e errString) Error() string { return string(e) }
