package connection

import (
	"io"
	"sync"

	"github.com/golang/snappy"

	"github.com/driftmongo/corewire/rope"
	"github.com/driftmongo/corewire/wiremessage"
)

// traceSink snappy-compresses every frame a Connection writes or reads and
// appends it, length-prefixed, to an underlying io.Writer for offline
// inspection. It is optional and purely diagnostic: a failure to write to it
// is swallowed, never fed back into the Connection's own error path.
type traceSink struct {
	mu  sync.Mutex
	w   io.Writer
	buf []byte
}

func newTraceSink(w io.Writer) *traceSink {
	return &traceSink{w: w}
}

// capture snappy-encodes frame's bytes and appends a [4-byte compressed
// length][compressed bytes] record to the sink.
func (t *traceSink) capture(frame rope.Rope) {
	if t == nil {
		return
	}
	raw := frame.Bytes()
	t.mu.Lock()
	defer t.mu.Unlock()

	t.buf = snappy.Encode(t.buf[:0], raw)
	var lenPrefix [4]byte
	n := len(t.buf)
	lenPrefix[0] = byte(n)
	lenPrefix[1] = byte(n >> 8)
	lenPrefix[2] = byte(n >> 16)
	lenPrefix[3] = byte(n >> 24)
	t.w.Write(lenPrefix[:])
	t.w.Write(t.buf)
}

// traceFrame is the argument shape logged alongside a captured frame, kept
// separate from wiremessage.Header so the log message can name a direction.
type traceFrame struct {
	OpCode wiremessage.OpCode
	Length int32
}
