package wireproto

import (
	"github.com/driftmongo/corewire/rope"
	"github.com/driftmongo/corewire/wiremessage"
)

// KillCursorsMessage encodes an OP_KILL_CURSORS request.
type KillCursorsMessage struct {
	CursorIDs []int64
}

// OpCode implements Request.
func (KillCursorsMessage) OpCode() wiremessage.OpCode { return wiremessage.OpKillCursors }

// Encode implements Request.
func (m KillCursorsMessage) Encode(requestID int32, maxFrameBytes int) (rope.Rope, error) {
	return encodeFrame(requestID, wiremessage.OpKillCursors, maxFrameBytes, func(b *rope.Builder) error {
		b.AppendI32LE(0) // ZERO, reserved
		b.AppendI32LE(int32(len(m.CursorIDs)))
		for _, id := range m.CursorIDs {
			b.AppendI64LE(id)
		}
		return nil
	})
}
