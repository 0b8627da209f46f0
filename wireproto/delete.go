package wireproto

import (
	"github.com/driftmongo/corewire/rope"
	"github.com/driftmongo/corewire/wiremessage"
)

// DeleteMessage encodes an OP_DELETE request.
type DeleteMessage struct {
	FullCollectionName string
	Flags              wiremessage.DeleteFlags
	Selector           rope.Rope
}

// OpCode implements Request.
func (DeleteMessage) OpCode() wiremessage.OpCode { return wiremessage.OpDelete }

// Encode implements Request.
func (m DeleteMessage) Encode(requestID int32, maxFrameBytes int) (rope.Rope, error) {
	return encodeFrame(requestID, wiremessage.OpDelete, maxFrameBytes, func(b *rope.Builder) error {
		b.AppendI32LE(0) // ZERO, reserved
		if err := b.AppendCString(m.FullCollectionName); err != nil {
			return err
		}
		b.AppendI32LE(int32(m.Flags))
		b.AppendRope(m.Selector)
		return nil
	})
}
