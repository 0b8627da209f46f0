package wireproto

import (
	"github.com/driftmongo/corewire/rope"
	"github.com/driftmongo/corewire/wiremessage"
)

// UpdateMessage encodes an OP_UPDATE request.
type UpdateMessage struct {
	FullCollectionName string
	Flags              wiremessage.UpdateFlags
	Selector           rope.Rope
	Update             rope.Rope
}

// OpCode implements Request.
func (UpdateMessage) OpCode() wiremessage.OpCode { return wiremessage.OpUpdate }

// Encode implements Request.
func (m UpdateMessage) Encode(requestID int32, maxFrameBytes int) (rope.Rope, error) {
	return encodeFrame(requestID, wiremessage.OpUpdate, maxFrameBytes, func(b *rope.Builder) error {
		b.AppendI32LE(0) // ZERO, reserved
		if err := b.AppendCString(m.FullCollectionName); err != nil {
			return err
		}
		b.AppendI32LE(int32(m.Flags))
		b.AppendRope(m.Selector)
		b.AppendRope(m.Update)
		return nil
	})
}
