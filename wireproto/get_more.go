package wireproto

import (
	"github.com/driftmongo/corewire/rope"
	"github.com/driftmongo/corewire/wiremessage"
)

// GetMoreMessage encodes an OP_GET_MORE request requesting the next batch
// of an existing cursor.
type GetMoreMessage struct {
	FullCollectionName string
	NumberToReturn     int32
	CursorID           int64
}

// OpCode implements Request.
func (GetMoreMessage) OpCode() wiremessage.OpCode { return wiremessage.OpGetMore }

// Encode implements Request.
func (m GetMoreMessage) Encode(requestID int32, maxFrameBytes int) (rope.Rope, error) {
	return encodeFrame(requestID, wiremessage.OpGetMore, maxFrameBytes, func(b *rope.Builder) error {
		b.AppendI32LE(0) // ZERO, reserved
		if err := b.AppendCString(m.FullCollectionName); err != nil {
			return err
		}
		b.AppendI32LE(m.NumberToReturn)
		b.AppendI64LE(m.CursorID)
		return nil
	})
}
