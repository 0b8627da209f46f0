package wireproto

import (
	"github.com/driftmongo/corewire/rope"
	"github.com/driftmongo/corewire/wiremessage"
)

// InsertMessage encodes an OP_INSERT request carrying one or more documents.
type InsertMessage struct {
	Flags              wiremessage.InsertFlags
	FullCollectionName string
	Documents          []rope.Rope
}

// OpCode implements Request.
func (InsertMessage) OpCode() wiremessage.OpCode { return wiremessage.OpInsert }

// Encode implements Request.
func (m InsertMessage) Encode(requestID int32, maxFrameBytes int) (rope.Rope, error) {
	return encodeFrame(requestID, wiremessage.OpInsert, maxFrameBytes, func(b *rope.Builder) error {
		b.AppendI32LE(int32(m.Flags))
		if err := b.AppendCString(m.FullCollectionName); err != nil {
			return err
		}
		for _, doc := range m.Documents {
			b.AppendRope(doc)
		}
		return nil
	})
}
