package wireproto

import (
	"github.com/driftmongo/corewire/rope"
	"github.com/driftmongo/corewire/wiremessage"
)

// QueryMessage encodes an OP_QUERY request.
//
// NumberToReturn of 1 is treated by the server as -1, closing the cursor
// immediately after the first batch; this package does not rewrite that
// value. Callers expecting more than one result should pass 2 or more.
type QueryMessage struct {
	Flags                wiremessage.QueryFlags
	FullCollectionName   string
	NumberToSkip         int32
	NumberToReturn       int32
	Query                rope.Rope
	ReturnFieldsSelector *rope.Rope
}

// OpCode implements Request.
func (QueryMessage) OpCode() wiremessage.OpCode { return wiremessage.OpQuery }

// Encode implements Request.
func (m QueryMessage) Encode(requestID int32, maxFrameBytes int) (rope.Rope, error) {
	return encodeFrame(requestID, wiremessage.OpQuery, maxFrameBytes, func(b *rope.Builder) error {
		b.AppendI32LE(int32(m.Flags))
		if err := b.AppendCString(m.FullCollectionName); err != nil {
			return err
		}
		b.AppendI32LE(m.NumberToSkip)
		b.AppendI32LE(m.NumberToReturn)
		b.AppendRope(m.Query)
		if m.ReturnFieldsSelector != nil {
			b.AppendRope(*m.ReturnFieldsSelector)
		}
		return nil
	})
}
