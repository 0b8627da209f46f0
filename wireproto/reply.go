package wireproto

import (
	"fmt"

	"github.com/driftmongo/corewire/bson"
	"github.com/driftmongo/corewire/rope"
	"github.com/driftmongo/corewire/wiremessage"
)

// Reply is a decoded OP_REPLY frame. Its documents are not parsed until
// Documents is called, keeping the decode path lazy the way the rest of the
// codec is.
type Reply struct {
	Header         wiremessage.Header
	ResponseFlags  wiremessage.ReplyFlags
	CursorID       int64
	StartingFrom   int32
	NumberReturned int32

	docs rope.Rope
}

// ErrNotReply is returned by DecodeReply when the frame's header does not
// carry OpReply.
type ErrNotReply struct {
	Got wiremessage.OpCode
}

func (e ErrNotReply) Error() string {
	return fmt.Sprintf("wireproto: expected OP_REPLY, got %s", e.Got)
}

// DecodeReply parses a full wire frame (header included) as an OP_REPLY.
func DecodeReply(frame rope.Rope) (*Reply, error) {
	rd := frame.Reader()
	hdr, err := wiremessage.ReadHeader(rd)
	if err != nil {
		return nil, err
	}
	if hdr.OpCode != wiremessage.OpReply {
		return nil, ErrNotReply{Got: hdr.OpCode}
	}

	flags, err := rd.ReadI32LE()
	if err != nil {
		return nil, err
	}
	cursorID, err := rd.ReadI64LE()
	if err != nil {
		return nil, err
	}
	startingFrom, err := rd.ReadI32LE()
	if err != nil {
		return nil, err
	}
	numberReturned, err := rd.ReadI32LE()
	if err != nil {
		return nil, err
	}
	docs, err := rd.Slice(rd.Remaining())
	if err != nil {
		return nil, err
	}

	return &Reply{
		Header:         hdr,
		ResponseFlags:  wiremessage.ReplyFlags(flags),
		CursorID:       cursorID,
		StartingFrom:   startingFrom,
		NumberReturned: numberReturned,
		docs:           docs,
	}, nil
}

// Documents parses and returns the reply's NumberReturned documents, sliced
// from the reply buffer without an intermediate copy.
func (r *Reply) Documents() ([]*bson.Document, error) {
	rd := r.docs.Reader()
	out := make([]*bson.Document, 0, r.NumberReturned)
	for i := int32(0); i < r.NumberReturned; i++ {
		peek := *rd
		length, err := peek.ReadI32LE()
		if err != nil {
			return nil, err
		}
		docRope, err := rd.Slice(int(length))
		if err != nil {
			return nil, err
		}
		doc, err := bson.OpenDocument(docRope)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// SingleErrDocument returns the reply's sole document, intended for the
// QueryFailure case where the server returns exactly one document carrying
// an "$err" field.
func (r *Reply) SingleErrDocument() (*bson.Document, error) {
	docs, err := r.Documents()
	if err != nil {
		return nil, err
	}
	if len(docs) != 1 {
		return nil, fmt.Errorf("wireproto: expected exactly one document in failed reply, got %d", len(docs))
	}
	return docs[0], nil
}
