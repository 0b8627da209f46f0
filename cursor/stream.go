// Package cursor implements the demand-pull document stream produced by a
// QUERY whose reply carries a live cursorID: buffering the current batch,
// issuing GET_MORE against the same Connection when it is exhausted, and
// best-effort KILL_CURSORS when the consumer stops early.
package cursor

import (
	"context"

	"github.com/driftmongo/corewire/bson"
	"github.com/driftmongo/corewire/connection"
	"github.com/driftmongo/corewire/internal/logger"
	"github.com/driftmongo/corewire/wiremessage"
	"github.com/driftmongo/corewire/wireproto"
)

// Stream is a demand-driven cursor over a sequence of GET_MORE batches.
// It is not safe for concurrent use by multiple goroutines.
type Stream struct {
	conn               *connection.Connection
	fullCollectionName string
	batchSize          int32
	log                *logger.Logger

	cursorID int64
	buffer   []*bson.Document
	pos      int

	closed bool
	err    error
}

// New constructs a Stream from the Reply to the QUERY that produced it.
// It consumes initial's documents as the first batch; if initial's
// CursorID is zero, the stream is already exhausted after that batch.
func New(conn *connection.Connection, fullCollectionName string, batchSize int32, initial *wireproto.Reply, log *logger.Logger) (*Stream, error) {
	docs, err := initial.Documents()
	if err != nil {
		return nil, err
	}
	s := &Stream{
		conn:               conn,
		fullCollectionName: fullCollectionName,
		batchSize:          batchSize,
		log:                log,
		cursorID:           initial.CursorID,
		buffer:             docs,
	}
	if err := s.checkFlags(initial); err != nil {
		s.err = err
		return s, err
	}
	return s, nil
}

// HasNext reports whether a further call to Next will return a document,
// issuing a GET_MORE to refill the buffer if it is currently empty and the
// cursor is still live. It never buffers beyond the current server batch:
// the next round is not requested until the buffer is fully drained.
func (s *Stream) HasNext(ctx context.Context) (bool, error) {
	if s.closed {
		return false, ErrClosed{}
	}
	if s.err != nil {
		return false, s.err
	}
	if s.pos < len(s.buffer) {
		return true, nil
	}
	if s.cursorID == 0 {
		return false, nil
	}
	if err := s.fetchMore(ctx); err != nil {
		s.err = err
		return false, err
	}
	return s.pos < len(s.buffer), nil
}

// Next returns the next document in the stream, refilling the buffer via
// GET_MORE as needed.
func (s *Stream) Next(ctx context.Context) (*bson.Document, error) {
	ok, err := s.HasNext(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errNoMoreDocuments{}
	}
	doc := s.buffer[s.pos]
	s.pos++
	return doc, nil
}

func (s *Stream) fetchMore(ctx context.Context) error {
	req := wireproto.GetMoreMessage{
		FullCollectionName: s.fullCollectionName,
		NumberToReturn:     s.batchSize,
		CursorID:           s.cursorID,
	}
	reply, err := s.conn.Submit(ctx, req)
	if err != nil {
		return err
	}
	docs, err := reply.Documents()
	if err != nil {
		return err
	}
	s.cursorID = reply.CursorID
	s.buffer = docs
	s.pos = 0
	return s.checkFlags(reply)
}

func (s *Stream) checkFlags(reply *wireproto.Reply) error {
	switch {
	case reply.ResponseFlags.Has(wiremessage.ReplyCursorNotFound):
		return CursorInvalid{CursorID: s.cursorID}
	case reply.ResponseFlags.Has(wiremessage.ReplyQueryFailure):
		doc, docErr := reply.SingleErrDocument()
		if docErr != nil {
			return docErr
		}
		return ServerError{Doc: doc}
	}
	return nil
}

// Close ends the stream. If the cursor is still live (cursorID != 0) a
// KILL_CURSORS is posted fire-and-forget on the same Connection (the server
// never replies to it), best-effort: a failure to send is logged but not
// returned.
func (s *Stream) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true

	if s.cursorID == 0 {
		return nil
	}

	req := wireproto.KillCursorsMessage{CursorIDs: []int64{s.cursorID}}
	if err := s.conn.Post(ctx, req); err != nil {
		if s.log != nil {
			s.log.Print(logger.LevelInfo, logger.CursorKillFailed{CursorID: s.cursorID, Err: err})
		}
	}
	s.cursorID = 0
	return nil
}

// errNoMoreDocuments is returned by Next when HasNext would return false;
// callers are expected to check HasNext first, so this is only reached by
// callers that skip it.
type errNoMoreDocuments struct{}

func (errNoMoreDocuments) Error() string { return "cursor: no more documents" }
