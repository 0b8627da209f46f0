package topology

import (
	"context"

	"github.com/driftmongo/corewire/cursor"
	"github.com/driftmongo/corewire/wireproto"
)

// Send acquires a Connection and submits req, returning its decoded Reply.
// If ctx carries no deadline, one is applied from Config.RequestTimeout so
// a stalled server can never hang a caller forever.
func (s *Supervisor) Send(ctx context.Context, req wireproto.Request) (*wireproto.Reply, error) {
	ctx, cancel := s.withRequestTimeout(ctx)
	defer cancel()

	c, err := s.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	reply, err := c.Submit(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, TimeoutError{Wrapped: err}
		}
		return nil, err
	}
	return reply, nil
}

// Query acquires a Connection, submits msg, and wraps the resulting Reply
// in a cursor.Stream whose GET_MORE rounds run against that same
// Connection. batchSize of 0 uses Config.CursorBatchSize.
func (s *Supervisor) Query(ctx context.Context, msg wireproto.QueryMessage, batchSize int32) (*cursor.Stream, error) {
	if batchSize == 0 {
		batchSize = s.cfg.CursorBatchSize
	}

	ctx, cancel := s.withRequestTimeout(ctx)
	defer cancel()

	c, err := s.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	reply, err := c.Submit(ctx, msg)
	if err != nil {
		if ctx.Err() != nil {
			return nil, TimeoutError{Wrapped: err}
		}
		return nil, err
	}
	return cursor.New(c, msg.FullCollectionName, batchSize, reply, s.log)
}

func (s *Supervisor) withRequestTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.cfg.RequestTimeout)
}
