// Package connection owns a single TCP socket speaking the MongoDB wire
// protocol: framed request writes, framed reply reads, and correlation of
// replies to their originating request by requestId.
package connection

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/driftmongo/corewire/internal/connstate"
	"github.com/driftmongo/corewire/internal/logger"
	"github.com/driftmongo/corewire/rope"
	"github.com/driftmongo/corewire/wiremessage"
	"github.com/driftmongo/corewire/wireproto"
)

var globalRequestID int32

// nextRequestID returns the next value of the process-global, monotonic
// requestId allocator. It wraps modulo 2^31 and never returns 0, so a
// requestId is unique across every connection in the process.
func nextRequestID() int32 {
	for {
		id := atomic.AddInt32(&globalRequestID, 1) & 0x7fffffff
		if id != 0 {
			return id
		}
	}
}

var globalConnID uint64

func nextConnID() uint64 { return atomic.AddUint64(&globalConnID, 1) }

// Result is delivered to a Submit caller once its request completes, either
// with a decoded Reply or with the error that failed it.
type Result struct {
	Reply *wireproto.Reply
	Err   error
}

type submission struct {
	req wireproto.Request
	// noReply marks a fire-and-forget request (KILL_CURSORS): it is written
	// to the socket but never entered into the in-flight table, and its
	// result completes as soon as the write succeeds.
	noReply bool
	result  chan Result
}

func (s *submission) complete(r Result) {
	select {
	case s.result <- r:
	default:
	}
}

// Connection owns one TCP socket. Submitted requests are serialized through
// a bounded queue and handed to a single owning goroutine that is also the
// only holder of the in-flight table.
type Connection struct {
	id   string
	addr string
	nc   net.Conn
	cfg  *config

	state atomic.Int32

	submit     chan *submission
	readFrames chan rope.Rope
	readErr    chan error
	drainReq   chan time.Duration
	closed     chan struct{}
	finalErr   error
}

// Dial opens a TCP connection to addr and starts its owning goroutines.
// There is no protocol handshake: authentication and topology discovery
// are outside this module's scope, so a freshly dialed Connection is Ready
// as soon as the socket is established.
func Dial(ctx context.Context, addr string, opts ...Option) (*Connection, error) {
	cfg := newConfig(opts...)

	nc, err := cfg.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	c := &Connection{
		id:         fmt.Sprintf("%s[-%d]", addr, nextConnID()),
		addr:       addr,
		nc:         nc,
		cfg:        cfg,
		submit:     make(chan *submission, cfg.submitQueueSize),
		readFrames: make(chan rope.Rope, 16),
		readErr:    make(chan error, 1),
		drainReq:   make(chan time.Duration, 1),
		closed:     make(chan struct{}),
	}
	c.state.Store(int32(connstate.Connecting))

	go c.readerLoop()
	go c.ownerLoop()

	c.transition(connstate.Ready)
	return c, nil
}

// ID returns the Connection's diagnostic identifier.
func (c *Connection) ID() string { return c.id }

// State returns the Connection's current lifecycle state.
func (c *Connection) State() connstate.State {
	return connstate.State(c.state.Load())
}

func (c *Connection) transition(to connstate.State) {
	old := c.state.Swap(int32(to))
	if c.cfg.log != nil {
		c.cfg.log.Print(logger.LevelDebug, logger.ConnectionStateChanged{
			ConnectionID: c.id,
			Endpoint:     c.addr,
			From:         connstate.State(old).String(),
			To:           to.String(),
		})
	}
}

// Submit encodes req, assigns it a fresh requestId, and queues it for write.
// It blocks while the submission queue is full, which is this Connection's
// backpressure mechanism, and returns the decoded Reply once the server
// responds or ctx is done.
func (c *Connection) Submit(ctx context.Context, req wireproto.Request) (*wireproto.Reply, error) {
	r, err := c.enqueue(ctx, &submission{req: req, result: make(chan Result, 1)})
	return r.Reply, err
}

// Post encodes req and queues it for write without registering a waiter in
// the in-flight table, for fire-and-forget messages such as KILL_CURSORS
// that the server never answers. It returns once the frame has been written
// (or queueing/encoding/writing failed).
func (c *Connection) Post(ctx context.Context, req wireproto.Request) error {
	_, err := c.enqueue(ctx, &submission{req: req, noReply: true, result: make(chan Result, 1)})
	return err
}

func (c *Connection) enqueue(ctx context.Context, s *submission) (Result, error) {
	state := c.State()
	if state != connstate.Ready && !(state == connstate.Connecting && c.cfg.discipline == BufferWhileConnecting) {
		return Result{}, NotReadyError{ConnectionID: c.id, State: state.String()}
	}

	select {
	case c.submit <- s:
	case <-ctx.Done():
		return Result{}, Error{ConnectionID: c.id, Wrapped: ctx.Err(), message: "submit canceled"}
	case <-c.closed:
		return Result{}, Error{ConnectionID: c.id, message: "connection closed"}
	}

	select {
	case r := <-s.result:
		return r, r.Err
	case <-ctx.Done():
		return Result{}, Error{ConnectionID: c.id, Wrapped: ctx.Err(), message: "await reply canceled"}
	case <-c.closed:
		return Result{}, Error{ConnectionID: c.id, message: "connection closed"}
	}
}

// Drain transitions the Connection to Draining: no further requests are
// accepted, but pending in-flight replies are still awaited up to
// graceTimeout before the Connection is forced Closed.
func (c *Connection) Drain(graceTimeout time.Duration) {
	if c.State() != connstate.Ready {
		return
	}
	c.transition(connstate.Draining)
	select {
	case c.drainReq <- graceTimeout:
	case <-c.closed:
	}
}

// Done returns a channel that is closed once the Connection reaches Closed,
// whether from a graceful Drain or a fatal error.
func (c *Connection) Done() <-chan struct{} { return c.closed }

// Err returns the error that caused the Connection to close, or nil if it
// closed cleanly (a graceful Drain with no in-flight requests remaining).
// It is only meaningful after Done is closed.
func (c *Connection) Err() error { return c.finalErr }

// Close forces the Connection Closed immediately, failing any in-flight
// requests.
func (c *Connection) Close() error {
	select {
	case <-c.closed:
		return nil
	default:
	}
	return c.nc.Close()
}

// ownerLoop is the Connection's single owning goroutine: it writes
// submitted requests, matches inbound frames to their requester, and is the
// sole mutator of the in-flight table.
func (c *Connection) ownerLoop() {
	inflight := make(map[int32]*submission)
	var drainTimer *time.Timer
	var drainTimerC <-chan time.Time

	finish := func(err error) {
		c.finalErr = err
		if err != nil {
			c.transition(connstate.Failed)
		}
		c.transition(connstate.Closed)
		for id, s := range inflight {
			s.complete(Result{Err: err})
			delete(inflight, id)
		}
		close(c.closed)
		c.nc.Close()
	}

	maybeFinishDraining := func() bool {
		if c.State() == connstate.Draining && len(inflight) == 0 {
			finish(nil)
			return true
		}
		return false
	}

	for {
		select {
		case s, ok := <-c.submit:
			if !ok {
				continue
			}
			switch c.State() {
			case connstate.Draining, connstate.Failed, connstate.Closed:
				s.complete(Result{Err: NotReadyError{ConnectionID: c.id, State: c.State().String()}})
				continue
			}
			id := nextRequestID()
			frame, err := s.req.Encode(id, c.cfg.maxFrameBytes)
			if err != nil {
				s.complete(Result{Err: err})
				continue
			}
			if !s.noReply {
				inflight[id] = s
			}
			if err := c.writeFrame(frame); err != nil {
				finish(Error{ConnectionID: c.id, Wrapped: err, message: "write failed"})
				return
			}
			if s.noReply {
				s.complete(Result{})
			}

		case frame, ok := <-c.readFrames:
			if !ok {
				continue
			}
			reply, err := wireproto.DecodeReply(frame)
			if err != nil {
				finish(Error{ConnectionID: c.id, Wrapped: err, message: "decode failed"})
				return
			}
			s, ok := inflight[reply.Header.ResponseTo]
			if !ok {
				if c.cfg.log != nil {
					c.cfg.log.Print(logger.LevelDebug, logger.FrameDiscarded{
						ConnectionID: c.id,
						ResponseTo:   reply.Header.ResponseTo,
					})
				}
				continue
			}
			delete(inflight, reply.Header.ResponseTo)
			s.complete(Result{Reply: reply})
			if maybeFinishDraining() {
				return
			}

		case err := <-c.readErr:
			finish(Error{ConnectionID: c.id, Wrapped: err, message: "read failed"})
			return

		case grace := <-c.drainReq:
			if len(inflight) == 0 {
				finish(nil)
				return
			}
			drainTimer = time.NewTimer(grace)
			drainTimerC = drainTimer.C

		case <-drainTimerC:
			finish(Error{ConnectionID: c.id, message: "drain grace period expired"})
			return
		}
	}
}

func (c *Connection) writeFrame(frame rope.Rope) error {
	if c.cfg.writeTimeout > 0 {
		c.nc.SetWriteDeadline(time.Now().Add(c.cfg.writeTimeout))
	}
	_, err := frame.WriteTo(c.nc)
	if err == nil {
		c.traceFrame("write", frame)
	}
	return err
}

// traceFrame captures frame to the configured trace sink, if any, and emits
// a Debug-level FrameTraced log entry alongside it.
func (c *Connection) traceFrame(direction string, frame rope.Rope) {
	if c.cfg.trace == nil {
		return
	}
	c.cfg.trace.capture(frame)
	if c.cfg.log == nil {
		return
	}
	hdr, err := wiremessage.ReadHeader(frame.Reader())
	if err != nil {
		return
	}
	c.cfg.log.Print(logger.LevelDebug, logger.FrameTraced{
		ConnectionID: c.id,
		Direction:    direction,
		Header:       traceFrame{OpCode: hdr.OpCode, Length: hdr.MessageLength},
	})
}

// readerLoop parses length-prefix framed messages off the socket and hands
// each complete frame to the owning goroutine. It never touches the
// in-flight table.
func (c *Connection) readerLoop() {
	for {
		if c.cfg.readTimeout > 0 {
			c.nc.SetReadDeadline(time.Now().Add(c.cfg.readTimeout))
		}

		var sizeBuf [4]byte
		if _, err := io.ReadFull(c.nc, sizeBuf[:]); err != nil {
			c.reportReadErr(err)
			return
		}

		size := int(wiremessage.LittleEndianInt32(sizeBuf[:]))
		if size < wiremessage.HeaderLen {
			c.reportReadErr(wiremessage.ErrTruncatedHeader)
			return
		}
		if size > c.cfg.maxFrameBytes {
			c.reportReadErr(wiremessage.FrameTooLargeError{Length: size, MaxSize: c.cfg.maxFrameBytes})
			return
		}

		buf := make([]byte, size)
		copy(buf, sizeBuf[:])
		if _, err := io.ReadFull(c.nc, buf[4:]); err != nil {
			c.reportReadErr(err)
			return
		}

		b := rope.NewBuilder()
		b.AppendBytes(buf)
		frame := b.Build()
		c.traceFrame("read", frame)
		select {
		case c.readFrames <- frame:
		case <-c.closed:
			return
		}
	}
}

func (c *Connection) reportReadErr(err error) {
	select {
	case c.readErr <- err:
	case <-c.closed:
	}
}
