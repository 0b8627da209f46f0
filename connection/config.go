package connection

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/driftmongo/corewire/internal/logger"
	"github.com/driftmongo/corewire/wiremessage"
)

// Dialer opens network connections. It is satisfied by *net.Dialer and can
// be replaced in tests to dial in-memory pipes instead of real sockets.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// DialerFunc is an adapter to allow ordinary functions to satisfy Dialer.
type DialerFunc func(ctx context.Context, network, address string) (net.Conn, error)

// DialContext implements Dialer.
func (f DialerFunc) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return f(ctx, network, address)
}

// DefaultDialer is the Dialer used when no WithDialer option is given.
var DefaultDialer Dialer = &net.Dialer{}

// QueueDiscipline controls what happens to a Submit call that arrives while
// the Connection is still Connecting.
type QueueDiscipline int

const (
	// RejectWhileConnecting fails Submit with NotReadyError until the
	// Connection reaches Ready.
	RejectWhileConnecting QueueDiscipline = iota
	// BufferWhileConnecting queues the request to be sent once Ready.
	BufferWhileConnecting
)

type config struct {
	dialer          Dialer
	maxFrameBytes   int
	readTimeout     time.Duration
	writeTimeout    time.Duration
	submitQueueSize int
	discipline      QueueDiscipline
	log             *logger.Logger
	trace           *traceSink
}

// Option configures a Connection at Dial time.
type Option func(*config)

// WithDialer overrides the network Dialer.
func WithDialer(d Dialer) Option { return func(c *config) { c.dialer = d } }

// WithMaxFrameBytes caps the size of any single frame, read or written.
func WithMaxFrameBytes(n int) Option { return func(c *config) { c.maxFrameBytes = n } }

// WithReadTimeout bounds how long a single read may block.
func WithReadTimeout(d time.Duration) Option { return func(c *config) { c.readTimeout = d } }

// WithWriteTimeout bounds how long a single write may block.
func WithWriteTimeout(d time.Duration) Option { return func(c *config) { c.writeTimeout = d } }

// WithSubmitQueueSize sets the capacity of the bounded submission queue
// that provides backpressure to callers of Submit.
func WithSubmitQueueSize(n int) Option { return func(c *config) { c.submitQueueSize = n } }

// WithQueueDiscipline controls Submit behavior while Connecting.
func WithQueueDiscipline(d QueueDiscipline) Option { return func(c *config) { c.discipline = d } }

// WithLogger attaches a Logger for connection-lifecycle and discard events.
func WithLogger(l *logger.Logger) Option { return func(c *config) { c.log = l } }

// WithTraceSink captures every frame written or read on the Connection,
// snappy-compressed, as a length-prefixed record written to w. It is purely
// diagnostic: a write failure against w is never surfaced as a Connection
// error. Intended for offline capture of a misbehaving session, not for
// production always-on use.
func WithTraceSink(w io.Writer) Option {
	return func(c *config) { c.trace = newTraceSink(w) }
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		dialer:          DefaultDialer,
		maxFrameBytes:   wiremessage.DefaultMaxFrameBytes,
		submitQueueSize: 64,
		discipline:      RejectWhileConnecting,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
