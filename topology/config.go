package topology

import (
	"time"

	"github.com/driftmongo/corewire/connection"
	"github.com/driftmongo/corewire/internal/logger"
)

// Config holds the tunables for a Supervisor.
type Config struct {
	// MaxConnections caps the number of Connections a Supervisor will open
	// to its endpoint at once.
	MaxConnections int
	// MaxConsecutiveFailures is the number of consecutive dial/connection
	// failures after which the endpoint is marked Unreachable.
	MaxConsecutiveFailures int
	// ReconnectBase and ReconnectCap bound the decorrelated-jitter backoff
	// used between reconnect attempts. ReconnectJitter scales the spread
	// of each step above ReconnectBase (1 = the full 1x-3x spread); a
	// value of 0 or less is replaced by the 0.2 default.
	ReconnectBase   time.Duration
	ReconnectCap    time.Duration
	ReconnectJitter float64
	// ConnectTimeout bounds a single dial attempt.
	ConnectTimeout time.Duration
	// ShutdownTimeout bounds how long Shutdown waits for in-flight
	// requests to drain before forcing Connections closed.
	ShutdownTimeout time.Duration
	// RequestTimeout bounds a Send/Query call when the caller's context
	// carries no deadline of its own.
	RequestTimeout time.Duration
	// CursorBatchSize is the default batch size Query uses for GET_MORE
	// rounds when the caller doesn't request one explicitly. 0 defers to
	// the server's own default.
	CursorBatchSize int32
}

func (c Config) withDefaults() Config {
	if c.MaxConnections <= 0 {
		c.MaxConnections = 10
	}
	if c.MaxConsecutiveFailures <= 0 {
		c.MaxConsecutiveFailures = 5
	}
	if c.ReconnectBase <= 0 {
		c.ReconnectBase = 100 * time.Millisecond
	}
	if c.ReconnectCap <= 0 {
		c.ReconnectCap = 30 * time.Second
	}
	if c.ReconnectJitter <= 0 {
		c.ReconnectJitter = 0.2
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 5 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	return c
}

// SupervisorOption configures a Supervisor at construction time.
type SupervisorOption func(*Supervisor)

// WithConnectionOptions passes opts through to every connection.Dial call
// the Supervisor makes.
func WithConnectionOptions(opts ...connection.Option) SupervisorOption {
	return func(s *Supervisor) { s.connOpts = append(s.connOpts, opts...) }
}

// WithLogger attaches a Logger for reconnect and reachability events.
func WithLogger(l *logger.Logger) SupervisorOption {
	return func(s *Supervisor) { s.log = l }
}
