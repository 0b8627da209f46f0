// Package topology implements the per-endpoint Connection pool: acquiring
// Ready connections, spawning replacements on failure with backoff, and
// coordinated shutdown.
package topology

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/driftmongo/corewire/connection"
	"github.com/driftmongo/corewire/internal/connstate"
	"github.com/driftmongo/corewire/internal/logger"
)

// State is a Supervisor's lifecycle state.
type State int32

const (
	Running State = iota
	Unreachable
	ShuttingDown
	Closed
)

// Supervisor owns a pool of Connections to a single endpoint: acquiring
// Ready connections on demand (round-robin among them, spawning replacements
// up to MaxConnections), reconnecting failed connections with a
// decorrelated-jitter backoff, and draining everything on Shutdown.
type Supervisor struct {
	endpoint string
	cfg      Config
	connOpts []connection.Option
	log      *logger.Logger

	sem *semaphore.Weighted

	mu                  sync.Mutex
	conns               []*connection.Connection
	rrIndex             int
	consecutiveFailures int
	waiters             map[int64]chan struct{}
	lastWaiterID        int64

	backoff *decorr
	state   atomic.Int32

	shutdownOnce sync.Once
	shutdownErr  error
	closed       chan struct{}
}

// New constructs a Supervisor for endpoint. No connection is dialed until
// the first Acquire call.
func New(endpoint string, cfg Config, opts ...SupervisorOption) *Supervisor {
	cfg = cfg.withDefaults()
	s := &Supervisor{
		endpoint: endpoint,
		cfg:      cfg,
		sem:      semaphore.NewWeighted(int64(cfg.MaxConnections)),
		waiters:  make(map[int64]chan struct{}),
		backoff:  newDecorr(cfg.ReconnectBase, cfg.ReconnectCap, cfg.ReconnectJitter),
		closed:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the Supervisor's current lifecycle state.
func (s *Supervisor) State() State { return State(s.state.Load()) }

// Acquire returns a Ready Connection, round-robin among existing ones,
// spawning a new one (up to MaxConnections) if none is Ready. It blocks
// while the pool is saturated and every Connection busy connecting, until
// ctx is done or a Connection becomes available.
func (s *Supervisor) Acquire(ctx context.Context) (*connection.Connection, error) {
	for {
		switch s.State() {
		case ShuttingDown, Closed:
			return nil, ShutdownError{}
		case Unreachable:
			return nil, UnreachableError{Endpoint: s.endpoint}
		}

		s.mu.Lock()
		if c := s.pickReadyLocked(); c != nil {
			s.mu.Unlock()
			return c, nil
		}
		canSpawn := len(s.conns) < s.cfg.MaxConnections
		s.mu.Unlock()

		if canSpawn {
			return s.spawn(ctx)
		}

		ch, id := s.awaitChange()
		select {
		case <-ch:
			s.removeWaiter(id)
		case <-ctx.Done():
			s.removeWaiter(id)
			return nil, ctx.Err()
		case <-s.closed:
			s.removeWaiter(id)
			return nil, ShutdownError{}
		}
	}
}

// pickReadyLocked returns the next Ready connection in round-robin order.
// Callers must hold s.mu.
func (s *Supervisor) pickReadyLocked() *connection.Connection {
	n := len(s.conns)
	for i := 0; i < n; i++ {
		idx := (s.rrIndex + i) % n
		if s.conns[idx].State() == connstate.Ready {
			s.rrIndex = (idx + 1) % n
			return s.conns[idx]
		}
	}
	return nil
}

func (s *Supervisor) spawn(ctx context.Context) (*connection.Connection, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer cancel()
	c, err := connection.Dial(dialCtx, s.endpoint, s.connOpts...)
	if err != nil {
		s.sem.Release(1)
		s.recordFailure(err)
		return nil, err
	}

	s.mu.Lock()
	s.conns = append(s.conns, c)
	s.consecutiveFailures = 0
	s.mu.Unlock()
	s.state.CompareAndSwap(int32(Unreachable), int32(Running))

	go s.watchConnection(c)
	s.notifyWaiters()
	return c, nil
}

func (s *Supervisor) recordFailure(err error) {
	s.mu.Lock()
	s.consecutiveFailures++
	n := s.consecutiveFailures
	s.mu.Unlock()

	if n >= s.cfg.MaxConsecutiveFailures {
		s.state.Store(int32(Unreachable))
		if s.log != nil {
			s.log.Print(logger.LevelInfo, logger.EndpointUnreachable{Endpoint: s.endpoint, ConsecutiveFail: n})
		}
	}
}

// watchConnection waits for c to reach a terminal state, removes it from
// the pool, and schedules a reconnect if the termination was unexpected
// (c.Err() != nil) rather than a graceful Shutdown-driven drain.
func (s *Supervisor) watchConnection(c *connection.Connection) {
	<-c.Done()
	s.sem.Release(1)

	s.mu.Lock()
	s.removeConnLocked(c)
	s.mu.Unlock()
	s.notifyWaiters()

	if s.State() == ShuttingDown || s.State() == Closed {
		return
	}
	if err := c.Err(); err != nil {
		s.recordFailure(err)
		s.scheduleReconnect()
	}
}

func (s *Supervisor) removeConnLocked(c *connection.Connection) {
	for i, cc := range s.conns {
		if cc == c {
			s.conns = append(s.conns[:i], s.conns[i+1:]...)
			return
		}
	}
}

func (s *Supervisor) scheduleReconnect() {
	delay := s.backoff.Next()

	s.mu.Lock()
	attempt := s.consecutiveFailures
	s.mu.Unlock()
	if s.log != nil {
		s.log.Print(logger.LevelInfo, logger.ReconnectScheduled{Endpoint: s.endpoint, Attempt: attempt, Delay: delay})
	}

	go func() {
		select {
		case <-time.After(delay):
		case <-s.closed:
			return
		}
		if s.State() == ShuttingDown || s.State() == Closed {
			return
		}

		_, err := s.spawn(context.Background())
		if err != nil {
			s.scheduleReconnect()
		}
	}()
}

// Shutdown transitions every Connection to Draining and waits for them all
// to reach Closed, up to Config.ShutdownTimeout, draining them concurrently
// via golang.org/x/sync/errgroup. Shutdown is idempotent: once called,
// Acquire fails with ShutdownError.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.state.Store(int32(ShuttingDown))

		s.mu.Lock()
		conns := append([]*connection.Connection(nil), s.conns...)
		s.mu.Unlock()

		g, gctx := errgroup.WithContext(ctx)
		for _, c := range conns {
			c := c
			g.Go(func() error {
				c.Drain(s.cfg.ShutdownTimeout)
				select {
				case <-c.Done():
					return nil
				case <-gctx.Done():
					c.Close()
					return gctx.Err()
				}
			})
		}
		s.shutdownErr = g.Wait()

		s.state.Store(int32(Closed))
		close(s.closed)
	})
	return s.shutdownErr
}

func (s *Supervisor) awaitChange() (<-chan struct{}, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastWaiterID++
	id := s.lastWaiterID
	ch := make(chan struct{}, 1)
	s.waiters[id] = ch
	return ch, id
}

func (s *Supervisor) removeWaiter(id int64) {
	s.mu.Lock()
	delete(s.waiters, id)
	s.mu.Unlock()
}

func (s *Supervisor) notifyWaiters() {
	s.mu.Lock()
	for _, ch := range s.waiters {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	s.mu.Unlock()
}
