package topology

import "fmt"

// UnreachableError is returned by Acquire once an endpoint has accumulated
// Config.MaxConsecutiveFailures consecutive connection failures.
type UnreachableError struct {
	Endpoint string
}

func (e UnreachableError) Error() string {
	return fmt.Sprintf("topology: endpoint %s is unreachable", e.Endpoint)
}

// ShutdownError is returned by Acquire once Shutdown has been called.
type ShutdownError struct{}

func (ShutdownError) Error() string { return "topology: supervisor is shutting down" }

// TimeoutError is returned by Send/Query when the request's deadline
// (caller-supplied or Config.RequestTimeout) elapses while the request is
// being submitted or awaiting its Reply. A deadline that runs out inside
// Acquire is returned as Acquire's own error, not as TimeoutError. The
// in-flight slot is left as an orphan on the Connection: a late-arriving
// reply for it is simply discarded.
type TimeoutError struct {
	Wrapped error
}

func (e TimeoutError) Error() string {
	return fmt.Sprintf("topology: request timed out: %s", e.Wrapped)
}

func (e TimeoutError) Unwrap() error { return e.Wrapped }
