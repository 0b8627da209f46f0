package logger

import (
	"time"

	"github.com/davecgh/go-spew/spew"
)

// ComponentMessage is implemented by every structured event this module
// logs. Serialize returns alternating key/value pairs suitable for a
// structured LogSink.
type ComponentMessage interface {
	Component() Component
	Message() string
	Serialize() []interface{}
}

// CommandMessageDropped is printed in place of a message that could not be
// queued because the logger's job channel was full.
type CommandMessageDropped struct {
	Comp Component
}

func (m CommandMessageDropped) Component() Component { return m.Comp }
func (CommandMessageDropped) Message() string { return "log message dropped: buffer full" }
func (CommandMessageDropped) Serialize() []interface{} { return nil }

// ConnectionStateChanged is printed whenever a Connection's lifecycle state
// transitions, e.g. Connecting -> Ready or Ready -> Draining.
type ConnectionStateChanged struct {
	ConnectionID string
	Endpoint     string
	From         string
	To           string
}

func (ConnectionStateChanged) Component() Component { return ComponentConnection }
func (ConnectionStateChanged) Message() string { return "connection state changed" }
func (m ConnectionStateChanged) Serialize() []interface{} {
	return []interface{}{
		"connectionID", m.ConnectionID,
		"endpoint", m.Endpoint,
		"from", m.From,
		"to", m.To,
	}
}

// FrameDiscarded is printed when a reply arrives for a responseTo that has
// no matching in-flight entry, e.g. a second reply for a requestId that has
// already been answered.
type FrameDiscarded struct {
	ConnectionID string
	ResponseTo   int32
}

func (FrameDiscarded) Component() Component { return ComponentConnection }
func (FrameDiscarded) Message() string { return "discarding reply with no in-flight request" }
func (m FrameDiscarded) Serialize() []interface{} {
	return []interface{}{"connectionID", m.ConnectionID, "responseTo", m.ResponseTo}
}

// ReconnectScheduled is printed each time the topology supervisor schedules
// a reconnect attempt after a connection failure.
type ReconnectScheduled struct {
	Endpoint string
	Attempt  int
	Delay    time.Duration
}

func (ReconnectScheduled) Component() Component { return ComponentTopology }
func (ReconnectScheduled) Message() string { return "scheduling reconnect" }
func (m ReconnectScheduled) Serialize() []interface{} {
	return []interface{}{"endpoint", m.Endpoint, "attempt", m.Attempt, "delayMS", m.Delay.Milliseconds()}
}

// EndpointUnreachable is printed when a supervisor gives up on an endpoint
// after max_consecutive_failures.
type EndpointUnreachable struct {
	Endpoint        string
	ConsecutiveFail int
}

func (EndpointUnreachable) Component() Component { return ComponentTopology }
func (EndpointUnreachable) Message() string { return "endpoint marked unreachable" }
func (m EndpointUnreachable) Serialize() []interface{} {
	return []interface{}{"endpoint", m.Endpoint, "consecutiveFailures", m.ConsecutiveFail}
}

// CursorKillFailed is printed when a best-effort KILL_CURSORS send fails
// while dropping a cursor stream early.
type CursorKillFailed struct {
	CursorID int64
	Err      error
}

func (CursorKillFailed) Component() Component { return ComponentCursor }
func (CursorKillFailed) Message() string { return "failed to send kill_cursors" }
func (m CursorKillFailed) Serialize() []interface{} {
	return []interface{}{"cursorID", m.CursorID, "error", m.Err}
}

// FrameTraced is printed at Debug level whenever a connection with a trace
// sink attached writes or reads a frame. The header carries spew.Sdump's
// output rather than a one-line %#v so nested fields stay readable.
type FrameTraced struct {
	ConnectionID string
	Direction    string
	Header       interface{}
}

func (FrameTraced) Component() Component { return ComponentConnection }
func (FrameTraced) Message() string { return "frame traced" }
func (m FrameTraced) Serialize() []interface{} {
	return []interface{}{
		"connectionID", m.ConnectionID,
		"direction", m.Direction,
		"header", spew.Sdump(m.Header),
	}
}
