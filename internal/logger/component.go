package logger

// Component names the subsystem a log record came from.
type Component string

// Components this module logs from.
const (
	ComponentConnection Component = "connection"
	ComponentTopology   Component = "topology"
	ComponentCursor     Component = "cursor"
)
