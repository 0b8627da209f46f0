package logger

// componentEnvVar names an environment variable that configures the log
// level of one Component (or, for componentEnvVarAll, every component at
// once).
type componentEnvVar string

const (
	componentEnvVarAll        componentEnvVar = "COREWIRE_LOG_ALL"
	componentEnvVarConnection componentEnvVar = "COREWIRE_LOG_CONNECTION"
	componentEnvVarTopology   componentEnvVar = "COREWIRE_LOG_TOPOLOGY"
	componentEnvVarCursor     componentEnvVar = "COREWIRE_LOG_CURSOR"
)

// allComponentEnvVars lists every per-component environment variable,
// componentEnvVarAll included so getEnvComponentLevels can special-case it.
var allComponentEnvVars = []componentEnvVar{
	componentEnvVarAll,
	componentEnvVarConnection,
	componentEnvVarTopology,
	componentEnvVarCursor,
}

func (e componentEnvVar) component() Component {
	switch e {
	case componentEnvVarConnection:
		return ComponentConnection
	case componentEnvVarTopology:
		return ComponentTopology
	case componentEnvVarCursor:
		return ComponentCursor
	default:
		return ""
	}
}

// parseLevel is a package-private alias for ParseLevel used by the
// environment-variable plumbing below.
func parseLevel(str string) Level {
	return ParseLevel(str)
}
