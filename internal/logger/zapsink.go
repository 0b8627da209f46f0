package logger

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
)

// NewZapSink builds a structured LogSink: a production zap.Logger adapted
// through zapr down to the narrow LogSink interface. It is only used when
// passed to New; a Logger with no sink falls back to the stderr osSink.
func NewZapSink() (LogSink, error) {
	zl, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return zapSink{l: zapr.NewLogger(zl)}, nil
}

type zapSink struct {
	l logr.Logger
}

func (s zapSink) Info(level int, msg string, keysAndValues ...interface{}) {
	s.l.V(level).Info(msg, keysAndValues...)
}
