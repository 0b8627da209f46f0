package logger

import (
	"io"
	"log"
)

// osSink is the LogSink used when no Sink is configured: a thin wrapper
// around the standard library logger, writing to the given io.Writer.
type osSink struct {
	logger *log.Logger
}

func newOSSink(w io.Writer) LogSink {
	return &osSink{logger: log.New(w, "", log.LstdFlags)}
}

func (s *osSink) Info(_ int, msg string, keysAndValues ...interface{}) {
	s.logger.Println(append([]interface{}{msg}, keysAndValues...)...)
}
