package logger

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

type mockLogSink struct {
	calls []string
}

func (s *mockLogSink) Info(level int, msg string, keysAndValues ...interface{}) {
	s.calls = append(s.calls, msg)
}

func TestSelectMaxDocumentLength(t *testing.T) {
	t.Run("arg wins over default", func(t *testing.T) {
		got := selectMaxDocumentLength(func() uint { return 100 }, func() uint { return 0 })
		require.Equal(t, uint(100), got)
	})

	t.Run("falls back to default when all zero", func(t *testing.T) {
		got := selectMaxDocumentLength(func() uint { return 0 })
		require.Equal(t, uint(DefaultMaxDocumentLength), got)
	})

	t.Run("reads from environment", func(t *testing.T) {
		t.Setenv(maxDocumentLengthEnvVar, "250")
		got := selectMaxDocumentLength(func() uint { return 0 }, getEnvMaxDocumentLength)
		require.Equal(t, uint(250), got)
	})

	t.Run("invalid environment value is ignored", func(t *testing.T) {
		t.Setenv(maxDocumentLengthEnvVar, "not-a-number")
		got := selectMaxDocumentLength(func() uint { return 0 }, getEnvMaxDocumentLength)
		require.Equal(t, uint(DefaultMaxDocumentLength), got)
	})
}

func TestSelectLogSink(t *testing.T) {
	sink := &mockLogSink{}
	got := selectLogSink(func() LogSink { return sink })
	require.Same(t, sink, got)
}

func TestSelectComponentLevels(t *testing.T) {
	arg := map[Component]Level{ComponentConnection: LevelDebug}
	got := selectComponentLevels(func() map[Component]Level { return arg })
	require.Equal(t, LevelDebug, got[ComponentConnection])
}

func TestGetEnvComponentLevelsAllTakesPriority(t *testing.T) {
	t.Setenv(string(componentEnvVarAll), "debug")
	levels := getEnvComponentLevels()
	require.Equal(t, LevelDebug, levels[ComponentConnection])
	require.Equal(t, LevelDebug, levels[ComponentTopology])
	require.Equal(t, LevelDebug, levels[ComponentCursor])
}

func TestGetEnvComponentLevelsPerComponent(t *testing.T) {
	t.Setenv(string(componentEnvVarConnection), "info")
	levels := getEnvComponentLevels()
	require.Equal(t, LevelInfo, levels[ComponentConnection])
	require.Equal(t, LevelOff, levels[ComponentTopology])
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, LevelDebug, ParseLevel("debug"))
	require.Equal(t, LevelDebug, ParseLevel("TRACE"))
	require.Equal(t, LevelInfo, ParseLevel("Warn"))
	require.Equal(t, LevelOff, ParseLevel("off"))
	require.Equal(t, LevelOff, ParseLevel("no-such-level"))
	require.Equal(t, LevelOff, ParseLevel(""))
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc", truncate("abc", 10))
	require.Equal(t, "ab"+TruncationSuffix, truncate("abcdef", 2))
}

func TestPrintDropsWhenBufferFull(t *testing.T) {
	sink := &mockLogSink{}
	l := &Logger{
		ComponentLevels:   map[Component]Level{ComponentConnection: LevelDebug},
		Sink:              sink,
		MaxDocumentLength: DefaultMaxDocumentLength,
		jobs:              make(chan job, 1),
	}
	l.Print(LevelInfo, ConnectionStateChanged{})
	l.Print(LevelInfo, ConnectionStateChanged{})
	require.Len(t, l.jobs, 1)
}

func TestMain(m *testing.M) {
	os.Exit(m.Run())
}
