package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(t *testing.T) (Logger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return NewLoggerFromCore(core), logs
}

func TestZapLogger_EmitsFields(t *testing.T) {
	log, logs := newObserved(t)

	log.Info("match completed",
		String("entry_id", "m1"),
		Float64("score", 0.92),
		Int("candidates", 10),
		Bool("quick_match", true),
		Duration("elapsed", 15*time.Millisecond),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "match completed", entry.Message)

	fields := entry.ContextMap()
	assert.Equal(t, "m1", fields["entry_id"])
	assert.Equal(t, 0.92, fields["score"])
	assert.Equal(t, int64(10), fields["candidates"])
	assert.Equal(t, true, fields["quick_match"])
}

func TestErrField(t *testing.T) {
	log, logs := newObserved(t)

	log.Error("extraction failed", Err(errors.New("boom")))
	log.Warn("no cause", Err(nil))

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "boom", logs.All()[0].ContextMap()["error"])
	assert.Equal(t, "<nil>", logs.All()[1].ContextMap()["error"])
}

func TestWith_DoesNotMutateParent(t *testing.T) {
	log, logs := newObserved(t)

	child := log.With(String("component", "matching"))
	child.Info("child entry")
	log.Info("parent entry")

	require.Equal(t, 2, logs.Len())
	assert.Contains(t, logs.All()[0].ContextMap(), "component")
	assert.NotContains(t, logs.All()[1].ContextMap(), "component")
}

func TestNamed(t *testing.T) {
	log, logs := newObserved(t)

	log.Named("engine").Named("matching").Info("hello")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "engine.matching", logs.All()[0].LoggerName)
}

func TestNewLogger_Defaults(t *testing.T) {
	log, err := NewLogger(Config{})
	require.NoError(t, err)
	require.NotNil(t, log)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("garbage"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
}

func TestDefaultLogger(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	log, _ := newObserved(t)
	SetDefault(log)
	assert.Equal(t, log, Default())

	SetDefault(nil) // ignored
	assert.Equal(t, log, Default())
}

func TestNopLogger_DoesNotPanic(t *testing.T) {
	log := NewNopLogger()
	log.Debug("a")
	log.Info("b", String("k", "v"))
	log.Warn("c")
	log.Error("d")
	log.With(Int("x", 1)).Named("n").Info("e")
}
