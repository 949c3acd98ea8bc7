package logger_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/xraph/poke/internal/logger"
)

type name string

func (n name) String() string { return string(n) }

// TestNoopLogger ensures noop logger implements interface correctly.
func TestNoopLogger(t *testing.T) {
	noopLog := logger.NewNoopLogger()

	var _ logger.Logger = noopLog

	t.Run("BasicLogging", func(t *testing.T) {
		noopLog.Debug("debug message")
		noopLog.Info("info message")
		noopLog.Warn("warn message")
		noopLog.Error("error message")
		noopLog.Debugf("debug %s", "formatted")
	})

	t.Run("WithMethods", func(t *testing.T) {
		assert.Same(t, noopLog, noopLog.With(logger.String("key", "value")))
		assert.Same(t, noopLog, noopLog.Named("test"))
		assert.NoError(t, noopLog.Sync())
	})
}

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger(logger.LoggingConfig{
		Level:  logger.LevelWarn,
		Format: "json",
		Output: &buf,
	})

	log.Info("filtered out")
	log.Warn("release of unknown root", logger.Target(&struct{}{}), logger.RefCount(0))
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.NotContains(t, out, "filtered out")
	assert.Contains(t, out, `"msg":"release of unknown root"`)
	assert.Contains(t, out, `"target":"*struct {}"`)
	assert.Contains(t, out, `"ref_count":0`)
}

func TestConsoleLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger(logger.LoggingConfig{Level: logger.LevelDebug, Output: &buf})

	log.Named("graph").Debug("provider evicted", logger.Binding(name("*app.Repo")))
	require.NoError(t, log.Sync())

	assert.Contains(t, buf.String(), "provider evicted")
	assert.Contains(t, buf.String(), "graph")
	assert.Contains(t, buf.String(), "*app.Repo")
}

func TestTestLogger(t *testing.T) {
	log, logs := logger.NewTestLogger(zapcore.DebugLevel)

	log.With(logger.Owner(name("owner-1"))).Error("inject failed", logger.Error(errors.New("boom")))
	log.Debugf("resolved %d providers", 3)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "inject failed", entries[0].Message)
	assert.Equal(t, "owner-1", entries[0].ContextMap()["owner"])
	assert.Equal(t, "boom", entries[0].ContextMap()["error"])
	assert.Equal(t, "resolved 3 providers", entries[1].Message)
}

func TestFromZapNil(t *testing.T) {
	assert.NotNil(t, logger.FromZap(nil))
}
