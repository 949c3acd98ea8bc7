// Package testing provides helpers for tests that build poke graphs.
package testing

import (
	stdtesting "testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xraph/poke"
	"github.com/xraph/poke/internal/logger"
)

// NewTestGraph creates a graph with a silent logger. This keeps graph debug
// output out of test logs.
func NewTestGraph(opts ...poke.Option) (*poke.Graph, error) {
	return poke.New(append([]poke.Option{poke.WithLogger(logger.NewNoopLogger())}, opts...)...)
}

// NewTestGraphWithLogs creates a graph whose log entries at or above level
// are recorded for assertions.
func NewTestGraphWithLogs(level zapcore.Level, opts ...poke.Option) (*poke.Graph, *observer.ObservedLogs, error) {
	log, logs := logger.NewTestLogger(level)

	g, err := poke.New(append(opts, poke.WithLogger(log))...)
	if err != nil {
		return nil, nil, err
	}

	return g, logs, nil
}

// MustGraph is NewTestGraph failing tb on error. Roots still injected when
// the test ends are released during cleanup.
func MustGraph(tb stdtesting.TB, opts ...poke.Option) *poke.Graph {
	tb.Helper()

	g, err := NewTestGraph(opts...)
	if err != nil {
		tb.Fatalf("build graph: %v", err)
	}

	tb.Cleanup(func() { g.ReleaseAll() })

	return g
}

// MustInject injects target with the graph's marker, failing tb on error,
// and releases it during cleanup.
func MustInject(tb stdtesting.TB, g *poke.Graph, target any) {
	tb.Helper()

	if err := poke.Inject(g, target); err != nil {
		tb.Fatalf("inject %T: %v", target, err)
	}

	tb.Cleanup(func() { _ = poke.Release(g, target) })
}

// AssertReleased fails tb for every provider that still has owners.
func AssertReleased(tb stdtesting.TB, providers ...*poke.Provider) bool {
	tb.Helper()

	ok := true
	for _, p := range providers {
		if n := p.RefCount(); n != 0 {
			tb.Errorf("provider %s still held %d times", p.Key(), n)
			ok = false
		}
	}

	return ok
}
