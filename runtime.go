package poke

import (
	"context"
	"sync"
	"time"

	"github.com/xraph/poke/errors"
	"github.com/xraph/poke/internal/logger"
)

// shutdownTimeout bounds flushing buffered spans on Close.
const shutdownTimeout = 5 * time.Second

// Runtime is a process-wide handle to one graph. Create it at startup, call
// Init once the components are ready, pass it to the code that needs it and
// Close it on shutdown. Unlike New, a Runtime may own a span exporter.
type Runtime struct {
	mu     sync.Mutex
	opts   []Option
	built  *built
	graph  *Graph
	logger Logger
	closed bool
}

// NewRuntime creates a runtime; the graph is built by Init.
func NewRuntime(opts ...Option) *Runtime {
	return &Runtime{opts: opts}
}

// Init builds the graph. Calling it again is a no-op.
func (r *Runtime) Init() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errors.ErrRuntimeClosed("init")
	}

	if r.graph != nil {
		return nil
	}

	b, err := build(r.opts, true)
	if err != nil {
		return err
	}

	r.built, r.graph, r.logger = b, b.graph, b.logger
	r.logger.Debug("runtime initialised",
		logger.Int("components", len(b.graph.Components())),
		logger.Bool("exporting_spans", b.provider != nil),
	)

	return nil
}

// Graph returns the graph, or an error before Init and after Close.
func (r *Runtime) Graph() (*Graph, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.graph == nil {
		return nil, errors.ErrRuntimeClosed("graph")
	}

	return r.graph, nil
}

// Inject injects target with the configured marker.
func (r *Runtime) Inject(target any) error {
	g, err := r.Graph()
	if err != nil {
		return err
	}

	return Inject(g, target)
}

// Release releases target with the configured marker.
func (r *Runtime) Release(target any) error {
	g, err := r.Graph()
	if err != nil {
		return err
	}

	return Release(g, target)
}

// Close releases every root still holding providers, flushes the span
// exporter and the logger. Calling it again is a no-op.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	if r.graph == nil {
		return nil
	}

	released := r.graph.ReleaseAll()
	r.logger.Debug("runtime closed", logger.Int("released", released))

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := r.built.shutdown(ctx)
	if err != nil {
		r.logger.Warn("span exporter shutdown failed", logger.Error(err))
	}

	// Sync fails on some terminals; nothing to recover.
	_ = r.logger.Sync()

	return err
}
