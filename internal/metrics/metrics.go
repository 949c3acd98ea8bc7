package metrics

import (
	"time"
)

// Resolution sources reported by Recorder.Resolved.
const (
	// SourceConstructed is a new instance stored in a scope cache.
	SourceConstructed = "constructed"
	// SourceTransient is a new instance of an unscoped provider.
	SourceTransient = "transient"
	SourceCached    = "cached"
	// SourceForward is a re-entrant hit on an instance still being injected.
	SourceForward = "forward"
)

// Recorder receives graph events. Implementations must be safe for concurrent
// use; the graph calls them while holding its own lock.
type Recorder interface {
	// InjectCompleted records a successful inject that touched n providers.
	InjectCompleted(d time.Duration, providers int)

	// InjectFailed records a failed inject, labelled by error code.
	InjectFailed(code string)

	// Released records a release that dropped one hold on n providers.
	Released(providers int)

	// Resolved records one provider resolution and where the instance came from.
	Resolved(binding, source string)

	// Evicted records a cached instance leaving its scope cache.
	Evicted(binding string)
}

// NewNoop creates a recorder that discards every event.
func NewNoop() Recorder {
	return noopRecorder{}
}

type noopRecorder struct{}

func (noopRecorder) InjectCompleted(time.Duration, int) {}
func (noopRecorder) InjectFailed(string) {}
func (noopRecorder) Released(int) {}
func (noopRecorder) Resolved(string, string) {}
func (noopRecorder) Evicted(string) {}
