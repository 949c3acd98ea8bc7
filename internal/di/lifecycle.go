package di

// Constructable is implemented by instances that need a hook once all of
// their injection points are assigned.
type Constructable interface {
	OnConstruct() error
}

// Disposable is implemented by scoped instances that want to know when the
// last owner released them.
type Disposable interface {
	OnDisposed()
}

// InjectedListener observes completed resolutions of one provider.
type InjectedListener func(instance any) error

// FreedListener observes a scoped instance leaving its cache.
type FreedListener func(instance any)

// Preparer mutates a freshly constructed instance before any consumer sees it.
type Preparer func(instance any) error

// ListenerID identifies a registered listener for later removal.
type ListenerID uint64

// Monitor observes root objects entering and leaving the graph. Monitor
// methods run while the graph is locked and must not call back into it.
type Monitor interface {
	OnInject(target any)
	OnRelease(target any)
}

// MonitorFuncs adapts plain functions to Monitor. Nil fields are skipped.
type MonitorFuncs struct {
	Inject  func(target any)
	Release func(target any)
}

func (m MonitorFuncs) OnInject(target any) {
	if m.Inject != nil {
		m.Inject(target)
	}
}

func (m MonitorFuncs) OnRelease(target any) {
	if m.Release != nil {
		m.Release(target)
	}
}
