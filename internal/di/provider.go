package di

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/xraph/poke/errors"
	"github.com/xraph/poke/internal/metrics"
)

// State is the resolution state of a provider.
type State int

const (
	// StateIdle means no instance is being built or retained.
	StateIdle State = iota
	// StateInProgress means the provider is constructing an instance higher
	// up the current call stack.
	StateInProgress
	// StateReady means a constructed instance is retained in the cache.
	StateReady
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInProgress:
		return "in_progress"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Factory builds a new instance for a provider.
type Factory func() (any, error)

type providerKind int

const (
	kindType providerKind = iota
	kindFactory
	kindInstance
)

// Provider resolves one binding. With a ScopeCache it shares one instance
// among all owners until the last owner leaves; without one it builds a new
// instance on every resolution.
//
// Resolution state is driven by the Graph holding the provider's component
// and is serialised by that Graph's lock.
type Provider struct {
	id       OwnerID
	key      Key
	kind     providerKind
	concrete reflect.Type
	factory  Factory
	cache    *ScopeCache

	mu        sync.RWMutex
	state     State
	instance  any
	owners    map[OwnerID]int
	refs      int
	deps      []*Provider
	injected  []injectedEntry
	freed     []freedEntry
	listenerN ListenerID
}

type injectedEntry struct {
	id ListenerID
	fn InjectedListener
}

type freedEntry struct {
	id ListenerID
	fn FreedListener
}

// NewTypeProvider creates a provider that builds concrete through the graph's
// Instantiator. A nil concrete builds key.Type itself. A nil cache makes the
// provider unscoped.
func NewTypeProvider(key Key, concrete reflect.Type, cache *ScopeCache) *Provider {
	if concrete == nil {
		concrete = key.Type
	}

	p := newProvider(key, kindType, cache)
	p.concrete = concrete

	return p
}

// NewFactoryProvider creates a provider that builds instances with factory.
func NewFactoryProvider(key Key, factory Factory, cache *ScopeCache) *Provider {
	p := newProvider(key, kindFactory, cache)
	p.factory = factory

	return p
}

// NewInstanceProvider creates a provider for a pre-built instance. The
// instance is never evicted or disposed.
func NewInstanceProvider(key Key, instance any) *Provider {
	p := newProvider(key, kindInstance, nil)
	p.instance = instance
	p.state = StateReady

	return p
}

func newProvider(key Key, kind providerKind, cache *ScopeCache) *Provider {
	return &Provider{
		id:     NewOwnerID(),
		key:    key,
		kind:   kind,
		cache:  cache,
		owners: make(map[OwnerID]int),
	}
}

// ID returns the provider's own token.
func (p *Provider) ID() OwnerID { return p.id }

// Key returns the binding key.
func (p *Provider) Key() Key { return p.key }

// ScopeCache returns the cache, nil for unscoped providers.
func (p *Provider) ScopeCache() *ScopeCache { return p.cache }

// Scoped reports whether resolved instances are shared through a cache.
func (p *Provider) Scoped() bool {
	return p.cache != nil || p.kind == kindInstance
}

// State returns the current resolution state.
func (p *Provider) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.state
}

// RefCount returns the total number of holds across all owners.
func (p *Provider) RefCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.refs
}

// Owners returns the current owners and the number of holds each one has.
func (p *Provider) Owners() map[OwnerID]int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	owners := make(map[OwnerID]int, len(p.owners))
	for id, n := range p.owners {
		owners[id] = n
	}

	return owners
}

// CachedInstance returns the retained instance, if any.
func (p *Provider) CachedInstance() (any, bool) {
	if p.kind == kindInstance {
		return p.instance, true
	}

	if p.cache == nil {
		return nil, false
	}

	return p.cache.Get(p.key)
}

// Dependencies returns the providers this provider's last constructed
// instance was injected with.
func (p *Provider) Dependencies() []*Provider {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return append([]*Provider(nil), p.deps...)
}

// RegisterOnInjectedListener adds a listener fired once for each completed
// resolution: once per top-level inject for scoped providers, once per new
// instance for unscoped ones. Listener errors fail the inject.
func (p *Provider) RegisterOnInjectedListener(l InjectedListener) ListenerID {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.listenerN++
	p.injected = append(p.injected, injectedEntry{id: p.listenerN, fn: l})

	return p.listenerN
}

// UnregisterOnInjectedListener removes a listener. It reports whether the
// listener was registered.
func (p *Provider) UnregisterOnInjectedListener(id ListenerID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, e := range p.injected {
		if e.id == id {
			p.injected = append(p.injected[:i], p.injected[i+1:]...)

			return true
		}
	}

	return false
}

// RegisterOnFreedListener adds a listener fired when the cached instance is
// evicted because its last owner left.
func (p *Provider) RegisterOnFreedListener(l FreedListener) ListenerID {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.listenerN++
	p.freed = append(p.freed, freedEntry{id: p.listenerN, fn: l})

	return p.listenerN
}

// UnregisterOnFreedListener removes a freed listener.
func (p *Provider) UnregisterOnFreedListener(id ListenerID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, e := range p.freed {
		if e.id == id {
			p.freed = append(p.freed[:i], p.freed[i+1:]...)

			return true
		}
	}

	return false
}

// AddOwner adds one hold for owner.
func (p *Provider) AddOwner(owner OwnerID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.owners[owner]++
	p.refs++
}

// RemoveOwner drops one hold for owner. When the last hold goes, the cached
// instance is evicted, freed listeners are notified and the instance is
// disposed; RemoveOwner then reports true. Removing an owner that holds
// nothing is a no-op.
func (p *Provider) RemoveOwner(owner OwnerID) bool {
	p.mu.Lock()

	n, ok := p.owners[owner]
	if !ok {
		p.mu.Unlock()

		return false
	}

	if n <= 1 {
		delete(p.owners, owner)
	} else {
		p.owners[owner] = n - 1
	}
	p.refs--

	if p.refs > 0 {
		p.mu.Unlock()

		return false
	}

	instance, evicted := p.evictLocked()
	freed := make([]FreedListener, 0, len(p.freed))
	for _, e := range p.freed {
		freed = append(freed, e.fn)
	}
	p.mu.Unlock()

	if !evicted {
		return false
	}

	for _, fn := range freed {
		fn(instance)
	}

	if d, ok := instance.(Disposable); ok {
		d.OnDisposed()
	}

	return true
}

// evictLocked drops the cached instance. Instance providers keep theirs.
func (p *Provider) evictLocked() (any, bool) {
	if p.kind == kindInstance || p.cache == nil {
		return nil, false
	}

	instance, ok := p.cache.Get(p.key)
	if !ok {
		instance = p.instance
	}

	p.cache.Remove(p.key)
	p.instance = nil
	p.state = StateIdle

	return instance, instance != nil
}

// discard silently drops an instance cached by a failed traversal.
func (p *Provider) discard() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.refs > 0 {
		return false
	}

	_, evicted := p.evictLocked()

	return evicted
}

func (p *Provider) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

func (p *Provider) listeners() []InjectedListener {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]InjectedListener, 0, len(p.injected))
	for _, e := range p.injected {
		out = append(out, e.fn)
	}

	return out
}

// Resolve returns an instance for the binding within r.
//
// A provider re-entered while still in progress hands back the instance it
// already cached, which lets finite cycles of scoped bindings resolve. An
// unscoped provider has nothing to hand back and fails with a circular
// dependency error. Otherwise a cached instance is reused, or a new one is
// built, cached before its own injection points are resolved, and injected
// recursively through the graph.
func (p *Provider) Resolve(r *Resolution) (any, error) {
	if p.State() == StateInProgress {
		if p.cache != nil {
			if instance, ok := p.cache.Get(p.key); ok {
				r.reach(p)
				r.resolved(p, metrics.SourceForward)

				return instance, nil
			}
		}

		return nil, errors.ErrCircularDependency(r.chain(p))
	}

	if p.kind == kindInstance {
		r.reach(p)
		r.resolved(p, metrics.SourceCached)
		r.completed(p, p.instance)

		return p.instance, nil
	}

	if p.cache != nil {
		if instance, ok := p.cache.Get(p.key); ok {
			r.reachAll(p)
			r.resolved(p, metrics.SourceCached)
			r.completed(p, instance)

			return instance, nil
		}
	}

	return p.construct(r)
}

func (p *Provider) construct(r *Resolution) (instance any, err error) {
	p.setState(StateInProgress)
	r.push(p)

	built := false
	defer func() {
		r.pop()
		if !built {
			p.setState(StateIdle)
		}
	}()

	instance, err = p.build(r)
	if err != nil {
		return nil, err
	}

	if err := r.prepare(p, instance); err != nil {
		return nil, err
	}

	if p.cache != nil {
		p.cache.Put(p.key, instance)
		p.mu.Lock()
		p.instance = instance
		p.mu.Unlock()
		r.cached(p)
		r.resolved(p, metrics.SourceConstructed)
	} else {
		r.resolved(p, metrics.SourceTransient)
	}

	r.reach(p)

	deps, err := r.injectInto(instance)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.deps = deps
	p.mu.Unlock()

	if c, ok := instance.(Constructable); ok {
		if err := guard(c.OnConstruct); err != nil {
			return nil, hookError(p.key, "construct", err)
		}
	}

	if p.cache != nil {
		p.setState(StateReady)
	} else {
		p.setState(StateIdle)
	}
	built = true

	r.completed(p, instance)

	return instance, nil
}

// build creates the bare instance, turning factory panics into errors.
func (p *Provider) build(r *Resolution) (instance any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			instance = nil
			err = errors.ErrProvideFailure(p.key.String(), fmt.Errorf("panic: %v", rec))
		}
	}()

	switch p.kind {
	case kindFactory:
		if p.factory == nil {
			return nil, errors.ErrProvideFailure(p.key.String(), errors.New("nil factory"))
		}
		instance, err = p.factory()
	default:
		instance, err = r.instantiate(p.concrete)
	}

	if err != nil {
		return nil, errors.ErrProvideFailure(p.key.String(), err)
	}

	if instance == nil {
		return nil, errors.ErrProvideFailure(p.key.String(), errors.New("provider returned nil"))
	}

	return instance, nil
}

// hookError wraps a hook failure unless it already carries a code.
// guard runs a user hook, turning a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	return fn()
}

func hookError(key Key, operation string, err error) error {
	if errors.Code(err) != "" {
		return err
	}

	return errors.ErrInjectionFailure(key.String(), "", errors.NewBindingError(key.String(), operation, err))
}
