package di

import (
	"reflect"
	"sync"

	"github.com/xraph/poke/errors"
)

// Component is a named registry of providers keyed by binding key.
type Component struct {
	name      string
	cache     *ScopeCache
	providers map[Key]*Provider
	order     []Key
	mu        sync.RWMutex
}

// ComponentOption configures a Component.
type ComponentOption func(*Component)

// WithScopeCache sets the cache used by the RegisterType and RegisterFactory
// helpers. Without it those helpers register unscoped providers.
func WithScopeCache(cache *ScopeCache) ComponentOption {
	return func(c *Component) {
		c.cache = cache
	}
}

// NewComponent creates an empty component.
func NewComponent(name string, opts ...ComponentOption) *Component {
	c := &Component{
		name:      name,
		providers: make(map[Key]*Provider),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name returns the component name.
func (c *Component) Name() string {
	return c.name
}

// ScopeCache returns the default cache, nil when none was configured.
func (c *Component) ScopeCache() *ScopeCache {
	return c.cache
}

// Register adds p. A second provider for the same key fails with a provider
// conflict.
func (c *Component) Register(p *Provider) error {
	if p == nil {
		return errors.ErrProvideFailure("<nil>", errors.New("provider cannot be nil"))
	}

	if p.key.IsZero() {
		return errors.ErrProvideFailure(p.key.String(), errors.New("binding key has no type"))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.providers[p.key]; exists {
		return errors.ErrProviderConflict(p.key.String(), c.name)
	}

	c.providers[p.key] = p
	c.order = append(c.order, p.key)

	return nil
}

// RegisterType registers a provider building concrete, scoped to the
// component's default cache.
func (c *Component) RegisterType(key Key, concrete reflect.Type) (*Provider, error) {
	p := NewTypeProvider(key, concrete, c.cache)

	return p, c.Register(p)
}

// RegisterFactory registers a provider built by factory, scoped to the
// component's default cache.
func (c *Component) RegisterFactory(key Key, factory Factory) (*Provider, error) {
	p := NewFactoryProvider(key, factory, c.cache)

	return p, c.Register(p)
}

// RegisterInstance registers a pre-built instance.
func (c *Component) RegisterInstance(key Key, instance any) (*Provider, error) {
	p := NewInstanceProvider(key, instance)

	return p, c.Register(p)
}

// Unregister removes the provider for key and reports whether one existed.
func (c *Component) Unregister(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.providers[key]; !exists {
		return false
	}

	delete(c.providers, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)

			break
		}
	}

	return true
}

// FindProvider returns the provider registered for key.
func (c *Component) FindProvider(key Key) (*Provider, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.providers[key]

	return p, ok
}

// Providers returns the registered providers in registration order.
func (c *Component) Providers() []*Provider {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Provider, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.providers[key])
	}

	return out
}

// Len returns the number of registered providers.
func (c *Component) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.providers)
}
