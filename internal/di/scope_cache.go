package di

import (
	"sort"
	"sync"
)

// ScopeCache stores constructed instances by binding key. One cache may be
// shared by any number of providers; sharing a cache widens the scope in
// which an instance is reused.
type ScopeCache struct {
	name      string
	instances map[Key]any
	mu        sync.RWMutex
}

// NewScopeCache creates an empty cache.
func NewScopeCache(name string) *ScopeCache {
	return &ScopeCache{
		name:      name,
		instances: make(map[Key]any),
	}
}

// Name returns the cache name.
func (c *ScopeCache) Name() string {
	return c.name
}

// Get returns the instance stored for key.
func (c *ScopeCache) Get(key Key) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	instance, ok := c.instances[key]

	return instance, ok
}

// Put stores instance under key, replacing any previous entry.
func (c *ScopeCache) Put(key Key, instance any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.instances[key] = instance
}

// Remove deletes the entry for key. Removing an absent key is a no-op.
func (c *ScopeCache) Remove(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.instances, key)
}

// Len returns the number of stored instances.
func (c *ScopeCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.instances)
}

// Keys returns the stored keys ordered by their string form.
func (c *ScopeCache) Keys() []Key {
	c.mu.RLock()
	keys := make([]Key, 0, len(c.instances))
	for key := range c.instances {
		keys = append(keys, key)
	}
	c.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})

	return keys
}

// Clear drops every entry. Providers still holding owners are not notified;
// their next resolution constructs a new instance.
func (c *ScopeCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.instances = make(map[Key]any)
}
