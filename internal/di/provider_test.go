package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "in_progress", StateInProgress.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "state(9)", State(9).String())
}

func TestProvider_OwnersAreAMultiset(t *testing.T) {
	cache := NewScopeCache("app")
	p := NewTypeProvider(KeyFor[*Repo](""), nil, cache)
	cache.Put(p.Key(), &Repo{})

	a, b := NewOwnerID(), NewOwnerID()

	p.AddOwner(a)
	p.AddOwner(a)
	p.AddOwner(b)

	assert.Equal(t, 3, p.RefCount())
	assert.Equal(t, map[OwnerID]int{a: 2, b: 1}, p.Owners())

	assert.False(t, p.RemoveOwner(a))
	assert.False(t, p.RemoveOwner(b))
	assert.Equal(t, 1, p.RefCount())
	assert.Equal(t, 1, cache.Len())

	assert.True(t, p.RemoveOwner(a))
	assert.Equal(t, 0, p.RefCount())
	assert.Empty(t, p.Owners())
	assert.Equal(t, 0, cache.Len())
}

func TestProvider_RemoveUnknownOwner(t *testing.T) {
	cache := NewScopeCache("app")
	p := NewTypeProvider(KeyFor[*Repo](""), nil, cache)
	cache.Put(p.Key(), &Repo{})
	p.AddOwner(NewOwnerID())

	assert.False(t, p.RemoveOwner(NewOwnerID()))
	assert.Equal(t, 1, p.RefCount())
	assert.Equal(t, 1, cache.Len())
}

func TestProvider_EvictionNotifiesAndDisposes(t *testing.T) {
	cache := NewScopeCache("app")
	p := NewTypeProvider(KeyFor[*lifecycleRepo](""), nil, cache)

	instance := &lifecycleRepo{}
	cache.Put(p.Key(), instance)

	var freed []any
	id := p.RegisterOnFreedListener(func(v any) { freed = append(freed, v) })
	removed := p.RegisterOnFreedListener(func(any) { t.Fatal("unregistered listener fired") })
	assert.True(t, p.UnregisterOnFreedListener(removed))
	assert.False(t, p.UnregisterOnFreedListener(removed))

	owner := NewOwnerID()
	p.AddOwner(owner)
	require.True(t, p.RemoveOwner(owner))

	assert.Equal(t, []any{instance}, freed)
	assert.Equal(t, 1, instance.disposed)
	assert.Equal(t, StateIdle, p.State())

	_, cached := p.CachedInstance()
	assert.False(t, cached)
	assert.True(t, p.UnregisterOnFreedListener(id))
}

func TestProvider_InstanceNeverEvicted(t *testing.T) {
	instance := &lifecycleRepo{}
	p := NewInstanceProvider(KeyFor[*lifecycleRepo](""), instance)

	owner := NewOwnerID()
	p.AddOwner(owner)
	assert.False(t, p.RemoveOwner(owner))

	got, ok := p.CachedInstance()
	assert.True(t, ok)
	assert.Same(t, instance, got)
	assert.Equal(t, 0, instance.disposed)
	assert.Equal(t, StateReady, p.State())
}

func TestProvider_UnscopedHasNoCachedInstance(t *testing.T) {
	p := NewFactoryProvider(KeyFor[*Repo](""), func() (any, error) { return &Repo{}, nil }, nil)

	_, ok := p.CachedInstance()
	assert.False(t, ok)
	assert.False(t, p.Scoped())

	owner := NewOwnerID()
	p.AddOwner(owner)
	assert.False(t, p.RemoveOwner(owner))
	assert.Equal(t, 0, p.RefCount())
}

func TestProvider_InjectedListenerRegistration(t *testing.T) {
	p := NewTypeProvider(KeyFor[*Repo](""), nil, nil)

	a := p.RegisterOnInjectedListener(func(any) error { return nil })
	b := p.RegisterOnInjectedListener(func(any) error { return nil })
	assert.NotEqual(t, a, b)
	assert.Len(t, p.listeners(), 2)

	assert.True(t, p.UnregisterOnInjectedListener(a))
	assert.False(t, p.UnregisterOnInjectedListener(a))
	assert.Len(t, p.listeners(), 1)
}

func TestProvider_IDsAreDistinct(t *testing.T) {
	a := NewTypeProvider(KeyFor[*Repo](""), nil, nil)
	b := NewTypeProvider(KeyFor[*Repo](""), nil, nil)

	assert.NotEqual(t, a.ID(), b.ID())
}
