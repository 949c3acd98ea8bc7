package di

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

type Repo struct {
	ID int
}

type Service struct {
	Repo *Repo `inject:""`
}

type serviceHolder struct {
	Service *Service `inject:""`
}

type repoHolder struct {
	Repo *Repo `inject:""`
}

// Diamond: root -> left, right -> shared.
type Shared struct{}

type Left struct {
	Shared *Shared `inject:""`
}

type Right struct {
	Shared *Shared `inject:""`
}

type diamondRoot struct {
	Left  *Left  `inject:""`
	Right *Right `inject:""`
}

// Cycle: a -> b -> c -> a.
type cycleA struct {
	b *cycleB `inject:""`
}

type cycleB struct {
	c *cycleC `inject:""`
}

type cycleC struct {
	a *cycleA `inject:""`
}

type cycleRoot struct {
	A *cycleA `inject:""`
}

type lifecycleRepo struct {
	constructed int
	disposed    int
	failWith    error
}

func (l *lifecycleRepo) OnConstruct() error {
	l.constructed++

	return l.failWith
}

func (l *lifecycleRepo) OnDisposed() {
	l.disposed++
}

type lifecycleHolder struct {
	Repo *lifecycleRepo `inject:""`
}

var errBoom = errors.New("boom")

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// newScopedGraph attaches a component whose providers share one cache.
func newScopedGraph(t *testing.T, opts ...GraphOption) (*Graph, *Component) {
	t.Helper()

	c := NewComponent("app", WithScopeCache(NewScopeCache("app")))
	g := NewGraph(opts...)
	require.NoError(t, g.AddProviderFinder(c))

	return g, c
}

func mustRegisterType[T any](t *testing.T, c *Component) *Provider {
	t.Helper()

	p, err := c.RegisterType(KeyFor[T](""), nil)
	require.NoError(t, err)

	return p
}
