package poke

import (
	"fmt"
	"reflect"

	"github.com/xraph/poke/errors"
	"github.com/xraph/poke/internal/di"
)

// KeyOf returns the binding key for T.
func KeyOf[T any](qualifier string) Key {
	return di.KeyFor[T](qualifier)
}

// RegisterType binds T to itself on c, built by the graph's instantiator.
func RegisterType[T any](c *Component, qualifier string) (*Provider, error) {
	return c.RegisterType(KeyOf[T](qualifier), nil)
}

// Bind binds I to the concrete type T on c. T must be assignable to I.
func Bind[I, T any](c *Component, qualifier string) (*Provider, error) {
	iface, concrete := reflect.TypeOf((*I)(nil)).Elem(), reflect.TypeOf((*T)(nil)).Elem()

	built := concrete
	if concrete.Kind() == reflect.Struct {
		built = reflect.PointerTo(concrete)
	}

	if !built.AssignableTo(iface) {
		return nil, errors.ErrProvideFailure(KeyOf[I](qualifier).String(),
			fmt.Errorf("%s is not assignable to %s", built, iface))
	}

	return c.RegisterType(KeyOf[I](qualifier), concrete)
}

// RegisterFactory binds T to a typed factory on c.
func RegisterFactory[T any](c *Component, qualifier string, factory func() (T, error)) (*Provider, error) {
	return c.RegisterFactory(KeyOf[T](qualifier), func() (any, error) {
		v, err := factory()
		if err != nil {
			return nil, err
		}

		return v, nil
	})
}

// RegisterInstance binds T to a pre-built value on c.
func RegisterInstance[T any](c *Component, qualifier string, instance T) (*Provider, error) {
	return c.RegisterInstance(KeyOf[T](qualifier), instance)
}

// Inject injects target with the graph's configured marker.
func Inject(g *Graph, target any) error {
	return g.Inject(target, g.Marker())
}

// Release releases target with the graph's configured marker.
func Release(g *Graph, target any) error {
	return g.Release(target, g.Marker())
}

// Use resolves T for the duration of fn and releases it afterwards, also
// when fn fails or panics.
func Use[T any](g *Graph, qualifier string, fn func(T) error, opts ...UseOption) error {
	key := KeyOf[T](qualifier)

	return g.Use(key, func(v any) error {
		typed, ok := v.(T)
		if !ok {
			return errors.ErrInjectionFailure(key.String(), "",
				fmt.Errorf("provider returned %T", v))
		}

		return fn(typed)
	}, opts...)
}
