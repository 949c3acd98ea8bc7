package di

import (
	"fmt"
	"reflect"
)

// Instantiator builds bare instances of concrete types.
type Instantiator interface {
	New(t reflect.Type) (any, error)
}

// InstantiatorFunc adapts a function to Instantiator.
type InstantiatorFunc func(t reflect.Type) (any, error)

func (f InstantiatorFunc) New(t reflect.Type) (any, error) {
	return f(t)
}

// ReflectInstantiator allocates zero values of struct types. Both T and *T
// produce a new *T; every other kind has no construction path.
type ReflectInstantiator struct{}

func (ReflectInstantiator) New(t reflect.Type) (any, error) {
	if t == nil {
		return nil, fmt.Errorf("no type to instantiate")
	}

	switch {
	case t.Kind() == reflect.Struct:
		return reflect.New(t).Interface(), nil
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct:
		return reflect.New(t.Elem()).Interface(), nil
	default:
		return nil, fmt.Errorf("type %s has no usable construction path", t)
	}
}
