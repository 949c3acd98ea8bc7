package logger

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// Field represents a structured log field.
type Field = zap.Field

// Field constructors.
var (
	String   = zap.String
	Int      = zap.Int
	Int64    = zap.Int64
	Bool     = zap.Bool
	Duration = zap.Duration
	Error    = zap.Error
	Stringer = zap.Stringer
	Strings  = zap.Strings
	Any      = zap.Any
)

// Graph-specific field helpers.

// Binding creates a field naming a binding key.
func Binding(key fmt.Stringer) Field {
	return zap.Stringer("binding", key)
}

// Target creates a field describing the dynamic type of an injection root.
func Target(target any) Field {
	if target == nil {
		return zap.String("target", "<nil>")
	}

	return zap.String("target", reflect.TypeOf(target).String())
}

// Owner creates a field for an owner token.
func Owner(id fmt.Stringer) Field {
	return zap.Stringer("owner", id)
}

// RefCount creates a field for a provider reference count.
func RefCount(n int) Field {
	return zap.Int("ref_count", n)
}
