package di

import (
	"reflect"

	"github.com/google/uuid"
)

// Marker names the struct tag that identifies injection points.
type Marker string

// DefaultMarker is the marker used when none is configured.
const DefaultMarker Marker = "inject"

// Key identifies a binding: a declared type plus an optional qualifier.
// The empty qualifier is a key of its own, distinct from every named one.
type Key struct {
	Type      reflect.Type
	Qualifier string
}

// NewKey creates a binding key.
func NewKey(t reflect.Type, qualifier string) Key {
	return Key{Type: t, Qualifier: qualifier}
}

// KeyFor creates the binding key for T.
func KeyFor[T any](qualifier string) Key {
	return Key{Type: reflect.TypeOf((*T)(nil)).Elem(), Qualifier: qualifier}
}

// String renders the key as type or type@qualifier.
func (k Key) String() string {
	name := "<nil>"
	if k.Type != nil {
		name = k.Type.String()
	}

	if k.Qualifier != "" {
		name += "@" + k.Qualifier
	}

	return name
}

// IsZero reports whether the key has no type.
func (k Key) IsZero() bool {
	return k.Type == nil
}

// OwnerID is an opaque token that holds references on providers. Roots get
// one on their first inject; every Provider carries its own.
type OwnerID = uuid.UUID

// NewOwnerID mints a fresh owner token.
func NewOwnerID() OwnerID {
	return uuid.New()
}
