package di

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unsafe"
)

// InjectionPoint is one assignable slot on a target.
type InjectionPoint struct {
	// Name identifies the slot in errors and logs.
	Name string
	// Key is the binding requested for the slot.
	Key Key
	// Set assigns a resolved value to the slot.
	Set func(value reflect.Value) error
}

// Locator discovers the injection points of a target. The graph treats the
// returned points as authoritative and assigns them in order.
type Locator interface {
	Locate(target any, marker Marker) ([]InjectionPoint, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(target any, marker Marker) ([]InjectionPoint, error)

func (f LocatorFunc) Locate(target any, marker Marker) ([]InjectionPoint, error) {
	return f(target, marker)
}

// StructTagLocator finds struct fields tagged with the marker on
// pointer-to-struct targets. The tag value is the qualifier:
//
//	type Handler struct {
//		Repo  *Repo  `inject:""`
//		cache Cache  `inject:"redis"`
//	}
//
// Unexported fields are supported. A tag value of "-" skips the field.
// Untagged embedded structs are walked, so points declared on a base struct
// are found on every struct embedding it; a nil embedded pointer is
// allocated when the target is located. Targets that are not pointers to
// structs have no injection points.
type StructTagLocator struct {
	fields sync.Map // fieldCacheKey -> []taggedField
}

type fieldCacheKey struct {
	t      reflect.Type
	marker Marker
}

type taggedField struct {
	index     []int
	name      string
	typ       reflect.Type
	qualifier string
}

// NewStructTagLocator creates a locator.
func NewStructTagLocator() *StructTagLocator {
	return &StructTagLocator{}
}

func (l *StructTagLocator) Locate(target any, marker Marker) ([]InjectionPoint, error) {
	if target == nil {
		return nil, nil
	}

	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return nil, nil
	}

	elem := v.Elem()
	fields := l.taggedFields(elem.Type(), marker)
	if len(fields) == 0 {
		return nil, nil
	}

	points := make([]InjectionPoint, 0, len(fields))
	for _, f := range fields {
		field := fieldByIndex(elem, f.index)

		points = append(points, InjectionPoint{
			Name: f.name,
			Key:  Key{Type: f.typ, Qualifier: f.qualifier},
			Set:  assignTo(field),
		})
	}

	return points, nil
}

func (l *StructTagLocator) taggedFields(t reflect.Type, marker Marker) []taggedField {
	ck := fieldCacheKey{t: t, marker: marker}
	if cached, ok := l.fields.Load(ck); ok {
		return cached.([]taggedField)
	}

	var fields []taggedField
	collectTagged(t, marker, nil, "", map[reflect.Type]bool{t: true}, &fields)

	l.fields.Store(ck, fields)

	return fields
}

// collectTagged appends the tagged fields of t in declaration order,
// descending into untagged embedded structs. visiting guards against
// self-embedding through pointers.
func collectTagged(t reflect.Type, marker Marker, index []int, prefix string, visiting map[reflect.Type]bool, out *[]taggedField) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		path := append(append([]int(nil), index...), i)

		tag, ok := sf.Tag.Lookup(string(marker))
		if !ok {
			if sf.Anonymous {
				embedded := sf.Type
				if embedded.Kind() == reflect.Pointer {
					embedded = embedded.Elem()
				}

				if embedded.Kind() == reflect.Struct && !visiting[embedded] {
					visiting[embedded] = true
					collectTagged(embedded, marker, path, prefix+sf.Name+".", visiting, out)
					delete(visiting, embedded)
				}
			}

			continue
		}

		tag = strings.TrimSpace(tag)
		if tag == "-" {
			continue
		}

		*out = append(*out, taggedField{
			index:     path,
			name:      prefix + sf.Name,
			typ:       sf.Type,
			qualifier: tag,
		})
	}
}

// fieldByIndex returns a settable field, allocating nil embedded pointers on
// the way.
func fieldByIndex(v reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}

		v = settable(v.Field(x))
	}

	return v
}

func settable(field reflect.Value) reflect.Value {
	if field.CanSet() {
		return field
	}

	return reflect.NewAt(field.Type(), unsafe.Pointer(field.UnsafeAddr())).Elem()
}

func assignTo(field reflect.Value) func(reflect.Value) error {
	return func(value reflect.Value) error {
		if !value.IsValid() {
			return fmt.Errorf("cannot assign invalid value to %s", field.Type())
		}

		if !value.Type().AssignableTo(field.Type()) {
			return fmt.Errorf("cannot assign %s to %s", value.Type(), field.Type())
		}

		field.Set(value)

		return nil
	}
}
