package di

import "context"

// UseOption configures Use.
type UseOption func(*useOptions)

type useOptions struct {
	ctx       context.Context
	preparers []Preparer
}

// WithPreparer adds a preparer run once on the used instance if the call
// constructs it. It runs right after construction, before the instance is
// cached or its own injection points are assigned, so bindings that reach it
// through a cycle only ever see the prepared value.
func WithPreparer(p Preparer) UseOption {
	return func(o *useOptions) {
		if p != nil {
			o.preparers = append(o.preparers, p)
		}
	}
}

// WithContext sets the context used for tracing the reference.
func WithContext(ctx context.Context) UseOption {
	return func(o *useOptions) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// Use resolves key under a fresh owner, passes the instance to fn and
// releases it when fn returns, fails or panics. Panics propagate after the
// release.
func (g *Graph) Use(key Key, fn func(instance any) error, opts ...UseOption) error {
	o := useOptions{ctx: context.Background()}
	for _, opt := range opts {
		opt(&o)
	}

	owner := NewOwnerID()

	instance, err := g.ReferenceContext(o.ctx, key, owner, o.preparers...)
	if err != nil {
		return err
	}
	defer g.Dereference(key, owner)

	return fn(instance)
}
