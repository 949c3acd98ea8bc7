package di

import (
	"reflect"

	"github.com/xraph/poke/errors"
)

// Resolution is the state of one top-level inject or reference call. It
// records every provider reached so ownership can be committed once the whole
// traversal succeeds, and defers injected listeners until then.
type Resolution struct {
	graph  *Graph
	marker Marker

	touched map[*Provider]struct{}
	order   []*Provider
	stack   []*Provider

	notified map[*Provider]struct{}
	pending  []notice
	fresh    []*Provider

	prepareFor *Provider
	preparers  []Preparer
}

type notice struct {
	provider *Provider
	instance any
}

func newResolution(g *Graph, marker Marker) *Resolution {
	return &Resolution{
		graph:    g,
		marker:   marker,
		touched:  make(map[*Provider]struct{}),
		notified: make(map[*Provider]struct{}),
	}
}

// Marker returns the marker injection points are located with.
func (r *Resolution) Marker() Marker {
	return r.marker
}

// Providers returns the providers reached so far, in the order first reached.
func (r *Resolution) Providers() []*Provider {
	return append([]*Provider(nil), r.order...)
}

func (r *Resolution) reach(p *Provider) {
	if _, ok := r.touched[p]; ok {
		return
	}

	r.touched[p] = struct{}{}
	r.order = append(r.order, p)
}

// reachAll marks p and every provider its cached instance depends on. Cached
// dependencies count as resolved by this traversal and are notified too.
func (r *Resolution) reachAll(p *Provider) {
	if _, ok := r.touched[p]; ok {
		return
	}

	r.reach(p)
	for _, dep := range p.Dependencies() {
		if _, ok := r.touched[dep]; ok {
			continue
		}

		r.reachAll(dep)
		if instance, ok := dep.CachedInstance(); ok {
			r.completed(dep, instance)
		}
	}
}

func (r *Resolution) resolved(p *Provider, source string) {
	r.graph.metrics.Resolved(p.key.String(), source)
}

// completed schedules p's injected listeners. Shared instances notify once
// per traversal; unscoped providers notify for every new instance.
func (r *Resolution) completed(p *Provider, instance any) {
	if p.Scoped() {
		if _, ok := r.notified[p]; ok {
			return
		}
		r.notified[p] = struct{}{}
	}

	r.pending = append(r.pending, notice{provider: p, instance: instance})
}

func (r *Resolution) cached(p *Provider) {
	r.fresh = append(r.fresh, p)
}

func (r *Resolution) push(p *Provider) {
	r.stack = append(r.stack, p)
}

func (r *Resolution) pop() {
	r.stack = r.stack[:len(r.stack)-1]
}

// chain renders the resolution path that leads back into p.
func (r *Resolution) chain(p *Provider) []string {
	start := 0
	for i, q := range r.stack {
		if q == p {
			start = i

			break
		}
	}

	chain := make([]string, 0, len(r.stack)-start+1)
	for _, q := range r.stack[start:] {
		chain = append(chain, q.key.String())
	}

	return append(chain, p.key.String())
}

func (r *Resolution) instantiate(t reflect.Type) (any, error) {
	return r.graph.instantiator.New(t)
}

func (r *Resolution) prepare(p *Provider, instance any) error {
	if p != r.prepareFor {
		return nil
	}

	for _, fn := range r.preparers {
		if err := guard(func() error { return fn(instance) }); err != nil {
			return hookError(p.key, "prepare", err)
		}
	}

	return nil
}

// injectInto resolves and assigns every injection point of target and returns
// the providers used, in point order.
func (r *Resolution) injectInto(target any) ([]*Provider, error) {
	points, err := r.graph.locator.Locate(target, r.marker)
	if err != nil {
		return nil, errors.ErrInjectionFailure(typeName(target), "", err)
	}

	deps := make([]*Provider, 0, len(points))
	for _, point := range points {
		p, err := r.graph.findProvider(point.Key)
		if err != nil {
			return nil, err
		}

		instance, err := p.Resolve(r)
		if err != nil {
			return nil, err
		}

		if err := point.Set(reflect.ValueOf(instance)); err != nil {
			return nil, errors.ErrInjectionFailure(typeName(target), point.Name, err)
		}

		deps = append(deps, p)
	}

	return deps, nil
}

// notify fires the deferred injected listeners in completion order.
func (r *Resolution) notify() error {
	for _, n := range r.pending {
		for _, fn := range n.provider.listeners() {
			if err := guard(func() error { return fn(n.instance) }); err != nil {
				return hookError(n.provider.key, "on_injected", err)
			}
		}
	}

	return nil
}

// commit adds one hold for owner on every reached provider.
func (r *Resolution) commit(owner OwnerID) []*Provider {
	for _, p := range r.order {
		p.AddOwner(owner)
	}

	return r.order
}

// rollback drops instances cached by this traversal that nobody owns.
func (r *Resolution) rollback() {
	for i := len(r.fresh) - 1; i >= 0; i-- {
		p := r.fresh[i]
		if p.discard() {
			r.graph.metrics.Evicted(p.key.String())
		}
	}
}

func typeName(v any) string {
	if v == nil {
		return "<nil>"
	}

	return reflect.TypeOf(v).String()
}
