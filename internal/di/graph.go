package di

import (
	"context"
	"reflect"
	"sync"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/xraph/poke/errors"
	"github.com/xraph/poke/internal/logger"
	"github.com/xraph/poke/internal/metrics"
	"github.com/xraph/poke/internal/tracing"
)

// SearchPolicy decides how a key defined by several components is resolved.
type SearchPolicy string

const (
	// SearchFirstMatch consults components in the order they were added; the
	// first one defining the key wins and later definitions are shadowed.
	SearchFirstMatch SearchPolicy = "first-match"
	// SearchStrict fails with a provider conflict when more than one
	// component defines the key.
	SearchStrict SearchPolicy = "strict"
)

// Graph resolves injection points on root objects through its components
// and tracks which root owns which providers.
//
// All graph operations are serialised by one lock. Listeners, preparers,
// lifecycle hooks and monitors run while it is held and must not call back
// into the same graph.
type Graph struct {
	mu         sync.Mutex
	components []*Component
	claims     map[any]*claimStack
	monitors   []Monitor

	locator      Locator
	instantiator Instantiator
	policy       SearchPolicy
	marker       Marker

	logger  logger.Logger
	metrics metrics.Recorder
	tracer  oteltrace.Tracer
}

// claimStack records, per root, the providers each inject reached. Release
// pops the most recent entry.
type claimStack struct {
	owner OwnerID
	sets  [][]*Provider
}

type rootKey struct {
	target any
	marker Marker
}

type referenceKey struct {
	owner OwnerID
	key   Key
}

// GraphOption configures a Graph.
type GraphOption func(*Graph)

// WithLogger sets the graph logger.
func WithLogger(l logger.Logger) GraphOption {
	return func(g *Graph) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r metrics.Recorder) GraphOption {
	return func(g *Graph) {
		if r != nil {
			g.metrics = r
		}
	}
}

// WithTracer sets the tracer used for inject, release and reference spans.
func WithTracer(t oteltrace.Tracer) GraphOption {
	return func(g *Graph) {
		if t != nil {
			g.tracer = t
		}
	}
}

// WithLocator replaces the struct tag locator.
func WithLocator(l Locator) GraphOption {
	return func(g *Graph) {
		if l != nil {
			g.locator = l
		}
	}
}

// WithInstantiator replaces the reflective instantiator.
func WithInstantiator(i Instantiator) GraphOption {
	return func(g *Graph) {
		if i != nil {
			g.instantiator = i
		}
	}
}

// WithSearchPolicy sets the multi-component search policy.
func WithSearchPolicy(p SearchPolicy) GraphOption {
	return func(g *Graph) {
		g.policy = p
	}
}

// WithMarker sets the marker used to inject instances resolved through
// Reference and Use.
func WithMarker(m Marker) GraphOption {
	return func(g *Graph) {
		if m != "" {
			g.marker = m
		}
	}
}

// NewGraph creates a graph with no components.
func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{
		claims:       make(map[any]*claimStack),
		locator:      NewStructTagLocator(),
		instantiator: ReflectInstantiator{},
		policy:       SearchFirstMatch,
		marker:       DefaultMarker,
		logger:       logger.NewNoopLogger(),
		metrics:      metrics.NewNoop(),
		tracer:       tracing.NewTracer(nil),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Marker returns the default marker.
func (g *Graph) Marker() Marker {
	return g.marker
}

// SearchPolicy returns the configured search policy.
func (g *Graph) SearchPolicy() SearchPolicy {
	return g.policy
}

// AddProviderFinder appends c to the component search order. Adding the
// same component twice is a conflict.
func (g *Graph) AddProviderFinder(c *Component) error {
	if c == nil {
		return errors.ErrProviderMissing("<nil component>")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, existing := range g.components {
		if existing == c {
			return errors.ErrProviderConflict("component "+c.Name(), "graph")
		}
	}

	g.components = append(g.components, c)
	g.logger.Debug("component attached", logger.String("component", c.Name()), logger.Int("providers", c.Len()))

	return nil
}

// RemoveProviderFinder detaches c and reports whether it was attached.
// Instances it already provided stay owned until released.
func (g *Graph) RemoveProviderFinder(c *Component) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, existing := range g.components {
		if existing == c {
			g.components = append(g.components[:i], g.components[i+1:]...)

			return true
		}
	}

	return false
}

// Components returns the attached components in search order.
func (g *Graph) Components() []*Component {
	g.mu.Lock()
	defer g.mu.Unlock()

	return append([]*Component(nil), g.components...)
}

// RegisterMonitor adds a monitor notified after every successful inject and
// release.
func (g *Graph) RegisterMonitor(m Monitor) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.monitors = append(g.monitors, m)
}

// GetProvider finds the provider for key under the search policy.
func (g *Graph) GetProvider(key Key) (*Provider, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.findProvider(key)
}

func (g *Graph) findProvider(key Key) (*Provider, error) {
	var (
		found   *Provider
		matches []string
	)

	for _, c := range g.components {
		p, ok := c.FindProvider(key)
		if !ok {
			continue
		}

		if g.policy != SearchStrict {
			return p, nil
		}

		if found == nil {
			found = p
		}
		matches = append(matches, c.Name())
	}

	if len(matches) > 1 {
		return nil, errors.ErrProviderConflict(key.String(), matches...)
	}

	if found == nil {
		return nil, errors.ErrProviderMissing(key.String())
	}

	return found, nil
}

// Inject assigns every injection point of target tagged with marker.
func (g *Graph) Inject(target any, marker Marker) error {
	return g.InjectContext(context.Background(), target, marker)
}

// InjectContext assigns every injection point of target tagged with marker
// and makes target an owner of every provider reached, directly or through
// the instances it was given. Injecting the same root again adds another
// hold that needs its own Release. On failure nothing is owned and
// instances cached by the failed call are dropped.
func (g *Graph) InjectContext(ctx context.Context, target any, marker Marker) (err error) {
	rk, err := rootKeyOf(target, marker)
	if err != nil {
		return err
	}

	_, span := tracing.Start(ctx, g.tracer, tracing.SpanInject,
		tracing.AttrTarget.String(typeName(target)),
		tracing.AttrMarker.String(string(marker)),
	)
	defer func() { tracing.End(span, err, errors.Code(err)) }()

	start := time.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	r := newResolution(g, marker)
	committed := false
	defer func() {
		if !committed {
			r.rollback()
		}
	}()

	if _, err = r.injectInto(target); err == nil {
		err = r.notify()
	}

	if err != nil {
		g.metrics.InjectFailed(errors.Code(err))
		g.logger.Debug("inject failed", logger.Target(target), logger.Error(err))

		return err
	}

	stack := g.claimFor(rk)
	set := r.commit(stack.owner)
	stack.sets = append(stack.sets, set)
	committed = true

	for _, m := range g.monitors {
		m.OnInject(target)
	}

	span.SetAttributes(tracing.AttrProviders.Int(len(set)))
	g.metrics.InjectCompleted(time.Since(start), len(set))
	g.logger.Debug("root injected",
		logger.Target(target),
		logger.Owner(stack.owner),
		logger.Int("providers", len(set)),
		logger.Int("holds", len(stack.sets)),
	)

	return nil
}

// Release drops the hold taken by the most recent Inject of target with
// marker. Releasing a root that holds nothing is logged and ignored.
func (g *Graph) Release(target any, marker Marker) error {
	return g.ReleaseContext(context.Background(), target, marker)
}

// ReleaseContext is Release with a context for tracing.
func (g *Graph) ReleaseContext(ctx context.Context, target any, marker Marker) (err error) {
	rk, err := rootKeyOf(target, marker)
	if err != nil {
		return err
	}

	_, span := tracing.Start(ctx, g.tracer, tracing.SpanRelease,
		tracing.AttrTarget.String(typeName(target)),
		tracing.AttrMarker.String(string(marker)),
	)
	defer func() { tracing.End(span, err, errors.Code(err)) }()

	g.mu.Lock()
	defer g.mu.Unlock()

	set, owner, ok := g.popClaim(rk)
	if !ok {
		g.logger.Warn("release of unknown root", logger.Target(target), logger.String("marker", string(marker)))

		return nil
	}

	g.releaseSet(owner, set)

	for _, m := range g.monitors {
		m.OnRelease(target)
	}

	span.SetAttributes(tracing.AttrProviders.Int(len(set)))
	g.logger.Debug("root released", logger.Target(target), logger.Owner(owner), logger.Int("providers", len(set)))

	return nil
}

// Reference resolves key on behalf of owner, which holds the reached
// providers until a matching Dereference.
func (g *Graph) Reference(key Key, owner OwnerID) (any, error) {
	return g.ReferenceContext(context.Background(), key, owner)
}

// ReferenceContext is Reference with a context for tracing. Preparers run
// once on the instance for key if this call constructs it.
func (g *Graph) ReferenceContext(ctx context.Context, key Key, owner OwnerID, preparers ...Preparer) (instance any, err error) {
	_, span := tracing.Start(ctx, g.tracer, tracing.SpanReference,
		tracing.AttrBinding.String(key.String()),
	)
	defer func() { tracing.End(span, err, errors.Code(err)) }()

	start := time.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	r := newResolution(g, g.marker)
	committed := false
	defer func() {
		if !committed {
			r.rollback()
		}
	}()

	p, err := g.findProvider(key)
	if err == nil {
		r.prepareFor = p
		r.preparers = preparers

		instance, err = p.Resolve(r)
	}
	if err == nil {
		err = r.notify()
	}

	if err != nil {
		g.metrics.InjectFailed(errors.Code(err))
		g.logger.Debug("reference failed", logger.Binding(key), logger.Error(err))

		return nil, err
	}

	stack := g.claims[referenceKey{owner: owner, key: key}]
	if stack == nil {
		stack = &claimStack{owner: owner}
		g.claims[referenceKey{owner: owner, key: key}] = stack
	}

	set := r.commit(owner)
	stack.sets = append(stack.sets, set)
	committed = true

	span.SetAttributes(tracing.AttrProviders.Int(len(set)))
	g.metrics.InjectCompleted(time.Since(start), len(set))
	g.logger.Debug("binding referenced", logger.Binding(key), logger.Owner(owner), logger.Int("providers", len(set)))

	return instance, nil
}

// Dereference drops the hold taken by the most recent Reference of key by
// owner.
func (g *Graph) Dereference(key Key, owner OwnerID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	set, _, ok := g.popClaim(referenceKey{owner: owner, key: key})
	if !ok {
		g.logger.Warn("dereference of unknown owner", logger.Binding(key), logger.Owner(owner))

		return
	}

	g.releaseSet(owner, set)
	g.logger.Debug("binding dereferenced", logger.Binding(key), logger.Owner(owner))
}

// ReleaseAll drops every hold of every root and reference and returns the
// number of holds dropped.
func (g *Graph) ReleaseAll() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	released := 0
	for rk, stack := range g.claims {
		for i := len(stack.sets) - 1; i >= 0; i-- {
			g.releaseSet(stack.owner, stack.sets[i])
			released++
		}
		delete(g.claims, rk)
	}

	if released > 0 {
		g.logger.Debug("all roots released", logger.Int("holds", released))
	}

	return released
}

// Roots returns the number of roots and reference owners holding providers.
func (g *Graph) Roots() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.claims)
}

func (g *Graph) claimFor(rk any) *claimStack {
	stack, ok := g.claims[rk]
	if !ok {
		stack = &claimStack{owner: NewOwnerID()}
		g.claims[rk] = stack
	}

	return stack
}

func (g *Graph) popClaim(rk any) ([]*Provider, OwnerID, bool) {
	stack, ok := g.claims[rk]
	if !ok || len(stack.sets) == 0 {
		return nil, OwnerID{}, false
	}

	last := len(stack.sets) - 1
	set := stack.sets[last]
	stack.sets = stack.sets[:last]

	if len(stack.sets) == 0 {
		delete(g.claims, rk)
	}

	return set, stack.owner, true
}

func (g *Graph) releaseSet(owner OwnerID, set []*Provider) {
	for i := len(set) - 1; i >= 0; i-- {
		p := set[i]
		if p.RemoveOwner(owner) {
			g.metrics.Evicted(p.key.String())
			g.logger.Debug("provider evicted", logger.Binding(p.key))
		}
	}

	g.metrics.Released(len(set))
}

func rootKeyOf(target any, marker Marker) (rootKey, error) {
	if target == nil {
		return rootKey{}, errors.ErrInjectionFailure("<nil>", "", errors.New("target cannot be nil"))
	}

	if !reflect.TypeOf(target).Comparable() {
		return rootKey{}, errors.ErrInjectionFailure(typeName(target), "", errors.New("target must be comparable, pass a pointer"))
	}

	return rootKey{target: target, marker: marker}, nil
}
