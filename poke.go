package poke

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/xraph/poke/errors"
	"github.com/xraph/poke/internal/config"
	"github.com/xraph/poke/internal/di"
	"github.com/xraph/poke/internal/logger"
	"github.com/xraph/poke/internal/metrics"
	"github.com/xraph/poke/internal/tracing"
)

// Core types.
type (
	Graph            = di.Graph
	Component        = di.Component
	Provider         = di.Provider
	ScopeCache       = di.ScopeCache
	Key              = di.Key
	Marker           = di.Marker
	OwnerID          = di.OwnerID
	State            = di.State
	Factory          = di.Factory
	SearchPolicy     = di.SearchPolicy
	ProviderSnapshot = di.ProviderSnapshot
	Resolution       = di.Resolution
)

// Hooks.
type (
	Constructable    = di.Constructable
	Disposable       = di.Disposable
	InjectedListener = di.InjectedListener
	FreedListener    = di.FreedListener
	Preparer         = di.Preparer
	ListenerID       = di.ListenerID
	Monitor          = di.Monitor
	MonitorFuncs     = di.MonitorFuncs
)

// Injection point discovery and construction.
type (
	Locator             = di.Locator
	LocatorFunc         = di.LocatorFunc
	InjectionPoint      = di.InjectionPoint
	StructTagLocator    = di.StructTagLocator
	Instantiator        = di.Instantiator
	InstantiatorFunc    = di.InstantiatorFunc
	ReflectInstantiator = di.ReflectInstantiator
)

type (
	ComponentOption = di.ComponentOption
	UseOption       = di.UseOption
)

// Ambient stack.
type (
	Config          = config.Config
	Logger          = logger.Logger
	LoggingConfig   = logger.LoggingConfig
	MetricsRecorder = metrics.Recorder
)

const (
	DefaultMarker = di.DefaultMarker

	StateIdle       = di.StateIdle
	StateInProgress = di.StateInProgress
	StateReady      = di.StateReady

	SearchFirstMatch = di.SearchFirstMatch
	SearchStrict     = di.SearchStrict
)

var (
	NewScopeCache        = di.NewScopeCache
	NewComponent         = di.NewComponent
	WithScopeCache       = di.WithScopeCache
	NewTypeProvider      = di.NewTypeProvider
	NewFactoryProvider   = di.NewFactoryProvider
	NewInstanceProvider  = di.NewInstanceProvider
	NewKey               = di.NewKey
	NewOwnerID           = di.NewOwnerID
	NewStructTagLocator  = di.NewStructTagLocator
	WithPreparer         = di.WithPreparer
	WithContext          = di.WithContext
	DefaultConfig        = config.Default
	ParseConfig          = config.Parse
	LoadConfig           = config.Load
	DiscoverConfig       = config.Discover
	NewLogger            = logger.NewLogger
	NewNoopLogger        = logger.NewNoopLogger
	NewDevelopmentLogger = logger.NewDevelopmentLogger
)

// Option configures New.
type Option func(*options)

type options struct {
	config       config.Config
	configErr    error
	logger       logger.Logger
	recorder     metrics.Recorder
	registerer   prometheus.Registerer
	tp           oteltrace.TracerProvider
	locator      di.Locator
	instantiator di.Instantiator
	components   []*di.Component
	monitors     []di.Monitor
}

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithConfigFile loads the configuration from YAML files; later files
// override earlier ones.
func WithConfigFile(paths ...string) Option {
	return func(o *options) {
		o.config, o.configErr = config.Load(paths...)
	}
}

// WithLogger sets the logger instead of building one from the logging
// configuration.
func WithLogger(l Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics sets the metrics recorder instead of building one from the
// metrics configuration.
func WithMetrics(r MetricsRecorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

// WithRegisterer sets where Prometheus collectors are registered when metrics
// are enabled. Defaults to prometheus.DefaultRegisterer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithTracerProvider sets the provider spans are created with. Defaults to
// the global provider.
func WithTracerProvider(tp oteltrace.TracerProvider) Option {
	return func(o *options) {
		o.tp = tp
	}
}

// WithLocator replaces the struct tag locator.
func WithLocator(l Locator) Option {
	return func(o *options) {
		o.locator = l
	}
}

// WithInstantiator replaces the reflective instantiator.
func WithInstantiator(i Instantiator) Option {
	return func(o *options) {
		o.instantiator = i
	}
}

// WithComponents attaches components in the given search order.
func WithComponents(components ...*Component) Option {
	return func(o *options) {
		o.components = append(o.components, components...)
	}
}

// WithMonitor registers a monitor on the new graph.
func WithMonitor(m Monitor) Option {
	return func(o *options) {
		o.monitors = append(o.monitors, m)
	}
}

// New creates a graph from the options. A configured span exporter needs an
// owner to flush it, so New rejects one; use NewRuntime or
// WithTracerProvider instead.
func New(opts ...Option) (*Graph, error) {
	b, err := build(opts, false)
	if err != nil {
		return nil, err
	}

	return b.graph, nil
}

// built is what build hands to its owner.
type built struct {
	graph    *Graph
	logger   Logger
	provider *sdktrace.TracerProvider
}

func build(opts []Option, ownsExporter bool) (*built, error) {
	o := options{config: config.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	if o.configErr != nil {
		return nil, o.configErr
	}

	cfg := o.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &built{}

	log := o.logger
	if log == nil {
		log = logger.NewLogger(logger.LoggingConfig{
			Level:       logger.LogLevel(cfg.Logging.Level),
			Format:      cfg.Logging.Format,
			Environment: cfg.Logging.Environment,
		}).Named("poke")
	}

	recorder := o.recorder
	if recorder == nil && cfg.Metrics.Enabled {
		r, err := metrics.NewPrometheus(cfg.Metrics.Namespace, o.registerer)
		if err != nil {
			return nil, err
		}
		recorder = r
	}

	tp := o.tp
	if tp == nil && cfg.Tracing.Exports() {
		if !ownsExporter {
			return nil, errors.ErrInvalidConfig("tracing.exporter",
				errors.New("a span exporter needs a Runtime to shut it down; use NewRuntime or WithTracerProvider"))
		}

		provider, err := tracing.NewProvider(context.Background(), cfg.Tracing.ExporterConfig())
		if err != nil {
			return nil, errors.ErrInvalidConfig("tracing", err)
		}
		b.provider, tp = provider, provider
	}

	var tracer oteltrace.Tracer
	if cfg.Tracing.Enabled {
		tracer = tracing.NewTracer(tp)
	} else {
		tracer = noop.NewTracerProvider().Tracer(tracing.InstrumentationName)
	}

	g := di.NewGraph(
		di.WithLogger(log),
		di.WithMetrics(recorder),
		di.WithTracer(tracer),
		di.WithLocator(o.locator),
		di.WithInstantiator(o.instantiator),
		di.WithSearchPolicy(di.SearchPolicy(cfg.SearchPolicy)),
		di.WithMarker(di.Marker(cfg.Marker)),
	)

	for _, c := range o.components {
		if err := g.AddProviderFinder(c); err != nil {
			_ = b.shutdown(context.Background())

			return nil, err
		}
	}

	for _, m := range o.monitors {
		g.RegisterMonitor(m)
	}

	b.graph, b.logger = g, log

	return b, nil
}

// shutdown flushes and stops the span exporter, if any.
func (b *built) shutdown(ctx context.Context) error {
	if b.provider == nil {
		return nil
	}

	return b.provider.Shutdown(ctx)
}
