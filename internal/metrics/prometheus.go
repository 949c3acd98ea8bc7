package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// promRecorder implements Recorder using Prometheus collectors.
type promRecorder struct {
	injectTotal      prometheus.Counter
	injectFailures   *prometheus.CounterVec
	injectDuration   prometheus.Histogram
	releaseTotal     prometheus.Counter
	resolveTotal     *prometheus.CounterVec
	evictionsTotal   *prometheus.CounterVec
	cachedInstances  prometheus.Gauge
	providersTouched prometheus.Histogram
}

// NewPrometheus creates a recorder and registers its collectors with reg.
// A nil reg registers with prometheus.DefaultRegisterer.
func NewPrometheus(namespace string, reg prometheus.Registerer) (Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	r := &promRecorder{
		injectTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inject_total",
			Help:      "Number of successful inject calls.",
		}),
		injectFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inject_failures_total",
			Help:      "Number of failed inject calls by error code.",
		}, []string{"code"}),
		injectDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inject_duration_seconds",
			Help:      "Time spent resolving one inject call.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		releaseTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "release_total",
			Help:      "Number of release calls that dropped at least one hold.",
		}),
		resolveTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_total",
			Help:      "Provider resolutions by binding and instance source.",
		}, []string{"binding", "source"}),
		evictionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evictions_total",
			Help:      "Cached instances evicted from their scope cache.",
		}, []string{"binding"}),
		cachedInstances: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cached_instances",
			Help:      "Instances currently held in scope caches by the graph.",
		}),
		providersTouched: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inject_providers",
			Help:      "Providers owned by a root per inject call.",
			Buckets:   prometheus.LinearBuckets(1, 4, 8),
		}),
	}

	for _, c := range []prometheus.Collector{
		r.injectTotal, r.injectFailures, r.injectDuration, r.releaseTotal,
		r.resolveTotal, r.evictionsTotal, r.cachedInstances, r.providersTouched,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register poke metrics: %w", err)
		}
	}

	return r, nil
}

func (r *promRecorder) InjectCompleted(d time.Duration, providers int) {
	r.injectTotal.Inc()
	r.injectDuration.Observe(d.Seconds())
	r.providersTouched.Observe(float64(providers))
}

func (r *promRecorder) InjectFailed(code string) {
	if code == "" {
		code = "unknown"
	}
	r.injectFailures.WithLabelValues(code).Inc()
}

func (r *promRecorder) Released(providers int) {
	if providers > 0 {
		r.releaseTotal.Inc()
	}
}

func (r *promRecorder) Resolved(binding, source string) {
	r.resolveTotal.WithLabelValues(binding, source).Inc()
	if source == SourceConstructed {
		r.cachedInstances.Inc()
	}
}

func (r *promRecorder) Evicted(binding string) {
	r.evictionsTotal.WithLabelValues(binding).Inc()
	r.cachedInstances.Dec()
}
