// Package debug serves a read-only HTTP view of a graph.
package debug

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	json "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xraph/poke"
)

// Source is the graph state served by the handler. *poke.Graph implements it.
type Source interface {
	Snapshot() []poke.ProviderSnapshot
	Roots() int
}

// Summary is served at the handler root.
type Summary struct {
	Roots     int `json:"roots"`
	Providers int `json:"providers"`
	Cached    int `json:"cached"`
}

// ProviderList is served at /providers.
type ProviderList struct {
	Count     int                     `json:"count"`
	Providers []poke.ProviderSnapshot `json:"providers"`
}

type errorResponse struct {
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

// Option configures NewHandler.
type Option func(*handlerOptions)

type handlerOptions struct {
	events *Events
}

// WithEvents serves the events websocket at /events.
func WithEvents(e *Events) Option {
	return func(o *handlerOptions) {
		o.events = e
	}
}

// NewHandler returns a handler serving:
//
//	GET /                  summary counts
//	GET /providers         every provider, optionally ?component=name
//	GET /providers/{key}   providers bound to one key, e.g. *app.Repo@primary
//	GET /metrics           Prometheus metrics, when gatherer is not nil
//	GET /events            inject and release events over a websocket, WithEvents
func NewHandler(src Source, gatherer prometheus.Gatherer, opts ...Option) http.Handler {
	var o handlerOptions
	for _, opt := range opts {
		opt(&o)
	}

	h := &handler{src: src}

	r := chi.NewRouter()
	r.Get("/", h.summary)
	r.Get("/providers", h.providers)
	r.Get("/providers/{key}", h.provider)

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		}))
	}

	if o.events != nil {
		r.Get("/events", o.events.ServeHTTP)
	}

	return r
}

type handler struct {
	src Source
}

func (h *handler) summary(w http.ResponseWriter, _ *http.Request) {
	snap := h.src.Snapshot()

	s := Summary{Roots: h.src.Roots(), Providers: len(snap)}
	for _, p := range snap {
		if p.Cached {
			s.Cached++
		}
	}

	writeJSON(w, http.StatusOK, s)
}

func (h *handler) providers(w http.ResponseWriter, r *http.Request) {
	component := r.URL.Query().Get("component")

	out := make([]poke.ProviderSnapshot, 0)
	for _, p := range h.src.Snapshot() {
		if component == "" || p.Component == component {
			out = append(out, p)
		}
	}

	writeJSON(w, http.StatusOK, ProviderList{Count: len(out), Providers: out})
}

func (h *handler) provider(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(chi.URLParam(r, "key"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})

		return
	}

	out := make([]poke.ProviderSnapshot, 0)
	for _, p := range h.src.Snapshot() {
		if p.Key == key {
			out = append(out, p)
		}
	}

	if len(out) == 0 {
		perr := poke.ErrProviderMissing(key)
		writeJSON(w, http.StatusNotFound, errorResponse{Code: perr.Code, Error: perr.Error()})

		return
	}

	writeJSON(w, http.StatusOK, ProviderList{Count: len(out), Providers: out})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
