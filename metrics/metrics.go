// Package metrics provides Prometheus metrics for the staff desk service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marinaops/staffdesk/timeoff"
)

// Manager owns the service's collectors. Each Manager has its own registry,
// so tests can build as many as they like.
type Manager struct {
	namespace string
	registry  *prometheus.Registry
	runtime   bool

	decisions       *prometheus.CounterVec
	decisionHours   *prometheus.CounterVec
	rosterSyncs     *prometheus.CounterVec
	rosterSize      prometheus.Gauge
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	exportsRendered *prometheus.CounterVec
}

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace sets the metric namespace. Defaults to "staffdesk".
func WithNamespace(ns string) Option {
	return func(m *Manager) { m.namespace = ns }
}

// WithRegistry uses reg instead of a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(m *Manager) { m.registry = reg }
}

// WithRuntimeCollectors adds the Go runtime and process collectors.
func WithRuntimeCollectors() Option {
	return func(m *Manager) { m.runtime = true }
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "staffdesk",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.runtime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	auto := promauto.With(m.registry)

	m.decisions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "timeoff",
		Name:      "decisions_total",
		Help:      "Time-off decisions by kind, status and rejection code.",
	}, []string{"kind", "status", "code"})

	m.decisionHours = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "timeoff",
		Name:      "accepted_hours_total",
		Help:      "Hours of accepted time-off requests by kind and status.",
	}, []string{"kind", "status"})

	m.rosterSyncs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "roster",
		Name:      "syncs_total",
		Help:      "Roster sync attempts by result.",
	}, []string{"result"})

	m.rosterSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "roster",
		Name:      "employees",
		Help:      "Employees loaded by the last successful roster sync.",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route pattern, method and status code.",
	}, []string{"route", "method", "code"})

	m.httpDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	m.exportsRendered = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "export",
		Name:      "rendered_total",
		Help:      "Exports rendered by format.",
	}, []string{"format"})

	return m
}

// Registry exposes the underlying registry.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordDecision implements timeoff.DecisionRecorder.
func (m *Manager) RecordDecision(d timeoff.Decision) {
	kind := string(d.Record.Kind)
	if !d.Record.Kind.Known() {
		kind = "other"
	}
	if d.Accepted {
		status := string(d.Record.Status)
		m.decisions.WithLabelValues(kind, status, "").Inc()
		m.decisionHours.WithLabelValues(kind, status).Add(d.Record.Hours.InexactFloat64())
		return
	}
	code := ""
	if len(d.Reasons) > 0 {
		code = string(d.Reasons[0].Code)
	}
	m.decisions.WithLabelValues(kind, string(timeoff.StatusDenied), code).Inc()
}

// RosterSynced records one roster sync attempt.
func (m *Manager) RosterSynced(employees int, err error) {
	if err != nil {
		m.rosterSyncs.WithLabelValues("failure").Inc()
		return
	}
	m.rosterSyncs.WithLabelValues("success").Inc()
	m.rosterSize.Set(float64(employees))
}

// ExportRendered counts one rendered export.
func (m *Manager) ExportRendered(format string) {
	m.exportsRendered.WithLabelValues(format).Inc()
}

// Middleware records count and latency per chi route pattern. Unmatched
// routes are labelled "unmatched" to keep cardinality bounded.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

var _ timeoff.DecisionRecorder = (*Manager)(nil)
