// Package metrics exposes Prometheus metrics for the DI runtime and the HTTP
// surface.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/km-arc/go-shopping/framework/container"
)

// Collector holds the application's metrics on its own registry, so tests
// can create as many as they like.
type Collector struct {
	registry *prometheus.Registry

	Resolutions  *prometheus.CounterVec
	Failures     *prometheus.CounterVec
	Releases     *prometheus.CounterVec
	HostBindings prometheus.Gauge

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewCollector creates a collector whose metric names start with namespace.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "di",
			Name:      "resolutions_total",
			Help:      "Successful resolutions, split into created instances and cache hits.",
		}, []string{"scope", "result"}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "di",
			Name:      "resolution_failures_total",
			Help:      "Failed resolutions by error kind.",
		}, []string{"scope", "reason"}),
		Releases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "di",
			Name:      "released_instances_total",
			Help:      "Instances dropped from scopes by delete or clear.",
		}, []string{"scope"}),
		HostBindings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "di",
			Name:      "host_bindings",
			Help:      "Hosts that currently own scopes.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	c.registry.MustRegister(
		c.Resolutions, c.Failures, c.Releases, c.HostBindings,
		c.HTTPRequests, c.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ── container.Observer ────────────────────────────────────────────────────────

var _ container.Observer = (*Collector)(nil)

// scopes are named kind/hostID/binder; the host ID is dropped to keep label
// cardinality bounded.
func scopeLabel(scope string) string {
	first, last := strings.Index(scope, "/"), strings.LastIndex(scope, "/")
	if first < 0 || first == last {
		return scope
	}
	return scope[:first] + scope[last:]
}

func (c *Collector) Resolved(scope string, _ container.Key, created bool) {
	result := "hit"
	if created {
		result = "created"
	}
	c.Resolutions.WithLabelValues(scopeLabel(scope), result).Inc()
}

func (c *Collector) Failed(scope string, _ container.Key, err error) {
	c.Failures.WithLabelValues(scopeLabel(scope), reason(err)).Inc()
}

func (c *Collector) Released(scope string, entries int) {
	c.Releases.WithLabelValues(scopeLabel(scope)).Add(float64(entries))
}

func (c *Collector) Bound(bindings int) {
	c.HostBindings.Set(float64(bindings))
}

func reason(err error) string {
	switch {
	case errors.Is(err, container.ErrResolutionCycle):
		return "cycle"
	case errors.Is(err, container.ErrModuleNotInitialized):
		return "module_not_initialized"
	case errors.Is(err, container.ErrProviderFailed):
		return "provider"
	case errors.Is(err, container.ErrUnboundCapability):
		return "unbound"
	case errors.Is(err, container.ErrTypeMismatch):
		return "type_mismatch"
	case errors.Is(err, container.ErrAnonymousCapability):
		return "anonymous"
	default:
		return "other"
	}
}

// ── HTTP ──────────────────────────────────────────────────────────────────────

// Middleware records request counts and durations by chi route pattern.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		c.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
