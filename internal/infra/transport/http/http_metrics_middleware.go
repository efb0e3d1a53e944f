package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the HTTP collectors and the registry they are exposed from.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// NewMetrics registers the HTTP collectors, plus the Go runtime and process
// collectors, on a fresh registry under namespace.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "HTTP requests currently being served.",
		}),
	}

	registry.MustRegister(
		m.requests,
		m.duration,
		m.inFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collected metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// UnmatchedRoute labels requests that no route pattern matched.
const UnmatchedRoute = "unmatched"

type routeKey struct{}

// MetricsMiddleware creates middleware that records request counts and latencies.
// Requests are labelled by the matched route pattern, never by the raw path.
func MetricsMiddleware(next http.Handler, m *Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		m.inFlight.Inc()
		defer m.inFlight.Dec()

		route := new(string)
		r = r.WithContext(context.WithValue(r.Context(), routeKey{}, route))
		rec := NewResponseRecorder(w)

		next.ServeHTTP(rec, r)

		RecordRoute(r)

		if *route == "" {
			*route = UnmatchedRoute
		}

		method := methodLabel(r.Method)
		m.requests.WithLabelValues(method, *route, strconv.Itoa(rec.StatusCode)).Inc()
		m.duration.WithLabelValues(method, *route).Observe(time.Since(start).Seconds())
	})
}

// RecordRoute notes the pattern a ServeMux matched for r, once it has served r.
// Handlers that serve a derived request through a nested mux call it with that
// request so the more specific pattern is kept. The first pattern recorded wins.
func RecordRoute(r *http.Request) {
	route, ok := r.Context().Value(routeKey{}).(*string)
	if !ok || *route != "" || r.Pattern == "" {
		return
	}

	// "GET /api/tasks/{task_id}" carries the method as its own label
	if _, path, hasMethod := strings.Cut(r.Pattern, " "); hasMethod {
		*route = path
	} else {
		*route = r.Pattern
	}
}

func methodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions:
		return method
	default:
		return "OTHER"
	}
}
