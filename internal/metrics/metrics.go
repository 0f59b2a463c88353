// Package metrics holds the Prometheus collectors of the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like.
// A nil *Metrics is a valid no-op.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	authAttemptsTotal   *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		httpRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "construction_http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "construction_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authAttemptsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "construction_auth_attempts_total",
			Help: "Login and registration attempts by outcome",
		}, []string{"action", "result"}),
	}
}

// ObserveRequest records one served request. route is the matched mux
// pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordAuthAttempt counts a login or register outcome.
func (m *Metrics) RecordAuthAttempt(action, result string) {
	if m == nil {
		return
	}
	m.authAttemptsTotal.WithLabelValues(action, result).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
