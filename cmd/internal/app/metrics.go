package app

import (
	"net/http"
	"strconv"
	"time"

	"mcauth/cmd/sessionserver"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors. A nil *Metrics is a no-op.
type Metrics struct {
	reg *prometheus.Registry

	sessionCalls    *prometheus.CounterVec
	sessionDuration *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// NewMetrics registers collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		sessionCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mcauth",
			Subsystem: "sessionserver",
			Name:      "calls_total",
			Help:      "Identity service calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		sessionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mcauth",
			Subsystem: "sessionserver",
			Name:      "call_duration_seconds",
			Help:      "Identity service call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mcauth",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mcauth",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.sessionCalls,
		m.sessionDuration,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// ObserveCall implements sessionserver.Observer.
func (m *Metrics) ObserveCall(op string, outcome sessionserver.Outcome, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.sessionCalls.WithLabelValues(op, string(outcome)).Inc()
	m.sessionDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Registry exposes the underlying registry (tests).
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}
