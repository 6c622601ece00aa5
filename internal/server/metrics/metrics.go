// Package metrics exposes Prometheus counters and histograms for the HTTP
// API on a private registry.
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

// Result label values for signup and login counters.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Metrics owns a private Prometheus registry and the collectors the server
// updates. A nil *Metrics is not valid; tests build their own with New.
type Metrics struct {
	registry *prometheus.Registry

	authDecisions   *prometheus.CounterVec
	signups         *prometheus.CounterVec
	logins          *prometheus.CounterVec
	rateLimited     *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New registers the Go runtime and process collectors plus the server's
// own counters and histogram on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		authDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "avatargate_auth_decisions_total",
			Help: "Session gate decisions by outcome",
		}, []string{"outcome"}),
		signups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "avatargate_signups_total",
			Help: "Signup attempts by result",
		}, []string{"result"}),
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "avatargate_logins_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
		rateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "avatargate_rate_limited_total",
			Help: "Requests refused by a rate limit rule",
		}, []string{"rule"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "avatargate_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveAuth counts one gate decision; outcome is "authorized" or the
// denial reason.
func (m *Metrics) ObserveAuth(outcome string) {
	m.authDecisions.WithLabelValues(outcome).Inc()
}

// ObserveSignup counts one signup attempt by result.
func (m *Metrics) ObserveSignup(result string) {
	m.signups.WithLabelValues(result).Inc()
}

// ObserveLogin counts one login attempt by result.
func (m *Metrics) ObserveLogin(result string) {
	m.logins.WithLabelValues(result).Inc()
}

// ObserveRateLimited counts one call refused by rule.
func (m *Metrics) ObserveRateLimited(rule string) {
	m.rateLimited.WithLabelValues(rule).Inc()
}

// ObserveRequest records the latency of a finished request. route is the
// matched route pattern, never the raw path, to keep label cardinality low.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
