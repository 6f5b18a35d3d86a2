// Package telemetry owns the process's prometheus collectors and otel tracer.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const namespace = "cf_finder"

// Metrics groups every collector the service exports.
type Metrics struct {
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	CacheLookups     *prometheus.CounterVec
	Queries          *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Judge API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Judge API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submission_cache_lookups_total",
			Help:      "Submission cache lookups by result.",
		}, []string{"result"}),
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Finder and revision queries by mode and outcome.",
		}, []string{"mode", "outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.UpstreamRequests, m.UpstreamDuration, m.CacheLookups,
			m.Queries, m.HTTPRequests, m.HTTPDuration,
		)
	}
	return m
}

func (m *Metrics) ObserveUpstream(method, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(method, outcome).Inc()
	m.UpstreamDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveQuery(mode, outcome string) {
	if m == nil {
		return
	}
	m.Queries.WithLabelValues(mode, outcome).Inc()
}

// Tracer returns the service tracer from the global provider installed by
// SetupTracing.
func Tracer() trace.Tracer {
	return otel.Tracer(serviceName)
}
