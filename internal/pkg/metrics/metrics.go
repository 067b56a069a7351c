// internal/pkg/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a private registry. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	rejections      *prometheus.CounterVec
	limiterDecision *prometheus.CounterVec
	securityEvents  *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobboard_rejections_total",
				Help: "Requests turned away, by rejection reason.",
			},
			[]string{"reason"},
		),
		limiterDecision: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobboard_ratelimit_decisions_total",
				Help: "Rate limiter decisions, by policy and outcome.",
			},
			[]string{"policy", "outcome"},
		),
		securityEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobboard_security_events_total",
				Help: "Security events recorded, by type.",
			},
			[]string{"type"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latencies in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.rejections,
		m.limiterDecision,
		m.securityEvents,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRejection(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveLimit(policy string, allowed bool) {
	if m == nil {
		return
	}
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	m.limiterDecision.WithLabelValues(policy, outcome).Inc()
}

func (m *Metrics) ObserveSecurityEvent(eventType string) {
	if m == nil {
		return
	}
	m.securityEvents.WithLabelValues(eventType).Inc()
}

// ObserveRequest records one served request. path should be the route
// template, not the raw URL, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, path, code).Inc()
	m.httpDuration.WithLabelValues(method, path, code).Observe(elapsed.Seconds())
}
