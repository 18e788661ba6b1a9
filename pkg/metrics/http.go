package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics records request totals and latency per route.
type HTTPMetrics struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
	inFlight prometheus.Gauge
}

// NewHTTPMetrics registers the HTTP metrics on the provided registerer.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests by method, route, and status.",
	}, []string{"method", "route", "status"})
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Number of HTTP requests currently being served.",
	})
	reg.MustRegister(duration, requests, inFlight)
	return &HTTPMetrics{
		duration: duration,
		requests: requests,
		inFlight: inFlight,
	}
}

// ObserveRequest records one completed request.
func (m *HTTPMetrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	method = normalizeLabel(method)
	route = normalizeLabel(route)
	if m.duration != nil {
		m.duration.WithLabelValues(method, route).Observe(duration.Seconds())
	}
	if m.requests != nil {
		m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	}
}

// IncInFlight bumps the in-flight gauge.
func (m *HTTPMetrics) IncInFlight() {
	if m == nil || m.inFlight == nil {
		return
	}
	m.inFlight.Inc()
}

// DecInFlight releases the in-flight gauge.
func (m *HTTPMetrics) DecInFlight() {
	if m == nil || m.inFlight == nil {
		return
	}
	m.inFlight.Dec()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
