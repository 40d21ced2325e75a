// Package metrics collects Prometheus metrics for the HTTP surface, the
// submission flows and the auth event stream.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what services and middleware depend on.
type Recorder interface {
	RecordHTTPRequest(route, method string, status int, elapsed time.Duration)
	RecordSubmission(kind, outcome string)
	RecordUpload(outcome string)
	RecordAuthEvent(event string)
	RecordGuardDecision(role, decision string)
	SetRealtimeConnections(n int)
}

type Collector struct {
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
	submissions     *prometheus.CounterVec
	uploads         *prometheus.CounterVec
	authEvents      *prometheus.CounterVec
	guardDecisions  *prometheus.CounterVec
	realtimeClients prometheus.Gauge
}

// NewCollector creates the metrics and registers them on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mohandz_http_requests_total",
			Help: "HTTP requests by route, method and status code",
		}, []string{"route", "method", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mohandz_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mohandz_submissions_total",
			Help: "Service request and contact submissions by outcome",
		}, []string{"kind", "outcome"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mohandz_attachment_uploads_total",
			Help: "Attachment uploads by outcome",
		}, []string{"outcome"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mohandz_auth_events_total",
			Help: "Auth state change events published",
		}, []string{"event"}),
		guardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mohandz_guard_decisions_total",
			Help: "Route guard decisions by required role",
		}, []string{"role", "decision"}),
		realtimeClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mohandz_realtime_connections",
			Help: "Open realtime tab connections",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.submissions,
		c.uploads,
		c.authEvents,
		c.guardDecisions,
		c.realtimeClients,
	)

	return c
}

func (c *Collector) RecordHTTPRequest(route, method string, status int, elapsed time.Duration) {
	c.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (c *Collector) RecordSubmission(kind, outcome string) {
	c.submissions.WithLabelValues(kind, outcome).Inc()
}

func (c *Collector) RecordUpload(outcome string) {
	c.uploads.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordAuthEvent(event string) {
	c.authEvents.WithLabelValues(event).Inc()
}

func (c *Collector) RecordGuardDecision(role, decision string) {
	c.guardDecisions.WithLabelValues(role, decision).Inc()
}

func (c *Collector) SetRealtimeConnections(n int) {
	c.realtimeClients.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Noop discards everything. Used where metrics are optional.
type Noop struct{}

func (Noop) RecordHTTPRequest(string, string, int, time.Duration) {}
func (Noop) RecordSubmission(string, string)                      {}
func (Noop) RecordUpload(string)                                  {}
func (Noop) RecordAuthEvent(string)                               {}
func (Noop) RecordGuardDecision(string, string)                   {}
func (Noop) SetRealtimeConnections(int)                           {}
