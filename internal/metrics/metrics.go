// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the HTTP layer and services report to.
type Recorder interface {
	ObserveRequest(method, route string, status int, duration time.Duration)
	RecordAuthRejection(reason string)
	RecordCompletion(kind, outcome string)
	RecordEventPublish(outcome string)
}

// Auth rejection reasons
const (
	ReasonMissingToken = "missing_token"
	ReasonInvalidToken = "invalid_token"
	ReasonOwnership    = "ownership_mismatch"
)

// Completion kinds and outcomes
const (
	KindChat      = "chat"
	KindQuestions = "questions"

	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	authRejections *prometheus.CounterVec
	completions    *prometheus.CounterVec
	events         *prometheus.CounterVec
}

var _ Recorder = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "academiax_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "academiax_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "academiax_auth_rejections_total",
			Help: "Requests stopped by the session gate",
		}, []string{"reason"}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "academiax_completions_total",
			Help: "Completion service calls by kind and outcome",
		}, []string{"kind", "outcome"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "academiax_events_published_total",
			Help: "Resource change events by publish outcome",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		c.requests,
		c.duration,
		c.authRejections,
		c.completions,
		c.events,
	)

	return c
}

// ObserveRequest records one served request. route is the matched pattern,
// never the raw path, to keep label cardinality bounded.
func (c *Collector) ObserveRequest(method, route string, status int, duration time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.duration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) RecordAuthRejection(reason string) {
	c.authRejections.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordCompletion(kind, outcome string) {
	c.completions.WithLabelValues(kind, outcome).Inc()
}

func (c *Collector) RecordEventPublish(outcome string) {
	c.events.WithLabelValues(outcome).Inc()
}

// Nop discards every observation.
type Nop struct{}

func (Nop) ObserveRequest(string, string, int, time.Duration) {}
func (Nop) RecordAuthRejection(string)                        {}
func (Nop) RecordCompletion(string, string)                   {}
func (Nop) RecordEventPublish(string)                         {}

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
