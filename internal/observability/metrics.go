// Package observability provides Prometheus metrics for the projector.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Skip reasons.
const (
	SkipUntrackedSource = "untracked_source"
	SkipUnknownToken    = "unknown_token"
	SkipNoGauge         = "no_gauge"
	SkipMissingVote     = "missing_vote"
	SkipStaleVoteSet    = "stale_vote_set"
	SkipVoteCap         = "pool_vote_cap"
	SkipDuplicate       = "duplicate"
	SkipRemoved         = "removed"
	SkipForeignVoter    = "foreign_voter"
)

// Metrics holds projector metrics. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	EventsApplied    *prometheus.CounterVec
	EventsSkipped    *prometheus.CounterVec
	FatalErrors      *prometheus.CounterVec
	DecodeErrors     prometheus.Counter
	ApplyLatency     *prometheus.HistogramVec
	LastAppliedBlock prometheus.Gauge
}

// NewMetrics registers all metrics on a fresh registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "gauge_scope"
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		EventsApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "projection",
			Name:      "events_applied_total",
			Help:      "Total number of events applied by event name",
		}, []string{"event"}),
		EventsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "projection",
			Name:      "events_skipped_total",
			Help:      "Total number of recoverable skips by reason",
		}, []string{"reason"}),
		FatalErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "projection",
			Name:      "fatal_errors_total",
			Help:      "Total number of events that aborted the projection",
		}, []string{"event"}),
		DecodeErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "projector",
			Name:      "decode_errors_total",
			Help:      "Total number of logs that failed to decode",
		}),
		ApplyLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "projection",
			Name:      "apply_latency_seconds",
			Help:      "Event apply latency in seconds, chain reads included",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event"}),
		LastAppliedBlock: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "projector",
			Name:      "last_applied_block",
			Help:      "Block number of the last applied event",
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Applied records a successfully applied event.
func (m *Metrics) Applied(event string, block uint64, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.EventsApplied.WithLabelValues(event).Inc()
	m.ApplyLatency.WithLabelValues(event).Observe(elapsed.Seconds())
	m.LastAppliedBlock.Set(float64(block))
}

// Skipped records a recoverable skip.
func (m *Metrics) Skipped(reason string) {
	if m == nil {
		return
	}
	m.EventsSkipped.WithLabelValues(reason).Inc()
}

// Fatal records an event that halted the projection.
func (m *Metrics) Fatal(event string) {
	if m == nil {
		return
	}
	m.FatalErrors.WithLabelValues(event).Inc()
}

// DecodeFailed records a log that could not be decoded.
func (m *Metrics) DecodeFailed() {
	if m == nil {
		return
	}
	m.DecodeErrors.Inc()
}
