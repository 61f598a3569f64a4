// Package metrics exposes Prometheus collectors for session-core activity.
//
// A single Metrics instance registers its collectors with the default
// registry via promauto. Components that accept a nil *Metrics skip
// recording, so telemetry stays optional.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus collectors for the session core.
type Metrics struct {
	// Session lifecycle
	sessionsActive prometheus.Gauge
	sessionsTotal  prometheus.Counter
	teardowns      prometheus.Counter

	// Context store
	contextItems     *prometheus.GaugeVec
	contextEvictions *prometheus.CounterVec

	// Token budget
	tokenAllocations *prometheus.CounterVec
	tokensUsed       *prometheus.GaugeVec

	// Flow control
	flowViolations *prometheus.CounterVec

	// Background sweeps
	sweepDuration prometheus.Histogram
}

// New creates a Metrics instance with collectors registered via promauto.
func New() *Metrics {
	return &Metrics{
		sessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "meridian_sessions_active",
			Help: "Current number of live sessions",
		}),

		sessionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meridian_sessions_created_total",
			Help: "Total number of sessions created",
		}),

		teardowns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meridian_sessions_torn_down_total",
			Help: "Total number of sessions torn down",
		}),

		contextItems: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "meridian_context_items",
				Help: "Current context ring occupancy per session",
			},
			[]string{"session"},
		),

		contextEvictions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meridian_context_evictions_total",
				Help: "Total context items removed, by cause",
			},
			[]string{"cause"},
		),

		tokenAllocations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meridian_token_allocations_total",
				Help: "Total token allocation attempts, by category and result",
			},
			[]string{"category", "result"},
		),

		tokensUsed: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "meridian_tokens_used",
				Help: "Current token consumption per category",
			},
			[]string{"session", "category"},
		),

		flowViolations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meridian_flow_violations_total",
				Help: "Total flow control violations, by limit",
			},
			[]string{"limit"},
		),

		sweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "meridian_sweep_duration_seconds",
			Help:    "Duration of background sweep cycles in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12), // 100µs to ~400ms
		}),
	}
}

// RecordSessionCreated records a new live session.
func (m *Metrics) RecordSessionCreated() {
	if m == nil {
		return
	}
	m.sessionsTotal.Inc()
	m.sessionsActive.Inc()
}

// RecordSessionTorndown records a completed teardown.
func (m *Metrics) RecordSessionTorndown(sessionID string) {
	if m == nil {
		return
	}
	m.teardowns.Inc()
	m.sessionsActive.Dec()
	m.contextItems.DeleteLabelValues(sessionID)
	m.tokensUsed.DeletePartialMatch(prometheus.Labels{"session": sessionID})
}

// UpdateContextOccupancy sets the ring occupancy for a session.
func (m *Metrics) UpdateContextOccupancy(sessionID string, size int) {
	if m == nil {
		return
	}
	m.contextItems.WithLabelValues(sessionID).Set(float64(size))
}

// RecordContextEviction records items removed from a ring by cause
// (ring, expired, compacted, cleared).
func (m *Metrics) RecordContextEviction(cause string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.contextEvictions.WithLabelValues(cause).Add(float64(count))
}

// RecordTokenAllocation records an allocation attempt.
func (m *Metrics) RecordTokenAllocation(category string, accepted bool) {
	if m == nil {
		return
	}
	result := "accepted"
	if !accepted {
		result = "rejected"
	}
	m.tokenAllocations.WithLabelValues(category, result).Inc()
}

// UpdateTokensUsed sets the current consumption for a session category.
func (m *Metrics) UpdateTokensUsed(sessionID, category string, used int) {
	if m == nil {
		return
	}
	m.tokensUsed.WithLabelValues(sessionID, category).Set(float64(used))
}

// RecordFlowViolation records a flow limit violation (turns, timeout,
// topics).
func (m *Metrics) RecordFlowViolation(limit string) {
	if m == nil {
		return
	}
	m.flowViolations.WithLabelValues(limit).Inc()
}

// RecordSweepDuration records one background sweep cycle.
func (m *Metrics) RecordSweepDuration(seconds float64) {
	if m == nil {
		return
	}
	m.sweepDuration.Observe(seconds)
}
