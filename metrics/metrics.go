// Package metrics provides Prometheus metrics for authentication and
// authorization operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for auth operations.
type Metrics struct {
	enabled bool

	// Authentication metrics
	authRequestsTotal prometheus.Counter
	authFailuresTotal *prometheus.CounterVec

	// Authorization decision metrics
	decisionsTotal   *prometheus.CounterVec
	decisionDuration prometheus.Histogram

	// Token and session metrics
	tokensIssuedTotal *prometheus.CounterVec
	loginsTotal       *prometheus.CounterVec
}

// New creates and registers Prometheus metrics.
// If enabled is false, returns a no-op Metrics instance.
func New(enabled bool) *Metrics {
	m := &Metrics{enabled: enabled}

	if !enabled {
		return m
	}

	m.authRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_requests_total",
		Help: "Total authenticated requests",
	})

	m.authFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_failures_total",
		Help: "Total authentication failures",
	}, []string{"reason"})

	m.decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_decisions_total",
		Help: "Total authorization decisions",
	}, []string{"predicate", "result"})

	m.decisionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "auth_decision_duration_seconds",
		Help:    "Authorization decision duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	m.tokensIssuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_tokens_issued_total",
		Help: "Total tokens issued",
	}, []string{"kind"})

	m.loginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_logins_total",
		Help: "Total login attempts",
	}, []string{"result"})

	return m
}

// RecordAuthSuccess records a successfully authenticated request.
func (m *Metrics) RecordAuthSuccess() {
	if !m.enabled {
		return
	}
	m.authRequestsTotal.Inc()
}

// RecordAuthFailure records a failed authentication with its reason
// (missing_token, invalid_signature, expired, ...).
func (m *Metrics) RecordAuthFailure(reason string) {
	if !m.enabled {
		return
	}
	m.authFailuresTotal.WithLabelValues(reason).Inc()
}

// RecordDecision records an authorization decision for one predicate
// (role, permission, write, tenant) and its result (allowed, denied).
func (m *Metrics) RecordDecision(predicate, result string, durationSeconds float64) {
	if !m.enabled {
		return
	}
	m.decisionsTotal.WithLabelValues(predicate, result).Inc()
	m.decisionDuration.Observe(durationSeconds)
}

// RecordTokenIssued records an issued token by kind (access, refresh).
func (m *Metrics) RecordTokenIssued(kind string) {
	if !m.enabled {
		return
	}
	m.tokensIssuedTotal.WithLabelValues(kind).Inc()
}

// RecordLogin records a login attempt result (success, invalid,
// disabled).
func (m *Metrics) RecordLogin(result string) {
	if !m.enabled {
		return
	}
	m.loginsTotal.WithLabelValues(result).Inc()
}
