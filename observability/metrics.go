package observability

import (
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type moduleMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

var (
	moduleMetricsOnce sync.Once
	moduleRegistry    *moduleMetrics

	attestationMetricsOnce sync.Once
	attestationRegistry    *AttestationMetrics
)

// ModuleMetrics returns the lazily-initialised registry used to record HTTP
// route activity.
func ModuleMetrics() *moduleMetrics {
	moduleMetricsOnce.Do(func() {
		moduleRegistry = &moduleMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "veritasor",
				Subsystem: "module",
				Name:      "requests_total",
				Help:      "Total API requests segmented by module and method.",
			}, []string{"module", "method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "veritasor",
				Subsystem: "module",
				Name:      "errors_total",
				Help:      "Total API errors segmented by module, method, and status code.",
			}, []string{"module", "method", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "veritasor",
				Subsystem: "module",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for API handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"module", "method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "veritasor",
				Subsystem: "module",
				Name:      "throttles_total",
				Help:      "Count of requests rejected due to throttling policies.",
			}, []string{"module", "reason"}),
		}
		prometheus.MustRegister(
			moduleRegistry.requests,
			moduleRegistry.errors,
			moduleRegistry.latency,
			moduleRegistry.throttles,
		)
	})
	return moduleRegistry
}

// Observe records the outcome of a request. The status code should be the
// HTTP status that was ultimately written to the response writer.
func (m *moduleMetrics) Observe(module, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	outcome := "success"
	if status >= 400 {
		outcome = "error"
	}
	m.requests.WithLabelValues(module, method, outcome).Inc()
	if status >= 400 {
		m.errors.WithLabelValues(module, method, fmt.Sprintf("%d", status)).Inc()
	}
	m.latency.WithLabelValues(module, method).Observe(duration.Seconds())
}

// RecordThrottle increments the throttle counter for the supplied module and
// reason. Reasons should be stable strings such as "rate_limit".
func (m *moduleMetrics) RecordThrottle(module, reason string) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(module, reason).Inc()
}

// AttestationMetrics tracks the economic activity of the attestation engine.
type AttestationMetrics struct {
	submissions   *prometheus.CounterVec
	fees          *prometheus.CounterVec
	rateLimited   prometheus.Counter
	disputes      *prometheus.CounterVec
	rangesRevoked prometheus.Counter
}

// Attestation returns the singleton attestation metrics registry.
func Attestation() *AttestationMetrics {
	attestationMetricsOnce.Do(func() {
		attestationRegistry = &AttestationMetrics{
			submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "veritasor",
				Subsystem: "attestation",
				Name:      "submissions_total",
				Help:      "Attestation submissions segmented by kind and outcome.",
			}, []string{"kind", "outcome"}),
			fees: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "veritasor",
				Subsystem: "attestation",
				Name:      "fees_collected_total",
				Help:      "Fee units collected segmented by token.",
			}, []string{"token"}),
			rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "veritasor",
				Subsystem: "attestation",
				Name:      "rate_limited_total",
				Help:      "Submissions rejected by the sliding-window rate limiter.",
			}),
			disputes: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "veritasor",
				Subsystem: "attestation",
				Name:      "dispute_transitions_total",
				Help:      "Dispute lifecycle transitions segmented by target status.",
			}, []string{"transition"}),
			rangesRevoked: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "veritasor",
				Subsystem: "attestation",
				Name:      "ranges_revoked_total",
				Help:      "Multi-period ranges revoked by merkle root.",
			}),
		}
		prometheus.MustRegister(
			attestationRegistry.submissions,
			attestationRegistry.fees,
			attestationRegistry.rateLimited,
			attestationRegistry.disputes,
			attestationRegistry.rangesRevoked,
		)
	})
	return attestationRegistry
}

// RecordSubmission counts one submission attempt.
func (m *AttestationMetrics) RecordSubmission(kind string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	if kind = strings.TrimSpace(kind); kind == "" {
		kind = "unknown"
	}
	m.submissions.WithLabelValues(kind, outcome).Inc()
}

// RecordFee adds amount to the per-token fee counter. Amounts beyond float
// precision are still recorded approximately.
func (m *AttestationMetrics) RecordFee(token string, amount *big.Int) {
	if m == nil || amount == nil || amount.Sign() <= 0 {
		return
	}
	normalized := strings.ToUpper(strings.TrimSpace(token))
	if normalized == "" {
		normalized = "UNKNOWN"
	}
	value, _ := new(big.Float).SetInt(amount).Float64()
	m.fees.WithLabelValues(normalized).Add(value)
}

// RecordRateLimited counts a rate-limit rejection.
func (m *AttestationMetrics) RecordRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

// RecordDispute counts a dispute transition ("opened", "resolved", "closed").
func (m *AttestationMetrics) RecordDispute(transition string) {
	if m == nil {
		return
	}
	m.disputes.WithLabelValues(transition).Inc()
}

// RecordRangesRevoked adds count revoked ranges.
func (m *AttestationMetrics) RecordRangesRevoked(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.rangesRevoked.Add(float64(count))
}
