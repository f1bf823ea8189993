package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type eventMetrics struct {
	published *prometheus.CounterVec
	dropped   prometheus.Counter
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking committed events.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			published: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "veritasor",
				Subsystem: "events",
				Name:      "published_total",
				Help:      "Count of committed events segmented by type.",
			}, []string{"type"}),
			dropped: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "veritasor",
				Subsystem: "events",
				Name:      "dropped_total",
				Help:      "Events not delivered to a stream subscriber or the indexer.",
			}),
		}
		prometheus.MustRegister(eventRegistry.published, eventRegistry.dropped)
	})
	return eventRegistry
}

// RecordPublished increments the counter for the supplied event type.
func (m *eventMetrics) RecordPublished(eventType string) {
	if m == nil {
		return
	}
	normalized := strings.TrimSpace(eventType)
	if normalized == "" {
		normalized = "unknown"
	}
	m.published.WithLabelValues(normalized).Inc()
}

// RecordDropped counts one event a consumer skipped: a full subscriber
// channel or a closed indexer.
func (m *eventMetrics) RecordDropped() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}
