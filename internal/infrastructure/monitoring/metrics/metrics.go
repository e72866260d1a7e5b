// Package metrics exposes the Prometheus instrumentation of the recognition
// pipeline.  All observe methods are nil-receiver safe so callers can run
// without metrics wired.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recognition modes reported on the request counter.
const (
	ModeVisual     = "visual"
	ModeText       = "text"
	ModeMultiModal = "multimodal"
)

// Outcomes reported on the request counter.
const (
	OutcomeOK        = "ok"
	OutcomeError     = "error"
	OutcomeCancelled = "cancelled"
)

// RecognitionMetrics instruments the recognition pipeline.
type RecognitionMetrics struct {
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	bestScore prometheus.Histogram
	catalog   prometheus.Gauge
}

// NewRecognitionMetrics registers the pipeline collectors on reg.
func NewRecognitionMetrics(reg prometheus.Registerer) *RecognitionMetrics {
	m := &RecognitionMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "figurelens",
			Subsystem: "recognition",
			Name:      "requests_total",
			Help:      "Recognition requests by mode and outcome.",
		}, []string{"mode", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "figurelens",
			Subsystem: "recognition",
			Name:      "duration_seconds",
			Help:      "End-to-end recognition latency.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"mode"}),
		bestScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "figurelens",
			Subsystem: "recognition",
			Name:      "best_match_score",
			Help:      "Overall score of the best match per completed request.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
		catalog: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "figurelens",
			Subsystem: "catalog",
			Name:      "entries",
			Help:      "Entries in the active catalog snapshot.",
		}),
	}
	reg.MustRegister(m.requests, m.duration, m.bestScore, m.catalog)
	return m
}

// ObserveRequest records one finished request.
func (m *RecognitionMetrics) ObserveRequest(mode, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(mode, outcome).Inc()
	m.duration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// ObserveBestScore records the winning score of a completed request.
func (m *RecognitionMetrics) ObserveBestScore(score float64) {
	if m == nil {
		return
	}
	m.bestScore.Observe(score)
}

// SetCatalogSize tracks the size of the catalog snapshot in use.
func (m *RecognitionMetrics) SetCatalogSize(n int) {
	if m == nil {
		return
	}
	m.catalog.Set(float64(n))
}
