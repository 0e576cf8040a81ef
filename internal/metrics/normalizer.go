// Package metrics holds the Prometheus collectors of the admin service.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// NormalizerMetrics tracks image path normalization runs.
type NormalizerMetrics struct {
	RecordsFetched *prometheus.CounterVec
	RecordsUpdated *prometheus.CounterVec
	UpdateFailures *prometheus.CounterVec
	Runs           *prometheus.CounterVec
	RunDuration    *prometheus.HistogramVec
}

// NewNormalizerMetrics creates the collectors and registers them with registry.
func NewNormalizerMetrics(registry prometheus.Registerer) (*NormalizerMetrics, error) {
	m := &NormalizerMetrics{
		RecordsFetched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "image_normalizer_records_fetched_total",
				Help: "Records read by normalization runs.",
			},
			[]string{"collection"},
		),
		RecordsUpdated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "image_normalizer_records_updated_total",
				Help: "Records whose image path was rewritten.",
			},
			[]string{"collection"},
		),
		UpdateFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "image_normalizer_update_failures_total",
				Help: "Per-record update failures.",
			},
			[]string{"collection"},
		),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "image_normalizer_runs_total",
				Help: "Normalization runs partitioned by outcome.",
			},
			[]string{"collection", "outcome"},
		),
		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "image_normalizer_run_duration_seconds",
				Help:    "Wall time of a normalization run.",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
			},
			[]string{"collection"},
		),
	}

	if registry != nil {
		if err := registry.Register(m); err != nil {
			return nil, fmt.Errorf("register normalizer metrics: %w", err)
		}
	}
	return m, nil
}

// Describe implements prometheus.Collector.
func (m *NormalizerMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.RecordsFetched.Describe(ch)
	m.RecordsUpdated.Describe(ch)
	m.UpdateFailures.Describe(ch)
	m.Runs.Describe(ch)
	m.RunDuration.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *NormalizerMetrics) Collect(ch chan<- prometheus.Metric) {
	m.RecordsFetched.Collect(ch)
	m.RecordsUpdated.Collect(ch)
	m.UpdateFailures.Collect(ch)
	m.Runs.Collect(ch)
	m.RunDuration.Collect(ch)
}

// ObserveRun records the totals of one finished run. outcome is "ok", "partial" or "failed".
func (m *NormalizerMetrics) ObserveRun(collection, outcome string, fetched, updated, failed int, took time.Duration) {
	if m == nil {
		return
	}
	m.RecordsFetched.WithLabelValues(collection).Add(float64(fetched))
	m.RecordsUpdated.WithLabelValues(collection).Add(float64(updated))
	m.UpdateFailures.WithLabelValues(collection).Add(float64(failed))
	m.Runs.WithLabelValues(collection, outcome).Inc()
	m.RunDuration.WithLabelValues(collection).Observe(took.Seconds())
}
