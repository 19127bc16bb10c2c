// Package metrics exposes the preprocessing run counters. A run writes them
// to a Prometheus textfile when it finishes; there is no scrape endpoint.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "docprep"

// Outcomes of a single document.
const (
	OutcomeWritten     = "written"
	OutcomeSkipped     = "skipped"
	OutcomeBlacklisted = "blacklisted"
)

// Metrics holds the run metrics on a private registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	archivesExtracted *prometheus.CounterVec
	documentsTotal    *prometheus.CounterVec
	chunksTotal       *prometheus.CounterVec
	chunkDuration     prometheus.Histogram
	dropRatio         prometheus.Gauge
}

// New creates and registers the run metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		archivesExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archives_total",
			Help:      "Archives seen by the ingestor",
		}, []string{"status"}), // extracted, existing, failed

		documentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Documents processed by outcome",
		}, []string{"outcome"}),

		chunksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_total",
			Help:      "Chunks processed by status",
		}, []string{"status"}), // ok, failed

		chunkDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_duration_seconds",
			Help:      "Time to process and write one chunk",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),

		dropRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "drop_ratio",
			Help:      "Share of documents not written in the last run",
		}),
	}

	m.registry.MustRegister(
		m.archivesExtracted, m.documentsTotal,
		m.chunksTotal, m.chunkDuration, m.dropRatio,
	)
	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Archive counts one archive by status.
func (m *Metrics) Archive(status string) {
	if m == nil {
		return
	}
	m.archivesExtracted.WithLabelValues(status).Inc()
}

// Document counts one document by outcome.
func (m *Metrics) Document(outcome string) {
	if m == nil {
		return
	}
	m.documentsTotal.WithLabelValues(outcome).Inc()
}

// Chunk records one finished chunk.
func (m *Metrics) Chunk(seconds float64, failed bool) {
	if m == nil {
		return
	}
	status := "ok"
	if failed {
		status = "failed"
	}
	m.chunksTotal.WithLabelValues(status).Inc()
	m.chunkDuration.Observe(seconds)
}

// DropRatio sets the run's share of dropped documents.
func (m *Metrics) DropRatio(ratio float64) {
	if m == nil {
		return
	}
	m.dropRatio.Set(ratio)
}

// WriteTextfile writes all metrics in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
