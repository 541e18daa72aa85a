package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// recompute pipeline.
type Metrics struct {
	SnapshotsConsumed prometheus.Counter
	StatesProduced    prometheus.Counter
	ComposeErrors     prometheus.Counter
	PipelineRunning   prometheus.Gauge
	TrackedPlaces     prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Heatmap metrics.
	HeatmapCellsPublished prometheus.Counter
	HeatmapFlushDuration  prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		SnapshotsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "transform_engine",
			Name:      "snapshots_consumed_total",
			Help:      "Total place snapshots read from the source topic.",
		}),
		StatesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "transform_engine",
			Name:      "states_produced_total",
			Help:      "Total transformation states written to the state topic.",
		}),
		ComposeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "transform_engine",
			Name:      "compose_errors_total",
			Help:      "Total snapshots skipped because state computation failed.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "transform_engine",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		TrackedPlaces: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "transform_engine",
			Name:      "tracked_places",
			Help:      "Number of places with a computed state this process has seen.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "transform_engine",
			Name:      "batch_size",
			Help:      "Number of snapshots per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "transform_engine",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete extract-compose-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		HeatmapCellsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "transform_engine",
			Name:      "heatmap_cells_published_total",
			Help:      "Total heatmap cells written to the heatmap topic.",
		}),
		HeatmapFlushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "transform_engine",
			Name:      "heatmap_flush_duration_seconds",
			Help:      "Duration of a full heatmap re-aggregation and publish.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}),
	}

	prometheus.MustRegister(
		m.SnapshotsConsumed,
		m.StatesProduced,
		m.ComposeErrors,
		m.PipelineRunning,
		m.TrackedPlaces,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.HeatmapCellsPublished,
		m.HeatmapFlushDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		SnapshotsConsumed:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "transform_engine", Name: "snapshots_consumed_total"}),
		StatesProduced:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "transform_engine", Name: "states_produced_total"}),
		ComposeErrors:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: "transform_engine", Name: "compose_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "transform_engine", Name: "pipeline_running"}),
		TrackedPlaces:           prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "transform_engine", Name: "tracked_places"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "transform_engine", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "transform_engine", Name: "batch_processing_duration_seconds"}),
		HeatmapCellsPublished:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "transform_engine", Name: "heatmap_cells_published_total"}),
		HeatmapFlushDuration:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "transform_engine", Name: "heatmap_flush_duration_seconds"}),
	}
}
