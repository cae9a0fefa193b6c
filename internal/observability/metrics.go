package observability

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for a model run.
// Each Metrics owns its registry, so the run can be exported as a textfile
// without a scrape endpoint.
type Metrics struct {
	Registry *prometheus.Registry

	StageRuns      *prometheus.CounterVec   // labels: stage, outcome={success,error}
	StageDuration  *prometheus.HistogramVec // labels: stage
	RowsProcessed  *prometheus.CounterVec   // labels: stage
	ArtifactsSaved *prometheus.CounterVec   // labels: kind={csv,png,yaml,xlsx}

	GridRecords       prometheus.Gauge
	TimeSeriesRecords prometheus.Gauge
	MeanSRAmplitude   prometheus.Gauge
	LastRunSuccess    prometheus.Gauge
	LastRunTimestamp  prometheus.Gauge
}

// NewMetrics creates all run metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		StageRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gravem",
			Name:      "stage_runs_total",
			Help:      "Pipeline stage executions by stage and outcome.",
		}, []string{"stage", "outcome"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gravem",
			Name:      "stage_duration_seconds",
			Help:      "Wall time per pipeline stage, including file output.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		RowsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gravem",
			Name:      "rows_processed_total",
			Help:      "Grid rows transformed per stage.",
		}, []string{"stage"}),
		ArtifactsSaved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gravem",
			Name:      "artifacts_saved_total",
			Help:      "Files written by kind.",
		}, []string{"kind"}),
		GridRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gravem",
			Name:      "grid_records",
			Help:      "Spatial grid records loaded in the last run.",
		}),
		TimeSeriesRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gravem",
			Name:      "time_series_records",
			Help:      "Time series samples loaded in the last run.",
		}),
		MeanSRAmplitude: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gravem",
			Name:      "mean_sr_amplitude",
			Help:      "Mean Schumann resonance amplitude used by layer 3.",
		}),
		LastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gravem",
			Name:      "last_run_success",
			Help:      "1 when the last run completed every stage, 0 otherwise.",
		}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gravem",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}

	m.Registry.MustRegister(
		m.StageRuns,
		m.StageDuration,
		m.RowsProcessed,
		m.ArtifactsSaved,
		m.GridRecords,
		m.TimeSeriesRecords,
		m.MeanSRAmplitude,
		m.LastRunSuccess,
		m.LastRunTimestamp,
	)

	return m
}

// WriteTextfile exports the registry in the node-exporter textfile format.
// The write is atomic: the file is renamed into place.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
