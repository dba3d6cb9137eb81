package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the hotspot pipeline.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec // labels: outcome={success,config_error,api_error,schema_error,error}
	PipelineRunning prometheus.Gauge
	RunDuration     prometheus.Histogram

	// Feed paging metrics.
	PagesFetched      prometheus.Counter
	PageFetchDuration prometheus.Histogram
	RowsIngested      prometheus.Counter
	LastRunRows       prometheus.Gauge
	SafetyCapHits     prometheus.Counter

	// Dataset lifecycle metrics.
	ArchiveFailures prometheus.Counter
	ViewsBuilt      prometheus.Counter

	Notifications *prometheus.CounterVec // labels: channel={line,kafka}, outcome={success,error}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := NewMetricsForTesting()

	prometheus.MustRegister(
		m.RunsTotal,
		m.PipelineRunning,
		m.RunDuration,
		m.PagesFetched,
		m.PageFetchDuration,
		m.RowsIngested,
		m.LastRunRows,
		m.SafetyCapHits,
		m.ArchiveFailures,
		m.ViewsBuilt,
		m.Notifications,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// build as many as they need without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hotspot_etl",
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hotspot_etl",
			Name:      "pipeline_running",
			Help:      "1 while a pipeline run is in progress.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hotspot_etl",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete prepare-load-aggregate run.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		PagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hotspot_etl",
			Name:      "pages_fetched_total",
			Help:      "Feed pages fetched successfully.",
		}),
		PageFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hotspot_etl",
			Name:      "page_fetch_duration_seconds",
			Help:      "Feed API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RowsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hotspot_etl",
			Name:      "rows_ingested_total",
			Help:      "Hotspot rows written to the working area.",
		}),
		LastRunRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hotspot_etl",
			Name:      "last_run_rows",
			Help:      "Rows written by the most recent run.",
		}),
		SafetyCapHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hotspot_etl",
			Name:      "safety_cap_hits_total",
			Help:      "Runs whose paging stopped at the maximum offset.",
		}),
		ArchiveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hotspot_etl",
			Name:      "archive_failures_total",
			Help:      "Archive snapshots that could not be created.",
		}),
		ViewsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hotspot_etl",
			Name:      "views_built_total",
			Help:      "Aggregation views regenerated.",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hotspot_etl",
			Name:      "notifications_total",
			Help:      "Run summary notifications by channel and outcome.",
		}, []string{"channel", "outcome"}),
	}
}
