package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sterileloop"

// Metrics holds the Prometheus counters, histograms, and gauges for the overlay service.
type Metrics struct {
	PipelineRunning prometheus.Gauge

	// Dataset load metrics.
	DatasetLoads        *prometheus.CounterVec // labels: outcome={success,error,superseded}
	DatasetLoadDuration prometheus.Histogram
	DatasetStates       prometheus.Gauge
	DatasetRecords      prometheus.Gauge
	DatasetYears        prometheus.Gauge
	LastLoadTimestamp   prometheus.Gauge

	// Publishing metrics.
	FeaturesPublished *prometheus.CounterVec // labels: sink={kafka}
	PublishErrors     *prometheus.CounterVec // labels: sink={store,kafka}

	// Query metrics.
	NearestQueries  prometheus.Counter
	ExportsRendered *prometheus.CounterVec // labels: format={xlsx,shp,png,pdf,csv}

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss,shared}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the load pipeline is active, 0 when shut down.",
		}),
		DatasetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_loads_total",
			Help:      "Dataset load attempts by outcome.",
		}, []string{"outcome"}),
		DatasetLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_load_duration_seconds",
			Help:      "Duration of a complete extract-transform-publish cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		DatasetStates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_states",
			Help:      "Number of states in the published dataset.",
		}),
		DatasetRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_records",
			Help:      "Number of usage records in the published dataset.",
		}),
		DatasetYears: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_years",
			Help:      "Number of distinct years in the published dataset.",
		}),
		LastLoadTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_last_load_timestamp_seconds",
			Help:      "Unix time of the last successful publish.",
		}),
		FeaturesPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overlay_features_published_total",
			Help:      "Overlay features published by sink.",
		}, []string{"sink"}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overlay_publish_errors_total",
			Help:      "Publish failures by sink.",
		}, []string{"sink"}),
		NearestQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nearest_queries_total",
			Help:      "Nearest-provider queries served.",
		}),
		ExportsRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_rendered_total",
			Help:      "Report and export files rendered by format.",
		}, []string{"format"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when geocoding fallback is enabled, 0 otherwise.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.PipelineRunning,
		m.DatasetLoads,
		m.DatasetLoadDuration,
		m.DatasetStates,
		m.DatasetRecords,
		m.DatasetYears,
		m.LastLoadTimestamp,
		m.FeaturesPublished,
		m.PublishErrors,
		m.NearestQueries,
		m.ExportsRendered,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered on a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}
