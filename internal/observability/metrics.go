package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "homie"

// Metrics holds the Prometheus counters, histograms, and gauges for
// ingestion and the persistence backends.
type Metrics struct {
	// Ingestion metrics. The family label is the dataset family name.
	RecordsRead    *prometheus.CounterVec   // labels: family
	RecordsLoaded  *prometheus.CounterVec   // labels: family
	IngestErrors   *prometheus.CounterVec   // labels: family, stage={read,load,publish}
	FamilyDuration *prometheus.HistogramVec // labels: family
	IngestRunning  prometheus.Gauge

	// Backend metrics.
	BackendOpDuration *prometheus.HistogramVec // labels: backend, entity, op
	BackendErrors     *prometheus.CounterVec   // labels: backend, entity, op
	RemoteCache       *prometheus.CounterVec   // labels: result={hit,miss}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// tests may build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// Register adds every metric to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_read_total",
			Help:      "Records parsed from dataset files.",
		}, []string{"family"}),
		RecordsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_loaded_total",
			Help:      "Records written to the persistence backend.",
		}, []string{"family"}),
		IngestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_errors_total",
			Help:      "Ingestion failures by family and stage.",
		}, []string{"family", "stage"}),
		FamilyDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "family_duration_seconds",
			Help:      "Duration of ingesting one dataset family.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		}, []string{"family"}),
		IngestRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ingest_running",
			Help:      "1 while an ingestion run is in progress, 0 otherwise.",
		}),
		BackendOpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_op_duration_seconds",
			Help:      "Persistence operation duration by backend, entity and operation.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}, []string{"backend", "entity", "op"}),
		BackendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_errors_total",
			Help:      "Failed persistence operations by backend, entity and operation.",
		}, []string{"backend", "entity", "op"}),
		RemoteCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_cache_total",
			Help:      "Remote backend read cache lookups by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RecordsRead,
		m.RecordsLoaded,
		m.IngestErrors,
		m.FamilyDuration,
		m.IngestRunning,
		m.BackendOpDuration,
		m.BackendErrors,
		m.RemoteCache,
	}
}
