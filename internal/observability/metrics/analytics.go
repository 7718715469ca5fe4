// Package metrics provides analytics metrics for observability
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// AnalyticsMetrics contains Prometheus metrics for telemetry analytics.
// It implements Recorder.
type AnalyticsMetrics struct {
	registry *prometheus.Registry

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	errorsTotal       *prometheus.CounterVec
	trackLength       prometheus.Histogram
	outliersTotal     prometheus.Counter
}

// NewAnalyticsMetrics creates and registers new analytics metrics
func NewAnalyticsMetrics(registry *prometheus.Registry) (*AnalyticsMetrics, error) {
	m := &AnalyticsMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *AnalyticsMetrics) initMetrics() {
	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_operations_total",
			Help: "Total number of analytics computations",
		},
		[]string{"operation", "status"}, // operation: residency, efficiency_curve, ...; status: success, error
	)

	m.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analytics_operation_duration_seconds",
			Help:    "Time taken for analytics computations",
			Buckets: prometheus.ExponentialBuckets(BucketStart100us, BucketFactor2, BucketCount15), // 0.1ms to ~1.6s
		},
		[]string{"operation"},
	)

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_errors_total",
			Help: "Total number of analytics errors by category",
		},
		[]string{"operation", "error_type"}, // error_type: empty-track, degenerate-curve, validation
	)

	m.trackLength = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "analytics_track_records",
		Help:    "Number of records in tracks passed to analytics",
		Buckets: prometheus.ExponentialBuckets(1, BucketFactor10, BucketCount6), // 1 to 100k
	})

	m.outliersTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "analytics_speed_outliers_total",
		Help: "Total number of detections flagged as speed outliers",
	})
}

func (m *AnalyticsMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.operationsTotal,
		m.operationDuration,
		m.errorsTotal,
		m.trackLength,
		m.outliersTotal,
	}
}

// Describe implements the Collector interface
func (m *AnalyticsMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors() {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *AnalyticsMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors() {
		collector.Collect(ch)
	}
}

// RecordOperation records an analytics computation
func (m *AnalyticsMetrics) RecordOperation(operation, status string) {
	m.operationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDuration records the duration of an analytics computation in seconds
func (m *AnalyticsMetrics) RecordDuration(operation string, seconds float64) {
	m.operationDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordError records an analytics error by category
func (m *AnalyticsMetrics) RecordError(operation, errorType string) {
	m.errorsTotal.WithLabelValues(operation, errorType).Inc()
}

// ObserveTrackLength records the size of a track handed to analytics
func (m *AnalyticsMetrics) ObserveTrackLength(records int) {
	m.trackLength.Observe(float64(records))
}

// AddOutliers counts detections flagged as speed outliers
func (m *AnalyticsMetrics) AddOutliers(n int) {
	if n > 0 {
		m.outliersTotal.Add(float64(n))
	}
}
