// Package metrics provides datastore metrics for observability
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DatastoreMetrics contains Prometheus metrics for detection source loading.
// It implements Recorder with the source kind ("csv", "http", "sqlite", "mysql") fixed per instance via ForSource.
type DatastoreMetrics struct {
	registry *prometheus.Registry

	loadsTotal       *prometheus.CounterVec
	loadDuration     *prometheus.HistogramVec
	loadErrorsTotal  *prometheus.CounterVec
	tableCacheTotal  *prometheus.CounterVec
	recordsGauge     prometheus.Gauge
	tagsGauge        prometheus.Gauge
	lastLoadUnixTime prometheus.Gauge

	httpRequestsTotal *prometheus.CounterVec
	httpInFlight      prometheus.Gauge
}

// NewDatastoreMetrics creates and registers new datastore metrics
func NewDatastoreMetrics(registry *prometheus.Registry) (*DatastoreMetrics, error) {
	m := &DatastoreMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *DatastoreMetrics) initMetrics() {
	m.loadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datastore_operations_total",
			Help: "Total number of detection source operations",
		},
		[]string{"source", "operation", "status"}, // operation: load, version; status: success, error
	)

	m.loadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datastore_operation_duration_seconds",
			Help:    "Time taken to read and parse detection sources",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount15), // 1ms to ~16s
		},
		[]string{"source", "operation"},
	)

	m.loadErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datastore_errors_total",
			Help: "Total number of detection source errors",
		},
		[]string{"source", "operation", "error_type"},
	)

	m.tableCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datastore_table_cache_total",
			Help: "Loaded table reuse by source version",
		},
		[]string{"result"}, // hit, miss
	)

	m.recordsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "datastore_records",
		Help: "Number of detection records in the loaded table",
	})

	m.tagsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "datastore_tags",
		Help: "Number of distinct tags in the loaded table",
	})

	m.lastLoadUnixTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "datastore_last_load_timestamp_seconds",
		Help: "Unix time of the last successful table load",
	})

	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datastore_http_requests_total",
			Help: "Requests made by the HTTP detection source",
		},
		[]string{"method", "status"}, // status: response code or "error"
	)

	m.httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "datastore_http_requests_in_flight",
		Help: "HTTP detection source requests awaiting a response",
	})
}

func (m *DatastoreMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.loadsTotal,
		m.loadDuration,
		m.loadErrorsTotal,
		m.tableCacheTotal,
		m.recordsGauge,
		m.tagsGauge,
		m.lastLoadUnixTime,
		m.httpRequestsTotal,
		m.httpInFlight,
	}
}

// Describe implements the Collector interface
func (m *DatastoreMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors() {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *DatastoreMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors() {
		collector.Collect(ch)
	}
}

// RecordSourceOperation records a source operation outcome
func (m *DatastoreMetrics) RecordSourceOperation(source, operation, status string) {
	m.loadsTotal.WithLabelValues(source, operation, status).Inc()
}

// RecordSourceDuration records the duration of a source operation in seconds
func (m *DatastoreMetrics) RecordSourceDuration(source, operation string, seconds float64) {
	m.loadDuration.WithLabelValues(source, operation).Observe(seconds)
}

// RecordSourceError records a source error by type
func (m *DatastoreMetrics) RecordSourceError(source, operation, errorType string) {
	m.loadErrorsTotal.WithLabelValues(source, operation, errorType).Inc()
}

// RecordTableCache records whether a load reused the cached table
func (m *DatastoreMetrics) RecordTableCache(hit bool) {
	if hit {
		m.tableCacheTotal.WithLabelValues(StatusHit).Inc()
		return
	}
	m.tableCacheTotal.WithLabelValues(StatusMiss).Inc()
}

// UpdateTableSize sets the record and tag gauges after a load
func (m *DatastoreMetrics) UpdateTableSize(records, tags int, loadedAtUnix float64) {
	m.recordsGauge.Set(float64(records))
	m.tagsGauge.Set(float64(tags))
	m.lastLoadUnixTime.Set(loadedAtUnix)
}

// RecordHTTPRequestStart marks a source request as in flight
func (m *DatastoreMetrics) RecordHTTPRequestStart() {
	m.httpInFlight.Inc()
}

// RecordHTTPRequestDone counts a finished source request. status is the response code,
// or StatusError when no response was received.
func (m *DatastoreMetrics) RecordHTTPRequestDone(method, status string) {
	m.httpInFlight.Dec()
	m.httpRequestsTotal.WithLabelValues(method, status).Inc()
}

// ForSource returns a Recorder that labels every observation with source.
func (m *DatastoreMetrics) ForSource(source string) Recorder {
	return &sourceRecorder{metrics: m, source: source}
}

type sourceRecorder struct {
	metrics *DatastoreMetrics
	source  string
}

func (r *sourceRecorder) RecordOperation(operation, status string) {
	r.metrics.RecordSourceOperation(r.source, operation, status)
}

func (r *sourceRecorder) RecordDuration(operation string, seconds float64) {
	r.metrics.RecordSourceDuration(r.source, operation, seconds)
}

func (r *sourceRecorder) RecordError(operation, errorType string) {
	r.metrics.RecordSourceError(r.source, operation, errorType)
}
