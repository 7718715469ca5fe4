// Package metrics provides memo cache metrics for observability
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics contains Prometheus metrics for the analytics memo cache.
type CacheMetrics struct {
	registry *prometheus.Registry

	lookupsTotal       *prometheus.CounterVec
	setsTotal          *prometheus.CounterVec
	itemsGauge         prometheus.Gauge
	invalidationsTotal prometheus.Counter
}

// NewCacheMetrics creates and registers new cache metrics
func NewCacheMetrics(registry *prometheus.Registry) (*CacheMetrics, error) {
	m := &CacheMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *CacheMetrics) initMetrics() {
	m.lookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Memo cache lookups by kind and result",
		},
		[]string{"kind", "result"}, // kind: summary, efficiency, ...; result: hit, miss
	)

	m.setsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_sets_total",
			Help: "Memo cache insertions by kind",
		},
		[]string{"kind"},
	)

	m.itemsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_items",
		Help: "Number of items held in the memo cache",
	})

	m.invalidationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_invalidations_total",
		Help: "Number of full memo cache invalidations",
	})
}

func (m *CacheMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.lookupsTotal,
		m.setsTotal,
		m.itemsGauge,
		m.invalidationsTotal,
	}
}

// Describe implements the Collector interface
func (m *CacheMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors() {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *CacheMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors() {
		collector.Collect(ch)
	}
}

// RecordLookup records a cache lookup for kind
func (m *CacheMetrics) RecordLookup(kind string, hit bool) {
	result := StatusMiss
	if hit {
		result = StatusHit
	}
	m.lookupsTotal.WithLabelValues(kind, result).Inc()
}

// RecordSet records a cache insertion for kind
func (m *CacheMetrics) RecordSet(kind string) {
	m.setsTotal.WithLabelValues(kind).Inc()
}

// UpdateItems sets the current item count
func (m *CacheMetrics) UpdateItems(n int) {
	m.itemsGauge.Set(float64(n))
}

// RecordInvalidation counts a full cache flush
func (m *CacheMetrics) RecordInvalidation() {
	m.invalidationsTotal.Inc()
}
