package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatastoreForSourceLabelsObservations(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	m, err := NewDatastoreMetrics(reg)
	require.NoError(t, err)

	rec := m.ForSource("csv")
	rec.RecordOperation(OpLoad, StatusSuccess)
	rec.RecordOperation(OpLoad, StatusSuccess)
	rec.RecordError(OpVersion, "data-load")

	expected := `
# HELP datastore_operations_total Total number of detection source operations
# TYPE datastore_operations_total counter
datastore_operations_total{operation="load",source="csv",status="success"} 2
# HELP datastore_errors_total Total number of detection source errors
# TYPE datastore_errors_total counter
datastore_errors_total{error_type="data-load",operation="version",source="csv"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"datastore_operations_total", "datastore_errors_total"))
}

func TestDatastoreHTTPRequests(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	m, err := NewDatastoreMetrics(reg)
	require.NoError(t, err)

	m.RecordHTTPRequestStart()
	m.RecordHTTPRequestDone("HEAD", "405")
	m.RecordHTTPRequestStart()
	m.RecordHTTPRequestDone("GET", "200")
	m.RecordHTTPRequestStart()

	expected := `
# HELP datastore_http_requests_total Requests made by the HTTP detection source
# TYPE datastore_http_requests_total counter
datastore_http_requests_total{method="GET",status="200"} 1
datastore_http_requests_total{method="HEAD",status="405"} 1
# HELP datastore_http_requests_in_flight HTTP detection source requests awaiting a response
# TYPE datastore_http_requests_in_flight gauge
datastore_http_requests_in_flight 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"datastore_http_requests_total", "datastore_http_requests_in_flight"))
}

func TestCacheLookupResults(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	m, err := NewCacheMetrics(reg)
	require.NoError(t, err)

	m.RecordLookup(OpResidency, true)
	m.RecordLookup(OpResidency, false)
	m.RecordLookup(OpResidency, false)
	m.RecordInvalidation()
	m.UpdateItems(3)

	expected := `
# HELP cache_lookups_total Memo cache lookups by kind and result
# TYPE cache_lookups_total counter
cache_lookups_total{kind="residency",result="hit"} 1
cache_lookups_total{kind="residency",result="miss"} 2
# HELP cache_items Number of items held in the memo cache
# TYPE cache_items gauge
cache_items 3
# HELP cache_invalidations_total Number of full memo cache invalidations
# TYPE cache_invalidations_total counter
cache_invalidations_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"cache_lookups_total", "cache_items", "cache_invalidations_total"))
}

func TestAnalyticsOutliersIgnoresZero(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	m, err := NewAnalyticsMetrics(reg)
	require.NoError(t, err)

	m.AddOutliers(0)
	m.AddOutliers(2)
	assert.InDelta(t, 2, testutil.ToFloat64(m.outliersTotal), 1e-9)
}

func TestDuplicateRegistrationFails(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	_, err := NewHTTPMetrics(reg)
	require.NoError(t, err)
	_, err = NewHTTPMetrics(reg)
	require.Error(t, err)
}

func TestTestRecorder(t *testing.T) {
	t.Parallel()
	rec := NewTestRecorder()
	assert.False(t, rec.HasRecordedMetrics())

	rec.RecordOperation(OpSummary, StatusSuccess)
	rec.RecordDuration(OpSummary, 0.5)
	rec.RecordError(OpSummary, "empty-track")

	assert.True(t, rec.HasRecordedMetrics())
	assert.Equal(t, 1, rec.GetOperationCount(OpSummary, StatusSuccess))
	assert.Equal(t, []float64{0.5}, rec.GetDurations(OpSummary))
	assert.Equal(t, 1, rec.GetErrorCount(OpSummary, "empty-track"))

	rec.Reset()
	assert.False(t, rec.HasRecordedMetrics())
}
