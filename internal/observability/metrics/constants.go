// Package metrics provides constants used across metric definitions.
package metrics

import "time"

// Operation names recorded by the datastore, analytics and cache collectors.
const (
	OpLoad          = "load"
	OpVersion       = "version"
	OpFlagSpeeds    = "flag_speeds"
	OpResidency     = "residency"
	OpEfficiency    = "efficiency_curve"
	OpArrivals      = "arrival_histogram"
	OpSummary       = "summary"
	OpStationHits   = "station_hits"
	OpExport        = "export"
	OpDielPeriod    = "diel_period"
	OpCacheGet      = "cache_get"
	OpCacheSet      = "cache_set"
	OpCacheFlush    = "cache_flush"
	OpTableValidate = "table_validate"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusHit     = "hit"
	StatusMiss    = "miss"
)

// Histogram bucket configuration constants.
const (
	// BucketStart100us is the starting bucket for 0.1ms histograms (0.1ms to ~400ms range).
	BucketStart100us = 0.0001
	// BucketStart1ms is the starting bucket for 1ms histograms.
	BucketStart1ms = 0.001
	// BucketStart100B is the starting bucket for response size histograms (100B to ~100MB range).
	BucketStart100B = 100.0

	BucketFactor2  = 2
	BucketFactor10 = 10

	BucketCount6  = 6
	BucketCount12 = 12
	BucketCount15 = 15
)

// ShutdownTimeout is the timeout for graceful shutdown of the metrics endpoint.
const ShutdownTimeout = 5 * time.Second
