// Package analytics computes telemetry metrics over detection tracks: inter-detection
// speeds and outliers, residency, the detection-efficiency curve with its D-50 range,
// arrival-hour distribution and per-track summaries.
//
// Every function works on a copy of its input and leaves the caller's slice untouched.
package analytics

import (
	"fmt"

	"github.com/tphakala/tagtrack/internal/errors"
)

var (
	// ErrEmptyTrack is returned when an analytic is invoked on zero records.
	ErrEmptyTrack = errors.NewStd("track has no detections")

	// ErrDegenerateCurve is returned with an efficiency curve built from fewer than two stations.
	ErrDegenerateCurve = errors.NewStd("efficiency curve needs at least two stations")
)

func emptyTrackError(operation string) error {
	return errors.New(ErrEmptyTrack).
		Component("analytics").
		Category(errors.CategoryEmptyTrack).
		Context("operation", operation).
		Build()
}

func patternError(pattern string, err error) error {
	return errors.New(fmt.Errorf("invalid station pattern %q: %w", pattern, err)).
		Component("analytics").
		Category(errors.CategoryValidation).
		Context("pattern", pattern).
		Build()
}
