// Package metrics provides Prometheus collectors for the tagtrack service.
package metrics

// Recorder defines a minimal interface for recording metrics.
// Components depend on it rather than on a concrete collector.
type Recorder interface {
	// RecordOperation records an operation ("load", "residency") with its status ("success", "error").
	RecordOperation(operation, status string)

	// RecordDuration records the duration of an operation in seconds.
	RecordDuration(operation string, seconds float64)

	// RecordError records an error occurrence with its type, usually an error category.
	RecordError(operation, errorType string)
}

// NoOpRecorder is a no-op implementation of the Recorder interface.
type NoOpRecorder struct{}

func (n *NoOpRecorder) RecordOperation(operation, status string)         {}
func (n *NoOpRecorder) RecordDuration(operation string, seconds float64) {}
func (n *NoOpRecorder) RecordError(operation, errorType string)          {}

// NewNoOpRecorder creates a new no-op recorder instance.
func NewNoOpRecorder() *NoOpRecorder {
	return &NoOpRecorder{}
}
