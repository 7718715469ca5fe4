// Package datastore loads detection tables from CSV files, HTTP URLs and SQL databases,
// and caches the loaded table per source version.
package datastore

import (
	"fmt"

	"github.com/tphakala/tagtrack/internal/errors"
)

// ErrDataLoad is matched by every error returned when a source is missing, unreadable
// or malformed.
var ErrDataLoad = errors.NewStd("detection data could not be loaded")

// newLoadError starts an error that matches ErrDataLoad and carries the data-load category.
// Sources add their file or network context before building it.
func newLoadError(err error, operation string) *errors.ErrorBuilder {
	return errors.New(fmt.Errorf("%w: %w", ErrDataLoad, err)).
		Component("datastore").
		Category(errors.CategoryDataLoad).
		Context("operation", operation)
}

// loadError wraps err so that it matches ErrDataLoad, adding context as key/value pairs.
func loadError(err error, operation string, context ...any) error {
	builder := newLoadError(err, operation)
	for i := 0; i < len(context)-1; i += 2 {
		if key, ok := context[i].(string); ok {
			builder = builder.Context(key, context[i+1])
		}
	}
	return builder.Build()
}

// loadErrorf is loadError for errors without an underlying cause.
func loadErrorf(operation, format string, args ...any) error {
	return loadError(fmt.Errorf(format, args...), operation)
}
