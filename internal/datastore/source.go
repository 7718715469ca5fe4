package datastore

import (
	"context"

	"github.com/tphakala/tagtrack/internal/detection"
)

// Source is a read-only provider of detection tables.
type Source interface {
	// Name identifies the source kind in logs and metrics: csv, http, sqlite or mysql.
	Name() string
	// Version returns an identifier that changes whenever the underlying data changes.
	Version(ctx context.Context) (string, error)
	// Load reads the full table and returns it together with the version it was read at.
	Load(ctx context.Context) (*detection.Table, string, error)
	// Close releases connections held by the source.
	Close() error
}
