// Package detection provides the domain model for acoustic telemetry detections.
//
// A Record is one ping of a tagged animal heard by one receiver station. A Table is the
// immutable set of records loaded from a source; a Track is the time-ordered subset of
// records belonging to a single tag. Analytics operate on tracks and never mutate them.
package detection

import (
	"maps"
	"slices"
	"time"
)

// Canonical column names shared by loaders and exporters.
const (
	ColumnTimestamp      = "timestamp"
	ColumnDateCollected  = "datecollected"
	ColumnTagName        = "tagname"
	ColumnStation        = "station"
	ColumnLatitude       = "latitude"
	ColumnLongitude      = "longitude"
	ColumnScientificName = "scientificname"
	ColumnCommonName     = "commonname"
	ColumnSpeed          = "speed_ms"
)

// CanonicalColumns is the column order used when the source order is unknown.
var CanonicalColumns = []string{
	ColumnTimestamp,
	ColumnTagName,
	ColumnStation,
	ColumnLatitude,
	ColumnLongitude,
	ColumnScientificName,
	ColumnCommonName,
}

// IsCanonicalColumn reports whether name is one of CanonicalColumns.
func IsCanonicalColumn(name string) bool {
	return slices.Contains(CanonicalColumns, name)
}

// NormalizeColumns returns columns with the derived speed column dropped and any missing
// canonical column prepended in canonical order.
func NormalizeColumns(columns []string) []string {
	var missing []string
	for _, col := range CanonicalColumns {
		if !slices.Contains(columns, col) {
			missing = append(missing, col)
		}
	}
	out := make([]string, 0, len(missing)+len(columns))
	out = append(out, missing...)
	for _, col := range columns {
		if col != ColumnSpeed {
			out = append(out, col)
		}
	}
	return out
}

// Record is a single detection of a tag at a receiver station.
type Record struct {
	TagID          string    `json:"tagname"`
	Timestamp      time.Time `json:"timestamp"` // UTC
	StationID      string    `json:"station"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	ScientificName string    `json:"scientificname"`
	CommonName     string    `json:"commonname"`

	// Seq is the row position in the source and the tiebreak for equal timestamps.
	Seq int `json:"-"`

	// Extra holds input columns outside the canonical set so exports preserve them.
	Extra map[string]string `json:"extra,omitempty"`
}

// Clone returns a copy of r that shares nothing mutable with it.
func (r Record) Clone() Record {
	r.Extra = maps.Clone(r.Extra)
	return r
}

// Compare orders records by timestamp, then by Seq.
func Compare(a, b Record) int {
	if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
		return c
	}
	switch {
	case a.Seq < b.Seq:
		return -1
	case a.Seq > b.Seq:
		return 1
	default:
		return 0
	}
}

// SortChronological sorts records in place by (timestamp, Seq).
func SortChronological(records []Record) {
	slices.SortStableFunc(records, Compare)
}

// CloneAll deep-copies a record slice.
func CloneAll(records []Record) []Record {
	if records == nil {
		return nil
	}
	out := make([]Record, len(records))
	for i := range records {
		out[i] = records[i].Clone()
	}
	return out
}

// SortedCopy returns a chronologically sorted deep copy, leaving the input untouched.
func SortedCopy(records []Record) []Record {
	out := CloneAll(records)
	SortChronological(out)
	return out
}
