package datastore

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/tphakala/tagtrack/internal/detection"
	"github.com/tphakala/tagtrack/internal/geo"
)

// ParseOptions controls how a tabular source is mapped onto detection records.
type ParseOptions struct {
	// TimestampColumn names the collection timestamp column. A column named
	// "timestamp" is used when this one is absent.
	TimestampColumn string
}

// DefaultParseOptions reads the collection time from datecollected.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{TimestampColumn: detection.ColumnDateCollected}
}

// Accepted timestamp layouts, tried in order. Layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999 -0700",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses a collection timestamp into a UTC instant.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// requiredColumns lists the columns every source must provide besides the timestamp.
var requiredColumns = []string{
	detection.ColumnTagName,
	detection.ColumnStation,
	detection.ColumnLatitude,
	detection.ColumnLongitude,
	detection.ColumnScientificName,
	detection.ColumnCommonName,
}

// columnLayout maps header names to row positions.
type columnLayout struct {
	index     map[string]int
	timestamp int
	columns   []string // output order, collection time renamed to timestamp
	extras    []string
	extraIdx  []int
}

func newColumnLayout(header []string, opts ParseOptions) (*columnLayout, error) {
	l := &columnLayout{index: make(map[string]int, len(header))}
	names := make([]string, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		names[i] = name
		if _, dup := l.index[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		l.index[name] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := l.index[col]; !ok {
			missing = append(missing, col)
		}
	}

	tsColumn := opts.TimestampColumn
	if tsColumn == "" {
		tsColumn = detection.ColumnDateCollected
	}
	if idx, ok := l.index[tsColumn]; ok {
		l.timestamp = idx
	} else if idx, ok := l.index[detection.ColumnTimestamp]; ok {
		tsColumn = detection.ColumnTimestamp
		l.timestamp = idx
	} else {
		missing = append(missing, tsColumn)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	// Everything else is carried through to export, in input order. The derived speed
	// column is regenerated on export.
	for i, name := range names {
		switch {
		case name == tsColumn:
			l.columns = append(l.columns, detection.ColumnTimestamp)
		case name == detection.ColumnTimestamp || name == detection.ColumnSpeed:
		case slices.Contains(requiredColumns, name):
			l.columns = append(l.columns, name)
		default:
			l.columns = append(l.columns, name)
			l.extras = append(l.extras, name)
			l.extraIdx = append(l.extraIdx, i)
		}
	}
	return l, nil
}

func (l *columnLayout) field(row []string, column string) string {
	idx := l.index[column]
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}

// record converts one row; line is 1-based for error messages.
func (l *columnLayout) record(row []string, seq, line int) (detection.Record, error) {
	if l.timestamp >= len(row) {
		return detection.Record{}, fmt.Errorf("line %d: expected %d fields, got %d", line, len(l.index), len(row))
	}
	ts, err := ParseTimestamp(row[l.timestamp])
	if err != nil {
		return detection.Record{}, fmt.Errorf("line %d: %w", line, err)
	}

	lat, err := parseCoordinate(l.field(row, detection.ColumnLatitude))
	if err != nil {
		return detection.Record{}, fmt.Errorf("line %d: latitude: %w", line, err)
	}
	lon, err := parseCoordinate(l.field(row, detection.ColumnLongitude))
	if err != nil {
		return detection.Record{}, fmt.Errorf("line %d: longitude: %w", line, err)
	}
	if !geo.ValidCoordinate(lat, lon) {
		return detection.Record{}, fmt.Errorf("line %d: coordinate %g,%g out of range", line, lat, lon)
	}

	rec := detection.Record{
		TagID:          l.field(row, detection.ColumnTagName),
		Timestamp:      ts,
		StationID:      l.field(row, detection.ColumnStation),
		Latitude:       lat,
		Longitude:      lon,
		ScientificName: l.field(row, detection.ColumnScientificName),
		CommonName:     l.field(row, detection.ColumnCommonName),
		Seq:            seq,
	}
	if len(l.extras) > 0 {
		rec.Extra = make(map[string]string, len(l.extras))
		for i, name := range l.extras {
			if idx := l.extraIdx[i]; idx < len(row) {
				rec.Extra[name] = row[idx]
			} else {
				rec.Extra[name] = ""
			}
		}
	}
	return rec, nil
}

func parseCoordinate(value string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", value)
	}
	return f, nil
}

// ParseCSV reads a CSV detection table with a header row.
func ParseCSV(r io.Reader, opts ParseOptions) (*detection.Table, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty input: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	layout, err := newColumnLayout(slices.Clone(header), opts)
	if err != nil {
		return nil, err
	}

	var records []detection.Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}
		rec, err := layout.record(row, len(records), line)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return detection.NewTable(records, layout.columns), nil
}
