// Package export writes annotated detection tracks as CSV in the input schema plus speed_ms.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/tphakala/tagtrack/internal/analytics"
	"github.com/tphakala/tagtrack/internal/detection"
)

// Header returns the column order written by WriteCSV: the source columns, with any
// missing canonical column first, followed by speed_ms.
func Header(columns []string) []string {
	return append(detection.NormalizeColumns(columns), detection.ColumnSpeed)
}

// WriteCSV writes records with a header row in the order of columns, normally the
// loaded table's Columns. Timestamps are RFC 3339 UTC with nanoseconds, floats use the
// shortest representation that parses back to the same value, and undefined speeds are
// empty cells.
func WriteCSV(w io.Writer, records []analytics.SpeedRecord, columns []string) error {
	header := Header(columns)
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	row := make([]string, len(header))
	for i := range records {
		for j, col := range header {
			row[j] = field(&records[i], col)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing record %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func field(r *analytics.SpeedRecord, column string) string {
	switch column {
	case detection.ColumnTimestamp:
		return r.Timestamp.UTC().Format(time.RFC3339Nano)
	case detection.ColumnTagName:
		return r.TagID
	case detection.ColumnStation:
		return r.StationID
	case detection.ColumnLatitude:
		return formatFloat(r.Latitude)
	case detection.ColumnLongitude:
		return formatFloat(r.Longitude)
	case detection.ColumnScientificName:
		return r.ScientificName
	case detection.ColumnCommonName:
		return r.CommonName
	case detection.ColumnSpeed:
		if r.SpeedMS == nil {
			return ""
		}
		return formatFloat(*r.SpeedMS)
	default:
		return r.Extra[column]
	}
}

// FileName is the download name for a tag's export.
func FileName(tagID string) string {
	return tagID + "_detections.csv"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
