package analytics

import (
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/tphakala/tagtrack/internal/detection"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var t0 = time.Date(2023, 6, 21, 12, 0, 0, 0, time.UTC)

// rec builds a blue shark detection offset from t0; seq doubles as the row index.
func rec(tag, station string, lat, lon float64, offset time.Duration, seq int) detection.Record {
	return detection.Record{
		TagID:          tag,
		Timestamp:      t0.Add(offset),
		StationID:      station,
		Latitude:       lat,
		Longitude:      lon,
		ScientificName: "Prionace glauca",
		CommonName:     "blue shark",
		Seq:            seq,
	}
}

// repeat returns n detections of tag at one station, one minute apart.
func repeat(tag, station string, lat, lon float64, n, seqStart int) []detection.Record {
	out := make([]detection.Record, n)
	for i := range out {
		out[i] = rec(tag, station, lat, lon, time.Duration(seqStart+i)*time.Minute, seqStart+i)
	}
	return out
}
