package analytics

import (
	"github.com/tphakala/tagtrack/internal/detection"
	"github.com/tphakala/tagtrack/internal/geo"
)

// DefaultSpeedThreshold is the speed in m/s above which a movement is flagged.
const DefaultSpeedThreshold = 5.0

// SpeedRecord is a detection annotated with the speed needed to reach it from the
// previous detection of the track.
type SpeedRecord struct {
	detection.Record
	// SpeedMS is nil for the first record and whenever the time step is not positive.
	SpeedMS *float64 `json:"speed_ms"`
}

// FlagSpeeds orders track by time and annotates every record with the great-circle speed
// from its predecessor, in metres per second.
func FlagSpeeds(track []detection.Record) ([]SpeedRecord, error) {
	if len(track) == 0 {
		return nil, emptyTrackError("flag_speeds")
	}

	sorted := detection.SortedCopy(track)
	out := make([]SpeedRecord, len(sorted))

	var prev *detection.Record
	for i := range sorted {
		cur := &sorted[i]
		out[i].Record = *cur
		if prev != nil {
			dt := cur.Timestamp.Sub(prev.Timestamp).Seconds()
			if dt > 0 {
				speed := geo.HaversineMeters(prev.Latitude, prev.Longitude, cur.Latitude, cur.Longitude) / dt
				out[i].SpeedMS = &speed
			}
		}
		prev = cur
	}
	return out, nil
}

// Outliers returns the records whose speed exceeds threshold, in track order.
func Outliers(records []SpeedRecord, threshold float64) []SpeedRecord {
	out := make([]SpeedRecord, 0)
	for _, r := range records {
		if r.SpeedMS != nil && *r.SpeedMS > threshold {
			out = append(out, r)
		}
	}
	return out
}

// DefinedSpeeds returns the non-nil speeds of records.
func DefinedSpeeds(records []SpeedRecord) []float64 {
	speeds := make([]float64, 0, len(records))
	for _, r := range records {
		if r.SpeedMS != nil {
			speeds = append(speeds, *r.SpeedMS)
		}
	}
	return speeds
}

func haversineKm(a, b detection.Record) float64 {
	return geo.HaversineKm(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}
