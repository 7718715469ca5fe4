package analytics

import (
	"cmp"
	"slices"

	"github.com/tphakala/tagtrack/internal/detection"
)

// StationHit is the number of detections a station logged for a track.
type StationHit struct {
	StationID string `json:"station"`
	Hits      int    `json:"hits"`
}

// StationHits returns per-station detection counts, fewest first, ties by station ID.
func StationHits(track []detection.Record) ([]StationHit, error) {
	if len(track) == 0 {
		return nil, emptyTrackError("station_hits")
	}

	counts := make(map[string]int)
	for i := range track {
		counts[track[i].StationID]++
	}

	hits := make([]StationHit, 0, len(counts))
	for station, n := range counts {
		hits = append(hits, StationHit{StationID: station, Hits: n})
	}
	slices.SortFunc(hits, func(a, b StationHit) int {
		if c := cmp.Compare(a.Hits, b.Hits); c != 0 {
			return c
		}
		return cmp.Compare(a.StationID, b.StationID)
	})
	return hits, nil
}

// TrackLengthKm sums the great-circle segments between consecutive detections.
func TrackLengthKm(track []detection.Record) float64 {
	sorted := detection.SortedCopy(track)
	total := 0.0
	for i := 1; i < len(sorted); i++ {
		total += haversineKm(sorted[i-1], sorted[i])
	}
	return total
}
