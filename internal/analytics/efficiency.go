package analytics

import (
	"fmt"
	"slices"

	"github.com/tphakala/tagtrack/internal/detection"
	"github.com/tphakala/tagtrack/internal/errors"
	"github.com/tphakala/tagtrack/internal/geo"
)

// EfficiencyBin is one receiver station on the efficiency curve.
type EfficiencyBin struct {
	StationID  string  `json:"station"`
	Hits       int     `json:"hits"`
	Latitude   float64 `json:"latitude"`  // first observed
	Longitude  float64 `json:"longitude"` // first observed
	DistanceKm float64 `json:"distance_km"`
	Efficiency float64 `json:"efficiency"`
}

// Curve is detection efficiency against distance from the best receiver.
type Curve struct {
	Bins             []EfficiencyBin `json:"bins"`
	ReferenceStation string          `json:"reference_station"`
	D50              float64         `json:"d50_km"`
	Degenerate       bool            `json:"degenerate"`
}

// EfficiencyCurve groups track by station, measures each station's distance from the
// station with the most hits and interpolates the distance where efficiency falls to 0.5.
//
// With fewer than two stations the returned curve is complete, D50 is 0 and the error
// matches ErrDegenerateCurve. Callers that can use a degenerate curve should check for
// that error rather than discard the result.
func EfficiencyCurve(track []detection.Record) (Curve, error) {
	if len(track) == 0 {
		return Curve{}, emptyTrackError("efficiency_curve")
	}

	sorted := detection.SortedCopy(track)

	// group in first-encountered order
	index := make(map[string]int)
	var bins []EfficiencyBin
	for i := range sorted {
		r := &sorted[i]
		if j, ok := index[r.StationID]; ok {
			bins[j].Hits++
			continue
		}
		index[r.StationID] = len(bins)
		bins = append(bins, EfficiencyBin{
			StationID: r.StationID,
			Hits:      1,
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
		})
	}

	// strict > keeps the first-encountered station on ties
	ref := bins[0]
	for _, b := range bins[1:] {
		if b.Hits > ref.Hits {
			ref = b
		}
	}

	for i := range bins {
		b := &bins[i]
		b.DistanceKm = geo.HaversineKm(ref.Latitude, ref.Longitude, b.Latitude, b.Longitude)
		b.Efficiency = float64(b.Hits) / float64(ref.Hits)
	}
	slices.SortStableFunc(bins, func(a, b EfficiencyBin) int {
		switch {
		case a.DistanceKm < b.DistanceKm:
			return -1
		case a.DistanceKm > b.DistanceKm:
			return 1
		}
		return 0
	})

	curve := Curve{Bins: bins, ReferenceStation: ref.StationID}

	if len(bins) < 2 {
		curve.Degenerate = true
		return curve, errors.New(fmt.Errorf("%w: %d station(s)", ErrDegenerateCurve, len(bins))).
			Component("analytics").
			Category(errors.CategoryDegenerateCurve).
			Context("stations", len(bins)).
			Build()
	}

	// interpolate with efficiency as x, which needs it increasing: walk the bins backwards
	eff := make([]float64, len(bins))
	dist := make([]float64, len(bins))
	for i, b := range bins {
		k := len(bins) - 1 - i
		eff[k] = b.Efficiency
		dist[k] = b.DistanceKm
	}
	d50, err := Interp(0.5, eff, dist)
	if err != nil {
		return curve, err
	}
	curve.D50 = d50
	return curve, nil
}
