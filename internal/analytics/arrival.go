package analytics

import (
	"cmp"
	"slices"
	"time"

	"github.com/tphakala/tagtrack/internal/detection"
	"github.com/tphakala/tagtrack/internal/suncalc"
)

// Arrival is the first detection of a tag on a matching station.
type Arrival struct {
	TagID      string             `json:"tagname"`
	StationID  string             `json:"station"`
	Timestamp  time.Time          `json:"timestamp"`
	Hour       int                `json:"hour"` // UTC
	Latitude   float64            `json:"latitude"`
	Longitude  float64            `json:"longitude"`
	DielPeriod suncalc.DielPeriod `json:"diel_period,omitempty"`
}

// Histogram counts arrivals per UTC hour of day.
type Histogram struct {
	Counts   [24]int                    `json:"counts"`
	Arrivals []Arrival                  `json:"arrivals"`
	Diel     map[suncalc.DielPeriod]int `json:"diel,omitempty"`
}

// Total returns the number of tags that arrived.
func (h Histogram) Total() int {
	return len(h.Arrivals)
}

// DielClassifier assigns a diel period to an instant at a position.
type DielClassifier interface {
	Classify(lat, lon float64, t time.Time) suncalc.DielPeriod
}

// ArrivalOption configures ArrivalHistogram.
type ArrivalOption func(*arrivalOptions)

type arrivalOptions struct {
	diel DielClassifier
}

// WithDielClassifier annotates each arrival with the diel period at its station.
func WithDielClassifier(c DielClassifier) ArrivalOption {
	return func(o *arrivalOptions) {
		o.diel = c
	}
}

// ArrivalHistogram finds, for every tag in records, the earliest detection whose station
// matches pattern and buckets it by UTC hour. Tags never seen on a matching station
// are left out. Arrivals are listed by tag ID.
func ArrivalHistogram(records []detection.Record, pattern string, opts ...ArrivalOption) (Histogram, error) {
	var o arrivalOptions
	for _, opt := range opts {
		opt(&o)
	}

	re, err := CompilePattern(pattern)
	if err != nil {
		return Histogram{}, err
	}

	first := make(map[string]detection.Record)
	for _, r := range records {
		if !re.MatchString(r.StationID) {
			continue
		}
		if prev, ok := first[r.TagID]; !ok || detection.Compare(r, prev) < 0 {
			first[r.TagID] = r
		}
	}

	h := Histogram{Arrivals: make([]Arrival, 0, len(first))}
	if o.diel != nil {
		h.Diel = make(map[suncalc.DielPeriod]int)
	}
	for _, r := range first {
		ts := r.Timestamp.UTC()
		a := Arrival{
			TagID:     r.TagID,
			StationID: r.StationID,
			Timestamp: ts,
			Hour:      ts.Hour(),
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
		}
		if o.diel != nil {
			a.DielPeriod = o.diel.Classify(r.Latitude, r.Longitude, ts)
			h.Diel[a.DielPeriod]++
		}
		h.Counts[a.Hour]++
		h.Arrivals = append(h.Arrivals, a)
	}
	slices.SortFunc(h.Arrivals, func(a, b Arrival) int {
		return cmp.Compare(a.TagID, b.TagID)
	})
	return h, nil
}
