package analytics

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/tphakala/tagtrack/internal/detection"
	"github.com/tphakala/tagtrack/internal/errors"
)

// SummaryOptions configures Summarize. Zero fields take defaults.
type SummaryOptions struct {
	ResidencyPattern string
	SpeedThreshold   float64
	// Now is the reference time for "since last detection", time.Now when nil.
	Now func() time.Time
}

func (o SummaryOptions) withDefaults() SummaryOptions {
	if o.ResidencyPattern == "" {
		o.ResidencyPattern = DefaultResidencyPattern
	}
	if o.SpeedThreshold <= 0 {
		o.SpeedThreshold = DefaultSpeedThreshold
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// SpeedStats describes the defined speeds of a track in m/s.
type SpeedStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
	Max    float64 `json:"max"`
}

// Summary holds the headline figures of one track.
type Summary struct {
	TagID            string     `json:"tagname"`
	CommonName       string     `json:"commonname"`
	ScientificName   string     `json:"scientificname"`
	Detections       int        `json:"detections"`
	Stations         int        `json:"stations"`
	FirstDetection   time.Time  `json:"first_detection"`
	LastDetection    time.Time  `json:"last_detection"`
	LastStation      string     `json:"last_station"`
	HoursSinceLast   float64    `json:"hours_since_last"`
	DaysSinceLast    float64    `json:"days_since_last"`
	Residency        float64    `json:"residency"`
	ResidencyPattern string     `json:"residency_pattern"`
	D50Km            float64    `json:"d50_km"`
	DegenerateCurve  bool       `json:"degenerate_curve"`
	TrackLengthKm    float64    `json:"track_length_km"`
	Speed            SpeedStats `json:"speed"`
	SpeedThreshold   float64    `json:"speed_threshold"`
	Outliers         int        `json:"outliers"`
	Narrative        string     `json:"narrative"`
}

// Summarize computes the dashboard KPIs of a single track.
//
// A degenerate efficiency curve does not fail the summary; it is reported through
// DegenerateCurve with D50Km 0.
func Summarize(track []detection.Record, opts SummaryOptions) (Summary, error) {
	opts = opts.withDefaults()
	if len(track) == 0 {
		return Summary{}, emptyTrackError("summary")
	}

	sorted := detection.SortedCopy(track)
	first, last := sorted[0], sorted[len(sorted)-1]

	residency, err := Residency(sorted, opts.ResidencyPattern)
	if err != nil {
		return Summary{}, err
	}

	curve, err := EfficiencyCurve(sorted)
	if err != nil && !errors.Is(err, ErrDegenerateCurve) {
		return Summary{}, err
	}

	speeds, err := FlagSpeeds(sorted)
	if err != nil {
		return Summary{}, err
	}
	outliers := Outliers(speeds, opts.SpeedThreshold)

	since := opts.Now().Sub(last.Timestamp)

	s := Summary{
		TagID:            first.TagID,
		CommonName:       first.CommonName,
		ScientificName:   first.ScientificName,
		Detections:       len(sorted),
		Stations:         len(curve.Bins),
		FirstDetection:   first.Timestamp,
		LastDetection:    last.Timestamp,
		LastStation:      last.StationID,
		HoursSinceLast:   since.Hours(),
		DaysSinceLast:    since.Hours() / 24,
		Residency:        residency,
		ResidencyPattern: opts.ResidencyPattern,
		D50Km:            curve.D50,
		DegenerateCurve:  curve.Degenerate,
		TrackLengthKm:    TrackLengthKm(sorted),
		Speed:            speedStats(DefinedSpeeds(speeds)),
		SpeedThreshold:   opts.SpeedThreshold,
		Outliers:         len(outliers),
	}
	s.Narrative = Narrative(s)
	return s, nil
}

// Narrative renders the one-line status shown under a track.
func Narrative(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Last ping %.1f h ago at %s. Residency %.1f %%, D-50 %.2f km. ",
		s.HoursSinceLast, s.LastStation, s.Residency, s.D50Km)
	if s.Outliers > 0 {
		b.WriteString("⚠ Speed outliers present.")
	} else {
		b.WriteString("No QC flags.")
	}
	return b.String()
}

func speedStats(speeds []float64) SpeedStats {
	if len(speeds) == 0 {
		return SpeedStats{}
	}
	data := stats.Float64Data(speeds)
	out := SpeedStats{Count: len(speeds)}
	// stats only fails on empty input, which is excluded above
	out.Mean, _ = data.Mean()
	out.Median, _ = data.Median()
	out.P95, _ = data.Percentile(95)
	out.Max, _ = data.Max()
	if math.IsNaN(out.P95) {
		out.P95 = out.Max
	}
	return out
}
