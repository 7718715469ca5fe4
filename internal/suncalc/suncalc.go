// Package suncalc classifies detection instants into diel periods using sun event times at the receiver.
package suncalc

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sj14/astral/pkg/astral"

	"github.com/tphakala/tagtrack/internal/errors"
	"github.com/tphakala/tagtrack/internal/observability/metrics"
)

// DielPeriod is the light regime at a detection instant.
type DielPeriod string

const (
	PeriodDay      DielPeriod = "day"
	PeriodTwilight DielPeriod = "twilight"
	PeriodNight    DielPeriod = "night"
	// PeriodUnknown is used when sun events do not exist, as in polar day or night.
	PeriodUnknown DielPeriod = "unknown"
)

// SunEventTimes holds the sun event times for one UTC date at one location, all in UTC
type SunEventTimes struct {
	CivilDawn time.Time
	Sunrise   time.Time
	Sunset    time.Time
	CivilDusk time.Time
}

// cacheKey identifies a location rounded to ~100 m and a UTC date
type cacheKey struct {
	lat, lon int64
	date     string
}

// SunCalc caches sun event calculations per station and date
type SunCalc struct {
	cache    map[cacheKey]SunEventTimes
	lock     sync.RWMutex
	recorder metrics.Recorder
}

// NewSunCalc creates a new SunCalc. A nil recorder disables metrics.
func NewSunCalc(recorder metrics.Recorder) *SunCalc {
	if recorder == nil {
		recorder = metrics.NewNoOpRecorder()
	}
	return &SunCalc{
		cache:    make(map[cacheKey]SunEventTimes),
		recorder: recorder,
	}
}

func keyFor(lat, lon float64, date time.Time) cacheKey {
	return cacheKey{
		lat:  int64(math.Round(lat * 1000)),
		lon:  int64(math.Round(lon * 1000)),
		date: date.UTC().Format(time.DateOnly),
	}
}

// GetSunEventTimes returns the sun event times for the UTC date of date, using cache if available
func (sc *SunCalc) GetSunEventTimes(lat, lon float64, date time.Time) (SunEventTimes, error) {
	key := keyFor(lat, lon, date)

	sc.lock.RLock()
	entry, exists := sc.cache[key]
	sc.lock.RUnlock()
	if exists {
		return entry, nil
	}

	times, err := calculateSunEventTimes(lat, lon, date)
	if err != nil {
		sc.recorder.RecordError(metrics.OpDielPeriod, "astral")
		return SunEventTimes{}, err
	}

	sc.lock.Lock()
	sc.cache[key] = times
	sc.lock.Unlock()

	return times, nil
}

func calculateSunEventTimes(lat, lon float64, date time.Time) (SunEventTimes, error) {
	observer := astral.Observer{Latitude: lat, Longitude: lon}
	day := time.Date(date.UTC().Year(), date.UTC().Month(), date.UTC().Day(), 0, 0, 0, 0, time.UTC)

	var times SunEventTimes
	var errs []error

	// Near the poles single events do not occur; keep the ones that do and leave the rest zero.
	if t, err := astral.Dawn(observer, day, astral.DepressionCivil); err == nil {
		times.CivilDawn = t.UTC()
	} else {
		errs = append(errs, fmt.Errorf("civil dawn: %w", err))
	}
	if t, err := astral.Sunrise(observer, day); err == nil {
		times.Sunrise = t.UTC()
	} else {
		errs = append(errs, fmt.Errorf("sunrise: %w", err))
	}
	if t, err := astral.Sunset(observer, day); err == nil {
		times.Sunset = t.UTC()
	} else {
		errs = append(errs, fmt.Errorf("sunset: %w", err))
	}
	if t, err := astral.Dusk(observer, day, astral.DepressionCivil); err == nil {
		times.CivilDusk = t.UTC()
	} else {
		errs = append(errs, fmt.Errorf("civil dusk: %w", err))
	}

	if len(errs) == 4 {
		return SunEventTimes{}, fmt.Errorf("no sun events on %s: %w", day.Format(time.DateOnly), errors.Join(errs...))
	}
	return times, nil
}

type sunEvent struct {
	at     time.Time
	period DielPeriod // period that begins at this event
}

// Classify returns the diel period of instant t at the given coordinates.
//
// The most recent sun event at or before t decides: sunrise starts day, sunset and civil
// dawn start twilight, civil dusk starts night. Events from two UTC dates either side of t
// are considered so the result does not depend on which date an event is attributed to.
func (sc *SunCalc) Classify(lat, lon float64, t time.Time) DielPeriod {
	start := time.Now()
	t = t.UTC()

	var events []sunEvent
	for offset := -2; offset <= 2; offset++ {
		times, err := sc.GetSunEventTimes(lat, lon, t.AddDate(0, 0, offset))
		if err != nil {
			continue
		}
		events = appendEvent(events, times.CivilDawn, PeriodTwilight)
		events = appendEvent(events, times.Sunrise, PeriodDay)
		events = appendEvent(events, times.Sunset, PeriodTwilight)
		events = appendEvent(events, times.CivilDusk, PeriodNight)
	}

	period := PeriodUnknown
	var latest time.Time
	for _, e := range events {
		if e.at.After(t) {
			continue
		}
		if latest.IsZero() || !e.at.Before(latest) {
			latest = e.at
			period = e.period
		}
	}

	sc.record(start, period)
	return period
}

func appendEvent(events []sunEvent, at time.Time, period DielPeriod) []sunEvent {
	if at.IsZero() {
		return events
	}
	return append(events, sunEvent{at: at, period: period})
}

func (sc *SunCalc) record(start time.Time, period DielPeriod) {
	sc.recorder.RecordOperation(metrics.OpDielPeriod, string(period))
	sc.recorder.RecordDuration(metrics.OpDielPeriod, time.Since(start).Seconds())
}
