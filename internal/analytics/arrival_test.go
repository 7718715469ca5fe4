package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/tagtrack/internal/detection"
	"github.com/tphakala/tagtrack/internal/suncalc"
)

// hourClassifier calls hours 6-17 UTC day and everything else night.
type hourClassifier struct{}

func (hourClassifier) Classify(_, _ float64, t time.Time) suncalc.DielPeriod {
	if h := t.Hour(); h >= 6 && h < 18 {
		return suncalc.PeriodDay
	}
	return suncalc.PeriodNight
}

func arrivalRecords() []detection.Record {
	return []detection.Record{
		// T1 reaches the line at 14:00 after an earlier off-line ping
		rec("T1", "CBS001", 45.0, -60.0, -10*time.Hour, 0),
		rec("T1", "HFX010", 44.0, -63.0, 3*time.Hour, 1),
		rec("T1", "HFX011", 44.0, -63.0, 2*time.Hour, 2), // earlier, listed later
		// T2 arrives at 03:30 next day
		rec("T2", "hfx020", 44.0, -63.0, 15*time.Hour+30*time.Minute, 3),
		rec("T2", "HFX020", 44.0, -63.0, 20*time.Hour, 4),
		// T3 never reaches the line
		rec("T3", "CBS002", 45.0, -60.0, time.Hour, 5),
		// T4 arrives at 14:00
		rec("T4", "HFX001", 44.0, -63.0, 2*time.Hour, 6),
	}
}

func TestArrivalHistogram(t *testing.T) {
	t.Parallel()

	h, err := ArrivalHistogram(arrivalRecords(), "HFX")
	require.NoError(t, err)

	assert.Equal(t, 3, h.Total(), "T3 excluded")
	require.Len(t, h.Arrivals, 3)

	assert.Equal(t, "T1", h.Arrivals[0].TagID)
	assert.Equal(t, "HFX011", h.Arrivals[0].StationID)
	assert.Equal(t, 14, h.Arrivals[0].Hour)

	assert.Equal(t, "T2", h.Arrivals[1].TagID)
	assert.Equal(t, 3, h.Arrivals[1].Hour)

	assert.Equal(t, "T4", h.Arrivals[2].TagID)

	var want [24]int
	want[14] = 2
	want[3] = 1
	assert.Equal(t, want, h.Counts)
	assert.Nil(t, h.Diel)
	assert.Empty(t, h.Arrivals[0].DielPeriod)
}

func TestArrivalHistogram_TiesUseRowOrder(t *testing.T) {
	t.Parallel()

	records := []detection.Record{
		rec("T1", "HFX002", 44.0, -63.0, time.Hour, 5),
		rec("T1", "HFX001", 44.0, -63.0, time.Hour, 2),
	}
	h, err := ArrivalHistogram(records, "hfx")
	require.NoError(t, err)
	require.Len(t, h.Arrivals, 1)
	assert.Equal(t, "HFX001", h.Arrivals[0].StationID)
}

func TestArrivalHistogram_DielPeriods(t *testing.T) {
	t.Parallel()

	h, err := ArrivalHistogram(arrivalRecords(), "HFX", WithDielClassifier(hourClassifier{}))
	require.NoError(t, err)

	assert.Equal(t, suncalc.PeriodDay, h.Arrivals[0].DielPeriod)
	assert.Equal(t, suncalc.PeriodNight, h.Arrivals[1].DielPeriod)
	assert.Equal(t, map[suncalc.DielPeriod]int{suncalc.PeriodDay: 2, suncalc.PeriodNight: 1}, h.Diel)
}

func TestArrivalHistogram_NoMatchesAndBadPattern(t *testing.T) {
	t.Parallel()

	h, err := ArrivalHistogram(arrivalRecords(), "SABLE")
	require.NoError(t, err)
	assert.Zero(t, h.Total())
	assert.Equal(t, [24]int{}, h.Counts)

	h, err = ArrivalHistogram(nil, "HFX")
	require.NoError(t, err)
	assert.Zero(t, h.Total())

	_, err = ArrivalHistogram(arrivalRecords(), "[")
	require.Error(t, err)
}
