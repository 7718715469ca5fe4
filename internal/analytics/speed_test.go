package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/tagtrack/internal/detection"
	"github.com/tphakala/tagtrack/internal/errors"
	"github.com/tphakala/tagtrack/internal/geo"
)

func TestFlagSpeeds_OneHourHop(t *testing.T) {
	t.Parallel()

	track := []detection.Record{
		rec("T1", "A", 44.0, -63.0, 0, 0),
		rec("T1", "A", 44.01, -63.0, time.Hour, 1),
	}

	out, err := FlagSpeeds(track)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Nil(t, out[0].SpeedMS)
	require.NotNil(t, out[1].SpeedMS)
	want := geo.HaversineMeters(44.0, -63.0, 44.01, -63.0) / 3600
	assert.InDelta(t, want, *out[1].SpeedMS, 1e-12)
	assert.InDelta(t, 0.3089, *out[1].SpeedMS, 1e-3)
}

func TestFlagSpeeds_NonPositiveStepIsUndefined(t *testing.T) {
	t.Parallel()

	track := []detection.Record{
		rec("T1", "A", 44.0, -63.0, 0, 0),
		rec("T1", "B", 44.5, -63.0, 0, 1), // same instant, different place
		rec("T1", "B", 44.5, -63.0, time.Hour, 2),
	}

	out, err := FlagSpeeds(track)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Nil(t, out[0].SpeedMS)
	assert.Nil(t, out[1].SpeedMS, "dt == 0 must not yield Inf")
	require.NotNil(t, out[2].SpeedMS)
	assert.Zero(t, *out[2].SpeedMS)

	for _, r := range out {
		if r.SpeedMS != nil {
			assert.False(t, math.IsInf(*r.SpeedMS, 0))
			assert.GreaterOrEqual(t, *r.SpeedMS, 0.0)
		}
	}
}

func TestFlagSpeeds_SortsCopyStably(t *testing.T) {
	t.Parallel()

	track := []detection.Record{
		rec("T1", "C", 44.2, -63.0, 2*time.Hour, 0),
		rec("T1", "A", 44.0, -63.0, 0, 1),
		rec("T1", "B2", 44.1, -63.0, time.Hour, 3),
		rec("T1", "B1", 44.1, -63.0, time.Hour, 2),
	}
	original := detection.CloneAll(track)

	out, err := FlagSpeeds(track)
	require.NoError(t, err)

	got := make([]string, len(out))
	for i, r := range out {
		got[i] = r.StationID
	}
	assert.Equal(t, []string{"A", "B1", "B2", "C"}, got, "equal timestamps keep row order")
	assert.Equal(t, original, track, "input must not be reordered")
	assert.Len(t, out, len(track))
	assert.Nil(t, out[0].SpeedMS)
}

func TestFlagSpeeds_Empty(t *testing.T) {
	t.Parallel()

	_, err := FlagSpeeds(nil)
	require.ErrorIs(t, err, ErrEmptyTrack)
	assert.True(t, errors.IsCategory(err, errors.CategoryEmptyTrack))
}

func TestOutliers(t *testing.T) {
	t.Parallel()

	track := []detection.Record{
		rec("T1", "A", 44.0, -63.0, 0, 0),
		rec("T1", "B", 44.01, -63.0, time.Hour, 1),            // ~0.3 m/s
		rec("T1", "C", 44.5, -63.0, time.Hour+time.Minute, 2), // ~900 m/s
	}
	out, err := FlagSpeeds(track)
	require.NoError(t, err)

	outliers := Outliers(out, DefaultSpeedThreshold)
	require.Len(t, outliers, 1)
	assert.Equal(t, "C", outliers[0].StationID)

	assert.Empty(t, Outliers(out, 1e6))
	assert.NotNil(t, Outliers(nil, DefaultSpeedThreshold), "no outliers is an empty list")
	assert.Len(t, DefinedSpeeds(out), 2)
}
