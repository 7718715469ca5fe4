package detection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var t0 = time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)

func rec(tag, station string, offset time.Duration, seq int) Record {
	return Record{
		TagID:          tag,
		Timestamp:      t0.Add(offset),
		StationID:      station,
		Latitude:       44.0,
		Longitude:      -63.0,
		ScientificName: "Prionace glauca",
		CommonName:     "blue shark",
		Seq:            seq,
	}
}

func TestTrackSortsByTimestampThenSeq(t *testing.T) {
	t.Parallel()

	table := NewTable([]Record{
		rec("A", "HFX001", 2*time.Hour, 0),
		rec("B", "HFX002", 0, 1),
		rec("A", "HFX003", time.Hour, 2),
		rec("A", "HFX004", time.Hour, 3),
		rec("A", "HFX005", 0, 4),
	}, nil)

	track := table.Track("A")
	require.Len(t, track, 4)
	stations := make([]string, len(track))
	for i, r := range track {
		stations[i] = r.StationID
	}
	assert.Equal(t, []string{"HFX005", "HFX003", "HFX004", "HFX001"}, stations)
}

func TestTrackReturnsCopy(t *testing.T) {
	t.Parallel()

	r := rec("A", "HFX001", 0, 0)
	r.Extra = map[string]string{"receiver": "VR2W-1"}
	table := NewTable([]Record{r}, []string{"receiver"})

	track := table.Track("A")
	track[0].StationID = "mutated"
	track[0].Extra["receiver"] = "mutated"

	again := table.Track("A")
	assert.Equal(t, "HFX001", again[0].StationID)
	assert.Equal(t, "VR2W-1", again[0].Extra["receiver"])
}

func TestUnknownTagIsEmpty(t *testing.T) {
	t.Parallel()

	table := NewTable(nil, nil)
	assert.Equal(t, 0, table.Len())
	assert.False(t, table.HasTag("X"))
	track := table.Track("X")
	assert.NotNil(t, track)
	assert.Empty(t, track)
	assert.Empty(t, table.Tags())
}

func TestTagsAndInfos(t *testing.T) {
	t.Parallel()

	table := NewTable([]Record{
		rec("B", "S1", 0, 0),
		rec("A", "S1", 0, 1),
		rec("B", "S2", time.Minute, 2),
	}, []string{"z", "a"})

	assert.Equal(t, []string{"A", "B"}, table.Tags())
	assert.Equal(t, []string{"z", "a"}, table.ExtraColumns())

	infos := table.TagInfos()
	require.Len(t, infos, 2)
	assert.Equal(t, TagInfo{TagID: "A", CommonName: "blue shark", ScientificName: "Prionace glauca", Detections: 1}, infos[0])
	assert.Equal(t, 2, infos[1].Detections)
}

func TestSortedCopyLeavesInputUntouched(t *testing.T) {
	t.Parallel()

	in := []Record{rec("A", "S2", time.Hour, 0), rec("A", "S1", 0, 1)}
	out := SortedCopy(in)

	assert.Equal(t, "S2", in[0].StationID)
	assert.Equal(t, "S1", out[0].StationID)
	assert.Nil(t, SortedCopy(nil))
}

func TestNewTableNumbersRowsBySlicePosition(t *testing.T) {
	t.Parallel()

	// equal timestamps and a mix of set and unset Seq values
	table := NewTable([]Record{
		rec("A", "S1", 0, 7),
		rec("A", "S2", 0, 0),
		rec("A", "S3", 0, 3),
	}, nil)

	track := table.Track("A")
	require.Len(t, track, 3)
	for i, want := range []string{"S1", "S2", "S3"} {
		assert.Equal(t, want, track[i].StationID)
		assert.Equal(t, i, track[i].Seq)
	}
}

func TestColumnsFillCanonicalSet(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CanonicalColumns, NewTable(nil, nil).Columns())

	table := NewTable(nil, []string{"station", "receiver", "timestamp", "speed_ms"})
	assert.Equal(t, []string{"tagname", "latitude", "longitude", "scientificname", "commonname", "station", "receiver", "timestamp"},
		table.Columns())
	assert.Equal(t, []string{"receiver"}, table.ExtraColumns())
}
