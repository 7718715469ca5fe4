package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tphakala/tagtrack/internal/analytics"
	"github.com/tphakala/tagtrack/internal/datastore"
	"github.com/tphakala/tagtrack/internal/detection"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func sampleTrack() []detection.Record {
	base := time.Date(2023, 6, 21, 12, 0, 0, 123456789, time.UTC)
	return []detection.Record{
		{TagID: "A69-1601-1234", Timestamp: base, StationID: "HFX001", Latitude: 44.0, Longitude: -63.0,
			ScientificName: "Prionace glauca", CommonName: "blue shark", Seq: 0,
			Extra: map[string]string{"receiver": "VR2W-1", "note": "tagged, released"}},
		{TagID: "A69-1601-1234", Timestamp: base.Add(time.Hour), StationID: "HFX002", Latitude: 44.012345678901, Longitude: -63.000000000001,
			ScientificName: "Prionace glauca", CommonName: "blue shark", Seq: 1,
			Extra: map[string]string{"receiver": "VR2W-2"}},
		{TagID: "A69-1601-1234", Timestamp: base.Add(time.Hour), StationID: "HFX003", Latitude: 0.1, Longitude: 1e-7,
			ScientificName: "Prionace glauca", CommonName: "blue shark", Seq: 2},
	}
}

func TestWriteCSV_Format(t *testing.T) {
	t.Parallel()

	annotated, err := analytics.FlagSpeeds(sampleTrack())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, annotated, []string{"receiver", "note"}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "timestamp,tagname,station,latitude,longitude,scientificname,commonname,receiver,note,speed_ms", lines[0])
	assert.Equal(t, `2023-06-21T12:00:00.123456789Z,A69-1601-1234,HFX001,44,-63,Prionace glauca,blue shark,VR2W-1,"tagged, released",`, lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "2023-06-21T13:00:00.123456789Z,A69-1601-1234,HFX002,44.012345678901,-63.000000000001,"))
	assert.True(t, strings.HasSuffix(lines[3], ",,"), "missing extra and undefined speed (dt == 0) are empty: %s", lines[3])
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	t.Parallel()

	track := sampleTrack()
	annotated, err := analytics.FlagSpeeds(track)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, annotated, []string{"receiver", "note"}))

	table, err := datastore.ParseCSV(&buf, datastore.DefaultParseOptions())
	require.NoError(t, err)
	reloaded := table.Records()
	require.Len(t, reloaded, len(annotated))

	for i, want := range annotated {
		got := reloaded[i]
		assert.Equal(t, want.TagID, got.TagID)
		assert.True(t, want.Timestamp.Equal(got.Timestamp), "timestamp %d", i)
		assert.Equal(t, want.StationID, got.StationID)
		assert.Equal(t, want.Latitude, got.Latitude)
		assert.Equal(t, want.Longitude, got.Longitude)
	}
	assert.Equal(t, []string{"receiver", "note"}, table.ExtraColumns())
}

func TestWriteCSV_KeepsSourceColumnOrder(t *testing.T) {
	t.Parallel()

	input := "tagname,datecollected,receiver,station,latitude,longitude,commonname,scientificname\n" +
		"T1,2023-06-21 12:00:00,VR2W-1,HFX001,44,-63,blue shark,Prionace glauca\n" +
		"T1,2023-06-21 13:00:00,VR2W-2,HFX002,44.01,-63,blue shark,Prionace glauca\n"
	table, err := datastore.ParseCSV(strings.NewReader(input), datastore.DefaultParseOptions())
	require.NoError(t, err)

	annotated, err := analytics.FlagSpeeds(table.Track("T1"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, annotated, table.Columns()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "tagname,timestamp,receiver,station,latitude,longitude,commonname,scientificname,speed_ms", lines[0])
	assert.Equal(t, "T1,2023-06-21T12:00:00Z,VR2W-1,HFX001,44,-63,blue shark,Prionace glauca,", lines[1])

	reloaded, err := datastore.ParseCSV(&buf, datastore.DefaultParseOptions())
	require.NoError(t, err)
	assert.Equal(t, table.Columns(), reloaded.Columns())
}

func TestWriteCSV_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil, nil))
	assert.Equal(t, "timestamp,tagname,station,latitude,longitude,scientificname,commonname,speed_ms\n", buf.String())
}

func TestFileName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "A69-1601-1234_detections.csv", FileName("A69-1601-1234"))
}
