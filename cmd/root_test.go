package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/tagtrack/internal/conf"
)

const detectionsCSV = `tagname,datecollected,station,latitude,longitude,scientificname,commonname
A69-1601-1234,2023-06-21 12:00:00,HFX001,44.0,-63.0,Prionace glauca,blue shark
A69-1601-1234,2023-06-21 13:00:00,HFX002,44.01,-63.0,Prionace glauca,blue shark
A69-1601-5678,2023-06-22 01:30:00,CBS010,45.5,-60.1,Prionace glauca,blue shark
`

// isolate runs the test in an empty directory with a fresh global viper.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	viper.Reset()
	t.Cleanup(viper.Reset)
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := RootCommand(&conf.Settings{}, "test")
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestTagsCommand(t *testing.T) {
	dir := isolate(t)
	csvPath := filepath.Join(dir, "detections.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(detectionsCSV), 0o600))

	out, err := run(t, "tags", "--source", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "TAG")
	assert.Contains(t, out, "A69-1601-1234")
	assert.Contains(t, out, "A69-1601-5678")
}

func TestSummaryCommandJSON(t *testing.T) {
	dir := isolate(t)
	csvPath := filepath.Join(dir, "detections.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(detectionsCSV), 0o600))

	out, err := run(t, "summary", "A69-1601-1234", "--json", "--source", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, `"tagname": "A69-1601-1234"`)
	assert.Contains(t, out, `"residency": 100`)
}

func TestSummaryCommandUnknownTag(t *testing.T) {
	dir := isolate(t)
	csvPath := filepath.Join(dir, "detections.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(detectionsCSV), 0o600))

	_, err := run(t, "summary", "nope", "--source", csvPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tag not found")
}

func TestExportCommandWritesFile(t *testing.T) {
	dir := isolate(t)
	csvPath := filepath.Join(dir, "detections.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(detectionsCSV), 0o600))

	out, err := run(t, "export", "A69-1601-1234", "--source", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "A69-1601-1234_detections.csv")

	data, err := os.ReadFile(filepath.Join(dir, "A69-1601-1234_detections.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "speed_ms")
	assert.NoFileExists(t, filepath.Join(dir, "A69-1601-1234_detections.csv.tmp"))
}

func TestArrivalsCommand(t *testing.T) {
	dir := isolate(t)
	csvPath := filepath.Join(dir, "detections.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(detectionsCSV), 0o600))

	out, err := run(t, "arrivals", "--pattern", "cbs", "--source", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, `matching "cbs": 1 tags`)
	assert.Contains(t, out, "01:00    1")
}

func TestMissingSourceFails(t *testing.T) {
	isolate(t)

	_, err := run(t, "tags", "--source", "does-not-exist.csv")
	require.Error(t, err)
}

func TestConfigInitSkipsSettings(t *testing.T) {
	dir := isolate(t)
	// an invalid config in the search path must not block config init
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("analytics:\n  residencypattern: \"[\"\n"), 0o600))

	target := filepath.Join(dir, "out", "config.yaml")
	out, err := run(t, "config", "init", target)
	require.NoError(t, err)
	assert.Contains(t, out, target)
	assert.FileExists(t, target)

	_, err = run(t, "config", "init", target)
	require.Error(t, err)

	_, err = run(t, "config", "init", target, "--force")
	require.NoError(t, err)
}
