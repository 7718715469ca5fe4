package logger_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/tagtrack/internal/logger"
)

func decodeLines(t *testing.T, data []byte) []map[string]any {
	t.Helper()
	var out []map[string]any
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		out = append(out, entry)
	}
	return out
}

func TestSlogLoggerWritesStructuredFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewSlogLogger(&buf, logger.LogLevelDebug, time.UTC).Module("analytics")

	log.Debug("curve built",
		logger.String("tag_id", "A69-1601-1"),
		logger.Int("stations", 3),
		logger.Float64("d50_km", 1.23456),
		logger.Duration("elapsed", 1500*time.Millisecond),
		logger.Bool("degenerate", false))

	entries := decodeLines(t, buf.Bytes())
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "curve built", e["msg"])
	assert.Equal(t, "analytics", e["module"])
	assert.Equal(t, "A69-1601-1", e["tag_id"])
	assert.InDelta(t, 3, e["stations"], 0)
	assert.InDelta(t, 1.235, e["d50_km"], 1e-9)
	assert.Equal(t, "1.5s", e["elapsed"])
	assert.Equal(t, false, e["degenerate"])
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewSlogLogger(&buf, logger.LogLevelWarn, nil)

	log.Trace("trace")
	log.Debug("debug")
	log.Info("info")
	log.Warn("warn")
	log.Error("error", logger.Error(assert.AnError))
	log.Log(logger.LogLevelInfo, "explicit info")

	entries := decodeLines(t, buf.Bytes())
	require.Len(t, entries, 2)
	assert.Equal(t, "warn", entries[0]["msg"])
	assert.Equal(t, "error", entries[1]["msg"])
	assert.Equal(t, assert.AnError.Error(), entries[1]["error"])
}

func TestTraceLevelRendering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewSlogLogger(&buf, logger.LogLevelTrace, nil)
	log.Trace("query")

	entries := decodeLines(t, buf.Bytes())
	require.Len(t, entries, 1)
	assert.Equal(t, "TRACE", entries[0]["level"])
}

func TestWithAndModuleDoNotLeakFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := logger.NewSlogLogger(&buf, logger.LogLevelInfo, nil).Module("api")
	withTag := base.With(logger.String("tag_id", "T1"))
	child := withTag.Module("tags")

	base.Info("plain")
	child.Info("child")

	entries := decodeLines(t, buf.Bytes())
	require.Len(t, entries, 2)
	assert.NotContains(t, entries[0], "tag_id")
	assert.Equal(t, "api.tags", entries[1]["module"])
	assert.Equal(t, "T1", entries[1]["tag_id"])
}

func TestWithContextAddsTraceID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewSlogLogger(&buf, logger.LogLevelInfo, nil)

	log.WithContext(logger.WithTraceID(t.Context(), "req-42")).Info("handled")
	log.WithContext(t.Context()).Info("untraced")

	entries := decodeLines(t, buf.Bytes())
	require.Len(t, entries, 2)
	assert.Equal(t, "req-42", entries[0]["trace_id"])
	assert.NotContains(t, entries[1], "trace_id")
}

func TestCentralLoggerConsoleAndFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logPath := filepath.Join(dir, "nested", "tagtrack.log")
	var console bytes.Buffer

	cl, err := logger.NewCentralLogger(&logger.LoggingConfig{
		DefaultLevel: "debug",
		Timezone:     "UTC",
		Console:      &logger.ConsoleOutput{Enabled: true, Level: "info"},
		FileOutput:   &logger.FileOutput{Enabled: true, Path: logPath, Level: "debug", MaxSize: 1},
	}, logger.WithConsoleWriter(&console))
	require.NoError(t, err)

	log := cl.Module("datastore")
	log.Debug("file only")
	log.Info("both", logger.Int("records", 12))
	require.NoError(t, cl.Close())

	assert.NotContains(t, console.String(), "file only")
	assert.Contains(t, console.String(), "msg=both")
	assert.Contains(t, console.String(), "module=datastore")
	assert.NotContains(t, console.String(), "time=")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	entries := decodeLines(t, data)
	require.Len(t, entries, 2)
	assert.Equal(t, "file only", entries[0]["msg"])
	assert.InDelta(t, 12, entries[1]["records"], 0)
	_, err = time.Parse(time.RFC3339, entries[1]["time"].(string))
	assert.NoError(t, err)
}

func TestCentralLoggerModuleOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	accessPath := filepath.Join(dir, "access.log")
	var console bytes.Buffer

	cl, err := logger.NewCentralLogger(&logger.LoggingConfig{
		Console:    &logger.ConsoleOutput{Enabled: true, Level: "info"},
		FileOutput: &logger.FileOutput{Enabled: false},
		ModuleOutputs: map[string]logger.ModuleOutput{
			"access": {Enabled: true, FilePath: accessPath, Level: "info"},
		},
	}, logger.WithConsoleWriter(&console))
	require.NoError(t, err)

	cl.Module("access").Info("GET /api/v1/tags")
	cl.Module("service").Info("reloaded")
	require.NoError(t, cl.Close())

	assert.NotContains(t, console.String(), "GET /api/v1/tags")
	assert.Contains(t, console.String(), "reloaded")

	data, err := os.ReadFile(accessPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "GET /api/v1/tags")
}

func TestCentralLoggerRejectsBadTimezone(t *testing.T) {
	t.Parallel()

	_, err := logger.NewCentralLogger(&logger.LoggingConfig{Timezone: "Mars/Olympus"})
	require.Error(t, err)

	_, err = logger.NewCentralLogger(nil)
	require.Error(t, err)
}
