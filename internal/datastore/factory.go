package datastore

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/tphakala/tagtrack/internal/conf"
	"github.com/tphakala/tagtrack/internal/httpclient"
	"github.com/tphakala/tagtrack/internal/logger"
	"github.com/tphakala/tagtrack/internal/observability/metrics"
)

// DetectFormat infers the source format of path when the configured format is auto.
func DetectFormat(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return "http"
	case strings.Contains(path, "@tcp("), strings.Contains(path, "@unix("):
		return DialectMySQL
	}
	switch filepath.Ext(lower) {
	case ".sqlite", ".sqlite3", ".db":
		return DialectSQLite
	}
	return "csv"
}

// NewSource builds the Source described by settings. fs backs CSV sources; nil uses the OS filesystem.
// m, when not nil, receives the request metrics of HTTP sources.
func NewSource(settings *conf.SourceSettings, fs afero.Fs, log logger.Logger, m *metrics.DatastoreMetrics) (Source, error) {
	opts := ParseOptions{TimestampColumn: settings.TimestampColumn}

	format := strings.ToLower(settings.Format)
	if format == "" || format == "auto" {
		format = DetectFormat(settings.Path)
	}

	switch format {
	case "csv":
		return NewCSVSource(fs, settings.Path, opts), nil
	case "http":
		client := httpclient.New(&httpclient.Config{DefaultTimeout: settings.Timeout})
		if m != nil {
			InstrumentClient(client, m)
		}
		return NewHTTPSource(client, settings.Path, opts), nil
	case DialectSQLite, DialectMySQL:
		return OpenSQLSource(format, settings.Path, settings.Table, opts, log)
	default:
		return nil, loadErrorf("open", "unsupported source format %q", settings.Format)
	}
}

// InstrumentClient reports every request made by client to m.
func InstrumentClient(client *httpclient.Client, m *metrics.DatastoreMetrics) {
	client.SetBeforeRequestHook(func(*http.Request) {
		m.RecordHTTPRequestStart()
	})
	client.SetAfterResponseHook(func(req *http.Request, resp *http.Response, err error) {
		status := metrics.StatusError
		if err == nil && resp != nil {
			status = strconv.Itoa(resp.StatusCode)
		}
		m.RecordHTTPRequestDone(req.Method, status)
	})
}
