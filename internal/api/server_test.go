package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/tagtrack/internal/cache"
	"github.com/tphakala/tagtrack/internal/conf"
	"github.com/tphakala/tagtrack/internal/datastore"
	"github.com/tphakala/tagtrack/internal/logger"
	"github.com/tphakala/tagtrack/internal/observability"
	"github.com/tphakala/tagtrack/internal/service"
)

const detectionsCSV = `tagname,datecollected,station,latitude,longitude,scientificname,commonname
A69-1601-1234,2023-06-21 12:00:00,HFX001,44.0,-63.0,Prionace glauca,blue shark
A69-1601-1234,2023-06-21 13:00:00,HFX002,44.01,-63.0,Prionace glauca,blue shark
A69-1601-1234,2023-06-21 11:00:00,CBS003,43.9,-63.1,Prionace glauca,blue shark
`

func newTestServer(t *testing.T) (*Server, *observability.Metrics) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "detections.csv", []byte(detectionsCSV), 0o644))

	m, err := observability.NewMetrics()
	require.NoError(t, err)

	nop := logger.NewNopLogger()
	store := datastore.NewStore(
		datastore.NewCSVSource(fs, "detections.csv", datastore.DefaultParseOptions()),
		datastore.WithLogger(nop),
		datastore.WithMetrics(m.Datastore))
	memo := cache.New(0, 0, cache.WithLogger(nop), cache.WithMetrics(m.Cache))
	svc := service.New(store, memo, service.Config{}, service.WithLogger(nop), service.WithMetrics(m.Analytics))

	settings := &conf.Settings{WebServer: conf.WebServerSettings{Listen: "127.0.0.1:0"}}
	srv, err := New(settings, svc, WithLogger(nop), WithMetrics(m))
	require.NoError(t, err)
	return srv, m
}

func get(srv *Server, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, http.NoBody))
	return rec
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t)

	rec := get(srv, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Content-Type-Options"))
}

func TestEndToEndResidencyAndMetrics(t *testing.T) {
	t.Parallel()
	srv, m := newTestServer(t)

	rec := get(srv, "/api/v1/tags/A69-1601-1234/residency")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tagname":"A69-1601-1234","pattern":"HFX","residency":66.7}`, rec.Body.String())

	rec = get(srv, "/api/v1/tags/unknown/summary")
	require.Equal(t, http.StatusNotFound, rec.Code)

	expected := `
# HELP http_requests_total Total number of HTTP requests
# TYPE http_requests_total counter
http_requests_total{method="GET",path="/api/v1/tags/:tag/residency",status_code="200"} 1
http_requests_total{method="GET",path="/api/v1/tags/:tag/summary",status_code="404"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "http_requests_total"))
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Listen = "no-port"
	require.Error(t, cfg.Validate())

	_, err := New(&conf.Settings{WebServer: conf.WebServerSettings{Listen: "bad"}}, nil)
	require.Error(t, err)
}

func TestStartStopsOnCancel(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	cancel()
	require.NoError(t, <-done)
}
