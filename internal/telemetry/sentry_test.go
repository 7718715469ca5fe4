package telemetry

import (
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/tagtrack/internal/conf"
	"github.com/tphakala/tagtrack/internal/errors"
)

func TestInitSentryDisabled(t *testing.T) {
	require.NoError(t, InitSentry(&conf.Settings{}, "test"))
	assert.False(t, IsInitialized())
}

func TestApplyPrivacyFilters(t *testing.T) {
	t.Parallel()

	event := sentry.NewEvent()
	event.ServerName = "fieldstation-01"
	event.User = sentry.User{ID: "42", IPAddress: "10.0.0.1"}
	event.Contexts["os"] = sentry.Context{"name": "linux"}
	event.Contexts["application"] = sentry.Context{"name": "tagtrack"}
	event.Extra["component"] = "datastore"
	event.Extra["path"] = "/home/alice/detections.csv"
	event.Tags = map[string]string{"hostname": "fieldstation-01", "category": "data-load"}

	got := applyPrivacyFilters(event)

	assert.Empty(t, got.ServerName)
	assert.True(t, got.User.IsEmpty())
	assert.NotContains(t, got.Contexts, "os")
	assert.Contains(t, got.Contexts, "application")
	assert.Equal(t, map[string]any{"component": "datastore"}, got.Extra)
	assert.Equal(t, map[string]string{"category": "data-load"}, got.Tags)
}

// Sentry uses a process-global hub, so this test does not run in parallel.
func TestInitSentryReportsEnhancedErrors(t *testing.T) {
	transport := newMockTransport()
	settings := &conf.Settings{Sentry: conf.SentrySettings{Enabled: true, Environment: "test"}}

	require.NoError(t, InitSentry(settings, "1.2.3", WithTransport(transport)))
	t.Cleanup(func() {
		errors.SetTelemetryReporter(nil)
		sentryInitialized.Store(false)
	})
	assert.True(t, IsInitialized())

	_ = errors.New(errors.NewStd("detection data could not be loaded")).
		Component("datastore").
		Category(errors.CategoryDataLoad).
		Build()
	Flush()

	require.Equal(t, 1, transport.count())
	event := transport.lastEvent()
	assert.Equal(t, "tagtrack@1.2.3", event.Release)
	assert.Equal(t, "test", event.Environment)
	assert.Equal(t, "datastore", event.Tags["component"])
	assert.Equal(t, "data-load", event.Tags["category"])
	assert.Empty(t, event.ServerName)
}
