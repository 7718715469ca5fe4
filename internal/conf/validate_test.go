package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/tagtrack/internal/errors"
)

func validSettings(t *testing.T) *Settings {
	t.Helper()
	s, err := DefaultSettings()
	require.NoError(t, err)
	return s
}

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{"defaults are valid", func(*Settings) {}, ""},
		{"empty source path", func(s *Settings) { s.Source.Path = " " }, "source.path"},
		{"unknown format", func(s *Settings) { s.Source.Format = "parquet" }, "source.format"},
		{"format is case-insensitive", func(s *Settings) { s.Source.Format = "CSV" }, ""},
		{"sql table name checked", func(s *Settings) {
			s.Source.Format = "mysql"
			s.Source.Table = "detections; DROP TABLE x"
		}, "source.table"},
		{"invalid arrival regex", func(s *Settings) { s.Analytics.ArrivalPattern = "[" }, "analytics.arrivalpattern"},
		{"non-positive threshold", func(s *Settings) { s.Analytics.SpeedThreshold = 0 }, "speedthreshold"},
		{"bad listen address", func(s *Settings) { s.WebServer.Listen = "8080" }, "webserver.listen"},
		{"telemetry address checked only when enabled", func(s *Settings) { s.Telemetry.Listen = "" }, ""},
		{"telemetry enabled without address", func(s *Settings) {
			s.Telemetry.Enabled = true
			s.Telemetry.Listen = ""
		}, "telemetry.listen"},
		{"sentry without dsn", func(s *Settings) { s.Sentry.Enabled = true }, "sentry.dsn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings(t)
			tt.mutate(s)

			err := ValidateSettings(s)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
		})
	}
}

func TestValidateSettings_CollectsAllProblems(t *testing.T) {
	s := validSettings(t)
	s.Source.Path = ""
	s.Analytics.SpeedThreshold = -1
	s.WebServer.Listen = ""

	err := ValidateSettings(s)
	require.Error(t, err)

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 3)
}

func TestValidateSettings_NormalizesFormat(t *testing.T) {
	s := validSettings(t)
	s.Source.Format = " SQLite "
	require.NoError(t, ValidateSettings(s))
	assert.Equal(t, "sqlite", s.Source.Format)
}
