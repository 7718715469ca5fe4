// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Default analytics values
const (
	DefaultResidencyPattern = "HFX"
	DefaultArrivalPattern   = "HFX"
	DefaultSpeedThreshold   = 5.0 // m/s
	DefaultTimestampColumn  = "datecollected"
	DefaultTable            = "detections"
)

// setDefaultConfig registers default values on the global viper instance.
func setDefaultConfig() {
	applyDefaults(viper.GetViper())
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("source.path", "data/blue_shark_detections.csv")
	v.SetDefault("source.format", "auto")
	v.SetDefault("source.table", DefaultTable)
	v.SetDefault("source.timestampcolumn", DefaultTimestampColumn)
	v.SetDefault("source.timeout", 30*time.Second)

	v.SetDefault("analytics.residencypattern", DefaultResidencyPattern)
	v.SetDefault("analytics.arrivalpattern", DefaultArrivalPattern)
	v.SetDefault("analytics.speedthreshold", DefaultSpeedThreshold)
	v.SetDefault("analytics.dielperiods", true)

	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.cleanup", 10*time.Minute)

	v.SetDefault("webserver.listen", "localhost:8080")
	v.SetDefault("webserver.debug", false)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.listen", "localhost:8090")

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "production")

	v.SetDefault("logging.default_level", "info")
	v.SetDefault("logging.timezone", "UTC")
	v.SetDefault("logging.console.enabled", true)
	v.SetDefault("logging.console.level", "info")
	v.SetDefault("logging.file_output.enabled", false)
	v.SetDefault("logging.file_output.path", "logs/tagtrack.log")
	v.SetDefault("logging.file_output.level", "info")
	v.SetDefault("logging.file_output.max_size", 100)
	v.SetDefault("logging.file_output.max_age", 30)
	v.SetDefault("logging.file_output.max_rotated_files", 10)
	v.SetDefault("logging.file_output.compress", false)
}

// DefaultSettings returns the settings that apply with no config file, environment or flags.
func DefaultSettings() (*Settings, error) {
	v := viper.New()
	applyDefaults(v)
	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, err
	}
	return settings, nil
}
