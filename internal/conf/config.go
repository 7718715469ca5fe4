// Package conf defines tagtrack settings and loads them with viper from config.yaml, environment and flags.
package conf

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/tagtrack/internal/logger"
)

// SourceSettings selects where detections are read from.
type SourceSettings struct {
	Path            string        `yaml:"path"`            // CSV file, http(s) URL, sqlite file or mysql DSN
	Format          string        `yaml:"format"`          // auto, csv, http, sqlite, mysql
	Table           string        `yaml:"table"`           // table name for sqlite and mysql sources
	TimestampColumn string        `yaml:"timestampcolumn"` // collection timestamp column, datecollected by default
	Timeout         time.Duration `yaml:"timeout"`         // http fetch and sql query timeout
}

// AnalyticsSettings holds defaults for the telemetry analytics.
type AnalyticsSettings struct {
	ResidencyPattern string  `yaml:"residencypattern"` // station pattern counted as resident
	ArrivalPattern   string  `yaml:"arrivalpattern"`   // station pattern marking arrival
	SpeedThreshold   float64 `yaml:"speedthreshold"`   // m/s above which a speed is an outlier
	DielPeriods      bool    `yaml:"dielperiods"`      // annotate arrivals with day, twilight or night
}

// CacheSettings configures the analytics memo cache.
type CacheSettings struct {
	TTL     time.Duration `yaml:"ttl"`
	Cleanup time.Duration `yaml:"cleanup"`
}

// WebServerSettings configures the HTTP API.
type WebServerSettings struct {
	Listen string `yaml:"listen"`
	Debug  bool   `yaml:"debug"`
}

// TelemetrySettings configures the Prometheus endpoint.
type TelemetrySettings struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// SentrySettings configures optional error reporting.
type SentrySettings struct {
	Enabled     bool   `yaml:"enabled"`
	DSN         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
}

// Settings contains all tagtrack configuration.
type Settings struct {
	Debug     bool                 `yaml:"debug"`
	Source    SourceSettings       `yaml:"source"`
	Analytics AnalyticsSettings    `yaml:"analytics"`
	Cache     CacheSettings        `yaml:"cache"`
	WebServer WebServerSettings    `yaml:"webserver"`
	Telemetry TelemetrySettings    `yaml:"telemetry"`
	Sentry    SentrySettings       `yaml:"sentry"`
	Logging   logger.LoggingConfig `yaml:"logging"`
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads config.yaml (from configFile if set, else the default search paths),
// environment variables and bound flags into a validated Settings.
// A missing config file is not an error; defaults apply.
func Load(configFile string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := initViper(configFile); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper registers defaults and environment bindings, then reads the config file.
func initViper(configFile string) error {
	setDefaultConfig()
	bindEnvVars()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		for _, path := range GetDefaultConfigPaths() {
			viper.AddConfigPath(path)
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			GetLogger().Debug("no config file found, using defaults")
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	GetLogger().Debug("config file loaded", logger.String("path", viper.ConfigFileUsed()))
	return nil
}

// GetSettings returns the settings from the last successful Load, nil before that.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// GetDefaultConfigPaths returns the directories searched for config.yaml, in order.
func GetDefaultConfigPaths() []string {
	paths := []string{"."}
	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, "tagtrack"))
	}
	return append(paths, "/etc/tagtrack")
}

// SaveYAMLConfig writes settings to configPath.
// It overwrites the existing file without preserving comments.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating config directory: %w", err)
		}
	}

	// Write to a temporary file first so the rename is atomic
	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		// Cross-device rename, fall back to copy
		if err := copyFile(tempFileName, configPath); err != nil {
			return fmt.Errorf("error copying config file: %w", err)
		}
	}

	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // src is our own temp file
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst) //nolint:gosec // dst is the requested config path
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// GetLogger returns the config package logger.
// It is fetched on each call so it follows the central logger once that is set.
func GetLogger() logger.Logger {
	return logger.Global().Module("config")
}
