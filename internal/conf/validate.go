// conf/validate.go settings validation
package conf

import (
	"fmt"
	"net"
	"regexp"
	"slices"
	"strings"

	"github.com/tphakala/tagtrack/internal/errors"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// Supported source formats
var sourceFormats = map[string]bool{
	"auto":   true,
	"csv":    true,
	"http":   true,
	"sqlite": true,
	"mysql":  true,
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateSettings checks all settings and returns a ValidationError listing every problem found.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateSourceSettings(&settings.Source); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateAnalyticsSettings(&settings.Analytics); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateCacheSettings(&settings.Cache); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateListenAddress("webserver.listen", settings.WebServer.Listen); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if settings.Telemetry.Enabled {
		if err := validateListenAddress("telemetry.listen", settings.Telemetry.Listen); err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	if settings.Sentry.Enabled && settings.Sentry.DSN == "" {
		ve.Errors = append(ve.Errors, "sentry.dsn is required when sentry is enabled")
	}

	if len(ve.Errors) > 0 {
		return errors.New(ve).
			Component("configuration").
			Category(errors.CategoryValidation).
			Context("error_count", len(ve.Errors)).
			Build()
	}
	return nil
}

func validateSourceSettings(s *SourceSettings) error {
	var problems []string

	if strings.TrimSpace(s.Path) == "" {
		problems = append(problems, "source.path must not be empty")
	}

	s.Format = strings.ToLower(strings.TrimSpace(s.Format))
	if s.Format == "" {
		s.Format = "auto"
	}
	if !sourceFormats[s.Format] {
		problems = append(problems, fmt.Sprintf("source.format %q is not one of auto, csv, http, sqlite, mysql", s.Format))
	}

	if (s.Format == "sqlite" || s.Format == "mysql") && !tableNamePattern.MatchString(s.Table) {
		problems = append(problems, fmt.Sprintf("source.table %q is not a valid table name", s.Table))
	}

	if strings.TrimSpace(s.TimestampColumn) == "" {
		problems = append(problems, "source.timestampcolumn must not be empty")
	}

	if s.Timeout < 0 {
		problems = append(problems, "source.timeout must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("source settings: %s", strings.Join(problems, "; "))
	}
	return nil
}

func validateAnalyticsSettings(a *AnalyticsSettings) error {
	var problems []string

	for key, pattern := range map[string]string{
		"analytics.residencypattern": a.ResidencyPattern,
		"analytics.arrivalpattern":   a.ArrivalPattern,
	} {
		if pattern == "" {
			problems = append(problems, key+" must not be empty")
			continue
		}
		if _, err := regexp.Compile(pattern); err != nil {
			problems = append(problems, fmt.Sprintf("%s is not a valid regular expression: %v", key, err))
		}
	}

	if a.SpeedThreshold <= 0 {
		problems = append(problems, "analytics.speedthreshold must be positive")
	}

	if len(problems) > 0 {
		// map iteration order is random
		slices.Sort(problems)
		return fmt.Errorf("analytics settings: %s", strings.Join(problems, "; "))
	}
	return nil
}

func validateCacheSettings(c *CacheSettings) error {
	if c.TTL < 0 || c.Cleanup < 0 {
		return fmt.Errorf("cache settings: ttl and cleanup must not be negative")
	}
	return nil
}

func validateListenAddress(key, addr string) error {
	if addr == "" {
		return fmt.Errorf("%s must not be empty", key)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%s %q is not a valid host:port: %w", key, addr, err)
	}
	return nil
}
