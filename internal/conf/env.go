// conf/env.go environment variable bindings
package conf

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/tphakala/tagtrack/internal/logger"
)

// EnvPrefix is prepended to every environment variable, e.g. TAGTRACK_SOURCE_PATH.
const EnvPrefix = "TAGTRACK"

// envBinding maps a config key to its environment variable.
type envBinding struct {
	ConfigKey string
	EnvVar    string
}

// explicitBindings are keys viper cannot discover through AutomaticEnv because they
// have no default to make them known.
var explicitBindings = []envBinding{
	{"sentry.dsn", "TAGTRACK_SENTRY_DSN"},
	{"source.path", "TAGTRACK_SOURCE_PATH"},
	{"source.table", "TAGTRACK_SOURCE_TABLE"},
	{"logging.default_level", "TAGTRACK_LOG_LEVEL"},
}

// bindEnvVars configures viper to read TAGTRACK_ prefixed environment variables.
// Nested keys use underscores: source.timestampcolumn becomes TAGTRACK_SOURCE_TIMESTAMPCOLUMN.
func bindEnvVars() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	for _, b := range explicitBindings {
		if err := viper.BindEnv(b.ConfigKey, b.EnvVar); err != nil {
			GetLogger().Warn("failed to bind environment variable",
				logger.String("key", b.ConfigKey),
				logger.String("env", b.EnvVar),
				logger.Error(err))
		}
	}
}
