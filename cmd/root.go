package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/tagtrack/cmd/arrivals"
	configcmd "github.com/tphakala/tagtrack/cmd/config"
	"github.com/tphakala/tagtrack/cmd/export"
	"github.com/tphakala/tagtrack/cmd/serve"
	"github.com/tphakala/tagtrack/cmd/summary"
	"github.com/tphakala/tagtrack/cmd/tags"
	"github.com/tphakala/tagtrack/internal/conf"
	"github.com/tphakala/tagtrack/internal/logger"
	"github.com/tphakala/tagtrack/internal/telemetry"
)

// skipInitAnnotation marks commands that run without loading settings.
const skipInitAnnotation = "tagtrack/skip-init"

// RootCommand creates and returns the root command. settings is filled in before
// any subcommand runs.
func RootCommand(settings *conf.Settings, version string) *cobra.Command {
	var centralLogger *logger.CentralLogger

	rootCmd := &cobra.Command{
		Use:           "tagtrack",
		Short:         "Acoustic telemetry detection analytics",
		Long:          "tagtrack loads acoustic telemetry detections and serves per-tag movement, residency and detection-efficiency analytics.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	if err := setupFlags(rootCmd); err != nil {
		panic(err)
	}

	configCmd := configcmd.Command()
	configCmd.Annotations = map[string]string{skipInitAnnotation: "true"}

	rootCmd.AddCommand(
		serve.Command(settings),
		tags.Command(settings),
		summary.Command(settings),
		export.Command(settings),
		arrivals.Command(settings),
		configCmd,
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if skipsInit(cmd) {
			return nil
		}

		configFile, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}

		loaded, err := conf.Load(configFile)
		if err != nil {
			return err
		}
		*settings = *loaded

		centralLogger, err = initialize(settings, version)
		return err
	}

	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		telemetry.Flush()
		if centralLogger != nil {
			return centralLogger.Close()
		}
		return nil
	}

	return rootCmd
}

// initialize sets up logging and error telemetry once settings are loaded.
func initialize(settings *conf.Settings, version string) (*logger.CentralLogger, error) {
	if settings.Debug {
		settings.Logging.DefaultLevel = string(logger.LogLevelDebug)
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = string(logger.LogLevelDebug)
		}
	}

	centralLogger, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(centralLogger)

	if err := telemetry.InitSentry(settings, version); err != nil {
		centralLogger.Module("main").Warn("sentry telemetry unavailable", logger.Error(err))
	}

	return centralLogger, nil
}

func skipsInit(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipInitAnnotation] == "true" {
			return true
		}
	}
	return false
}

// setupFlags defines flags that are global to the command line interface.
func setupFlags(rootCmd *cobra.Command) error {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to config file (default: ./config.yaml, then the user config directory)")
	flags.BoolP("debug", "d", false, "Enable debug output")
	flags.String("source", "", "Detection source: CSV path, http(s) URL, SQLite file or MySQL DSN")
	flags.String("format", "", "Source format: auto, csv, http, sqlite or mysql")

	bindings := map[string]string{
		"debug":         "debug",
		"source.path":   "source",
		"source.format": "format",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", flag, err)
		}
	}
	return nil
}
