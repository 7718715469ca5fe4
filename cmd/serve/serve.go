package serve

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/tagtrack/internal/analysis"
	"github.com/tphakala/tagtrack/internal/conf"
)

// Command creates the serve command, which runs the HTTP API.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analytics HTTP API",
		Long:  "Load the detection source and serve per-tag analytics over HTTP until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := analysis.New(settings, afero.NewOsFs())
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			return analysis.Serve(ctx, app)
		},
	}

	if err := setupFlags(cmd); err != nil {
		panic(err)
	}
	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("listen", "", "Listen address of the HTTP API (host:port)")
	cmd.Flags().Bool("telemetry", false, "Enable the Prometheus telemetry endpoint")
	cmd.Flags().String("telemetry-listen", "", "Listen address of the telemetry endpoint")

	bindings := map[string]string{
		"webserver.listen":  "listen",
		"telemetry.enabled": "telemetry",
		"telemetry.listen":  "telemetry-listen",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", flag, err)
		}
	}
	return nil
}
