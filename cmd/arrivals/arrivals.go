package arrivals

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/tphakala/tagtrack/internal/analysis"
	"github.com/tphakala/tagtrack/internal/analytics"
	"github.com/tphakala/tagtrack/internal/conf"
)

// maxBarWidth is the width of the longest histogram bar.
const maxBarWidth = 40

// Command creates the arrivals command, which prints the first-arrival hour histogram.
func Command(settings *conf.Settings) *cobra.Command {
	var pattern string

	cmd := &cobra.Command{
		Use:   "arrivals",
		Short: "Print the UTC hour histogram of first arrivals on matching stations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := analysis.New(settings, afero.NewOsFs())
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			h, err := app.Service.Arrivals(cmd.Context(), pattern)
			if err != nil {
				return err
			}

			effective := pattern
			if effective == "" {
				effective = app.Service.Config().ArrivalPattern
			}
			return Print(cmd.OutOrStdout(), effective, &h)
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", "", "Station pattern, case-insensitive regular expression (default from config)")
	return cmd
}

// Print writes the histogram as one bar per UTC hour.
func Print(w io.Writer, pattern string, h *analytics.Histogram) error {
	peak := 0
	for _, n := range h.Counts {
		peak = max(peak, n)
	}

	if _, err := fmt.Fprintf(w, "First arrivals on stations matching %q: %d tags\n", pattern, h.Total()); err != nil {
		return err
	}
	for hour, n := range h.Counts {
		width := 0
		if peak > 0 {
			width = n * maxBarWidth / peak
		}
		if _, err := fmt.Fprintf(w, "%02d:00 %4d %s\n", hour, n, strings.Repeat("█", width)); err != nil {
			return err
		}
	}
	for period, n := range h.Diel {
		if _, err := fmt.Fprintf(w, "%s: %d\n", period, n); err != nil {
			return err
		}
	}
	return nil
}
