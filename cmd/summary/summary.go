package summary

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/tphakala/tagtrack/internal/analysis"
	"github.com/tphakala/tagtrack/internal/analytics"
	"github.com/tphakala/tagtrack/internal/conf"
)

// Command creates the summary command, which prints the KPIs of one tag.
func Command(settings *conf.Settings) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summary <tag>",
		Short: "Print the movement and residency summary of a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := analysis.New(settings, afero.NewOsFs())
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			s, err := app.Service.Summary(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}
			return Print(cmd.OutOrStdout(), &s)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	return cmd
}

// Print writes a human-readable summary.
func Print(w io.Writer, s *analytics.Summary) error {
	_, err := fmt.Fprintf(w, `Tag:             %s (%s, %s)
Detections:      %d on %d stations
First detection: %s
Last detection:  %s at %s
Residency:       %.1f %% (pattern %q)
D-50:            %.2f km
Track length:    %.2f km
Speed outliers:  %d above %.1f m/s

%s
`,
		s.TagID, s.CommonName, s.ScientificName,
		s.Detections, s.Stations,
		s.FirstDetection.Format(time.RFC3339),
		s.LastDetection.Format(time.RFC3339), s.LastStation,
		s.Residency, s.ResidencyPattern,
		s.D50Km,
		s.TrackLengthKm,
		s.Outliers, s.SpeedThreshold,
		s.Narrative)
	return err
}
