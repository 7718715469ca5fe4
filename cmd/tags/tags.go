package tags

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/tphakala/tagtrack/internal/analysis"
	"github.com/tphakala/tagtrack/internal/conf"
)

// Command creates the tags command, which lists the tags in the detection source.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List tags with their species and detection counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := analysis.New(settings, afero.NewOsFs())
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			tags, err := app.Service.Tags(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TAG\tCOMMON NAME\tSCIENTIFIC NAME\tDETECTIONS")
			for _, t := range tags {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", t.TagID, t.CommonName, t.ScientificName, t.Detections)
			}
			return w.Flush()
		},
	}
}
