package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/tphakala/tagtrack/internal/analysis"
	"github.com/tphakala/tagtrack/internal/conf"
	exportcsv "github.com/tphakala/tagtrack/internal/export"
	"github.com/tphakala/tagtrack/internal/logger"
)

// Command creates the export command, which writes a tag's annotated detections as CSV.
func Command(settings *conf.Settings) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <tag>",
		Short: "Export the annotated detections of a tag as CSV",
		Long:  "Write the time-ordered detections of a tag with their speeds. Use -o - to write to stdout.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag := args[0]
			fs := afero.NewOsFs()

			app, err := analysis.New(settings, fs)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			if output == "-" {
				return app.Service.Export(cmd.Context(), tag, cmd.OutOrStdout())
			}

			path := output
			if path == "" {
				path = exportcsv.FileName(tag)
			}
			if err := writeFile(fs, path, func(w io.Writer) error {
				return app.Service.Export(cmd.Context(), tag, w)
			}); err != nil {
				return err
			}

			analysis.GetLogger().Info("detections exported",
				logger.String("tag_id", tag),
				logger.String("path", path))
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default <tag>_detections.csv, - for stdout)")
	return cmd
}

// writeFile renders into a temporary file next to path and renames it into place,
// so a failed export leaves no partial file.
func writeFile(fs afero.Fs, path string, render func(io.Writer) error) (err error) {
	tmp := path + ".tmp"
	f, err := fs.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}
	defer func() {
		if err != nil {
			_ = fs.Remove(tmp)
		}
	}()

	bw := bufio.NewWriter(f)
	if err = render(bw); err != nil {
		_ = f.Close()
		return err
	}
	if err = bw.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return fs.Rename(tmp, path)
}
