package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var outputPath string

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the calendar feed to a file or stdout",
	Long: `Build the calendar feed once and write it to the given file, or to stdout
when no output file is given.`,
	Example: `  animecal export -o movies.ics
  animecal export --filter 'hasLink("INFO")' > movies.ics`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default stdout)")
	exportCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	exportCmd.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
}

func runExport(cmd *cobra.Command, args []string) error {
	p, err := newPipeline(nil)
	if err != nil {
		return err
	}

	svc, err := p.newFeed(filterExpr, preset)
	if err != nil {
		return err
	}

	body, err := svc.Build(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to build calendar: %w", err)
	}

	if outputPath == "" {
		_, err = cmd.OutOrStdout().Write(body)
		return err
	}

	if err := os.WriteFile(outputPath, body, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	logger.Info().Str("path", outputPath).Int("bytes", len(body)).Msg("Calendar written")
	return nil
}
