package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"competitor-radar/models"
	"competitor-radar/services"
)

func newExtractCommand() *cobra.Command {
	var asJSON, export bool

	cmd := &cobra.Command{
		Use:   "extract <url>",
		Short: "Extract one Amazon product page (connection test)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			extractor, err := a.newExtractor()
			if err != nil {
				return err
			}

			res := extractor.Extract(cmd.Context(), args[0])

			if export {
				sink, err := a.newSnapshotSink()
				if err != nil {
					return err
				}
				if sink != nil {
					if err := sink.WriteSnapshots([]*models.ExtractionResult{res}); err != nil {
						return err
					}
					a.logger.Info("[extract] Snapshot written to %s", a.cfg.CSVOutputPath)
				}
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			services.NewReportPrinter(os.Stdout).PrintExtraction(res)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw extraction result as JSON")
	cmd.Flags().BoolVar(&export, "csv", false, "also append the snapshot to CSV_OUTPUT_PATH")
	return cmd
}
