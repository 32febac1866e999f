package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"competitor-radar/models"
	"competitor-radar/services"
)

func newAnalyzeCommand() *cobra.Command {
	var categoryID string
	var seed int64

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the opportunity engine over every category, or one with --category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			analyzer := a.newAnalyzer(store, seed)
			printer := services.NewReportPrinter(os.Stdout)

			if categoryID != "" {
				p, err := analyzer.AnalyzeCategory(cmd.Context(), categoryID)
				if err != nil {
					return err
				}
				printer.PrintProposals([]models.Proposal{*p})
				return nil
			}

			outcomes, err := analyzer.RunGlobalAnalysis(cmd.Context())
			if err != nil {
				return err
			}
			printer.PrintAnalysis(outcomes)
			return nil
		},
	}

	cmd.Flags().StringVar(&categoryID, "category", "", "analyze a single category by ID")
	cmd.Flags().Int64Var(&seed, "ranking-seed", 0, "seed for simulated ranking signals (0 = time-based, negative disables enrichment)")
	return cmd
}
