package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"competitor-radar/services"
)

func newProposalsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proposals",
		Short: "List stored product proposals",
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
			proposals, err := store.ListProposals(cmd.Context())
			if err != nil {
				return err
			}
			services.NewReportPrinter(os.Stdout).PrintProposals(proposals)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.DeleteProposal(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.logger.Info("[proposals] Deleted %s", args[0])
			return nil
		},
	})
	return cmd
}

func newAlertsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List recent change alerts",
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
			alerts, err := store.ListAlerts(cmd.Context(), limit)
			if err != nil {
				return err
			}
			services.NewReportPrinter(os.Stdout).PrintAlerts(alerts)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of alerts")
	return cmd
}
