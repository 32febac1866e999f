package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"competitor-radar/services"
)

func newCollectCommand() *cobra.Command {
	var showAlerts bool

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Extract every competitor's product pages and record price and sentiment changes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			extractor, err := a.newExtractor()
			if err != nil {
				return err
			}
			sink, err := a.newSnapshotSink()
			if err != nil {
				return err
			}

			a.logger.Info("[collect] Concurrency: %d | rate: %dms | fetch mode: %s",
				a.cfg.MaxConcurrency, a.cfg.RateLimitMs, a.cfg.FetchMode)

			collector := services.NewCollector(extractor, services.NewTracker(store, a.logger, a.metrics), a.logger, services.CollectorConfig{
				MaxWorkers:  a.cfg.MaxConcurrency,
				RateLimitMs: a.cfg.RateLimitMs,
				Currency:    a.profile.Currency,
				Sink:        sink,
			})

			competitors, err := store.ListCompetitors(ctx)
			if err != nil {
				return err
			}
			outcomes := collector.CollectAll(ctx, competitors)

			printer := services.NewReportPrinter(os.Stdout)
			printer.PrintCollection(outcomes)

			overview := make([]services.CompetitorOverview, 0)
			markets := map[string]bool{}
			insights := services.NewInsightService(a.logger)
			for _, c := range competitors {
				if markets[c.MarketID] {
					continue
				}
				markets[c.MarketID] = true
				snaps, err := store.CompetitorSnapshots(ctx, c.MarketID)
				if err != nil {
					return err
				}
				overview = append(overview, insights.Overview(snaps)...)
			}
			printer.PrintOverview(overview)

			if showAlerts {
				alerts, err := store.ListAlerts(ctx, 0)
				if err != nil {
					return err
				}
				printer.PrintAlerts(alerts)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showAlerts, "alerts", true, "print recent alerts after collecting")
	return cmd
}
