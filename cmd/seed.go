package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"competitor-radar/config"
)

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load markets, categories and competitors from the catalog YAML into the store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if a.cfg.CatalogPath == "" {
				return errors.New("no catalog: set CATALOG_PATH or --catalog")
			}
			if a.cfg.StoreDriver == config.StoreDriverMemory {
				// the memory store is already seeded on open and would be lost on exit
				return errors.New("seed needs a persistent store; use --store postgres")
			}

			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			_, err = a.seed(cmd.Context(), store)
			return err
		},
	}
}
