// Package cmd implements the competitor-radar command-line interface.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// storeDriver overrides STORE_DRIVER when set.
	storeDriver string
	// profilePath overrides PROFILE_PATH when set.
	profilePath string
	// catalogPath overrides CATALOG_PATH when set.
	catalogPath string
	// logLevel overrides LOG_LEVEL when set.
	logLevel string

	rootCmd = &cobra.Command{
		Use:   "radar",
		Short: "Amazon competitor tracking and product opportunity analysis",
		Long: `radar extracts product and review signals from Amazon product pages,
tracks competitor prices and sentiment, and proposes products for market gaps.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storeDriver, "store", "", "storage driver: postgres or memory (default $STORE_DRIVER)")
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "market profile YAML (default $PROFILE_PATH or built-in amazon-jp)")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "catalog YAML of markets, categories and competitors (default $CATALOG_PATH)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (default $LOG_LEVEL)")

	rootCmd.AddCommand(newExtractCommand())
	rootCmd.AddCommand(newAnalyzeCommand())
	rootCmd.AddCommand(newCollectCommand())
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newSeedCommand())
	rootCmd.AddCommand(newProposalsCommand())
	rootCmd.AddCommand(newAlertsCommand())
}
