package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"competitor-radar/api"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	var addr string
	var seed int64

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
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

			if addr == "" {
				addr = a.cfg.HTTPAddr
			}
			handler := api.NewHandler(api.Deps{
				Extractor: extractor,
				Analyzer:  a.newAnalyzer(store, seed),
				Proposals: store,
				Alerts:    store,
				Metrics:   a.metrics,
				Logger:    a.logger,
			})
			srv := &http.Server{
				Addr:              addr,
				Handler:           api.NewRouter(handler),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("[serve] Listening on %s", addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				a.logger.Info("[serve] Shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default $HTTP_ADDR)")
	cmd.Flags().Int64Var(&seed, "ranking-seed", 0, "seed for simulated ranking signals (0 = time-based, negative disables enrichment)")
	return cmd
}
