package cmd

import (
	"context"
	"fmt"
	"time"

	"competitor-radar/config"
	"competitor-radar/metrics"
	"competitor-radar/scraper/amazon"
	"competitor-radar/services"
	"competitor-radar/storage"
	"competitor-radar/utils"
)

// app bundles what every command shares. Commands build only the parts they
// need and call close when done.
type app struct {
	cfg     *config.Config
	logger  *utils.Logger
	profile *config.Profile
	metrics *metrics.Metrics

	store   storage.Store
	closers []func()
}

func newApp() (*app, error) {
	cfg := config.Load()
	if storeDriver != "" {
		cfg.StoreDriver = storeDriver
	}
	if profilePath != "" {
		cfg.ProfilePath = profilePath
	}
	if catalogPath != "" {
		cfg.CatalogPath = catalogPath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger := utils.NewLoggerWithConfig(cfg.LogLevel, cfg.LogEncoding)

	profile := config.DefaultProfile()
	if cfg.ProfilePath != "" {
		p, err := config.LoadProfile(cfg.ProfilePath)
		if err != nil {
			return nil, err
		}
		profile = p
	}
	logger.Debug("[app] Market profile %q (%d major brands, %d keyword templates)",
		profile.Name, len(profile.MajorBrands), len(profile.KeywordTemplates))

	a := &app{cfg: cfg, logger: logger, profile: profile, metrics: metrics.New()}
	a.closers = append(a.closers, logger.Sync)
	return a, nil
}

// openStore connects the configured store. The memory store is seeded from
// the catalog file when one is configured, since it starts empty.
func (a *app) openStore(ctx context.Context) (storage.Store, error) {
	if a.store != nil {
		return a.store, nil
	}

	switch a.cfg.StoreDriver {
	case config.StoreDriverMemory:
		mem := storage.NewMemoryStore()
		if a.cfg.CatalogPath != "" {
			if _, err := a.seed(ctx, mem); err != nil {
				return nil, err
			}
		} else {
			a.logger.Warn("[app] Memory store has no catalog; set CATALOG_PATH or --catalog")
		}
		a.store = mem
	case config.StoreDriverPostgres:
		pg, err := storage.NewPostgresStore(ctx, a.cfg.DSN(), &utils.RetryConfig{
			MaxAttempts: a.cfg.MaxRetries,
			BaseDelay:   time.Second,
			Logger:      a.logger,
		})
		if err != nil {
			a.logger.Error("[app] Make sure PostgreSQL is running: docker compose up -d")
			return nil, err
		}
		a.store = pg
	default:
		return nil, fmt.Errorf("unknown store driver %q (want %s or %s)",
			a.cfg.StoreDriver, config.StoreDriverPostgres, config.StoreDriverMemory)
	}

	a.closers = append(a.closers, func() {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("[app] Closing store: %v", err)
		}
	})
	return a.store, nil
}

func (a *app) seed(ctx context.Context, store storage.CatalogStore) (storage.SeedStats, error) {
	catalog, err := config.LoadCatalog(a.cfg.CatalogPath)
	if err != nil {
		return storage.SeedStats{}, err
	}
	stats, err := storage.Seed(ctx, store, catalog)
	if err != nil {
		return stats, err
	}
	a.logger.Info("[app] Seeded %d markets, %d categories, %d competitors from %s",
		stats.Markets, stats.Categories, stats.Competitors, a.cfg.CatalogPath)
	return stats, nil
}

// newExtractor builds the extractor over the configured fetch mode.
func (a *app) newExtractor() (*amazon.Extractor, error) {
	var fetcher amazon.Fetcher
	switch a.cfg.FetchMode {
	case config.FetchModeBrowser:
		bf, err := amazon.NewBrowserFetcher(a.cfg.ChromeBin, a.cfg.UserAgent, a.cfg.AcceptLanguage, a.cfg.HTTPTimeout, a.logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, bf.Close)
		fetcher = bf
	case config.FetchModeHTTP:
		fetcher = amazon.NewHTTPFetcher(nil, a.cfg.UserAgent, a.cfg.AcceptLanguage, a.cfg.HTTPTimeout)
	default:
		return nil, fmt.Errorf("unknown fetch mode %q (want %s or %s)",
			a.cfg.FetchMode, config.FetchModeHTTP, config.FetchModeBrowser)
	}

	return amazon.New(fetcher, a.logger,
		amazon.WithMetrics(a.metrics),
		amazon.WithStarTokens(a.profile.StarTokens),
		amazon.WithReviewBaseURL(a.cfg.ReviewBaseURL),
	), nil
}

// newSnapshotSink opens the CSV export, or returns nil when disabled.
func (a *app) newSnapshotSink() (storage.SnapshotWriter, error) {
	if a.cfg.CSVOutputPath == "" {
		return nil, nil
	}
	w, err := storage.NewCSVWriter(a.cfg.CSVOutputPath)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() {
		if err := w.Close(); err != nil {
			a.logger.Warn("[app] Closing CSV export: %v", err)
		}
	})
	return w, nil
}

func (a *app) newEngine() *services.Engine {
	opts := []services.EngineOption{services.WithEngineMetrics(a.metrics)}
	if a.profile.FallbackTargetPrice > 0 {
		opts = append(opts, services.WithFallbackPrice(a.profile.FallbackTargetPrice))
	}
	if a.profile.Currency != "" {
		opts = append(opts, services.WithCurrency(a.profile.Currency))
	}
	return services.NewEngine(a.logger, opts...)
}

// newAnalyzer wires the batch analyzer over store. seed 0 picks a
// time-based seed for the simulated ranking source; a negative seed disables
// ranking enrichment.
func (a *app) newAnalyzer(store storage.Store, seed int64) *services.Analyzer {
	var ranking services.RankingSource
	switch {
	case seed < 0:
		a.logger.Info("[app] Ranking enrichment disabled")
	case seed == 0:
		ranking = services.NewSimulatedRankingSource(a.profile, time.Now().UnixNano())
	default:
		ranking = services.NewSimulatedRankingSource(a.profile, seed)
	}

	return services.NewAnalyzer(services.AnalyzerConfig{
		Catalog:    store,
		Proposals:  store,
		Ranking:    ranking,
		Engine:     a.newEngine(),
		Metrics:    a.metrics,
		MaxWorkers: a.cfg.MaxConcurrency,
	}, a.logger)
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
