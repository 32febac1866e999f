package services

import (
	"context"
	"errors"
	"fmt"

	"competitor-radar/metrics"
	"competitor-radar/models"
	"competitor-radar/storage"
	"competitor-radar/utils"
)

// Analysis outcome statuses.
const (
	StatusProposal = "proposal"
	StatusSkipped  = "skipped"
)

// AnalysisOutcome reports how one category's analysis went.
type AnalysisOutcome struct {
	CategoryID  string
	Category    string
	Status      string
	ProposalID  string
	ProductName string
	Archetype   models.Archetype
	TargetPrice float64
	Err         string
}

// Analyzer gathers a category's market data, runs the Engine and stores the
// resulting proposal.
type Analyzer struct {
	catalog    storage.CatalogStore
	proposals  storage.ProposalStore
	insights   *InsightService
	ranking    RankingSource
	engine     *Engine
	logger     *utils.Logger
	metrics    *metrics.Metrics
	maxWorkers int
}

// AnalyzerConfig wires an Analyzer. Ranking and Metrics may be nil.
type AnalyzerConfig struct {
	Catalog    storage.CatalogStore
	Proposals  storage.ProposalStore
	Ranking    RankingSource
	Engine     *Engine
	Metrics    *metrics.Metrics
	MaxWorkers int
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(cfg AnalyzerConfig, logger *utils.Logger) *Analyzer {
	engine := cfg.Engine
	if engine == nil {
		engine = NewEngine(logger, WithEngineMetrics(cfg.Metrics))
	}
	return &Analyzer{
		catalog:    cfg.Catalog,
		proposals:  cfg.Proposals,
		insights:   NewInsightService(logger),
		ranking:    cfg.Ranking,
		engine:     engine,
		logger:     logger,
		metrics:    cfg.Metrics,
		maxWorkers: cfg.MaxWorkers,
	}
}

// AnalyzeCategory analyzes one category by ID and stores the proposal.
func (a *Analyzer) AnalyzeCategory(ctx context.Context, categoryID string) (*models.Proposal, error) {
	cat, err := a.catalog.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", categoryID, err)
	}
	return a.analyze(ctx, *cat)
}

func (a *Analyzer) analyze(ctx context.Context, cat models.Category) (*models.Proposal, error) {
	snapshots, err := a.catalog.CompetitorSnapshots(ctx, cat.MarketID)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: competitors: %w", cat.Name, err)
	}
	stats := a.insights.MarketStats(cat, snapshots)

	var signals *models.RankingSignals
	if a.ranking != nil && stats.CompetitorCount > 0 && stats.RankingURLCount > 0 {
		signals, err = a.ranking.Signals(ctx, cat, stats)
		if err != nil {
			return nil, fmt.Errorf("analyze %s: ranking signals: %w", cat.Name, err)
		}
	}

	proposal, err := a.engine.AnalyzeCategory(stats, signals)
	if err != nil {
		return nil, err
	}

	if err := a.proposals.CreateProposal(ctx, proposal); err != nil {
		return nil, fmt.Errorf("analyze %s: save proposal: %w", cat.Name, err)
	}
	a.metrics.ObserveAnalysis(StatusProposal)
	return proposal, nil
}

// RunGlobalAnalysis analyzes every category independently. A failing or
// panicking category is reported in its outcome and never stops the others.
// The error is non-nil only when the categories cannot be listed.
func (a *Analyzer) RunGlobalAnalysis(ctx context.Context) ([]AnalysisOutcome, error) {
	cats, err := a.catalog.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("global analysis: list categories: %w", err)
	}

	a.logger.Info("[analyzer] Analyzing %d categories", len(cats))

	outcomes := make([]AnalysisOutcome, len(cats))
	pool := utils.NewWorkerPool(a.maxWorkers, 0)
	for i, cat := range cats {
		outcomes[i] = AnalysisOutcome{CategoryID: cat.ID, Category: cat.Name, Status: StatusFailed, Err: "not started"}
		pool.SubmitContext(ctx, func(ctx context.Context) {
			outcomes[i] = a.analyzeOne(ctx, cat)
		})
	}
	pool.Wait()

	var ok, skipped, failed int
	for _, o := range outcomes {
		switch o.Status {
		case StatusProposal:
			ok++
		case StatusSkipped:
			skipped++
		default:
			failed++
		}
	}
	a.logger.Info("[analyzer] Global analysis done: %d proposals, %d skipped, %d failed", ok, skipped, failed)
	return outcomes, nil
}

func (a *Analyzer) analyzeOne(ctx context.Context, cat models.Category) (out AnalysisOutcome) {
	out = AnalysisOutcome{CategoryID: cat.ID, Category: cat.Name, Status: StatusFailed}
	defer func() {
		if r := recover(); r != nil {
			out.Status = StatusFailed
			out.Err = fmt.Sprintf("panic: %v", r)
			a.metrics.ObserveAnalysis(StatusFailed)
			a.logger.Error("[analyzer] Analysis panicked for %s: %v", cat.Name, r)
		}
	}()

	p, err := a.analyze(ctx, cat)
	switch {
	case errors.Is(err, ErrNoAnalysis):
		out.Status = StatusSkipped
		out.Err = err.Error()
		a.logger.Warn("[analyzer] Skipping %s: %v", cat.Name, err)
	case err != nil:
		out.Err = err.Error()
		a.metrics.ObserveAnalysis(StatusFailed)
		a.logger.Error("[analyzer] Analysis failed for %s: %v", cat.Name, err)
	default:
		out.Status = StatusProposal
		out.Err = ""
		out.ProposalID = p.ID
		out.ProductName = p.ProductName
		out.Archetype = p.Archetype
		out.TargetPrice = p.TargetPrice
	}
	return out
}
