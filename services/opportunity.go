package services

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"competitor-radar/metrics"
	"competitor-radar/models"
	"competitor-radar/utils"
)

// ErrNoAnalysis is returned when a category has no competitors to learn from.
var ErrNoAnalysis = errors.New("no competitors to analyze")

const (
	// DefaultFallbackTargetPrice is used for Balanced proposals when the
	// category has no priced products.
	DefaultFallbackTargetPrice = 2980

	topKeywordCount = 3

	lowRatingCeiling   = 3.8
	highVolumeReviews  = 100
	complaintsFeature  = ", Fixes common complaints (e.g. noise, durability) found in top selling items"
	advancedAnalysisHd = "\n\n[Advanced Analysis]:\n"
)

// draft is what an archetype contributes to a proposal.
type draft struct {
	productName string
	targetPrice float64
	features    string
	reasoning   string
}

// archetypeRule pairs a market condition with the proposal it produces.
type archetypeRule struct {
	archetype models.Archetype
	matches   func(s models.AggregateMarketStats) bool
	build     func(s models.AggregateMarketStats, e *Engine) draft
}

// archetypeRules are evaluated in order; the first match wins. The last rule
// always matches.
var archetypeRules = []archetypeRule{
	{
		archetype: models.ArchetypeQualityGap,
		matches: func(s models.AggregateMarketStats) bool {
			return s.AvgRating < 3.5 && s.AvgPrice > 5000
		},
		build: func(s models.AggregateMarketStats, e *Engine) draft {
			return draft{
				productName: fmt.Sprintf("Premium %s Solver", s.CategoryName),
				targetPrice: s.AvgPrice * 0.9,
				features:    "High durability materials, Extended warranty, Premium unboxing experience",
				reasoning: fmt.Sprintf("Competitors in %s are charging high prices (avg %s) but delivering poor quality "+
					"(avg %s stars). There is a massive opportunity for a quality product at a similar or slightly lower price point.",
					s.CategoryName, e.formatPrice(s.AvgPrice), formatRating(s.AvgRating)),
			}
		},
	},
	{
		archetype: models.ArchetypeValueGap,
		matches: func(s models.AggregateMarketStats) bool {
			return s.AvgRating > 4.5 && s.AvgPrice > 10000
		},
		build: func(s models.AggregateMarketStats, e *Engine) draft {
			return draft{
				productName: fmt.Sprintf("Essential %s", s.CategoryName),
				targetPrice: s.AvgPrice * 0.6,
				features:    "Core functionality focus, Simplified design, Cost-effective packaging",
				reasoning: fmt.Sprintf("The market for %s is dominated by high-end expensive products (avg %s, %s stars). "+
					"A \"Good Enough\" value option could capture significant market share.",
					s.CategoryName, e.formatPrice(s.AvgPrice), formatRating(s.AvgRating)),
			}
		},
	},
	{
		archetype: models.ArchetypeBalanced,
		matches:   func(models.AggregateMarketStats) bool { return true },
		build: func(s models.AggregateMarketStats, e *Engine) draft {
			target := s.AvgPrice
			if target <= 0 {
				target = e.fallbackPrice
			}
			return draft{
				productName: fmt.Sprintf("NextGen %s", s.CategoryName),
				targetPrice: target,
				features:    "Modern aesthetic, User-centric ergonomics, Eco-friendly materials",
				reasoning: fmt.Sprintf("Analysis of %s suggests a balanced market (avg %s, %s stars). "+
					"A differentiated product focusing on specific user pain points in reviews is recommended.",
					s.CategoryName, e.formatPrice(s.AvgPrice), formatRating(s.AvgRating)),
			}
		},
	},
}

// Engine turns market statistics into product proposals. It performs no I/O
// and is safe for concurrent use.
type Engine struct {
	logger        *utils.Logger
	metrics       *metrics.Metrics
	fallbackPrice float64
	currency      string
	now           func() time.Time
	newID         func() string
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithFallbackPrice sets the Balanced target price used when AvgPrice is zero.
func WithFallbackPrice(price float64) EngineOption {
	return func(e *Engine) {
		if price > 0 {
			e.fallbackPrice = price
		}
	}
}

// WithCurrency sets the currency code used when quoting prices in reasoning.
func WithCurrency(code string) EngineOption {
	return func(e *Engine) { e.currency = code }
}

// WithEngineMetrics records analysis outcomes.
func WithEngineMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides the proposal timestamp and ID sources.
func WithClock(now func() time.Time, newID func() string) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
		if newID != nil {
			e.newID = newID
		}
	}
}

// NewEngine creates an Engine.
func NewEngine(logger *utils.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		logger:        logger,
		fallbackPrice: DefaultFallbackTargetPrice,
		currency:      "JPY",
		now:           time.Now,
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AnalyzeCategory classifies the category's market gap and drafts a proposal.
// signals may be nil; enrichment only runs when the category has ranking URLs
// and signals are present.
func (e *Engine) AnalyzeCategory(stats models.AggregateMarketStats, signals *models.RankingSignals) (*models.Proposal, error) {
	if stats.CompetitorCount == 0 {
		e.metrics.ObserveAnalysis("skipped")
		return nil, fmt.Errorf("category %q: %w", stats.CategoryName, ErrNoAnalysis)
	}

	rule := classify(stats)
	d := rule.build(stats, e)

	p := &models.Proposal{
		ID:          e.newID(),
		CategoryID:  stats.CategoryID,
		Archetype:   rule.archetype,
		ProductName: d.productName,
		TargetPrice: d.targetPrice,
		Features:    d.features,
		Reasoning:   d.reasoning,
		Status:      models.ProposalStatusDraft,
		CreatedAt:   e.now(),
	}

	if stats.RankingURLCount > 0 && signals != nil {
		e.enrich(p, signals)
	}

	e.logger.Debug("[engine] %s → %s (%s, target %.0f)", stats.CategoryName, p.ProductName, p.Archetype, p.TargetPrice)
	return p, nil
}

func classify(stats models.AggregateMarketStats) archetypeRule {
	for _, r := range archetypeRules {
		if r.matches(stats) {
			return r
		}
	}
	return archetypeRules[len(archetypeRules)-1]
}

// enrich appends the keyword and niche analysis to p.
func (e *Engine) enrich(p *models.Proposal, signals *models.RankingSignals) {
	top := RankKeywords(signals.Keywords, topKeywordCount)

	words := make([]string, 0, len(top))
	quoted := make([]string, 0, len(top))
	for _, k := range top {
		words = append(words, k.Word)
		quoted = append(quoted, fmt.Sprintf("%q (Score: %.0f)", k.Word, math.Round(k.Score)))
	}
	p.Keywords = strings.Join(words, ", ")

	var b strings.Builder
	b.WriteString(advancedAnalysisHd)
	fmt.Fprintf(&b, "- **Niche Status**: %s.\n", nicheVerdict(signals.TopListings, signals.MajorBrands))
	if len(quoted) > 0 {
		fmt.Fprintf(&b, "- **Target Keywords**: %s.\n", strings.Join(quoted, ", "))
	} else {
		b.WriteString("- **Target Keywords**: none scored.\n")
	}

	if n := countUnsatisfied(signals.TopListings); n > 0 {
		fmt.Fprintf(&b, "- **Opportunity**: Found %d high-volume items with low ratings (<%.1f). "+
			"Users are buying but unsatisfied.\n", n, lowRatingCeiling)
		p.Features += complaintsFeature
	}

	p.Reasoning += b.String()
}

// RankKeywords scores candidates by volume/difficulty and returns the best n,
// highest first. Ties keep input order. Candidates without a positive
// difficulty cannot be scored and are skipped.
func RankKeywords(candidates []models.KeywordCandidate, n int) []models.ScoredKeyword {
	scored := make([]models.ScoredKeyword, 0, len(candidates))
	for _, c := range candidates {
		if c.Difficulty <= 0 {
			continue
		}
		scored = append(scored, models.ScoredKeyword{KeywordCandidate: c, Score: c.Volume / c.Difficulty})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > n {
		scored = scored[:n]
	}
	return scored
}

// IsNiche reports whether fewer than half of the sampled listings belong to a
// major brand.
func IsNiche(sample []models.RankedListing, majorBrands []string) bool {
	majors := make(map[string]struct{}, len(majorBrands))
	for _, b := range majorBrands {
		majors[strings.ToLower(b)] = struct{}{}
	}

	count := 0
	for _, l := range sample {
		if _, ok := majors[strings.ToLower(l.Brand)]; ok {
			count++
		}
	}
	return count*2 < len(sample)
}

func nicheVerdict(sample []models.RankedListing, majorBrands []string) string {
	switch {
	case len(sample) == 0:
		return "Unknown (no ranking sample)"
	case IsNiche(sample, majorBrands):
		return "✅ Blue Ocean (Big Brands < 50%)"
	default:
		return "⚠️ Red Ocean (Dominated by Big Brands)"
	}
}

func countUnsatisfied(sample []models.RankedListing) int {
	n := 0
	for _, l := range sample {
		if l.Rating < lowRatingCeiling && l.ReviewCount > highVolumeReviews {
			n++
		}
	}
	return n
}

var currencySymbols = map[string]string{
	"JPY": "¥",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// formatPrice renders a price rounded to the nearest whole unit.
func (e *Engine) formatPrice(v float64) string {
	amount := fmt.Sprintf("%.0f", math.Round(v))
	if sym, ok := currencySymbols[strings.ToUpper(e.currency)]; ok {
		return sym + amount
	}
	if e.currency == "" {
		return amount
	}
	return amount + " " + e.currency
}

func formatRating(v float64) string {
	return fmt.Sprintf("%.1f", v)
}
