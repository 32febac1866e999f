package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"competitor-radar/models"
	"competitor-radar/storage"
	"competitor-radar/utils"
)

var (
	// ErrNoProductURLs is returned for a competitor with nothing to extract.
	ErrNoProductURLs = errors.New("competitor has no product urls")
	// ErrAllExtractionsFailed is returned when no product page yielded a snapshot.
	ErrAllExtractionsFailed = errors.New("every product extraction failed")
)

const (
	positiveRating = 4.0
	neutralRating  = 3.0
)

// Collection outcome statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// ProductExtractor turns a product URL into an extraction result.
type ProductExtractor interface {
	Extract(ctx context.Context, url string) *models.ExtractionResult
}

// ResultSaver persists a collection run.
type ResultSaver interface {
	SaveResult(ctx context.Context, result *models.CollectionResult) ([]models.Alert, error)
}

// CollectorConfig bounds how hard a collection run hits the target site.
type CollectorConfig struct {
	MaxWorkers  int
	RateLimitMs int
	Currency    string
	// Sink receives every raw extraction result. Optional.
	Sink storage.SnapshotWriter
}

// CollectionOutcome reports how one competitor's collection went.
type CollectionOutcome struct {
	CompetitorID string
	Competitor   string
	Status       string
	Products     int
	Alerts       int
	Err          string
}

// Collector extracts a competitor's product pages and turns them into a
// CollectionResult.
type Collector struct {
	extractor ProductExtractor
	cleaner   *Cleaner
	saver     ResultSaver
	logger    *utils.Logger
	cfg       CollectorConfig
}

// NewCollector creates a Collector.
func NewCollector(extractor ProductExtractor, saver ResultSaver, logger *utils.Logger, cfg CollectorConfig) *Collector {
	if cfg.Currency == "" {
		cfg.Currency = "JPY"
	}
	return &Collector{
		extractor: extractor,
		cleaner:   NewCleaner(logger),
		saver:     saver,
		logger:    logger,
		cfg:       cfg,
	}
}

// CollectForCompetitor extracts every tracked product URL of comp through a
// bounded, rate-limited worker pool.
func (c *Collector) CollectForCompetitor(ctx context.Context, comp models.Competitor) (*models.CollectionResult, error) {
	seen := utils.NewURLSet()
	var urls []string
	for _, u := range comp.ProductURLs {
		if u != "" && seen.Add(u) {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("collect %s: %w", comp.Name, ErrNoProductURLs)
	}

	c.logger.Info("[collector] Starting collection for %s (%d product pages)", comp.Name, len(urls))

	results := make([]*models.ExtractionResult, len(urls))
	pool := utils.NewWorkerPool(c.cfg.MaxWorkers, c.cfg.RateLimitMs)
	for i, u := range urls {
		pool.SubmitContext(ctx, func(ctx context.Context) {
			results[i] = c.extractSafely(ctx, u)
		})
	}
	pool.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("collect %s: %w", comp.Name, err)
	}

	extracted := make([]*models.ExtractionResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			extracted = append(extracted, r)
		}
	}
	if c.cfg.Sink != nil {
		if err := c.cfg.Sink.WriteSnapshots(extracted); err != nil {
			c.logger.Warn("[collector] snapshot export failed: %v", err)
		}
	}

	cleaned := c.cleaner.Clean(extracted, c.cfg.Currency)
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("collect %s: %w (%d pages)", comp.Name, ErrAllExtractionsFailed, len(urls))
	}

	products := make([]models.CollectedProduct, 0, len(cleaned))
	for _, s := range cleaned {
		products = append(products, s.Product)
	}

	return &models.CollectionResult{
		CompetitorID: comp.ID,
		Products:     products,
		Reviews:      SummarizeReviews(comp.Name, cleaned),
	}, nil
}

// extractSafely turns an extractor panic into a failed result so one bad page
// cannot take down the pool goroutine.
func (c *Collector) extractSafely(ctx context.Context, url string) (res *models.ExtractionResult) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("[collector] Extractor panicked on %s: %v", url, r)
			res = models.Failed(url, models.ErrorKindUnrecognizedLayout, 0, fmt.Sprintf("extractor panic: %v", r))
		}
	}()
	return c.extractor.Extract(ctx, url)
}

// CollectAll collects and saves every competitor in turn. One competitor's
// failure or panic never stops the others.
func (c *Collector) CollectAll(ctx context.Context, competitors []models.Competitor) []CollectionOutcome {
	outcomes := make([]CollectionOutcome, 0, len(competitors))
	for _, comp := range competitors {
		if ctx.Err() != nil {
			outcomes = append(outcomes, CollectionOutcome{
				CompetitorID: comp.ID, Competitor: comp.Name, Status: StatusFailed, Err: ctx.Err().Error(),
			})
			continue
		}
		outcomes = append(outcomes, c.collectOne(ctx, comp))
	}
	return outcomes
}

func (c *Collector) collectOne(ctx context.Context, comp models.Competitor) (out CollectionOutcome) {
	out = CollectionOutcome{CompetitorID: comp.ID, Competitor: comp.Name, Status: StatusFailed}
	defer func() {
		if r := recover(); r != nil {
			out.Status = StatusFailed
			out.Err = fmt.Sprintf("panic: %v", r)
			c.logger.Error("[collector] Collection panicked for %s: %v", comp.Name, r)
		}
	}()

	result, err := c.CollectForCompetitor(ctx, comp)
	if err != nil {
		out.Err = err.Error()
		c.logger.Error("[collector] Collection failed for %s: %v", comp.Name, err)
		return out
	}

	alerts, err := c.saver.SaveResult(ctx, result)
	if err != nil {
		out.Err = err.Error()
		c.logger.Error("[collector] Saving results failed for %s: %v", comp.Name, err)
		return out
	}

	out.Status = StatusSuccess
	out.Products = len(result.Products)
	out.Alerts = len(alerts)
	return out
}

// SummarizeReviews condenses the rated snapshots of one competitor. The
// summary quotes the most critical review found across its products.
func SummarizeReviews(competitorName string, cleaned []CleanedSnapshot) models.CollectedReviewSummary {
	var total float64
	rated := 0
	var worst *models.ReviewExcerpt
	worstProduct := ""

	for _, s := range cleaned {
		if s.Rating > 0 {
			total += s.Rating
			rated++
		}
		if s.CriticalReview != nil && (worst == nil || s.CriticalReview.StarValue < worst.StarValue) {
			worst = s.CriticalReview
			worstProduct = s.Product.Name
		}
	}

	summary := models.CollectedReviewSummary{ReviewCount: rated, Sentiment: models.SentimentNeutral}
	if rated > 0 {
		summary.AverageRating = math.Round(total/float64(rated)*10) / 10
		summary.Sentiment = SentimentFor(summary.AverageRating)
	}

	if worst != nil {
		summary.Summary = fmt.Sprintf("Most critical review of %s (%.1f stars): %q %s",
			truncate(worstProduct, 60), worst.StarValue, worst.Title, truncate(worst.Body, 200))
	} else {
		summary.Summary = fmt.Sprintf("No critical reviews found across %d products from %s.", len(cleaned), competitorName)
	}
	return summary
}

// SentimentFor buckets an average star rating.
func SentimentFor(rating float64) models.Sentiment {
	switch {
	case rating >= positiveRating:
		return models.SentimentPositive
	case rating >= neutralRating:
		return models.SentimentNeutral
	default:
		return models.SentimentNegative
	}
}
