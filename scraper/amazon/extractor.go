// Package amazon extracts structured product and review signals from Amazon
// product pages.
package amazon

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/PuerkitoBio/goquery"

	"competitor-radar/metrics"
	"competitor-radar/models"
	"competitor-radar/utils"
)

const (
	msgBotDetected = "bot activity detected (503 Service Unavailable); a scraping API or proxy is required"
	msgCaptchaWall = "blocked by a CAPTCHA wall; a scraping API or proxy is required"
	msgNoTitle     = "loaded page but could not find the product title; layout may differ or content is dynamic"
)

// Extractor turns a product page into an ExtractionResult. It holds no
// per-call state and is safe for concurrent use.
type Extractor struct {
	fetcher       Fetcher
	logger        *utils.Logger
	metrics       *metrics.Metrics
	histogram     *histogramParser
	reviewBaseURL string
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithMetrics records extraction outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Extractor) { e.metrics = m }
}

// WithStarTokens sets the locale tokens that follow a star digit in
// histogram labels.
func WithStarTokens(tokens []string) Option {
	return func(e *Extractor) { e.histogram = newHistogramParser(tokens) }
}

// WithReviewBaseURL sets the scheme and host used for critical-review pages.
func WithReviewBaseURL(base string) Option {
	return func(e *Extractor) { e.reviewBaseURL = base }
}

// New creates an Extractor.
func New(fetcher Fetcher, logger *utils.Logger, opts ...Option) *Extractor {
	e := &Extractor{
		fetcher:       fetcher,
		logger:        logger,
		histogram:     newHistogramParser(nil),
		reviewBaseURL: "https://www.amazon.co.jp",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract fetches url and recovers a product snapshot. It never returns an
// error: every failure is a result with Success false.
func (e *Extractor) Extract(ctx context.Context, url string) (res *models.ExtractionResult) {
	defer func() {
		if r := recover(); r != nil {
			res = models.Failed(url, models.ErrorKindNetwork, 0, fmt.Sprintf("unexpected extraction failure: %v", r))
		}
		e.metrics.ObserveExtraction(string(res.Kind))
		if !res.Success {
			e.logger.Warn("[extractor] %s failed: %s", url, res.Error)
		}
	}()

	page, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		return models.Failed(url, models.ErrorKindNetwork, 0, err.Error())
	}

	if page.StatusCode == http.StatusServiceUnavailable {
		return models.Failed(url, models.ErrorKindBotDetected, page.StatusCode, msgBotDetected)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return models.Failed(url, models.ErrorKindNetwork, 0, fmt.Sprintf("parse html: %v", err))
	}

	if isCaptchaWall(doc) {
		return models.Failed(url, models.ErrorKindCaptchaWall, http.StatusOK, msgCaptchaWall)
	}

	snapshot := &models.ProductSnapshot{
		Title:      firstOf(doc, titleChain...),
		PriceText:  firstOf(doc, priceChain...),
		ImageURL:   firstOf(doc, imageChain...),
		RatingText: firstOf(doc, ratingChain...),
		Metrics:    qualityMetrics(doc),
	}
	if snapshot.Title == "" {
		return models.Failed(url, models.ErrorKindUnrecognizedLayout, http.StatusOK, msgNoTitle)
	}

	snapshot.CriticalReview = mostCritical(scanReviews(doc))
	snapshot.RatingDistribution = e.histogram.parse(doc)

	if needsDeepFetch(snapshot.CriticalReview) {
		e.escalate(ctx, url, snapshot)
	}

	e.logger.Debug("[extractor] %s: %q price=%q reviews=%t histogram=%d",
		url, snapshot.Title, snapshot.PriceText, snapshot.CriticalReview != nil, len(snapshot.RatingDistribution))

	return models.Succeeded(url, snapshot)
}

// escalate runs the deep fetch and merges what it finds into snapshot.
// Failures leave snapshot untouched.
func (e *Extractor) escalate(ctx context.Context, url string, snapshot *models.ProductSnapshot) {
	defer func() {
		if r := recover(); r != nil {
			e.metrics.ObserveDeepFetch(metrics.DeepFetchFailed)
			e.logger.Warn("[extractor] deep fetch for %s aborted: %v", url, r)
		}
	}()

	review, dist, err := e.deepFetch(ctx, url, len(snapshot.RatingDistribution) == 0)
	if err != nil {
		e.logger.Warn("[extractor] deep fetch for %s skipped: %v", url, err)
		return
	}

	snapshot.CriticalReview = review
	for star, pct := range dist {
		snapshot.RatingDistribution[star] = pct
	}
}
