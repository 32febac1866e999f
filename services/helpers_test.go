package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"competitor-radar/models"
	"competitor-radar/utils"
)

func newTestLogger() *utils.Logger { return utils.NewNopLogger() }

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestEngine(opts ...EngineOption) *Engine {
	n := 0
	var mu sync.Mutex
	opts = append([]EngineOption{WithClock(
		func() time.Time { return fixedNow },
		func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("proposal-%d", n)
		},
	)}, opts...)
	return NewEngine(newTestLogger(), opts...)
}

// fakeExtractor serves canned results by URL; unknown URLs fail as blocked.
type fakeExtractor struct {
	mu      sync.Mutex
	results map[string]*models.ExtractionResult
	panics  map[string]bool
	calls   []string
}

func newFakeExtractor() *fakeExtractor {
	return &fakeExtractor{results: map[string]*models.ExtractionResult{}, panics: map[string]bool{}}
}

func (f *fakeExtractor) product(url, title, price, rating string, critical *models.ReviewExcerpt) *fakeExtractor {
	f.results[url] = models.Succeeded(url, &models.ProductSnapshot{
		Title:          title,
		PriceText:      price,
		RatingText:     rating,
		Metrics:        models.ListingQualityMetrics{ImageCount: 1},
		CriticalReview: critical,
	})
	return f
}

func (f *fakeExtractor) Extract(_ context.Context, url string) *models.ExtractionResult {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	res, ok := f.results[url]
	boom := f.panics[url]
	f.mu.Unlock()

	if boom {
		panic("selector engine exploded")
	}
	if !ok {
		return models.Failed(url, models.ErrorKindBotDetected, 503, "blocked")
	}
	return res
}

func (f *fakeExtractor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type rankingFunc func(ctx context.Context, cat models.Category, stats models.AggregateMarketStats) (*models.RankingSignals, error)

func (f rankingFunc) Signals(ctx context.Context, cat models.Category, stats models.AggregateMarketStats) (*models.RankingSignals, error) {
	return f(ctx, cat, stats)
}

// memorySink collects exported snapshots.
type memorySink struct {
	mu      sync.Mutex
	written []*models.ExtractionResult
}

func (s *memorySink) WriteSnapshots(results []*models.ExtractionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.written = append(s.written, results...)
	return nil
}

func (s *memorySink) Close() error { return nil }
