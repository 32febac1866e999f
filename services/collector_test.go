package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"competitor-radar/models"
)

const (
	urlA = "https://www.amazon.co.jp/dp/B0TEST000A"
	urlB = "https://www.amazon.co.jp/dp/B0TEST000B"
	urlC = "https://www.amazon.co.jp/dp/B0TEST000C"
)

// recordingSaver captures saved results and can fail on demand.
type recordingSaver struct {
	saved []*models.CollectionResult
	err   error
}

func (s *recordingSaver) SaveResult(_ context.Context, r *models.CollectionResult) ([]models.Alert, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.saved = append(s.saved, r)
	alerts := make([]models.Alert, len(r.Products))
	return alerts, nil
}

func TestCollectForCompetitor(t *testing.T) {
	critical := &models.ReviewExcerpt{Title: "Rattles", Body: "Started rattling after a week", StarValue: 1}
	ext := newFakeExtractor().
		product(urlA, "Fan A", "￥2,980", "5つ星のうち4.0", nil).
		product(urlB, "Fan B", "￥3,980", "5つ星のうち3.0", critical)
	sink := &memorySink{}

	c := NewCollector(ext, &recordingSaver{}, newTestLogger(), CollectorConfig{MaxWorkers: 2, Sink: sink})
	comp := models.Competitor{ID: "c1", Name: "Breeze Co", ProductURLs: []string{urlA, urlB, urlA, "", urlC}}

	res, err := c.CollectForCompetitor(context.Background(), comp)
	require.NoError(t, err)

	assert.Equal(t, 3, ext.callCount(), "duplicate and empty URLs are not fetched")
	assert.Len(t, sink.written, 3, "failed extractions are still exported")

	assert.Equal(t, "c1", res.CompetitorID)
	require.Len(t, res.Products, 2)
	assert.ElementsMatch(t, []string{"Fan A", "Fan B"}, []string{res.Products[0].Name, res.Products[1].Name})
	assert.Equal(t, "JPY", res.Products[0].Currency)

	assert.Equal(t, 3.5, res.Reviews.AverageRating)
	assert.Equal(t, 2, res.Reviews.ReviewCount)
	assert.Equal(t, models.SentimentNeutral, res.Reviews.Sentiment)
	assert.Contains(t, res.Reviews.Summary, `"Rattles"`)
	assert.Contains(t, res.Reviews.Summary, "Fan B")
}

func TestCollectForCompetitor_Errors(t *testing.T) {
	c := NewCollector(newFakeExtractor(), &recordingSaver{}, newTestLogger(), CollectorConfig{MaxWorkers: 1})

	_, err := c.CollectForCompetitor(context.Background(), models.Competitor{Name: "Empty", ProductURLs: []string{""}})
	assert.ErrorIs(t, err, ErrNoProductURLs)

	_, err = c.CollectForCompetitor(context.Background(), models.Competitor{Name: "Blocked", ProductURLs: []string{urlA, urlB}})
	assert.ErrorIs(t, err, ErrAllExtractionsFailed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.CollectForCompetitor(ctx, models.Competitor{Name: "Late", ProductURLs: []string{urlA}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCollectAll_IsolatesFailures(t *testing.T) {
	ext := newFakeExtractor().
		product(urlA, "Fan A", "￥2,980", "4.5 out of 5 stars", nil).
		product(urlC, "Fan C", "￥1,980", "4.0 out of 5 stars", nil)
	ext.panics[urlB] = true
	saver := &recordingSaver{}

	c := NewCollector(ext, saver, newTestLogger(), CollectorConfig{MaxWorkers: 1})
	outcomes := c.CollectAll(context.Background(), []models.Competitor{
		{ID: "1", Name: "Alpha", ProductURLs: []string{urlA}},
		{ID: "2", Name: "Bravo", ProductURLs: []string{urlB}},
		{ID: "3", Name: "Charlie", ProductURLs: []string{urlC}},
		{ID: "4", Name: "Delta"},
	})

	require.Len(t, outcomes, 4)
	assert.Equal(t, StatusSuccess, outcomes[0].Status)
	assert.Equal(t, 1, outcomes[0].Products)
	assert.Equal(t, 1, outcomes[0].Alerts)

	assert.Equal(t, StatusFailed, outcomes[1].Status)
	assert.Contains(t, outcomes[1].Err, ErrAllExtractionsFailed.Error())

	assert.Equal(t, StatusSuccess, outcomes[2].Status)
	assert.Equal(t, StatusFailed, outcomes[3].Status)
	assert.Contains(t, outcomes[3].Err, ErrNoProductURLs.Error())

	assert.Len(t, saver.saved, 2)
}

func TestCollectAll_SaveFailure(t *testing.T) {
	ext := newFakeExtractor().product(urlA, "Fan A", "￥2,980", "", nil)
	c := NewCollector(ext, &recordingSaver{err: errors.New("db down")}, newTestLogger(), CollectorConfig{MaxWorkers: 1})

	outcomes := c.CollectAll(context.Background(), []models.Competitor{{ID: "1", Name: "Alpha", ProductURLs: []string{urlA}}})

	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusFailed, outcomes[0].Status)
	assert.Equal(t, "db down", outcomes[0].Err)
}

func TestSummarizeReviews(t *testing.T) {
	t.Run("nothing rated", func(t *testing.T) {
		got := SummarizeReviews("Breeze Co", []CleanedSnapshot{{Product: models.CollectedProduct{Name: "Fan"}}})

		assert.Equal(t, models.CollectedReviewSummary{
			Sentiment: models.SentimentNeutral,
			Summary:   "No critical reviews found across 1 products from Breeze Co.",
		}, got)
	})

	t.Run("worst review quoted", func(t *testing.T) {
		got := SummarizeReviews("Breeze Co", []CleanedSnapshot{
			{Product: models.CollectedProduct{Name: "Fan A"}, Rating: 4.33, CriticalReview: &models.ReviewExcerpt{Title: "Meh", StarValue: 3}},
			{Product: models.CollectedProduct{Name: "Fan B"}, Rating: 4.5, CriticalReview: &models.ReviewExcerpt{Title: "Broke", StarValue: 1}},
		})

		assert.Equal(t, 4.4, got.AverageRating)
		assert.Equal(t, 2, got.ReviewCount)
		assert.Equal(t, models.SentimentPositive, got.Sentiment)
		assert.Contains(t, got.Summary, "Most critical review of Fan B (1.0 stars)")
	})
}

func TestSentimentFor(t *testing.T) {
	assert.Equal(t, models.SentimentPositive, SentimentFor(4.0))
	assert.Equal(t, models.SentimentNeutral, SentimentFor(3.99))
	assert.Equal(t, models.SentimentNeutral, SentimentFor(3.0))
	assert.Equal(t, models.SentimentNegative, SentimentFor(2.9))
}
