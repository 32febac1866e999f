package amazon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"competitor-radar/models"
)

func TestParseStar(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"4.0 out of 5 stars", 4.0},
		{"1 out of 5 stars", 1},
		{"2.5", 2.5},
		{"", defaultStar},
		{"no rating", defaultStar},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseStar(tt.text, defaultStar), "parseStar(%q)", tt.text)
	}
}

func TestScanReviews_SkipsIncompleteAndCapsSample(t *testing.T) {
	doc := mustDoc(t, page(
		reviewBlock("", "No title", "1.0 out of 5 stars"),
		`<div data-hook="review"><a data-hook="review-title">Fallback body</a><div class="review-text-content"><span>From the fallback</span></div><i data-hook="review-star-rating">2.0 out of 5 stars</i></div>`,
		reviewBlock("No number", "Body", "Verified Purchase"),
		reviewBlock("r4", "b", "5.0 out of 5 stars"),
		reviewBlock("r5", "b", "5.0 out of 5 stars"),
		reviewBlock("r6", "b", "5.0 out of 5 stars"),
		reviewBlock("r7", "b", "1.0 out of 5 stars"),
	))

	reviews := scanReviews(doc)

	require.Len(t, reviews, 5)
	assert.Equal(t, "Fallback body", reviews[0].Title)
	assert.Equal(t, "From the fallback", reviews[0].Body)
	assert.Equal(t, 2.0, reviews[0].StarValue)
	assert.Equal(t, defaultStar, reviews[1].StarValue)
	for _, r := range reviews {
		assert.NotEqual(t, "r7", r.Title)
	}
}

func TestMostCritical_TiesKeepFirst(t *testing.T) {
	reviews := []models.ReviewExcerpt{
		{Title: "a", StarValue: 4},
		{Title: "b", StarValue: 2},
		{Title: "c", StarValue: 5},
		{Title: "d", StarValue: 2},
	}

	got := mostCritical(reviews)

	require.NotNil(t, got)
	assert.Equal(t, "b", got.Title)
	assert.Equal(t, "a", reviews[0].Title, "input order is untouched")
	assert.Nil(t, mostCritical(nil))
}

func TestNeedsDeepFetch(t *testing.T) {
	assert.True(t, needsDeepFetch(nil))
	assert.True(t, needsDeepFetch(&models.ReviewExcerpt{StarValue: 4}))
	assert.True(t, needsDeepFetch(&models.ReviewExcerpt{StarValue: 5}))
	assert.False(t, needsDeepFetch(&models.ReviewExcerpt{StarValue: 3.9}))
}
