package amazon

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"competitor-radar/models"
)

const (
	reviewSelector       = `div[data-hook="review"]`
	reviewTitleSelector  = `a[data-hook="review-title"]`
	reviewBodySelector   = `span[data-hook="review-body"]`
	reviewBodyFallback   = ".review-text-content"
	reviewRatingSelector = `i[data-hook="review-star-rating"]`

	// maxScannedReviews bounds how many review blocks are sampled on the
	// product page.
	maxScannedReviews = 6

	// defaultStar is used when the rating text has no number. It assumes the
	// review is positive so a missing number never reads as a complaint.
	defaultStar = 5.0

	// criticalThreshold is the star value at or above which a review is not
	// considered critical.
	criticalThreshold = 4.0
)

var leadingNumberRegexp = regexp.MustCompile(`\d+(?:\.\d+)?`)

// parseStar returns the first number in text, or fallback if there is none.
func parseStar(text string, fallback float64) float64 {
	match := leadingNumberRegexp.FindString(text)
	if match == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return fallback
	}
	return v
}

// parseReview reads one review block. ok is false when the block lacks a
// title or body.
func parseReview(s *goquery.Selection, fallbackStar float64) (review models.ReviewExcerpt, ok bool) {
	title := strings.TrimSpace(s.Find(reviewTitleSelector).Text())
	body := strings.TrimSpace(s.Find(reviewBodySelector).Text())
	if body == "" {
		body = strings.TrimSpace(s.Find(reviewBodyFallback).Text())
	}
	ratingText := strings.TrimSpace(s.Find(reviewRatingSelector).Text())

	if title == "" || body == "" {
		return models.ReviewExcerpt{}, false
	}

	return models.ReviewExcerpt{
		Title:      title,
		Body:       body,
		RatingText: ratingText,
		StarValue:  parseStar(ratingText, fallbackStar),
	}, true
}

// scanReviews parses up to maxScannedReviews review blocks from the page.
func scanReviews(doc *goquery.Document) []models.ReviewExcerpt {
	var reviews []models.ReviewExcerpt
	doc.Find(reviewSelector).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= maxScannedReviews {
			return false
		}
		if r, ok := parseReview(s, defaultStar); ok {
			reviews = append(reviews, r)
		}
		return true
	})
	return reviews
}

// mostCritical returns the lowest-rated review. Ties keep the earliest one.
func mostCritical(reviews []models.ReviewExcerpt) *models.ReviewExcerpt {
	if len(reviews) == 0 {
		return nil
	}
	sorted := make([]models.ReviewExcerpt, len(reviews))
	copy(sorted, reviews)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StarValue < sorted[j].StarValue
	})
	return &sorted[0]
}

// needsDeepFetch reports whether the page's visible reviews are too
// favorable to stand in for the product's main complaint.
func needsDeepFetch(candidate *models.ReviewExcerpt) bool {
	return candidate == nil || candidate.StarValue >= criticalThreshold
}
