package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"competitor-radar/models"
	"competitor-radar/utils"
)

var (
	// priceRegexp captures the first grouped number, e.g. "2,980" in "￥2,980"
	priceRegexp = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	// outOfRegexp captures the score in Japanese "5つ星のうち4.0" labels
	outOfRegexp = regexp.MustCompile(`のうち\s*(\d+(?:\.\d+)?)`)
	// ratingRegexp captures a numeric rating in the 0.0–5.0 range
	ratingRegexp = regexp.MustCompile(`\b([0-5](?:\.\d{1,2})?)\b`)
)

// CleanedSnapshot is a successful extraction with its text fields parsed.
type CleanedSnapshot struct {
	Product        models.CollectedProduct
	Rating         float64
	CriticalReview *models.ReviewExcerpt
}

// Cleaner transforms raw extraction results into typed product observations.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean keeps successful results, parses their price and rating text and
// drops duplicate URLs.
func (c *Cleaner) Clean(results []*models.ExtractionResult, currency string) []CleanedSnapshot {
	seen := make(map[string]struct{})
	out := make([]CleanedSnapshot, 0, len(results))

	for _, r := range results {
		if r == nil || !r.Success || r.Data == nil {
			continue
		}

		url := strings.TrimSpace(r.URL)
		if url == "" {
			c.logger.Warn("[cleaner] Dropping snapshot with empty URL: %s", r.Data.Title)
			continue
		}
		if _, dup := seen[url]; dup {
			c.logger.Debug("[cleaner] Duplicate URL skipped: %s", url)
			continue
		}
		seen[url] = struct{}{}

		out = append(out, CleanedSnapshot{
			Product: models.CollectedProduct{
				Name:     normaliseText(r.Data.Title),
				URL:      url,
				Price:    c.parsePrice(r.Data.PriceText),
				Currency: currency,
			},
			Rating:         c.parseRating(r.Data.RatingText),
			CriticalReview: r.Data.CriticalReview,
		})
	}

	c.logger.Info("[cleaner] Cleaned %d → %d snapshots (dropped %d)",
		len(results), len(out), len(results)-len(out))
	return out
}

// parsePrice extracts the first amount from a price label.
// Examples:
//
//	"￥2,980"          → 2980
//	"$1,200.50"        → 1200.5
//	"￥2,980 - ￥3,500" → 2980
func (c *Cleaner) parsePrice(raw string) float64 {
	match := priceRegexp.FindString(raw)
	if match == "" {
		return 0
	}

	price, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return 0
	}
	return price
}

// parseRating extracts a 0.0–5.0 rating from "4.0 out of 5 stars" or
// "5つ星のうち4.0".
func (c *Cleaner) parseRating(raw string) float64 {
	text := raw
	if m := outOfRegexp.FindStringSubmatch(raw); m != nil {
		text = m[1]
	}

	match := ratingRegexp.FindStringSubmatch(text)
	if len(match) < 2 {
		return 0
	}
	val, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0
	}
	if val < 0 || val > 5 {
		return 0
	}
	return val
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(strings.TrimSpace(s), unicode.IsSpace)
	return strings.Join(fields, " ")
}
