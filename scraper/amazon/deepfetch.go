package amazon

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"competitor-radar/metrics"
	"competitor-radar/models"
)

// ErrNoASIN is returned when a URL carries no catalog identifier.
var ErrNoASIN = errors.New("no ASIN in url")

var asinRegexp = regexp.MustCompile(`/(?:dp|gp/product)/([A-Z0-9]{10})`)

// criticalReviewStar is assumed for a review on the critical-only listing
// whose rating text has no number.
const criticalReviewStar = 1.0

// ExtractASIN returns the 10-character catalog identifier from a product URL.
func ExtractASIN(url string) (string, error) {
	m := asinRegexp.FindStringSubmatch(url)
	if m == nil {
		return "", ErrNoASIN
	}
	return m[1], nil
}

// CriticalReviewsURL builds the "critical reviews, most recent first" listing URL.
func CriticalReviewsURL(baseURL, asin string) string {
	return fmt.Sprintf("%s/product-reviews/%s/ref=cm_cr_arp_d_viewopt_sr?ie=UTF8&filterByStar=critical&sortBy=recent",
		baseURL, asin)
}

// deepFetch loads the critical-reviews listing and returns its first review
// plus, if the histogram is still empty, the structured histogram from that
// page. Errors are for logging only; the caller keeps its own data.
func (e *Extractor) deepFetch(ctx context.Context, productURL string, needHistogram bool) (*models.ReviewExcerpt, map[string]string, error) {
	asin, err := ExtractASIN(productURL)
	if err != nil {
		e.metrics.ObserveDeepFetch(metrics.DeepFetchNoASIN)
		return nil, nil, err
	}

	page, err := e.fetcher.Fetch(ctx, CriticalReviewsURL(e.reviewBaseURL, asin))
	if err != nil {
		e.metrics.ObserveDeepFetch(metrics.DeepFetchFailed)
		return nil, nil, fmt.Errorf("fetch critical reviews: %w", err)
	}
	if page.StatusCode < 200 || page.StatusCode > 299 {
		e.metrics.ObserveDeepFetch(metrics.DeepFetchFailed)
		return nil, nil, fmt.Errorf("critical reviews returned status %d", page.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		e.metrics.ObserveDeepFetch(metrics.DeepFetchFailed)
		return nil, nil, fmt.Errorf("parse critical reviews: %w", err)
	}

	first := doc.Find(reviewSelector).First()
	if first.Length() == 0 {
		e.metrics.ObserveDeepFetch(metrics.DeepFetchEmpty)
		return nil, nil, errors.New("critical reviews page has no review blocks")
	}
	review, ok := parseReview(first, criticalReviewStar)
	if !ok {
		e.metrics.ObserveDeepFetch(metrics.DeepFetchEmpty)
		return nil, nil, errors.New("critical review is missing title or body")
	}

	var dist map[string]string
	if needHistogram {
		dist = e.histogram.fromRows(doc)
	}

	e.metrics.ObserveDeepFetch(metrics.DeepFetchReplaced)
	return &review, dist, nil
}
