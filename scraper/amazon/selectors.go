package amazon

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"competitor-radar/models"
)

// strategy pulls one field out of a document. An empty string means "no match".
type strategy func(doc *goquery.Document) string

// firstOf runs strategies in order and returns the first non-empty result.
func firstOf(doc *goquery.Document, chain ...strategy) string {
	for _, s := range chain {
		if v := s(doc); v != "" {
			return v
		}
	}
	return ""
}

// textOf returns the trimmed text of every match of selector.
func textOf(selector string) strategy {
	return func(doc *goquery.Document) string {
		return strings.TrimSpace(doc.Find(selector).Text())
	}
}

// firstTextOf returns the trimmed text of the first match of selector.
func firstTextOf(selector string) strategy {
	return func(doc *goquery.Document) string {
		return strings.TrimSpace(doc.Find(selector).First().Text())
	}
}

// attrOf returns the trimmed attribute value of the first match of selector.
func attrOf(selector, attr string) strategy {
	return func(doc *goquery.Document) string {
		return strings.TrimSpace(doc.Find(selector).First().AttrOr(attr, ""))
	}
}

var (
	titleChain = []strategy{
		textOf("#productTitle"),
	}
	priceChain = []strategy{
		firstTextOf(".a-price .a-offscreen"),
		textOf("#price_inside_buybox"),
		firstTextOf(".a-price .a-text-price"),
	}
	imageChain = []strategy{
		attrOf("#landingImage", "src"),
	}
	ratingChain = []strategy{
		attrOf("#acrPopover", "title"),
		firstTextOf(".a-icon-alt"),
	}
	descriptionChain = []strategy{
		textOf("#productDescription"),
		textOf("#aplus"),
	}
)

const (
	captchaSelector     = `form[action="/errors/validateCaptcha"]`
	thumbnailSelector   = "#altImages ul li"
	bulletSelector      = "#feature-bullets ul li span.a-list-item"
	richContentSelector = "#aplus"
)

// isCaptchaWall reports whether the page is a CAPTCHA challenge.
func isCaptchaWall(doc *goquery.Document) bool {
	return doc.Find(captchaSelector).Length() > 0
}

// qualityMetrics measures how complete the listing is.
func qualityMetrics(doc *goquery.Document) models.ListingQualityMetrics {
	imageCount := doc.Find(thumbnailSelector).Length()
	if imageCount == 0 {
		// the main image is always present
		imageCount = 1
	}

	bullets := 0
	doc.Find(bulletSelector).Each(func(_ int, s *goquery.Selection) {
		if strings.TrimSpace(s.Text()) != "" {
			bullets++
		}
	})

	return models.ListingQualityMetrics{
		ImageCount:        imageCount,
		BulletCount:       bullets,
		DescriptionLength: utf8.RuneCountInString(firstOf(doc, descriptionChain...)),
		HasRichContent:    doc.Find(richContentSelector).Length() > 0,
	}
}
