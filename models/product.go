package models

import "time"

// ErrorKind classifies why an extraction failed.
type ErrorKind string

const (
	ErrorKindNone               ErrorKind = ""
	ErrorKindBotDetected        ErrorKind = "BOT_DETECTED"
	ErrorKindCaptchaWall        ErrorKind = "CAPTCHA_WALL"
	ErrorKindUnrecognizedLayout ErrorKind = "UNRECOGNIZED_LAYOUT"
	ErrorKindNetwork            ErrorKind = "NETWORK_ERROR"
)

// ExtractionResult is the outcome of a single product-page extraction.
// Data is set only on success; StatusCode, Kind and Error only on failure.
type ExtractionResult struct {
	Success    bool             `json:"success"`
	StatusCode *int             `json:"statusCode,omitempty"`
	Kind       ErrorKind        `json:"kind,omitempty"`
	Error      string           `json:"error,omitempty"`
	Data       *ProductSnapshot `json:"data,omitempty"`
	URL        string           `json:"url"`
	ScrapedAt  time.Time        `json:"scrapedAt"`
}

// ProductSnapshot holds unprocessed product data exactly as found on the page.
// Prices and ratings stay as raw text; the cleaner parses them later.
type ProductSnapshot struct {
	Title              string                `json:"title"`
	PriceText          string                `json:"priceText"`
	ImageURL           string                `json:"imageUrl"`
	RatingText         string                `json:"ratingText"`
	Metrics            ListingQualityMetrics `json:"metrics"`
	CriticalReview     *ReviewExcerpt        `json:"criticalReview,omitempty"`
	RatingDistribution map[string]string     `json:"ratingDistribution"`
}

// ListingQualityMetrics describes how well-built a listing page is.
type ListingQualityMetrics struct {
	ImageCount        int  `json:"imageCount"`
	BulletCount       int  `json:"bulletCount"`
	DescriptionLength int  `json:"descriptionLength"`
	HasRichContent    bool `json:"hasRichContent"`
}

// ReviewExcerpt is a single customer review pulled from a product page.
type ReviewExcerpt struct {
	Title      string  `json:"title"`
	Body       string  `json:"body"`
	RatingText string  `json:"ratingText"`
	StarValue  float64 `json:"starValue"`
}

// Failed builds a failure result. It never carries Data.
func Failed(url string, kind ErrorKind, statusCode int, msg string) *ExtractionResult {
	res := &ExtractionResult{
		Kind:      kind,
		Error:     msg,
		URL:       url,
		ScrapedAt: time.Now(),
	}
	if statusCode > 0 {
		res.StatusCode = &statusCode
	}
	return res
}

// Succeeded builds a success result around a snapshot.
func Succeeded(url string, data *ProductSnapshot) *ExtractionResult {
	return &ExtractionResult{
		Success:   true,
		Data:      data,
		URL:       url,
		ScrapedAt: time.Now(),
	}
}
