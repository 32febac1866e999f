package models

import "time"

// AlertType identifies the kind of change that raised an alert.
type AlertType string

const (
	AlertNewProduct    AlertType = "NEW_PRODUCT"
	AlertPriceChange   AlertType = "PRICE_CHANGE"
	AlertSentimentDrop AlertType = "SENTIMENT_DROP"
)

// Sentiment is the coarse mood of a competitor's reviews.
type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
	SentimentNegative Sentiment = "NEGATIVE"
)

type Market struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
}

type Category struct {
	ID          string   `db:"id"`
	MarketID    string   `db:"market_id"`
	Name        string   `db:"name"`
	RankingURLs []string `db:"-"`
}

type Competitor struct {
	ID          string    `db:"id"`
	MarketID    string    `db:"market_id"`
	Name        string    `db:"name"`
	URL         string    `db:"url"`
	ProductURLs []string  `db:"-"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Product is the cleaned, persisted view of a competitor's product.
type Product struct {
	ID           string    `db:"id"`
	CompetitorID string    `db:"competitor_id"`
	Name         string    `db:"name"`
	URL          string    `db:"url"`
	CurrentPrice float64   `db:"current_price"`
	Currency     string    `db:"currency"`
	CreatedAt    time.Time `db:"created_at"`
}

type PricePoint struct {
	ID         string    `db:"id"`
	ProductID  string    `db:"product_id"`
	Price      float64   `db:"price"`
	Currency   string    `db:"currency"`
	RecordedAt time.Time `db:"recorded_at"`
}

type ReviewSummary struct {
	ID            string    `db:"id"`
	CompetitorID  string    `db:"competitor_id"`
	AverageRating float64   `db:"average_rating"`
	ReviewCount   int       `db:"review_count"`
	Sentiment     Sentiment `db:"sentiment"`
	Summary       string    `db:"summary"`
	RecordedAt    time.Time `db:"recorded_at"`
}

type Alert struct {
	ID        string    `json:"id" db:"id"`
	Type      AlertType `json:"type" db:"type"`
	Title     string    `json:"title" db:"title"`
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// CollectedProduct is a product observation produced by a collection run.
type CollectedProduct struct {
	Name     string
	URL      string
	Price    float64
	Currency string
}

// CollectedReviewSummary aggregates review signals for one collection run.
type CollectedReviewSummary struct {
	AverageRating float64
	ReviewCount   int
	Sentiment     Sentiment
	Summary       string
}

// CollectionResult is everything one collection run learned about a competitor.
type CollectionResult struct {
	CompetitorID string
	Products     []CollectedProduct
	Reviews      CollectedReviewSummary
}

// CompetitorSnapshot bundles a competitor with its products and latest review
// summary, the shape market statistics are computed from.
type CompetitorSnapshot struct {
	Competitor   Competitor
	Products     []Product
	LatestReview *ReviewSummary
}
