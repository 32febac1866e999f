package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"competitor-radar/metrics"
	"competitor-radar/models"
	"competitor-radar/storage"
	"competitor-radar/utils"
)

const (
	// priceChangeThreshold is the relative price move that raises an alert.
	priceChangeThreshold = 0.05
	// sentimentDropThreshold is the fall in average rating that raises an alert.
	sentimentDropThreshold = 0.5
)

// Tracker persists collection results and raises alerts on meaningful change.
type Tracker struct {
	store   storage.TrackingStore
	logger  *utils.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewTracker creates a Tracker. m may be nil.
func NewTracker(store storage.TrackingStore, logger *utils.Logger, m *metrics.Metrics) *Tracker {
	return &Tracker{store: store, logger: logger, metrics: m, now: time.Now}
}

// SaveResult records a collection run: it upserts products by name, records a
// price point per product and a review summary, and returns the alerts raised.
func (t *Tracker) SaveResult(ctx context.Context, result *models.CollectionResult) ([]models.Alert, error) {
	var alerts []models.Alert
	now := t.now()

	for _, cp := range result.Products {
		product, raised, err := t.upsertProduct(ctx, result.CompetitorID, cp, now)
		if err != nil {
			return alerts, err
		}
		alerts = append(alerts, raised...)

		if cp.Price <= 0 {
			continue
		}
		if err := t.store.AddPricePoint(ctx, &models.PricePoint{
			ProductID:  product.ID,
			Price:      cp.Price,
			Currency:   cp.Currency,
			RecordedAt: now,
		}); err != nil {
			return alerts, fmt.Errorf("tracker: record price of %q: %w", cp.Name, err)
		}
	}

	if result.Reviews.ReviewCount > 0 {
		raised, err := t.saveReviews(ctx, result, now)
		alerts = append(alerts, raised...)
		if err != nil {
			return alerts, err
		}
	} else {
		t.logger.Warn("[tracker] %s: no rated products, review history left unchanged", result.CompetitorID)
	}

	if err := t.store.TouchCompetitor(ctx, result.CompetitorID, now); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return alerts, fmt.Errorf("tracker: touch competitor: %w", err)
	}

	t.logger.Info("[tracker] %s: saved %d products, raised %d alerts",
		result.CompetitorID, len(result.Products), len(alerts))
	return alerts, nil
}

// saveReviews compares the run's rating with the previous summary and then
// records the new one.
func (t *Tracker) saveReviews(ctx context.Context, result *models.CollectionResult, now time.Time) ([]models.Alert, error) {
	var alerts []models.Alert
	prev, err := t.store.LatestReviewSummary(ctx, result.CompetitorID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return alerts, fmt.Errorf("tracker: previous review summary: %w", err)
	}
	if prev != nil && result.Reviews.AverageRating < prev.AverageRating-sentimentDropThreshold {
		a, err := t.raise(ctx, models.AlertSentimentDrop, "Sentiment Drop Detected",
			fmt.Sprintf("Sentiment for %s dropped from %.1f to %.1f",
				result.CompetitorID, prev.AverageRating, result.Reviews.AverageRating), now)
		if err != nil {
			return alerts, err
		}
		alerts = append(alerts, a)
	}

	if err := t.store.AddReviewSummary(ctx, &models.ReviewSummary{
		CompetitorID:  result.CompetitorID,
		AverageRating: result.Reviews.AverageRating,
		ReviewCount:   result.Reviews.ReviewCount,
		Sentiment:     result.Reviews.Sentiment,
		Summary:       result.Reviews.Summary,
		RecordedAt:    now,
	}); err != nil {
		return alerts, fmt.Errorf("tracker: record review summary: %w", err)
	}
	return alerts, nil
}

func (t *Tracker) upsertProduct(ctx context.Context, competitorID string, cp models.CollectedProduct, now time.Time) (*models.Product, []models.Alert, error) {
	existing, err := t.store.FindProduct(ctx, competitorID, cp.Name)
	if errors.Is(err, storage.ErrNotFound) {
		p := &models.Product{
			CompetitorID: competitorID,
			Name:         cp.Name,
			URL:          cp.URL,
			CurrentPrice: cp.Price,
			Currency:     cp.Currency,
			CreatedAt:    now,
		}
		if err := t.store.CreateProduct(ctx, p); err != nil {
			return nil, nil, fmt.Errorf("tracker: create product %q: %w", cp.Name, err)
		}
		a, err := t.raise(ctx, models.AlertNewProduct, "New Product Found",
			fmt.Sprintf("New product discovered: %s", cp.Name), now)
		if err != nil {
			return nil, nil, err
		}
		return p, []models.Alert{a}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("tracker: find product %q: %w", cp.Name, err)
	}

	// a page without a readable price says nothing about the current one
	if cp.Price <= 0 {
		return existing, nil, nil
	}

	var alerts []models.Alert
	if PriceChanged(existing.CurrentPrice, cp.Price) {
		a, err := t.raise(ctx, models.AlertPriceChange, "Price Change Detected",
			fmt.Sprintf("%s price changed from %.0f to %.0f", existing.Name, existing.CurrentPrice, cp.Price), now)
		if err != nil {
			return nil, nil, err
		}
		alerts = append(alerts, a)
	}

	if err := t.store.UpdateProductPrice(ctx, existing.ID, cp.Price); err != nil {
		return nil, nil, fmt.Errorf("tracker: update price of %q: %w", cp.Name, err)
	}
	existing.CurrentPrice = cp.Price
	return existing, alerts, nil
}

// PriceChanged reports whether next differs from prev by more than 5%. An
// unknown previous price never counts as a change.
func PriceChanged(prev, next float64) bool {
	if prev == 0 {
		return false
	}
	return math.Abs((next-prev)/prev) > priceChangeThreshold
}

func (t *Tracker) raise(ctx context.Context, typ models.AlertType, title, msg string, now time.Time) (models.Alert, error) {
	a := models.Alert{Type: typ, Title: title, Message: msg, CreatedAt: now}
	if err := t.store.CreateAlert(ctx, &a); err != nil {
		return a, fmt.Errorf("tracker: create %s alert: %w", typ, err)
	}
	t.metrics.ObserveAlert(string(typ))
	t.logger.Info("[tracker] %s: %s", typ, msg)
	return a, nil
}
