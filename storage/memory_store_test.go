package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"competitor-radar/models"
	"competitor-radar/storage"
)

func seededMemoryStore(t *testing.T) (*storage.MemoryStore, *models.Market) {
	t.Helper()
	s := storage.NewMemoryStore()
	m := &models.Market{Name: "Japan Home"}
	require.NoError(t, s.CreateMarket(context.Background(), m))
	return s, m
}

func TestMemoryStore_CategoryRequiresMarket(t *testing.T) {
	s := storage.NewMemoryStore()
	err := s.CreateCategory(context.Background(), &models.Category{MarketID: "nope", Name: "Fans"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMemoryStore_RankingURLsAreDeduplicated(t *testing.T) {
	ctx := context.Background()
	s, m := seededMemoryStore(t)

	c := &models.Category{MarketID: m.ID, Name: "Fans", RankingURLs: []string{"u1", "u1"}}
	require.NoError(t, s.CreateCategory(ctx, c))
	require.NoError(t, s.AddRankingURL(ctx, c.ID, "u2"))
	require.NoError(t, s.AddRankingURL(ctx, c.ID, "u2"))

	got, err := s.GetCategory(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, got.RankingURLs)

	assert.ErrorIs(t, s.AddRankingURL(ctx, "missing", "u3"), storage.ErrNotFound)
}

func TestMemoryStore_ReturnedSlicesAreCopies(t *testing.T) {
	ctx := context.Background()
	s, m := seededMemoryStore(t)
	require.NoError(t, s.CreateCompetitor(ctx, &models.Competitor{MarketID: m.ID, Name: "A", ProductURLs: []string{"p1"}}))

	comps, err := s.ListCompetitors(ctx)
	require.NoError(t, err)
	comps[0].ProductURLs[0] = "mutated"

	again, err := s.ListCompetitors(ctx)
	require.NoError(t, err)
	assert.Equal(t, "p1", again[0].ProductURLs[0])
}

func TestMemoryStore_ProductLifecycle(t *testing.T) {
	ctx := context.Background()
	s, m := seededMemoryStore(t)
	comp := &models.Competitor{MarketID: m.ID, Name: "A"}
	require.NoError(t, s.CreateCompetitor(ctx, comp))

	_, err := s.FindProduct(ctx, comp.ID, "Fan")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	p := &models.Product{CompetitorID: comp.ID, Name: "Fan", CurrentPrice: 3000, Currency: "JPY"}
	require.NoError(t, s.CreateProduct(ctx, p))
	assert.Error(t, s.CreateProduct(ctx, &models.Product{CompetitorID: comp.ID, Name: "Fan"}))

	require.NoError(t, s.UpdateProductPrice(ctx, p.ID, 3500))
	found, err := s.FindProduct(ctx, comp.ID, "Fan")
	require.NoError(t, err)
	assert.Equal(t, 3500.0, found.CurrentPrice)

	require.NoError(t, s.AddPricePoint(ctx, &models.PricePoint{ProductID: p.ID, Price: 3000}))
	require.NoError(t, s.AddPricePoint(ctx, &models.PricePoint{ProductID: p.ID, Price: 3500}))
	points := s.PricePoints(p.ID)
	require.Len(t, points, 2)
	assert.Equal(t, 3500.0, points[1].Price)

	assert.ErrorIs(t, s.UpdateProductPrice(ctx, "missing", 1), storage.ErrNotFound)
}

func TestMemoryStore_LatestReviewSummary(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemoryStore()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := s.LatestReviewSummary(ctx, "a")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.AddReviewSummary(ctx, &models.ReviewSummary{CompetitorID: "a", AverageRating: 4.5, RecordedAt: t0.Add(time.Hour)}))
	require.NoError(t, s.AddReviewSummary(ctx, &models.ReviewSummary{CompetitorID: "a", AverageRating: 3.0, RecordedAt: t0}))
	require.NoError(t, s.AddReviewSummary(ctx, &models.ReviewSummary{CompetitorID: "b", AverageRating: 1.0, RecordedAt: t0.Add(2 * time.Hour)}))

	latest, err := s.LatestReviewSummary(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 4.5, latest.AverageRating)
}

func TestMemoryStore_CompetitorSnapshots(t *testing.T) {
	ctx := context.Background()
	s, m := seededMemoryStore(t)
	other := &models.Market{Name: "Other"}
	require.NoError(t, s.CreateMarket(ctx, other))

	b := &models.Competitor{MarketID: m.ID, Name: "Beta"}
	a := &models.Competitor{MarketID: m.ID, Name: "Alpha"}
	x := &models.Competitor{MarketID: other.ID, Name: "Xeno"}
	for _, c := range []*models.Competitor{b, a, x} {
		require.NoError(t, s.CreateCompetitor(ctx, c))
	}
	require.NoError(t, s.CreateProduct(ctx, &models.Product{CompetitorID: a.ID, Name: "Fan", CurrentPrice: 3000}))
	require.NoError(t, s.AddReviewSummary(ctx, &models.ReviewSummary{CompetitorID: b.ID, AverageRating: 4.1}))

	snaps, err := s.CompetitorSnapshots(ctx, m.ID)
	require.NoError(t, err)

	require.Len(t, snaps, 2)
	assert.Equal(t, "Alpha", snaps[0].Competitor.Name)
	assert.Len(t, snaps[0].Products, 1)
	assert.Nil(t, snaps[0].LatestReview)
	require.NotNil(t, snaps[1].LatestReview)
	assert.Equal(t, 4.1, snaps[1].LatestReview.AverageRating)
}

func TestMemoryStore_AlertsNewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemoryStore()
	for _, title := range []string{"first", "second", "third"} {
		require.NoError(t, s.CreateAlert(ctx, &models.Alert{Type: models.AlertNewProduct, Title: title}))
	}

	alerts, err := s.ListAlerts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "third", alerts[0].Title)
	assert.Equal(t, "second", alerts[1].Title)
}

func TestMemoryStore_Proposals(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemoryStore()

	p1 := &models.Proposal{ProductName: "one"}
	p2 := &models.Proposal{ProductName: "two"}
	require.NoError(t, s.CreateProposal(ctx, p1))
	require.NoError(t, s.CreateProposal(ctx, p2))

	list, err := s.ListProposals(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "two", list[0].ProductName)

	require.NoError(t, s.DeleteProposal(ctx, p1.ID))
	assert.ErrorIs(t, s.DeleteProposal(ctx, p1.ID), storage.ErrNotFound)

	list, err = s.ListProposals(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, p2.ID, list[0].ID)
}
