package services

import (
	"sort"
	"time"

	"competitor-radar/models"
	"competitor-radar/utils"
)

// CompetitorOverview is one dashboard row summarizing a competitor.
type CompetitorOverview struct {
	ID            string
	Name          string
	ProductsCount int
	AvgPrice      float64
	AvgRating     float64
	LastScan      time.Time
}

// InsightService turns stored competitor snapshots into market stats and
// dashboard rows.
type InsightService struct {
	logger *utils.Logger
}

// NewInsightService returns an InsightService logging through logger.
func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// MarketStats aggregates a category's competitors into the engine's input.
// AvgPrice covers products with a current price; AvgRating covers each
// competitor's latest review summary.
func (s *InsightService) MarketStats(category models.Category, snapshots []models.CompetitorSnapshot) models.AggregateMarketStats {
	stats := models.AggregateMarketStats{
		CategoryID:      category.ID,
		CategoryName:    category.Name,
		RankingURLCount: len(category.RankingURLs),
		CompetitorCount: len(snapshots),
	}

	var totalPrice, totalRating float64
	var priced, rated int
	for _, snap := range snapshots {
		for _, p := range snap.Products {
			if p.CurrentPrice > 0 {
				totalPrice += p.CurrentPrice
				priced++
			}
		}
		if snap.LatestReview != nil {
			totalRating += snap.LatestReview.AverageRating
			rated++
		}
	}

	if priced > 0 {
		stats.AvgPrice = totalPrice / float64(priced)
	}
	if rated > 0 {
		stats.AvgRating = totalRating / float64(rated)
	}

	s.logger.Debug("[insights] %s: %d competitors, %d priced products, %d rated → avg %.0f / %.1f",
		category.Name, len(snapshots), priced, rated, stats.AvgPrice, stats.AvgRating)
	return stats
}

// Overview summarizes each competitor, busiest catalog first. AvgPrice
// covers only products with a current price.
func (s *InsightService) Overview(snapshots []models.CompetitorSnapshot) []CompetitorOverview {
	rows := make([]CompetitorOverview, 0, len(snapshots))
	for _, snap := range snapshots {
		row := CompetitorOverview{
			ID:            snap.Competitor.ID,
			Name:          snap.Competitor.Name,
			ProductsCount: len(snap.Products),
			LastScan:      snap.Competitor.UpdatedAt,
		}
		var total float64
		var priced int
		for _, p := range snap.Products {
			if p.CurrentPrice > 0 {
				total += p.CurrentPrice
				priced++
			}
		}
		if priced > 0 {
			row.AvgPrice = round2(total / float64(priced))
		}
		if snap.LatestReview != nil {
			row.AvgRating = snap.LatestReview.AverageRating
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ProductsCount > rows[j].ProductsCount
	})
	return rows
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
