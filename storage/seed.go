package storage

import (
	"context"
	"fmt"

	"competitor-radar/config"
	"competitor-radar/models"
)

// SeedStats counts what Seed created.
type SeedStats struct {
	Markets     int
	Categories  int
	Competitors int
}

// Seed creates every market, category and competitor of a catalog.
func Seed(ctx context.Context, store CatalogStore, catalog *config.Catalog) (SeedStats, error) {
	var stats SeedStats
	for _, cm := range catalog.Markets {
		market := &models.Market{Name: cm.Name, Description: cm.Description}
		if err := store.CreateMarket(ctx, market); err != nil {
			return stats, fmt.Errorf("seed market %q: %w", cm.Name, err)
		}
		stats.Markets++

		for _, cc := range cm.Categories {
			cat := &models.Category{MarketID: market.ID, Name: cc.Name, RankingURLs: cc.RankingURLs}
			if err := store.CreateCategory(ctx, cat); err != nil {
				return stats, fmt.Errorf("seed category %q: %w", cc.Name, err)
			}
			stats.Categories++
		}

		for _, comp := range cm.Competitors {
			c := &models.Competitor{MarketID: market.ID, Name: comp.Name, URL: comp.URL, ProductURLs: comp.ProductURLs}
			if err := store.CreateCompetitor(ctx, c); err != nil {
				return stats, fmt.Errorf("seed competitor %q: %w", comp.Name, err)
			}
			stats.Competitors++
		}
	}
	return stats, nil
}
