package storage

import (
	"context"
	"errors"
	"time"

	"competitor-radar/models"
)

// ErrNotFound is returned when a record lookup matches nothing.
var ErrNotFound = errors.New("storage: not found")

// CatalogStore holds the tracked markets, their categories and competitors.
type CatalogStore interface {
	CreateMarket(ctx context.Context, m *models.Market) error
	CreateCategory(ctx context.Context, c *models.Category) error
	AddRankingURL(ctx context.Context, categoryID, url string) error
	CreateCompetitor(ctx context.Context, c *models.Competitor) error
	AddProductURL(ctx context.Context, competitorID, url string) error

	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id string) (*models.Category, error)
	ListCompetitors(ctx context.Context) ([]models.Competitor, error)
	// CompetitorSnapshots returns every competitor of a market with its
	// products and most recent review summary.
	CompetitorSnapshots(ctx context.Context, marketID string) ([]models.CompetitorSnapshot, error)
}

// TrackingStore records what collection runs observe and the alerts they raise.
type TrackingStore interface {
	FindProduct(ctx context.Context, competitorID, name string) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProductPrice(ctx context.Context, id string, price float64) error
	AddPricePoint(ctx context.Context, p *models.PricePoint) error
	LatestReviewSummary(ctx context.Context, competitorID string) (*models.ReviewSummary, error)
	AddReviewSummary(ctx context.Context, s *models.ReviewSummary) error
	TouchCompetitor(ctx context.Context, id string, at time.Time) error

	CreateAlert(ctx context.Context, a *models.Alert) error
	ListAlerts(ctx context.Context, limit int) ([]models.Alert, error)
}

// ProposalStore persists opportunity proposals.
type ProposalStore interface {
	CreateProposal(ctx context.Context, p *models.Proposal) error
	ListProposals(ctx context.Context) ([]models.Proposal, error)
	DeleteProposal(ctx context.Context, id string) error
}

// Store is the full persistence surface.
type Store interface {
	CatalogStore
	TrackingStore
	ProposalStore
	Close() error
}

// SnapshotWriter is the interface for exporting raw extraction results.
type SnapshotWriter interface {
	WriteSnapshots(results []*models.ExtractionResult) error
	Close() error
}

var (
	_ Store          = (*PostgresStore)(nil)
	_ Store          = (*MemoryStore)(nil)
	_ SnapshotWriter = (*CSVWriter)(nil)
)
