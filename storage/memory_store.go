package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"competitor-radar/models"
)

// MemoryStore is an in-process Store used for dry runs and tests. It is safe
// for concurrent use.
type MemoryStore struct {
	mu sync.RWMutex

	markets     map[string]models.Market
	categories  []models.Category
	competitors []models.Competitor
	products    []models.Product
	pricePoints []models.PricePoint
	reviews     []models.ReviewSummary
	alerts      []models.Alert
	proposals   []models.Proposal
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{markets: make(map[string]models.Market)}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) CreateMarket(_ context.Context, m *models.Market) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&m.ID)
	s.markets[m.ID] = *m
	return nil
}

func (s *MemoryStore) CreateCategory(_ context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.markets[c.MarketID]; !ok {
		return fmt.Errorf("memory: create category: market %q: %w", c.MarketID, ErrNotFound)
	}
	ensureID(&c.ID)
	cp := *c
	cp.RankingURLs = appendUnique(nil, c.RankingURLs...)
	s.categories = append(s.categories, cp)
	return nil
}

func (s *MemoryStore) AddRankingURL(_ context.Context, categoryID, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.categories {
		if s.categories[i].ID == categoryID {
			s.categories[i].RankingURLs = appendUnique(s.categories[i].RankingURLs, url)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) CreateCompetitor(_ context.Context, c *models.Competitor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.markets[c.MarketID]; !ok {
		return fmt.Errorf("memory: create competitor: market %q: %w", c.MarketID, ErrNotFound)
	}
	ensureID(&c.ID)
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now()
	}
	cp := *c
	cp.ProductURLs = appendUnique(nil, c.ProductURLs...)
	s.competitors = append(s.competitors, cp)
	return nil
}

func (s *MemoryStore) AddProductURL(_ context.Context, competitorID, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.competitors {
		if s.competitors[i].ID == competitorID {
			s.competitors[i].ProductURLs = appendUnique(s.competitors[i].ProductURLs, url)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) ListCategories(_ context.Context) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		c.RankingURLs = append([]string(nil), c.RankingURLs...)
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) GetCategory(_ context.Context, id string) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if c.ID == id {
			c.RankingURLs = append([]string(nil), c.RankingURLs...)
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListCompetitors(_ context.Context) ([]models.Competitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Competitor, 0, len(s.competitors))
	for _, c := range s.competitors {
		c.ProductURLs = append([]string(nil), c.ProductURLs...)
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) CompetitorSnapshots(_ context.Context, marketID string) ([]models.CompetitorSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var comps []models.Competitor
	for _, c := range s.competitors {
		if c.MarketID == marketID {
			comps = append(comps, c)
		}
	}
	if len(comps) == 0 {
		return nil, nil
	}
	sort.SliceStable(comps, func(i, j int) bool { return comps[i].Name < comps[j].Name })

	latest := make(map[string]models.ReviewSummary)
	for _, r := range s.reviews {
		if prev, ok := latest[r.CompetitorID]; !ok || !r.RecordedAt.Before(prev.RecordedAt) {
			latest[r.CompetitorID] = r
		}
	}
	reviews := make([]models.ReviewSummary, 0, len(latest))
	for _, r := range latest {
		reviews = append(reviews, r)
	}

	products := append([]models.Product(nil), s.products...)
	return assembleSnapshots(comps, products, reviews), nil
}

func (s *MemoryStore) FindProduct(_ context.Context, competitorID, name string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.CompetitorID == competitorID && p.Name == name {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.products {
		if existing.CompetitorID == p.CompetitorID && existing.Name == p.Name {
			return fmt.Errorf("memory: product %q already exists for competitor %q", p.Name, p.CompetitorID)
		}
	}
	ensureID(&p.ID)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	s.products = append(s.products, *p)
	return nil
}

func (s *MemoryStore) UpdateProductPrice(_ context.Context, id string, price float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == id {
			s.products[i].CurrentPrice = price
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) AddPricePoint(_ context.Context, p *models.PricePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&p.ID)
	if p.RecordedAt.IsZero() {
		p.RecordedAt = time.Now()
	}
	s.pricePoints = append(s.pricePoints, *p)
	return nil
}

// PricePoints returns the recorded price history of a product, oldest first.
func (s *MemoryStore) PricePoints(productID string) []models.PricePoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.PricePoint
	for _, p := range s.pricePoints {
		if p.ProductID == productID {
			out = append(out, p)
		}
	}
	return out
}

func (s *MemoryStore) LatestReviewSummary(_ context.Context, competitorID string) (*models.ReviewSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.ReviewSummary
	for i := range s.reviews {
		r := s.reviews[i]
		if r.CompetitorID != competitorID {
			continue
		}
		if latest == nil || !r.RecordedAt.Before(latest.RecordedAt) {
			latest = &r
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

func (s *MemoryStore) AddReviewSummary(_ context.Context, r *models.ReviewSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&r.ID)
	if r.RecordedAt.IsZero() {
		r.RecordedAt = time.Now()
	}
	s.reviews = append(s.reviews, *r)
	return nil
}

func (s *MemoryStore) TouchCompetitor(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.competitors {
		if s.competitors[i].ID == id {
			s.competitors[i].UpdatedAt = at
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) CreateAlert(_ context.Context, a *models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&a.ID)
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	s.alerts = append(s.alerts, *a)
	return nil
}

// ListAlerts returns the newest alerts first.
func (s *MemoryStore) ListAlerts(_ context.Context, limit int) ([]models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = defaultAlertLimit
	}
	out := make([]models.Alert, 0, len(s.alerts))
	for i := len(s.alerts) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.alerts[i])
	}
	return out, nil
}

func (s *MemoryStore) CreateProposal(_ context.Context, p *models.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&p.ID)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	s.proposals = append(s.proposals, *p)
	return nil
}

// ListProposals returns the newest proposals first.
func (s *MemoryStore) ListProposals(_ context.Context) ([]models.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Proposal, 0, len(s.proposals))
	for i := len(s.proposals) - 1; i >= 0; i-- {
		out = append(out, s.proposals[i])
	}
	return out, nil
}

func (s *MemoryStore) DeleteProposal(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.proposals {
		if p.ID == id {
			s.proposals = append(s.proposals[:i], s.proposals[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func appendUnique(dst []string, urls ...string) []string {
	for _, u := range urls {
		dup := false
		for _, existing := range dst {
			if existing == u {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, u)
		}
	}
	return dst
}
