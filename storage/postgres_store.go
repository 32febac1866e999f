package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"competitor-radar/models"
	"competitor-radar/utils"
)

// PostgresStore persists the catalog, tracking history and proposals to
// PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore opens a connection to PostgreSQL, waits for it to accept
// connections, runs schema migrations and returns a ready-to-use store.
func NewPostgresStore(ctx context.Context, dsn string, retry *utils.RetryConfig) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if retry == nil {
		retry = &utils.RetryConfig{MaxAttempts: 1}
	}
	if err := retry.Do(ctx, "postgres ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	s := NewPostgresStoreFromDB(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return s, nil
}

// NewPostgresStoreFromDB wraps an existing connection without migrating.
func NewPostgresStoreFromDB(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS markets (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS categories (
			id        TEXT PRIMARY KEY,
			market_id TEXT NOT NULL REFERENCES markets(id) ON DELETE CASCADE,
			name      TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS ranking_urls (
			id          SERIAL PRIMARY KEY,
			category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
			url         TEXT NOT NULL,
			UNIQUE (category_id, url)
		);

		CREATE TABLE IF NOT EXISTS competitors (
			id         TEXT PRIMARY KEY,
			market_id  TEXT NOT NULL REFERENCES markets(id) ON DELETE CASCADE,
			name       TEXT NOT NULL,
			url        TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS product_urls (
			id            SERIAL PRIMARY KEY,
			competitor_id TEXT NOT NULL REFERENCES competitors(id) ON DELETE CASCADE,
			url           TEXT NOT NULL,
			UNIQUE (competitor_id, url)
		);

		CREATE TABLE IF NOT EXISTS products (
			id            TEXT PRIMARY KEY,
			competitor_id TEXT NOT NULL REFERENCES competitors(id) ON DELETE CASCADE,
			name          TEXT NOT NULL,
			url           TEXT NOT NULL DEFAULT '',
			current_price NUMERIC(12,2) NOT NULL DEFAULT 0,
			currency      VARCHAR(8)    NOT NULL DEFAULT 'JPY',
			created_at    TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS price_points (
			id          TEXT PRIMARY KEY,
			product_id  TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			price       NUMERIC(12,2) NOT NULL,
			currency    VARCHAR(8)    NOT NULL,
			recorded_at TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS review_summaries (
			id             TEXT PRIMARY KEY,
			competitor_id  TEXT NOT NULL REFERENCES competitors(id) ON DELETE CASCADE,
			average_rating NUMERIC(4,2) NOT NULL,
			review_count   INTEGER      NOT NULL,
			sentiment      VARCHAR(16)  NOT NULL,
			summary        TEXT         NOT NULL DEFAULT '',
			recorded_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS alerts (
			id         TEXT PRIMARY KEY,
			type       VARCHAR(32) NOT NULL,
			title      TEXT        NOT NULL,
			message    TEXT        NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS proposals (
			id           TEXT PRIMARY KEY,
			category_id  TEXT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
			archetype    VARCHAR(32)   NOT NULL,
			product_name TEXT          NOT NULL,
			target_price NUMERIC(12,2) NOT NULL,
			features     TEXT          NOT NULL DEFAULT '',
			keywords     TEXT          NOT NULL DEFAULT '',
			reasoning    TEXT          NOT NULL DEFAULT '',
			status       VARCHAR(16)   NOT NULL DEFAULT 'DRAFT',
			created_at   TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_products_competitor_name ON products(competitor_id, name);
		CREATE INDEX IF NOT EXISTS idx_review_summaries_competitor ON review_summaries(competitor_id, recorded_at DESC);
		CREATE INDEX IF NOT EXISTS idx_alerts_created_at ON alerts(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_proposals_created_at ON proposals(created_at DESC);
	`)
	return err
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// ── catalog ──────────────────────────────────────────────────────────────

func (s *PostgresStore) CreateMarket(ctx context.Context, m *models.Market) error {
	ensureID(&m.ID)
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO markets (id, name, description) VALUES (:id, :name, :description)`, m)
	if err != nil {
		return fmt.Errorf("postgres: create market: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateCategory(ctx context.Context, c *models.Category) error {
	ensureID(&c.ID)
	if _, err := s.db.NamedExecContext(ctx,
		`INSERT INTO categories (id, market_id, name) VALUES (:id, :market_id, :name)`, c); err != nil {
		return fmt.Errorf("postgres: create category: %w", err)
	}
	for _, u := range c.RankingURLs {
		if err := s.AddRankingURL(ctx, c.ID, u); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) AddRankingURL(ctx context.Context, categoryID, url string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ranking_urls (category_id, url) VALUES ($1, $2) ON CONFLICT (category_id, url) DO NOTHING`,
		categoryID, url)
	if err != nil {
		return fmt.Errorf("postgres: add ranking url: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateCompetitor(ctx context.Context, c *models.Competitor) error {
	ensureID(&c.ID)
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now()
	}
	if _, err := s.db.NamedExecContext(ctx,
		`INSERT INTO competitors (id, market_id, name, url, updated_at)
		 VALUES (:id, :market_id, :name, :url, :updated_at)`, c); err != nil {
		return fmt.Errorf("postgres: create competitor: %w", err)
	}
	for _, u := range c.ProductURLs {
		if err := s.AddProductURL(ctx, c.ID, u); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) AddProductURL(ctx context.Context, competitorID, url string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO product_urls (competitor_id, url) VALUES ($1, $2) ON CONFLICT (competitor_id, url) DO NOTHING`,
		competitorID, url)
	if err != nil {
		return fmt.Errorf("postgres: add product url: %w", err)
	}
	return nil
}

type ownedURL struct {
	OwnerID string `db:"owner_id"`
	URL     string `db:"url"`
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if err := s.db.SelectContext(ctx, &cats,
		`SELECT id, market_id, name FROM categories ORDER BY name`); err != nil {
		return nil, fmt.Errorf("postgres: list categories: %w", err)
	}

	var urls []ownedURL
	if err := s.db.SelectContext(ctx, &urls,
		`SELECT category_id AS owner_id, url FROM ranking_urls ORDER BY id`); err != nil {
		return nil, fmt.Errorf("postgres: list ranking urls: %w", err)
	}
	byOwner := groupURLs(urls)
	for i := range cats {
		cats[i].RankingURLs = byOwner[cats[i].ID]
	}
	return cats, nil
}

func (s *PostgresStore) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	var c models.Category
	err := s.db.GetContext(ctx, &c, `SELECT id, market_id, name FROM categories WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get category: %w", err)
	}

	if err := s.db.SelectContext(ctx, &c.RankingURLs,
		`SELECT url FROM ranking_urls WHERE category_id = $1 ORDER BY id`, id); err != nil {
		return nil, fmt.Errorf("postgres: get ranking urls: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) ListCompetitors(ctx context.Context) ([]models.Competitor, error) {
	var comps []models.Competitor
	if err := s.db.SelectContext(ctx, &comps,
		`SELECT id, market_id, name, url, updated_at FROM competitors ORDER BY name`); err != nil {
		return nil, fmt.Errorf("postgres: list competitors: %w", err)
	}

	var urls []ownedURL
	if err := s.db.SelectContext(ctx, &urls,
		`SELECT competitor_id AS owner_id, url FROM product_urls ORDER BY id`); err != nil {
		return nil, fmt.Errorf("postgres: list product urls: %w", err)
	}
	byOwner := groupURLs(urls)
	for i := range comps {
		comps[i].ProductURLs = byOwner[comps[i].ID]
	}
	return comps, nil
}

func (s *PostgresStore) CompetitorSnapshots(ctx context.Context, marketID string) ([]models.CompetitorSnapshot, error) {
	var comps []models.Competitor
	if err := s.db.SelectContext(ctx, &comps,
		`SELECT id, market_id, name, url, updated_at FROM competitors WHERE market_id = $1 ORDER BY name`,
		marketID); err != nil {
		return nil, fmt.Errorf("postgres: market competitors: %w", err)
	}
	if len(comps) == 0 {
		return nil, nil
	}

	ids := make([]string, len(comps))
	for i, c := range comps {
		ids[i] = c.ID
	}

	var products []models.Product
	if err := s.db.SelectContext(ctx, &products,
		`SELECT id, competitor_id, name, url, current_price, currency, created_at
		 FROM products WHERE competitor_id = ANY($1) ORDER BY created_at`,
		pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("postgres: market products: %w", err)
	}

	var reviews []models.ReviewSummary
	if err := s.db.SelectContext(ctx, &reviews,
		`SELECT DISTINCT ON (competitor_id)
		        id, competitor_id, average_rating, review_count, sentiment, summary, recorded_at
		 FROM review_summaries WHERE competitor_id = ANY($1)
		 ORDER BY competitor_id, recorded_at DESC`,
		pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("postgres: latest reviews: %w", err)
	}

	return assembleSnapshots(comps, products, reviews), nil
}

// ── tracking ─────────────────────────────────────────────────────────────

func (s *PostgresStore) FindProduct(ctx context.Context, competitorID, name string) (*models.Product, error) {
	var p models.Product
	err := s.db.GetContext(ctx, &p,
		`SELECT id, competitor_id, name, url, current_price, currency, created_at
		 FROM products WHERE competitor_id = $1 AND name = $2`,
		competitorID, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: find product: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) CreateProduct(ctx context.Context, p *models.Product) error {
	ensureID(&p.ID)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO products (id, competitor_id, name, url, current_price, currency, created_at)
		 VALUES (:id, :competitor_id, :name, :url, :current_price, :currency, :created_at)`, p)
	if err != nil {
		return fmt.Errorf("postgres: create product: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateProductPrice(ctx context.Context, id string, price float64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE products SET current_price = $1 WHERE id = $2`, price, id)
	if err != nil {
		return fmt.Errorf("postgres: update product price: %w", err)
	}
	return expectAffected(res)
}

func (s *PostgresStore) AddPricePoint(ctx context.Context, p *models.PricePoint) error {
	ensureID(&p.ID)
	if p.RecordedAt.IsZero() {
		p.RecordedAt = time.Now()
	}
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO price_points (id, product_id, price, currency, recorded_at)
		 VALUES (:id, :product_id, :price, :currency, :recorded_at)`, p)
	if err != nil {
		return fmt.Errorf("postgres: add price point: %w", err)
	}
	return nil
}

func (s *PostgresStore) LatestReviewSummary(ctx context.Context, competitorID string) (*models.ReviewSummary, error) {
	var r models.ReviewSummary
	err := s.db.GetContext(ctx, &r,
		`SELECT id, competitor_id, average_rating, review_count, sentiment, summary, recorded_at
		 FROM review_summaries WHERE competitor_id = $1
		 ORDER BY recorded_at DESC LIMIT 1`,
		competitorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: latest review summary: %w", err)
	}
	return &r, nil
}

func (s *PostgresStore) AddReviewSummary(ctx context.Context, r *models.ReviewSummary) error {
	ensureID(&r.ID)
	if r.RecordedAt.IsZero() {
		r.RecordedAt = time.Now()
	}
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO review_summaries (id, competitor_id, average_rating, review_count, sentiment, summary, recorded_at)
		 VALUES (:id, :competitor_id, :average_rating, :review_count, :sentiment, :summary, :recorded_at)`, r)
	if err != nil {
		return fmt.Errorf("postgres: add review summary: %w", err)
	}
	return nil
}

func (s *PostgresStore) TouchCompetitor(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE competitors SET updated_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("postgres: touch competitor: %w", err)
	}
	return expectAffected(res)
}

func (s *PostgresStore) CreateAlert(ctx context.Context, a *models.Alert) error {
	ensureID(&a.ID)
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO alerts (id, type, title, message, created_at)
		 VALUES (:id, :type, :title, :message, :created_at)`, a)
	if err != nil {
		return fmt.Errorf("postgres: create alert: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAlerts(ctx context.Context, limit int) ([]models.Alert, error) {
	if limit <= 0 {
		limit = defaultAlertLimit
	}
	var alerts []models.Alert
	if err := s.db.SelectContext(ctx, &alerts,
		`SELECT id, type, title, message, created_at FROM alerts ORDER BY created_at DESC LIMIT $1`,
		limit); err != nil {
		return nil, fmt.Errorf("postgres: list alerts: %w", err)
	}
	return alerts, nil
}

// ── proposals ────────────────────────────────────────────────────────────

func (s *PostgresStore) CreateProposal(ctx context.Context, p *models.Proposal) error {
	ensureID(&p.ID)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO proposals
		    (id, category_id, archetype, product_name, target_price, features, keywords, reasoning, status, created_at)
		 VALUES
		    (:id, :category_id, :archetype, :product_name, :target_price, :features, :keywords, :reasoning, :status, :created_at)`,
		p)
	if err != nil {
		return fmt.Errorf("postgres: create proposal: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListProposals(ctx context.Context) ([]models.Proposal, error) {
	var proposals []models.Proposal
	if err := s.db.SelectContext(ctx, &proposals,
		`SELECT id, category_id, archetype, product_name, target_price, features, keywords, reasoning, status, created_at
		 FROM proposals ORDER BY created_at DESC`); err != nil {
		return nil, fmt.Errorf("postgres: list proposals: %w", err)
	}
	return proposals, nil
}

func (s *PostgresStore) DeleteProposal(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM proposals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete proposal: %w", err)
	}
	return expectAffected(res)
}

// ── helpers ──────────────────────────────────────────────────────────────

const defaultAlertLimit = 50

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func groupURLs(urls []ownedURL) map[string][]string {
	out := make(map[string][]string)
	for _, u := range urls {
		out[u.OwnerID] = append(out[u.OwnerID], u.URL)
	}
	return out
}

// assembleSnapshots joins competitors with their products and latest review,
// preserving competitor order.
func assembleSnapshots(comps []models.Competitor, products []models.Product, latest []models.ReviewSummary) []models.CompetitorSnapshot {
	byComp := make(map[string][]models.Product, len(comps))
	for _, p := range products {
		byComp[p.CompetitorID] = append(byComp[p.CompetitorID], p)
	}
	reviewByComp := make(map[string]*models.ReviewSummary, len(latest))
	for i := range latest {
		reviewByComp[latest[i].CompetitorID] = &latest[i]
	}

	out := make([]models.CompetitorSnapshot, 0, len(comps))
	for _, c := range comps {
		out = append(out, models.CompetitorSnapshot{
			Competitor:   c,
			Products:     byComp[c.ID],
			LatestReview: reviewByComp[c.ID],
		})
	}
	return out
}
