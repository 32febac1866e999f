package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"competitor-radar/models"
)

var csvHeader = []string{
	"url", "success", "kind", "status_code", "error",
	"title", "price_text", "rating_text", "image_url",
	"image_count", "bullet_count", "description_length", "has_rich_content",
	"critical_review_title", "critical_review_star", "rating_distribution", "scraped_at",
}

// CSVWriter writes raw (unparsed) extraction results to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteSnapshots appends one row per extraction result. Failed extractions
// are kept so blocked pages stay visible in the export.
func (c *CSVWriter) WriteSnapshots(results []*models.ExtractionResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range results {
		if r == nil {
			continue
		}
		if err := c.writer.Write(snapshotRow(r)); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writer.Flush()
	return c.file.Close()
}

func snapshotRow(r *models.ExtractionResult) []string {
	status := ""
	if r.StatusCode != nil {
		status = strconv.Itoa(*r.StatusCode)
	}
	row := []string{
		r.URL, strconv.FormatBool(r.Success), string(r.Kind), status, r.Error,
	}

	d := r.Data
	if d == nil {
		d = &models.ProductSnapshot{}
	}
	reviewTitle, reviewStar := "", ""
	if d.CriticalReview != nil {
		reviewTitle = d.CriticalReview.Title
		reviewStar = strconv.FormatFloat(d.CriticalReview.StarValue, 'f', 1, 64)
	}

	return append(row,
		d.Title, d.PriceText, d.RatingText, d.ImageURL,
		strconv.Itoa(d.Metrics.ImageCount),
		strconv.Itoa(d.Metrics.BulletCount),
		strconv.Itoa(d.Metrics.DescriptionLength),
		strconv.FormatBool(d.Metrics.HasRichContent),
		reviewTitle, reviewStar,
		formatDistribution(d.RatingDistribution),
		r.ScrapedAt.Format(time.RFC3339),
	)
}

// formatDistribution renders a histogram as "5:60% 4:20% ..." from five stars down.
func formatDistribution(dist map[string]string) string {
	stars := make([]string, 0, len(dist))
	for k := range dist {
		stars = append(stars, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(stars)))

	parts := make([]string, 0, len(stars))
	for _, k := range stars {
		parts = append(parts, k+":"+dist[k])
	}
	return strings.Join(parts, " ")
}
