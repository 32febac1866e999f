package storage_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"competitor-radar/models"
	"competitor-radar/storage"
)

func TestCSVWriter_WriteSnapshots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "snapshots.csv")
	w, err := storage.NewCSVWriter(path)
	require.NoError(t, err)

	ok := models.Succeeded("https://www.amazon.co.jp/dp/B0TEST0001", &models.ProductSnapshot{
		Title:     "Quiet Desk Fan",
		PriceText: "￥2,980",
		Metrics:   models.ListingQualityMetrics{ImageCount: 3, BulletCount: 5},
		CriticalReview: &models.ReviewExcerpt{
			Title: "Too loud", StarValue: 2,
		},
		RatingDistribution: map[string]string{"1": "4%", "5": "60%", "3": "10%"},
	})
	ok.ScrapedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	blocked := models.Failed("https://www.amazon.co.jp/dp/B0TEST0002", models.ErrorKindBotDetected, 503, "blocked")

	require.NoError(t, w.WriteSnapshots([]*models.ExtractionResult{ok, nil, blocked}))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, "url", rows[0][0])

	header := map[string]int{}
	for i, h := range rows[0] {
		header[h] = i
	}
	assert.Equal(t, "Quiet Desk Fan", rows[1][header["title"]])
	assert.Equal(t, "￥2,980", rows[1][header["price_text"]])
	assert.Equal(t, "3", rows[1][header["image_count"]])
	assert.Equal(t, "2.0", rows[1][header["critical_review_star"]])
	assert.Equal(t, "5:60% 3:10% 1:4%", rows[1][header["rating_distribution"]])
	assert.Equal(t, "2026-03-01T12:00:00Z", rows[1][header["scraped_at"]])

	assert.Equal(t, "false", rows[2][header["success"]])
	assert.Equal(t, "BOT_DETECTED", rows[2][header["kind"]])
	assert.Equal(t, "503", rows[2][header["status_code"]])
	assert.Empty(t, rows[2][header["title"]])
}
