package services

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"competitor-radar/models"
)

func TestReportPrinter_Extraction(t *testing.T) {
	var buf bytes.Buffer
	p := NewReportPrinter(&buf)

	p.PrintExtraction(models.Succeeded("https://www.amazon.co.jp/dp/B0TEST0001", &models.ProductSnapshot{
		Title:              "Quiet Desk Fan",
		PriceText:          "￥2,980",
		RatingText:         "5つ星のうち4.2",
		Metrics:            models.ListingQualityMetrics{ImageCount: 7, BulletCount: 5, DescriptionLength: 420},
		RatingDistribution: map[string]string{"5": "60%", "1": "4%"},
		CriticalReview:     &models.ReviewExcerpt{Title: "Too loud", StarValue: 2},
	}))
	out := buf.String()

	assert.Contains(t, out, "Quiet Desk Fan")
	assert.Contains(t, out, "7 / 5")
	assert.Contains(t, out, "2.0★ Too loud")
	assert.Contains(t, out, "5★ 60%  1★ 4%")

	buf.Reset()
	p.PrintExtraction(models.Failed("https://www.amazon.co.jp/dp/B0TEST0002", models.ErrorKindCaptchaWall, 200, "captcha page"))
	out = buf.String()

	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "CAPTCHA_WALL")
	assert.Contains(t, out, "captcha page")
}

func TestReportPrinter_Proposals(t *testing.T) {
	var buf bytes.Buffer
	NewReportPrinter(&buf).PrintProposals([]models.Proposal{{
		ID:          "0c3e1a7b-5d2f-4e61-9a0d-4f3c2b1a0e9d",
		ProductName: "Essential Desk Fan",
		Archetype:   models.ArchetypeValueGap,
		TargetPrice: 7200,
		Keywords:    "Desk Fan small",
		CreatedAt:   fixedNow,
	}})
	out := buf.String()

	assert.Contains(t, out, "0c3e1a7b")
	assert.NotContains(t, out, "0c3e1a7b-5d2f")
	assert.Contains(t, out, "Essential Desk Fan")
	assert.Contains(t, out, "VALUE_GAP")
	assert.Contains(t, out, "7200")
	assert.Contains(t, out, "2026-03-01 09:00")
}

func TestReportPrinter_Outcomes(t *testing.T) {
	var buf bytes.Buffer
	p := NewReportPrinter(&buf)

	p.PrintAnalysis([]AnalysisOutcome{
		{Category: "Desk Fan", Status: StatusProposal, ProductName: "NextGen Desk Fan", Archetype: models.ArchetypeBalanced, TargetPrice: 5000},
		{Category: "Kettle", Status: StatusSkipped, Err: "no competitors"},
	})
	p.PrintCollection([]CollectionOutcome{{Competitor: "Breeze Co", Status: StatusFailed, Err: "every product extraction failed"}})
	p.PrintAlerts([]models.Alert{{Type: models.AlertPriceChange, Title: "Price Change Detected", Message: "Fan price changed from 1000 to 1100", CreatedAt: fixedNow}})
	p.PrintOverview([]CompetitorOverview{{Name: "Breeze Co", ProductsCount: 3, AvgPrice: 2980, LastScan: fixedNow}})
	out := buf.String()

	assert.Contains(t, out, "NextGen Desk Fan")
	assert.Contains(t, out, "no competitors")
	assert.Contains(t, out, "every product extraction failed")
	assert.Contains(t, out, "PRICE_CHANGE")
	assert.Contains(t, out, "Breeze Co")
	assert.Contains(t, out, "2980")
}

func TestHistogramLine(t *testing.T) {
	assert.Equal(t, "-", histogramLine(nil))
	assert.Equal(t, "5★ 60%  4★ 20%  1★ 4%", histogramLine(map[string]string{"1": "4%", "5": "60%", "4": "20%"}))
}
