package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"competitor-radar/models"
)

// ReportPrinter renders results as terminal tables.
type ReportPrinter struct {
	out io.Writer
}

// NewReportPrinter creates a printer writing to out.
func NewReportPrinter(out io.Writer) *ReportPrinter {
	return &ReportPrinter{out: out}
}

func (r *ReportPrinter) newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	return t
}

// PrintExtraction shows one extraction result.
func (r *ReportPrinter) PrintExtraction(res *models.ExtractionResult) {
	t := r.newTable("Extraction")
	t.AppendRow(table.Row{"URL", res.URL})

	if !res.Success {
		status := "-"
		if res.StatusCode != nil {
			status = fmt.Sprint(*res.StatusCode)
		}
		t.AppendRow(table.Row{"Result", text.FgRed.Sprint("FAILED")})
		t.AppendRow(table.Row{"Kind", res.Kind})
		t.AppendRow(table.Row{"Status", status})
		t.AppendRow(table.Row{"Error", res.Error})
		t.Render()
		return
	}

	d := res.Data
	t.AppendRow(table.Row{"Result", text.FgGreen.Sprint("OK")})
	t.AppendRow(table.Row{"Title", truncate(d.Title, 70)})
	t.AppendRow(table.Row{"Price", d.PriceText})
	t.AppendRow(table.Row{"Rating", d.RatingText})
	t.AppendRow(table.Row{"Images / Bullets", fmt.Sprintf("%d / %d", d.Metrics.ImageCount, d.Metrics.BulletCount)})
	t.AppendRow(table.Row{"Description", fmt.Sprintf("%d chars, rich content: %t", d.Metrics.DescriptionLength, d.Metrics.HasRichContent)})
	if d.CriticalReview != nil {
		t.AppendRow(table.Row{"Critical review", fmt.Sprintf("%.1f★ %s", d.CriticalReview.StarValue, truncate(d.CriticalReview.Title, 60))})
	} else {
		t.AppendRow(table.Row{"Critical review", "-"})
	}
	t.AppendRow(table.Row{"Histogram", histogramLine(d.RatingDistribution)})
	t.Render()
}

// PrintProposals lists proposals, newest first as given.
func (r *ReportPrinter) PrintProposals(proposals []models.Proposal) {
	t := r.newTable("Proposals")
	t.AppendHeader(table.Row{"ID", "Product", "Archetype", "Target Price", "Keywords", "Created"})
	for _, p := range proposals {
		t.AppendRow(table.Row{
			shortID(p.ID),
			truncate(p.ProductName, 40),
			p.Archetype,
			fmt.Sprintf("%.0f", p.TargetPrice),
			truncate(p.Keywords, 50),
			p.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "Total", len(proposals)})
	t.Render()
}

// PrintAnalysis shows one row per analyzed category.
func (r *ReportPrinter) PrintAnalysis(outcomes []AnalysisOutcome) {
	t := r.newTable("Opportunity Analysis")
	t.AppendHeader(table.Row{"Category", "Status", "Proposal", "Archetype", "Target Price", "Error"})
	for _, o := range outcomes {
		price := ""
		if o.Status == StatusProposal {
			price = fmt.Sprintf("%.0f", o.TargetPrice)
		}
		t.AppendRow(table.Row{o.Category, colorStatus(o.Status), truncate(o.ProductName, 40), o.Archetype, price, truncate(o.Err, 60)})
	}
	t.Render()
}

// PrintCollection shows one row per collected competitor.
func (r *ReportPrinter) PrintCollection(outcomes []CollectionOutcome) {
	t := r.newTable("Collection")
	t.AppendHeader(table.Row{"Competitor", "Status", "Products", "Alerts", "Error"})
	for _, o := range outcomes {
		t.AppendRow(table.Row{o.Competitor, colorStatus(o.Status), o.Products, o.Alerts, truncate(o.Err, 60)})
	}
	t.Render()
}

// PrintOverview shows the competitor dashboard.
func (r *ReportPrinter) PrintOverview(rows []CompetitorOverview) {
	t := r.newTable("Competitors")
	t.AppendHeader(table.Row{"Competitor", "Products", "Avg Price", "Avg Rating", "Last Scan"})
	for _, row := range rows {
		rating := "-"
		if row.AvgRating > 0 {
			rating = fmt.Sprintf("%.1f ★", row.AvgRating)
		}
		t.AppendRow(table.Row{row.Name, row.ProductsCount, fmt.Sprintf("%.0f", row.AvgPrice), rating, row.LastScan.Format("2006-01-02 15:04")})
	}
	t.Render()
}

// PrintAlerts lists alerts, newest first as given.
func (r *ReportPrinter) PrintAlerts(alerts []models.Alert) {
	t := r.newTable("Alerts")
	t.AppendHeader(table.Row{"When", "Type", "Title", "Message"})
	for _, a := range alerts {
		t.AppendRow(table.Row{a.CreatedAt.Format("2006-01-02 15:04"), a.Type, a.Title, truncate(a.Message, 70)})
	}
	t.Render()
}

func colorStatus(status string) string {
	switch status {
	case StatusSuccess, StatusProposal:
		return text.FgGreen.Sprint(status)
	case StatusSkipped:
		return text.FgYellow.Sprint(status)
	default:
		return text.FgRed.Sprint(status)
	}
}

func histogramLine(dist map[string]string) string {
	if len(dist) == 0 {
		return "-"
	}
	stars := make([]string, 0, len(dist))
	for k := range dist {
		stars = append(stars, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(stars)))
	parts := make([]string, 0, len(stars))
	for _, k := range stars {
		parts = append(parts, fmt.Sprintf("%s★ %s", k, dist[k]))
	}
	return strings.Join(parts, "  ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
