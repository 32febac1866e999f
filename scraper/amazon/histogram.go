package amazon

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// histogramRowSelectors are tried in order; the first with any rows wins.
var histogramRowSelectors = []string{
	"#histogramTable tr",
	".a-histogram-row",
	`[data-hook="histogram-row"]`,
}

var percentRegexp = regexp.MustCompile(`\d+%`)

// histogramParser recovers the star-rating distribution. Star labels are
// matched through a configurable token list ("star", "つ星", ...).
type histogramParser struct {
	rowStar  *regexp.Regexp
	textStar map[string]*regexp.Regexp
}

func newHistogramParser(tokens []string) *histogramParser {
	if len(tokens) == 0 {
		tokens = []string{"star", "つ星"}
	}
	quoted := make([]string, 0, len(tokens))
	for _, t := range tokens {
		quoted = append(quoted, regexp.QuoteMeta(t))
	}
	alt := strings.Join(quoted, "|")

	p := &histogramParser{
		rowStar:  regexp.MustCompile(fmt.Sprintf(`(?i)([1-5])\s*(?:%s)`, alt)),
		textStar: make(map[string]*regexp.Regexp, 5),
	}
	// the filler is bounded so a percentage from another row is never paired
	// with this star
	for _, star := range []string{"5", "4", "3", "2", "1"} {
		p.textStar[star] = regexp.MustCompile(fmt.Sprintf(`(?i)%s\s*(?:%s)[^%%]{0,100}?(\d+)%%`, star, alt))
	}
	return p
}

// fromRows reads the structured histogram table.
func (p *histogramParser) fromRows(doc *goquery.Document) map[string]string {
	dist := make(map[string]string)

	var rows *goquery.Selection
	for _, sel := range histogramRowSelectors {
		rows = doc.Find(sel)
		if rows.Length() > 0 {
			break
		}
	}

	rows.Each(func(_ int, row *goquery.Selection) {
		percentage := strings.TrimSpace(row.Find("td:nth-child(3)").Text())
		if percentage == "" {
			percentage = strings.TrimSpace(row.Find(".a-text-right a").Text())
		}
		if percentage == "" {
			percentage = strings.TrimSpace(row.Find(".a-text-right").Text())
		}
		if percentage == "" {
			return
		}

		label := strings.TrimSpace(row.Find("td:nth-child(1)").Text())
		if label == "" {
			label = row.Text()
		}
		starMatch := p.rowStar.FindStringSubmatch(label)
		if starMatch == nil {
			starMatch = p.rowStar.FindStringSubmatch(row.Text())
		}
		pct := percentRegexp.FindString(percentage)
		if starMatch == nil || pct == "" {
			return
		}
		dist[starMatch[1]] = pct
	})

	return dist
}

// fromText scans raw markup when no structured rows were found.
func (p *histogramParser) fromText(doc *goquery.Document) map[string]string {
	dist := make(map[string]string)

	raw, _ := doc.Find("#reviewsMedley").Html()
	if raw == "" {
		raw, _ = doc.Find("body").Html()
	}
	if raw == "" {
		return dist
	}

	for star, re := range p.textStar {
		if m := re.FindStringSubmatch(raw); m != nil {
			dist[star] = m[1] + "%"
		}
	}
	return dist
}

// parse runs the structured extraction, then the text scan if that found nothing.
func (p *histogramParser) parse(doc *goquery.Document) map[string]string {
	if dist := p.fromRows(doc); len(dist) > 0 {
		return dist
	}
	return p.fromText(doc)
}
