package amazon

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"competitor-radar/utils"
)

const (
	testASIN       = "B0TEST0001"
	testProductURL = "https://www.amazon.co.jp/dp/" + testASIN
	testReviewBase = "https://www.amazon.co.jp"
)

// fakeFetcher serves canned pages by URL and records every call.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]*Page
	errs  map[string]error
	calls []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{pages: map[string]*Page{}, errs: map[string]error{}}
}

func (f *fakeFetcher) serve(url string, status int, html string) *fakeFetcher {
	f.pages[url] = &Page{StatusCode: status, Body: []byte(html)}
	return f
}

func (f *fakeFetcher) fail(url string, err error) *fakeFetcher {
	f.errs[url] = err
	return f
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)

	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if p, ok := f.pages[url]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("no page for %s", url)
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestExtractor(f Fetcher, opts ...Option) *Extractor {
	opts = append([]Option{WithReviewBaseURL(testReviewBase)}, opts...)
	return New(f, utils.NewNopLogger(), opts...)
}

func page(parts ...string) string {
	return "<!DOCTYPE html><html><head><title>Amazon</title></head><body>" +
		strings.Join(parts, "\n") + "</body></html>"
}

const titleBlock = `<span id="productTitle">
    Quiet Desk Fan 20cm
</span>`

func reviewBlock(title, body, rating string) string {
	return fmt.Sprintf(`<div data-hook="review">
  <a data-hook="review-title" href="#"><span>%s</span></a>
  <i data-hook="review-star-rating"><span class="a-icon-alt">%s</span></i>
  <span data-hook="review-body"><span>%s</span></span>
</div>`, title, rating, body)
}

const histogramTable = `<table id="histogramTable">
  <tr><td>5 star</td><td><div class="bar"></div></td><td>60%</td></tr>
  <tr><td>4 star</td><td><div class="bar"></div></td><td>20%</td></tr>
  <tr><td>3 star</td><td><div class="bar"></div></td><td>10%</td></tr>
  <tr><td>2 star</td><td><div class="bar"></div></td><td>6%</td></tr>
  <tr><td>1 star</td><td><div class="bar"></div></td><td>4%</td></tr>
</table>`
