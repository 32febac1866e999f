package amazon

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"competitor-radar/config"
)

// maxBodyBytes caps how much of a product page is read.
const maxBodyBytes = 10 * 1024 * 1024

// noCacheHeaders force a live fetch on every transport.
var noCacheHeaders = map[string]string{
	"Cache-Control": "no-store",
	"Pragma":        "no-cache",
}

// Page is a fetched document.
type Page struct {
	StatusCode int
	Body       []byte
}

// Fetcher retrieves a page. Implementations must not cache.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// HTTPFetcher fetches pages with net/http using a browser-like header set.
type HTTPFetcher struct {
	client         *http.Client
	userAgent      string
	acceptLanguage string
}

// NewHTTPFetcher builds an HTTPFetcher. A nil client gets a default one. A
// positive timeout applies to any client that has none of its own; zero means
// the transport default.
func NewHTTPFetcher(client *http.Client, userAgent, acceptLanguage string, timeout time.Duration) *HTTPFetcher {
	switch {
	case client == nil:
		client = &http.Client{Timeout: timeout}
	case client.Timeout == 0 && timeout > 0:
		c := *client
		c.Timeout = timeout
		client = &c
	}
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}
	return &HTTPFetcher{client: client, userAgent: userAgent, acceptLanguage: acceptLanguage}
}

// Fetch issues one live GET and returns the page whatever its status code.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	if f.acceptLanguage != "" {
		req.Header.Set("Accept-Language", f.acceptLanguage)
	}
	for k, v := range noCacheHeaders {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Page{StatusCode: resp.StatusCode, Body: body}, nil
}
