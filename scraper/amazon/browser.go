package amazon

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"competitor-radar/utils"
)

// BrowserFetcher renders pages in headless Chrome. It is slower than
// HTTPFetcher but survives layouts that only appear after scripts run.
// The status code is not observable through the DevTools DOM snapshot, so
// rendered pages report 200.
type BrowserFetcher struct {
	cancelAlloc context.CancelFunc
	browserCtx  context.Context
	cancelCtx   context.CancelFunc
	headers     network.Headers
	timeout     time.Duration
	logger      *utils.Logger
}

// NewBrowserFetcher starts a headless browser. Call Close when done.
func NewBrowserFetcher(chromeBin, userAgent, acceptLanguage string, timeout time.Duration, logger *utils.Logger) (*BrowserFetcher, error) {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	logger.Info("[browser] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disk-cache-size", "0"),
		chromedp.UserAgent(userAgent),
	)
	if lang := primaryLanguage(acceptLanguage); lang != "" {
		opts = append(opts, chromedp.Flag("lang", lang))
	}
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	// Suppress chromedp log noise
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// start the browser once so every Fetch opens a tab in it
	if err := chromedp.Run(browserCtx); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, fmt.Errorf("chromedp start: %w", err)
	}

	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &BrowserFetcher{
		cancelAlloc: cancelAlloc,
		browserCtx:  browserCtx,
		cancelCtx:   cancelCtx,
		headers:     browserHeaders(acceptLanguage),
		timeout:     timeout,
		logger:      logger,
	}, nil
}

// Fetch renders url in a fresh tab and returns its outer HTML.
func (b *BrowserFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	tabCtx, cancel := chromedp.NewContext(b.browserCtx)
	defer cancel()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.timeout)
	defer cancelTimeout()

	// propagate caller cancellation into the tab
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err := chromedp.Run(tabCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(b.headers),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp fetch: %w", err)
	}

	return &Page{StatusCode: http.StatusOK, Body: []byte(html)}, nil
}

// Close shuts the browser down.
func (b *BrowserFetcher) Close() {
	b.cancelCtx()
	b.cancelAlloc()
}

// browserHeaders are sent with every request a tab makes, on top of what
// Chrome sends itself.
func browserHeaders(acceptLanguage string) network.Headers {
	h := network.Headers{}
	for k, v := range noCacheHeaders {
		h[k] = v
	}
	if acceptLanguage != "" {
		h["Accept-Language"] = acceptLanguage
	}
	return h
}

// primaryLanguage returns the first tag of an Accept-Language value,
// e.g. "ja" for "ja,en-US;q=0.9".
func primaryLanguage(acceptLanguage string) string {
	first, _, _ := strings.Cut(acceptLanguage, ",")
	first, _, _ = strings.Cut(first, ";")
	return strings.TrimSpace(first)
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
