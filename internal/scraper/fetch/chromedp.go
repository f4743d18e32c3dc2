// Package fetch renders detail pages in a headless browser. The listings site
// assembles parts of the page (room dialogs, galleries) client side, so a
// plain HTTP GET would miss them.
package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"stayscout/internal/config"
)

// BrowserFetcher drives a shared headless Chrome instance. Tabs are opened
// per page; the browser itself is reused across the whole run because
// startup costs seconds.
type BrowserFetcher struct {
	userAgent string
	headless  bool
	timeout   time.Duration

	mu           sync.Mutex
	allocatorCtx context.Context
	cancelAlloc  context.CancelFunc
	browserCtx   context.Context
	cancelBrowse context.CancelFunc
}

// NewBrowserFetcher creates a fetcher from configuration. The browser starts
// lazily on the first Fetch.
func NewBrowserFetcher(scraperCfg *config.ScraperConfig, searchCfg *config.SearchConfig) *BrowserFetcher {
	return &BrowserFetcher{
		userAgent: searchCfg.UserAgent,
		headless:  scraperCfg.Headless,
		timeout:   scraperCfg.PageLoadTimeout,
	}
}

func (f *BrowserFetcher) ensureBrowser(ctx context.Context) (context.Context, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browserCtx != nil && f.browserCtx.Err() == nil {
		return f.browserCtx, nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(f.userAgent),
	)

	// The allocator outlives individual fetch contexts.
	f.allocatorCtx, f.cancelAlloc = chromedp.NewExecAllocator(context.Background(), opts...)
	f.browserCtx, f.cancelBrowse = chromedp.NewContext(f.allocatorCtx)

	if err := chromedp.Run(f.browserCtx); err != nil {
		f.closeLocked()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	return f.browserCtx, nil
}

// Fetch renders the page, scrolls to the bottom to trigger lazy content and
// returns the final HTML.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (string, error) {
	browser, err := f.ensureBrowser(ctx)
	if err != nil {
		return "", err
	}

	tab, cancelTab := chromedp.NewContext(browser)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tab, f.timeout)
	defer cancelTimeout()

	// Stop rendering early if the caller's context ends first.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var html string
	err = chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.Evaluate(`Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`, nil),
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight);`, nil),
		chromedp.Sleep(3*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("failed to render %s: %w", url, err)
	}
	return html, nil
}

// Close shuts the browser down. Safe to call multiple times.
func (f *BrowserFetcher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeLocked()
}

func (f *BrowserFetcher) closeLocked() {
	if f.cancelBrowse != nil {
		f.cancelBrowse()
		f.cancelBrowse = nil
	}
	if f.cancelAlloc != nil {
		f.cancelAlloc()
		f.cancelAlloc = nil
	}
	f.browserCtx = nil
	f.allocatorCtx = nil
}
