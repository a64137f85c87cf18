package fetch

import (
	"context"
	"strings"
	"time"

	"cruise-deal-scraper/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

// Browser fetches pages through a headless Chrome session so that pricing
// tables populated by client-side JavaScript are present in the returned
// document. One Browser per extractor run; Close must run on every exit path.
type Browser struct {
	ctx    context.Context
	cancel context.CancelFunc
	settle time.Duration
	logger *utils.Logger
}

// NewBrowser starts a headless Chrome process.
func NewBrowser(userAgent string, settle time.Duration, logger *utils.Logger) (*Browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("log-level", "3"), // suppress Chrome logs
		chromedp.UserAgent(userAgent),
		chromedp.WindowSize(1920, 1080),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	cancel := func() {
		cancelCtx()
		cancelAlloc()
	}

	// Force the browser to actually start so a broken Chrome install fails
	// here instead of on the first navigation.
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		return nil, err
	}

	return &Browser{ctx: ctx, cancel: cancel, settle: settle, logger: logger}, nil
}

// Close tears down the browser process.
func (b *Browser) Close() {
	b.cancel()
}

// Page navigates to a URL in a fresh tab, waits for the page to settle, and
// returns the fully rendered DOM as a document.
func (b *Browser) Page(ctx context.Context, url string) (*goquery.Document, error) {
	tab, cancelTab := chromedp.NewContext(b.ctx)
	defer cancelTab()

	var html string
	run := func() error {
		tabCtx := tab
		if deadline, ok := ctx.Deadline(); ok {
			var cancel context.CancelFunc
			tabCtx, cancel = context.WithDeadline(tab, deadline)
			defer cancel()
		}
		return chromedp.Run(tabCtx,
			chromedp.Navigate(url),
			chromedp.Sleep(b.settle),
			chromedp.OuterHTML("html", &html),
		)
	}
	if err := run(); err != nil {
		return nil, &Error{URL: url, Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}
	return doc, nil
}

// Evaluate navigates to a URL, scrolls to trigger lazy loading, and runs a
// JS expression, decoding its result into out. Browser extractors use this
// when the card structure is easier to walk in page context than in Go.
func (b *Browser) Evaluate(ctx context.Context, url, js string, out interface{}) error {
	tab, cancelTab := chromedp.NewContext(b.ctx)
	defer cancelTab()

	tabCtx := tab
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		tabCtx, cancel = context.WithDeadline(tab, deadline)
		defer cancel()
	}

	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(b.settle),
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.Sleep(2*time.Second),
		chromedp.Evaluate(js, out),
	)
	if err != nil {
		return &Error{URL: url, Err: err}
	}
	return nil
}
