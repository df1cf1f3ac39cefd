// Package fetch renders the procurement portal's search-results page.
//
// The portal populates its result table from script after load, so a plain
// HTTP GET returns an empty shell. Fetch drives one headless Chrome session
// per call and waits for the result rows to become visible before reading
// the rendered markup.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/chromedp"
)

// Sentinel errors distinguishing "page never became ready" from every other
// navigation/session failure. Callers abort the scan cycle on either; the
// distinction only drives logging and the cycle result.
var (
	ErrTimeout = errors.New("fetch: results never became ready")
	ErrFetch   = errors.New("fetch: navigation failed")
)

const (
	// readyMarker is the element whose visibility signals that the result
	// table has been populated.
	readyMarker = "span.bidding-code"

	// readyTimeout bounds the wait for readyMarker after navigation.
	readyTimeout = 30 * time.Second

	// navigateSettle gives the portal's scripts a moment to start rendering
	// before the readiness wait begins.
	navigateSettle = 3 * time.Second

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Browser fetches rendered pages through headless Chrome. One Chrome process
// is spawned and torn down per Fetch call; nothing is shared between calls.
type Browser struct {
	headless bool
	timeout  time.Duration
}

// NewBrowser constructs a headless Browser with the default readiness bound.
func NewBrowser() *Browser {
	return &Browser{headless: true, timeout: readyTimeout}
}

// Fetch navigates to the search page for q and returns the rendered markup.
// Returns ErrTimeout when the result rows never appear within the readiness
// bound, ErrFetch for any other failure. The browser process is released on
// every exit path.
func (b *Browser) Fetch(ctx context.Context, q Query) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.headless),
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(browserUserAgent),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	u := BuildURL(q)
	log.Printf("[fetch] Navigating to search page (window %s → %s)", q.From, q.To)

	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(u),
		chromedp.Sleep(navigateSettle),
	); err != nil {
		return "", fmt.Errorf("%w: navigate: %v", ErrFetch, err)
	}

	waitCtx, cancelWait := context.WithTimeout(browserCtx, b.timeout)
	defer cancelWait()
	if err := chromedp.Run(waitCtx, chromedp.WaitVisible(readyMarker, chromedp.ByQuery)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %q not visible within %s", ErrTimeout, readyMarker, b.timeout)
		}
		return "", fmt.Errorf("%w: wait for results: %v", ErrFetch, err)
	}

	var html string
	if err := chromedp.Run(browserCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("%w: read page source: %v", ErrFetch, err)
	}

	log.Printf("[fetch] Page rendered — %d bytes of markup", len(html))
	return html, nil
}
