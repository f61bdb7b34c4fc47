package fetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/Bookjiradech/CARCOM/internal/domain/providers"
	"github.com/Bookjiradech/CARCOM/pkg/config"
)

const (
	defaultPageTimeout = 45 * time.Second
	scrollRounds       = 4
	scrollPause        = 700 * time.Millisecond
	settlePause        = 1500 * time.Millisecond
)

// Clicks the first visible consent or close control on cookie and app banners.
const dismissBannersJS = `(() => {
  const words = ['ยอมรับ', 'ยอมรับทั้งหมด', 'ตกลง', 'ปิด', 'Accept', 'Accept all', 'Got it', 'Close'];
  const nodes = Array.from(document.querySelectorAll('button, a[role="button"], [aria-label="close"], [aria-label="Close"]'));
  for (const n of nodes) {
    const t = (n.innerText || n.getAttribute('aria-label') || '').trim();
    if (words.includes(t) && n.offsetParent !== null) { n.click(); return true; }
  }
  return false;
})()`

const scrollJS = `window.scrollBy(0, Math.max(window.innerHeight, 800)); document.body.scrollHeight`

// ChromeFetcher renders pages in a shared headless Chrome. Each fetch opens
// its own tab; tabs are throttled by a single limiter so concurrent source
// runs do not hammer the same site.
type ChromeFetcher struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	limiter       *rate.Limiter
	pageTimeout   time.Duration
	dumper        *Dumper

	closeOnce sync.Once
}

// NewChromeFetcher starts a browser configured from cfg
func NewChromeFetcher(cfg *config.ScraperConfig) (*ChromeFetcher, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.WindowSize(1366, 900),
		chromedp.UserAgent(cfg.UserAgent),
	)
	if cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// Run with no actions launches the browser so the first fetch does not pay for it.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	f := &ChromeFetcher{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		limiter:       newLimiter(cfg.RequestInterval),
		pageTimeout:   defaultPageTimeout,
	}
	if cfg.DebugDump {
		f.dumper = NewDumper(cfg.DumpDir)
	}
	return f, nil
}

// Fetch loads url in a new tab, scrolls to trigger lazy content and returns
// the document HTML.
func (f *ChromeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}

	tabCtx, cancelTab := chromedp.NewContext(f.browserCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, f.pageTimeout)
	defer cancelTimeout()
	// chromedp contexts hang off the browser; the caller's deadline still applies.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	start := time.Now()
	var html string
	actions := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(settlePause),
		chromedp.Evaluate(dismissBannersJS, nil),
	}
	for i := 0; i < scrollRounds; i++ {
		actions = append(actions, chromedp.Evaluate(scrollJS, nil), chromedp.Sleep(scrollPause))
	}
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(tabCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("failed to render %s: %w", url, err)
	}

	log.Debug().
		Str("url", url).
		Dur("elapsed", time.Since(start)).
		Int("bytes", len(html)).
		Msg("Page rendered")

	if f.dumper != nil {
		f.dumper.Dump(url, html)
	}
	return html, nil
}

// Close shuts the browser down
func (f *ChromeFetcher) Close() error {
	f.closeOnce.Do(func() {
		f.browserCancel()
		f.allocCancel()
	})
	return nil
}

func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

var _ providers.PageFetcher = (*ChromeFetcher)(nil)
