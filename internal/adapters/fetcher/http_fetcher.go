package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/Bookjiradech/CARCOM/internal/domain/providers"
	"github.com/Bookjiradech/CARCOM/pkg/config"
	"github.com/Bookjiradech/CARCOM/pkg/retry"
)

const maxBodyBytes = 8 << 20

// HTTPFetcher downloads pages without running scripts. It serves sources
// whose listing pages are rendered on the server, and tests.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
	retry     retry.Config
	dumper    *Dumper
}

// NewHTTPFetcher creates a fetcher from cfg. A nil client uses a default
// client bounded by the per-page timeout.
func NewHTTPFetcher(cfg *config.ScraperConfig, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultPageTimeout}
	}
	f := &HTTPFetcher{
		client:    client,
		userAgent: cfg.UserAgent,
		limiter:   newLimiter(cfg.RequestInterval),
		retry:     retry.FetchConfig(),
	}
	if cfg.DebugDump {
		f.dumper = NewDumper(cfg.DumpDir)
	}
	return f
}

// Fetch GETs url, retrying network errors and 5xx/429 responses
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	var html string
	err := retry.DoWithLog(ctx, f.retry, "page-fetch", func() error {
		if err := f.limiter.Wait(ctx); err != nil {
			return retry.Permanent(err)
		}
		body, err := f.get(ctx, url)
		if err != nil {
			return err
		}
		html = body
		return nil
	}, nil)
	if err != nil {
		return "", err
	}
	if f.dumper != nil {
		f.dumper.Dump(url, html)
	}
	return html, nil
}

func (f *HTTPFetcher) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "th-TH,th;q=0.9,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return "", retry.Permanent(fmt.Errorf("fetch %s: status %d", url, resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", url, err)
	}
	return string(body), nil
}

// Close drops idle keep-alive connections
func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// WithRetry overrides the retry policy
func (f *HTTPFetcher) WithRetry(cfg retry.Config) *HTTPFetcher {
	f.retry = cfg
	return f
}

var _ providers.PageFetcher = (*HTTPFetcher)(nil)
