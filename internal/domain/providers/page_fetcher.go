package providers

import (
	"context"
)

// PageFetcher loads a page and returns its rendered HTML
type PageFetcher interface {
	// Fetch navigates to url and returns the document HTML after scripts ran
	Fetch(ctx context.Context, url string) (string, error)

	// Close releases the underlying browser or client
	Close() error
}
