// Package sources holds one Extractor per listing site. Each extractor turns
// a fetched search page into listing links and a fetched listing page into a
// PartialListing with an un-normalized attribute bag.
package sources

import (
	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
)

// SearchQuery is what a source needs to build its search page URL
type SearchQuery struct {
	Query    string
	MinPrice int64
	MaxPrice int64
}

// Extractor is the per-source contract
type Extractor interface {
	// Name is the source identifier stored on every listing
	Name() string

	// SearchURL returns the first results page for q
	SearchURL(q SearchQuery) string

	// ListingLinks returns up to limit unique listing URLs found on a results page
	ListingLinks(pageURL, html string, q SearchQuery, limit int) ([]string, error)

	// Extract reads one listing page
	Extract(pageURL, html string) (*entities.PartialListing, error)
}
