package repositories

import (
	"context"
	"time"

	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
)

// UpsertOutcome tells whether an upsert inserted or merged
type UpsertOutcome string

const (
	UpsertCreated UpsertOutcome = "created"
	UpsertUpdated UpsertOutcome = "updated"
)

// ListingQuery narrows a listing scan. Zero values are ignored.
type ListingQuery struct {
	Sources  []string
	MaxPrice int64
	// Text is matched case-insensitively against title, brand and model
	Text string
	// UpdatedSince limits the scan to rows written at or after this time
	UpdatedSince time.Time
	Limit        int
}

// ListingRepository defines the interface for listing data access
type ListingRepository interface {
	// Upsert inserts a listing or merges it into the row with the same source URL
	Upsert(ctx context.Context, p *entities.PartialListing) (*entities.Listing, UpsertOutcome, error)

	// GetByID retrieves a listing by ID
	GetByID(ctx context.Context, id int64) (*entities.Listing, error)

	// GetByIDs retrieves listings by ID, preserving the order of ids and skipping missing rows
	GetByIDs(ctx context.Context, ids []int64) ([]*entities.Listing, error)

	// Query returns listings matching q, cheapest first with unknown prices last
	Query(ctx context.Context, q ListingQuery) ([]*entities.Listing, error)

	// ListBySource returns one page of a source's listings ordered by ID
	ListBySource(ctx context.Context, source string, afterID int64, limit int) ([]*entities.Listing, error)

	// UpdateAttributes replaces the attribute bag of a listing
	UpdateAttributes(ctx context.Context, id int64, attrs entities.Attributes) error

	// PurgeBySources deletes every listing of the given sources, removing the
	// session results that reference them first, and returns the number of
	// listings removed
	PurgeBySources(ctx context.Context, sources []string) (int64, error)
}
