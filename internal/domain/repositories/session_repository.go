package repositories

import (
	"context"

	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
)

// SessionRepository defines the interface for search session persistence
type SessionRepository interface {
	// Create stores a new session together with its ranked results
	Create(ctx context.Context, s *entities.SearchSession, listingIDs []int64) error

	// GetByID retrieves a session
	GetByID(ctx context.Context, id string) (*entities.SearchSession, error)

	// ListResults returns the session's listings in rank order
	ListResults(ctx context.Context, sessionID string) ([]entities.RankedListing, error)

	// ReplaceResults swaps the ranked results and status of an existing session
	ReplaceResults(ctx context.Context, sessionID string, listingIDs []int64, status entities.SessionStatus) error

	// AddExcluded appends listing IDs to the session's exclusion set
	AddExcluded(ctx context.Context, sessionID string, listingIDs []int64) error
}
