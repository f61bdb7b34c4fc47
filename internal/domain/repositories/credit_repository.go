package repositories

import (
	"context"

	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
)

// CreditRepository defines the interface for credit and package data access
type CreditRepository interface {
	// HasCredit reports whether the user holds any usable allotment
	HasCredit(ctx context.Context, userID int64) (bool, error)

	// ConsumeOne decrements the usable allotment that expires soonest.
	// It returns false when the user had nothing to consume.
	ConsumeOne(ctx context.Context, userID int64) (bool, error)

	// HasUsedTrial reports whether the user was ever granted a trial package
	HasUsedTrial(ctx context.Context, userID int64) (bool, error)

	// Grant adds an allotment
	Grant(ctx context.Context, a *entities.CreditAllotment) error

	// SavePackage inserts a package or updates the one with the same code
	SavePackage(ctx context.Context, p *entities.Package) error

	// GetPackage retrieves a package with its current promotion, if any
	GetPackage(ctx context.Context, id int64) (*entities.Package, error)
}
