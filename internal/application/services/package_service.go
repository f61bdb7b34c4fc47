package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
	"github.com/Bookjiradech/CARCOM/internal/domain/repositories"
	apperrors "github.com/Bookjiradech/CARCOM/pkg/errors"
)

// PackageQuote is the price a user would pay for a package today
type PackageQuote struct {
	Package         *entities.Package `json:"package"`
	BasePrice       float64           `json:"base_price"`
	EffectivePrice  float64           `json:"effective_price"`
	PromotionActive bool              `json:"promotion_active"`
	IsTrial         bool              `json:"is_trial"`
}

// PackageService prices packages and grants trial credits
type PackageService struct {
	creditRepo repositories.CreditRepository
	now        func() time.Time
}

// NewPackageService creates a new package service
func NewPackageService(creditRepo repositories.CreditRepository) *PackageService {
	return &PackageService{creditRepo: creditRepo, now: time.Now}
}

// Quote returns a package with its effective price
func (s *PackageService) Quote(ctx context.Context, packageID int64) (*PackageQuote, error) {
	pkg, err := s.creditRepo.GetPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return &PackageQuote{
		Package:         pkg,
		BasePrice:       pkg.BasePrice,
		EffectivePrice:  pkg.EffectivePrice(now),
		PromotionActive: pkg.Promotion.ActiveAt(now),
		IsTrial:         pkg.IsTrial(),
	}, nil
}

// ActivateTrial grants a trial package's credits. A user gets one trial in
// total, and a package discounted to zero by a promotion is not a trial.
func (s *PackageService) ActivateTrial(ctx context.Context, userID, packageID int64) (*entities.CreditAllotment, error) {
	pkg, err := s.creditRepo.GetPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if !pkg.IsTrial() {
		return nil, apperrors.NewValidationError("package is not a free trial")
	}

	used, err := s.creditRepo.HasUsedTrial(ctx, userID)
	if err != nil {
		return nil, err
	}
	if used {
		return nil, apperrors.NewConflictError("trial already used")
	}

	now := s.now().UTC()
	allotment := &entities.CreditAllotment{
		UserID:    userID,
		PackageID: pkg.ID,
		Remaining: pkg.Credits,
		Status:    entities.AllotmentStatusActive,
		CreatedAt: now,
	}
	if pkg.DurationDays != nil && *pkg.DurationDays > 0 {
		expires := now.AddDate(0, 0, *pkg.DurationDays)
		allotment.ExpiresAt = &expires
	}
	if err := s.creditRepo.Grant(ctx, allotment); err != nil {
		return nil, err
	}

	log.Info().Int64("user_id", userID).Int64("package_id", pkg.ID).Int("credits", pkg.Credits).Msg("Trial activated")
	return allotment, nil
}
