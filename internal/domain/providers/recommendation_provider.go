package providers

import (
	"context"

	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
)

// RecommendationRequest is what the reasoning service sees when asked to pick a car
type RecommendationRequest struct {
	Params     entities.FilterParams
	Candidates []*entities.Listing
	// Exclude lists listing ids the user has already been shown
	Exclude []int64
}

// RecommendationResult is the reasoning service's pick
type RecommendationResult struct {
	ListingID int64  `json:"car_id"`
	Reason    string `json:"reason"`
}

// RecommendationProvider asks an external reasoning service to choose one candidate
type RecommendationProvider interface {
	Recommend(ctx context.Context, req RecommendationRequest) (*RecommendationResult, error)
}
