package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Bookjiradech/CARCOM/internal/application/services"
	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
	"github.com/Bookjiradech/CARCOM/internal/domain/providers"
	apperrors "github.com/Bookjiradech/CARCOM/pkg/errors"
)

func TestSelectionService_Fallback(t *testing.T) {
	svc := services.NewSelectionService(nil, nil, nil)
	cars := []*entities.Listing{listing(1, 300), listing(2, 100), listing(3, 200)}

	tests := []struct {
		name    string
		budget  int64
		exclude []int64
		wantID  int64
	}{
		{"cheapest within budget", 250, nil, 2},
		{"nothing fits, cheapest overall", 50, nil, 2},
		{"excluded ids are skipped", 250, []int64{2}, 3},
		{"no budget", 0, nil, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := svc.Fallback(cars, tt.budget, tt.exclude)
			require.True(t, sel.Found())
			assert.Equal(t, tt.wantID, sel.Listing.ID)
			assert.Equal(t, entities.SelectionMethodFallback, sel.Method)
		})
	}
}

func TestSelectionService_FallbackReasonAndUnknownPrice(t *testing.T) {
	svc := services.NewSelectionService(nil, nil, nil)

	sel := svc.Fallback([]*entities.Listing{listing(1, -1), listing(2, 1289000)}, 2000000, nil)
	require.True(t, sel.Found())
	assert.Equal(t, int64(2), sel.Listing.ID, "unknown price sorts last")
	assert.Equal(t, "Picked the best-priced car within budget: 1,289,000 THB", sel.Reason)

	sel = svc.Fallback([]*entities.Listing{listing(1, 10)}, 100, []int64{1})
	assert.False(t, sel.Found())
}

func TestSelectionService_Select(t *testing.T) {
	cars := []*entities.Listing{listing(1, 100), listing(2, 200), listing(3, 900)}
	params := entities.FilterParams{MaxBudget: 250}

	tests := []struct {
		name       string
		result     *providers.RecommendationResult
		err        error
		wantID     int64
		wantMethod entities.SelectionMethod
		wantReason string
	}{
		{
			name:       "accepted pick with formatted price",
			result:     &providers.RecommendationResult{ListingID: 2, Reason: "Costs 200 THB."},
			wantID:     2,
			wantMethod: entities.SelectionMethodAI,
			wantReason: "Costs 200 THB.",
		},
		{
			name:       "over budget pick is corrected and keeps its reason",
			result:     &providers.RecommendationResult{ListingID: 3, Reason: "Most comfortable."},
			wantID:     1,
			wantMethod: entities.SelectionMethodCorrected,
			wantReason: "Most comfortable.",
		},
		{
			name:       "unknown id falls back",
			result:     &providers.RecommendationResult{ListingID: 99, Reason: "?"},
			wantID:     1,
			wantMethod: entities.SelectionMethodFallback,
		},
		{
			name:       "service error falls back",
			err:        errors.New("timeout"),
			wantID:     1,
			wantMethod: entities.SelectionMethodFallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := new(MockRecommender)
			rec.On("Recommend", mock.Anything, mock.AnythingOfType("providers.RecommendationRequest")).Return(tt.result, tt.err)
			svc := services.NewSelectionService(nil, rec, nil)

			sel := svc.Select(context.Background(), cars, params, nil)
			require.True(t, sel.Found())
			assert.Equal(t, tt.wantID, sel.Listing.ID)
			assert.Equal(t, tt.wantMethod, sel.Method)
			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, sel.Reason)
			}
			rec.AssertExpectations(t)
		})
	}
}

func TestSelectionService_SelectFormatsPriceInReason(t *testing.T) {
	rec := new(MockRecommender)
	rec.On("Recommend", mock.Anything, mock.Anything).
		Return(&providers.RecommendationResult{ListingID: 1, Reason: "Only 459000 THB."}, nil)
	svc := services.NewSelectionService(nil, rec, nil)

	sel := svc.Select(context.Background(), []*entities.Listing{listing(1, 459000)}, entities.FilterParams{MaxBudget: 500000}, nil)
	assert.Equal(t, "Only 459,000 THB.", sel.Reason)
}

func TestSelectionService_SelectDoesNotOfferExcluded(t *testing.T) {
	rec := new(MockRecommender)
	rec.On("Recommend", mock.Anything, mock.MatchedBy(func(req providers.RecommendationRequest) bool {
		return len(req.Candidates) == 1 && req.Candidates[0].ID == 2 &&
			assert.ObjectsAreEqual([]int64{1}, req.Exclude)
	})).Return(&providers.RecommendationResult{ListingID: 2, Reason: "ok"}, nil)
	svc := services.NewSelectionService(nil, rec, nil)

	sel := svc.Select(context.Background(), []*entities.Listing{listing(1, 100), listing(2, 200)}, entities.FilterParams{MaxBudget: 300}, []int64{1})
	assert.Equal(t, int64(2), sel.Listing.ID)
	rec.AssertExpectations(t)
}

func TestSelectionService_PickAccumulatesExclusions(t *testing.T) {
	ctx := context.Background()
	repo := new(MockSessionRepository)
	svc := services.NewSelectionService(repo, nil, nil)

	session := &entities.SearchSession{ID: "s1", Params: entities.FilterParams{MaxBudget: 1000}, Excluded: []int64{1}}
	var results []entities.RankedListing
	for i := int64(1); i <= 12; i++ {
		results = append(results, entities.RankedListing{Rank: int(i), Listing: listing(i, i*10)})
	}
	repo.On("GetByID", ctx, "s1").Return(session, nil)
	repo.On("ListResults", ctx, "s1").Return(results, nil)
	repo.On("AddExcluded", ctx, "s1", []int64{3}).Return(nil)

	out, err := svc.Pick(ctx, "s1", []int64{2})
	require.NoError(t, err)

	assert.Equal(t, int64(3), out.Selection.Listing.ID, "stored and requested exclusions both apply")
	assert.Equal(t, []int64{1, 2, 3}, out.NextExclude)
	require.Len(t, out.Others, 8)
	assert.Equal(t, int64(4), out.Others[0].ID)
	for _, o := range out.Others {
		assert.NotContains(t, []int64{1, 2, 3}, o.ID)
	}
	repo.AssertExpectations(t)
}

func TestSelectionService_PickExhausted(t *testing.T) {
	ctx := context.Background()
	repo := new(MockSessionRepository)
	svc := services.NewSelectionService(repo, nil, nil)

	repo.On("GetByID", ctx, "s1").Return(&entities.SearchSession{ID: "s1", Excluded: []int64{1}}, nil)
	repo.On("ListResults", ctx, "s1").Return([]entities.RankedListing{{Rank: 1, Listing: listing(1, 10)}}, nil)

	_, err := svc.Pick(ctx, "s1", nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	repo.AssertNotCalled(t, "AddExcluded", mock.Anything, mock.Anything, mock.Anything)
}

func TestRankByTarget(t *testing.T) {
	a := withYear(listing(1, 480), 2015)
	b := withYear(listing(2, 520), 2019)
	c := withYear(listing(3, 520), 2016)
	d := listing(4, 100)

	ranked := services.RankByTarget([]*entities.Listing{d, a, c, b}, 500)
	ids := make([]int64, 0, len(ranked))
	for _, l := range ranked {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []int64{2, 3, 1, 4}, ids)
}

func TestSortListings(t *testing.T) {
	a := withYear(listing(1, 300), 2018)
	a.Brand, a.Source = "Toyota", "kaidee"
	a.Mileage = entities.Int64Ptr(50000)
	b := withYear(listing(2, 100), 2020)
	b.Brand, b.Source = "honda", "carsome"
	c := listing(3, -1)
	c.Brand, c.Source = "", "roddonjai"
	c.Mileage = entities.Int64Ptr(10000)

	tests := []struct {
		key  entities.SortKey
		want []int64
	}{
		{entities.SortPriceAsc, []int64{2, 1, 3}},
		{entities.SortPriceDesc, []int64{1, 2, 3}},
		{entities.SortYearDesc, []int64{2, 1, 3}},
		{entities.SortMileageAsc, []int64{3, 1, 2}},
		{entities.SortBrandAZ, []int64{2, 1, 3}},
		{entities.SortBrandZA, []int64{1, 2, 3}},
		{entities.SortSource, []int64{2, 1, 3}},
		{entities.SortNone, []int64{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			sorted := services.SortListings([]*entities.Listing{a, b, c}, tt.key)
			ids := make([]int64, 0, len(sorted))
			for _, l := range sorted {
				ids = append(ids, l.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestParseSortKey(t *testing.T) {
	assert.Equal(t, entities.SortPriceDesc, services.ParseSortKey(" PRICE_DESC "))
	assert.Equal(t, entities.SortNone, services.ParseSortKey("cheapest"))
}
