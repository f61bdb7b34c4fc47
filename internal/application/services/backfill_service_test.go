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
	"github.com/Bookjiradech/CARCOM/pkg/normalizer"
)

func TestBackfillService_BackfillSources(t *testing.T) {
	ctx := context.Background()
	repo := new(MockListingRepository)
	svc := services.NewBackfillService(repo, nil, 2)

	raw := listing(1, 100)
	raw.Attributes["สี"] = "ดำ"

	done := listing(2, 100)
	done.Attributes = entities.Attributes(normalizer.NormalizeAttributes(entities.Attributes{"สี": "ขาว"}))

	broken := listing(3, 100)
	broken.Attributes["เกียร์"] = "ธรรมดา"

	repo.On("ListBySource", ctx, "kaidee", int64(0), services.BackfillBatchSize).
		Return([]*entities.Listing{raw, done, broken}, nil)
	repo.On("UpdateAttributes", ctx, int64(1), mock.MatchedBy(func(a entities.Attributes) bool {
		return a.String("สี") == "Black" && a.String("color_th") == "ดำ"
	})).Return(nil)
	repo.On("UpdateAttributes", ctx, int64(3), mock.Anything).Return(errors.New("locked"))

	summary, err := svc.BackfillSources(ctx, []string{"kaidee"})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalProcessed)
	assert.Equal(t, 1, summary.UpdatedCount)
	assert.Equal(t, 1, summary.FailureCount)
	repo.AssertNotCalled(t, "UpdateAttributes", mock.Anything, int64(2), mock.Anything)
}

func TestBackfillService_ListFailure(t *testing.T) {
	ctx := context.Background()
	repo := new(MockListingRepository)
	svc := services.NewBackfillService(repo, nil, 1)
	repo.On("ListBySource", ctx, "carsome", int64(0), services.BackfillBatchSize).Return(nil, errors.New("down"))

	_, err := svc.BackfillSources(ctx, []string{"carsome"})
	assert.Error(t, err)
}
