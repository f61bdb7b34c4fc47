package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Bookjiradech/CARCOM/internal/api/handlers"
	"github.com/Bookjiradech/CARCOM/internal/application/services"
	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
	apperrors "github.com/Bookjiradech/CARCOM/pkg/errors"
)

type MockPackageQuoter struct {
	mock.Mock
}

func (m *MockPackageQuoter) Quote(ctx context.Context, packageID int64) (*services.PackageQuote, error) {
	args := m.Called(ctx, packageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PackageQuote), args.Error(1)
}

func (m *MockPackageQuoter) ActivateTrial(ctx context.Context, userID, packageID int64) (*entities.CreditAllotment, error) {
	args := m.Called(ctx, userID, packageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CreditAllotment), args.Error(1)
}

func TestPackageHandler_GetPrice(t *testing.T) {
	quoter := new(MockPackageQuoter)
	quoter.On("Quote", mock.Anything, int64(2)).Return(&services.PackageQuote{
		Package:         &entities.Package{ID: 2, Code: "PRO10", Credits: 10, BasePrice: 199},
		BasePrice:       199,
		EffectivePrice:  149.25,
		PromotionActive: true,
	}, nil)
	handler := handlers.NewPackageHandler(quoter)

	req := httptest.NewRequest(http.MethodGet, "/api/packages/2/price", nil)
	req.SetPathValue("id", "2")
	w := httptest.NewRecorder()

	handler.GetPrice(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response services.PackageQuote
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 149.25, response.EffectivePrice)
	assert.True(t, response.PromotionActive)
	assert.False(t, response.IsTrial)
}

func TestPackageHandler_GetPriceInvalidID(t *testing.T) {
	quoter := new(MockPackageQuoter)
	handler := handlers.NewPackageHandler(quoter)

	for _, id := range []string{"abc", "0", "-1"} {
		req := httptest.NewRequest(http.MethodGet, "/api/packages/"+id+"/price", nil)
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()

		handler.GetPrice(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "id %q", id)
	}
	quoter.AssertNotCalled(t, "Quote", mock.Anything, mock.Anything)
}

func TestPackageHandler_ActivateTrial(t *testing.T) {
	tests := []struct {
		name       string
		user       string
		err        error
		wantStatus int
	}{
		{"granted", "7", nil, http.StatusCreated},
		{"missing user", "", nil, http.StatusUnauthorized},
		{"not a trial", "7", apperrors.NewValidationError("package is not a free trial"), http.StatusBadRequest},
		{"already used", "7", apperrors.NewConflictError("trial already used"), http.StatusConflict},
		{"store failure", "7", errors.New("db gone"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quoter := new(MockPackageQuoter)
			if tt.err != nil {
				quoter.On("ActivateTrial", mock.Anything, int64(7), int64(1)).Return(nil, tt.err)
			} else {
				quoter.On("ActivateTrial", mock.Anything, int64(7), int64(1)).
					Return(&entities.CreditAllotment{ID: 5, UserID: 7, PackageID: 1, Remaining: 3}, nil)
			}
			handler := handlers.NewPackageHandler(quoter)

			req := httptest.NewRequest(http.MethodPost, "/api/packages/1/trial", nil)
			req.SetPathValue("id", "1")
			if tt.user != "" {
				req.Header.Set(handlers.UserIDHeader, tt.user)
			}
			w := httptest.NewRecorder()

			handler.ActivateTrial(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
