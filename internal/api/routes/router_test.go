package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Bookjiradech/CARCOM/internal/api/handlers"
	"github.com/Bookjiradech/CARCOM/internal/application/services"
	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
	apperrors "github.com/Bookjiradech/CARCOM/pkg/errors"
)

type stubSearches struct{}

func (stubSearches) RunSearch(context.Context, int64, entities.FilterParams) (*services.SearchOutcome, error) {
	return nil, apperrors.NewInsufficientCreditError("no search credit left")
}

func (stubSearches) Refresh(context.Context, string) (*services.SearchOutcome, error) {
	return nil, apperrors.NewNotFoundError("search session not found")
}

func (stubSearches) GetSession(_ context.Context, id string, _ entities.SortKey) (*services.SearchOutcome, error) {
	return &services.SearchOutcome{Session: &entities.SearchSession{ID: id}}, nil
}

type stubPicker struct{}

func (stubPicker) Pick(context.Context, string, []int64) (*services.PickOutcome, error) {
	return nil, apperrors.NewNotFoundError("no more cars to pick in this search")
}

type stubPackages struct{}

func (stubPackages) Quote(_ context.Context, id int64) (*services.PackageQuote, error) {
	return &services.PackageQuote{Package: &entities.Package{ID: id}, BasePrice: 99, EffectivePrice: 99}, nil
}

func (stubPackages) ActivateTrial(context.Context, int64, int64) (*entities.CreditAllotment, error) {
	return nil, apperrors.NewConflictError("trial already used")
}

func newTestHandler() http.Handler {
	router := NewRouter(
		handlers.NewSearchHandler(stubSearches{}, stubPicker{}),
		handlers.NewPackageHandler(stubPackages{}),
		handlers.NewHealthHandler(nil),
		nil,
		[]string{"*"},
		nil,
	)
	return router.SetupRoutes()
}

func TestRouter_Routes(t *testing.T) {
	handler := newTestHandler()

	tests := []struct {
		method     string
		path       string
		body       string
		user       string
		wantStatus int
	}{
		{http.MethodGet, "/health", "", "", http.StatusOK},
		{http.MethodPost, "/api/searches", `{"max_budget":500000}`, "4", http.StatusPaymentRequired},
		{http.MethodPost, "/api/searches", `{"max_budget":500000}`, "", http.StatusUnauthorized},
		{http.MethodGet, "/api/searches/abc", "", "", http.StatusOK},
		{http.MethodPost, "/api/searches/abc/refresh", "", "", http.StatusNotFound},
		{http.MethodGet, "/api/searches/abc/pick?exclude=1", "", "", http.StatusNotFound},
		{http.MethodGet, "/api/packages/3/price", "", "", http.StatusOK},
		{http.MethodPost, "/api/packages/3/trial", "", "4", http.StatusConflict},
		{http.MethodDelete, "/api/searches/abc", "", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/facilities", "", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.user != "" {
				req.Header.Set(handlers.UserIDHeader, tt.user)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRouter_PreflightIsAnsweredByCORS(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/searches", nil)
	req.Header.Set("Origin", "https://carcom.example")
	w := httptest.NewRecorder()

	newTestHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
