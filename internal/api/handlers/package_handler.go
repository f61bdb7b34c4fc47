package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Bookjiradech/CARCOM/internal/application/services"
	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
)

// PackageQuoter defines the package operations used by the handler.
type PackageQuoter interface {
	Quote(ctx context.Context, packageID int64) (*services.PackageQuote, error)
	ActivateTrial(ctx context.Context, userID, packageID int64) (*entities.CreditAllotment, error)
}

// PackageHandler handles package pricing and trial activation
type PackageHandler struct {
	packages PackageQuoter
}

// NewPackageHandler creates a new package handler
func NewPackageHandler(packages PackageQuoter) *PackageHandler {
	return &PackageHandler{packages: packages}
}

// GetPrice handles GET /api/packages/{id}/price
func (h *PackageHandler) GetPrice(w http.ResponseWriter, r *http.Request) {
	packageID, ok := packageIDFromPath(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "package ID must be a positive integer")
		return
	}

	quote, err := h.packages.Quote(r.Context(), packageID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, quote)
}

// ActivateTrial handles POST /api/packages/{id}/trial
func (h *PackageHandler) ActivateTrial(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, UserIDHeader+" header is required")
		return
	}
	packageID, ok := packageIDFromPath(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "package ID must be a positive integer")
		return
	}

	allotment, err := h.packages.ActivateTrial(r.Context(), userID, packageID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, allotment)
}

func packageIDFromPath(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
