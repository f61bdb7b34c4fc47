package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Bookjiradech/CARCOM/internal/application/services"
	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
)

// maxSearchBody bounds the search request payload
const maxSearchBody = 64 << 10

// SearchRunner defines the search operations used by the handler.
type SearchRunner interface {
	RunSearch(ctx context.Context, userID int64, params entities.FilterParams) (*services.SearchOutcome, error)
	Refresh(ctx context.Context, sessionID string) (*services.SearchOutcome, error)
	GetSession(ctx context.Context, sessionID string, sort entities.SortKey) (*services.SearchOutcome, error)
}

// Picker defines the selection operation used by the handler.
type Picker interface {
	Pick(ctx context.Context, sessionID string, exclude []int64) (*services.PickOutcome, error)
}

// SearchHandler handles search session requests
type SearchHandler struct {
	searches SearchRunner
	picker   Picker
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searches SearchRunner, picker Picker) *SearchHandler {
	return &SearchHandler{
		searches: searches,
		picker:   picker,
	}
}

// CreateSearch handles POST /api/searches
func (h *SearchHandler) CreateSearch(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, UserIDHeader+" header is required")
		return
	}

	var params entities.FilterParams
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSearchBody))
	if err := dec.Decode(&params); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	outcome, err := h.searches.RunSearch(r.Context(), userID, params)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, outcome)
}

// GetSearch handles GET /api/searches/{id}
func (h *SearchHandler) GetSearch(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		respondWithError(w, http.StatusBadRequest, "session ID is required")
		return
	}

	sort := services.ParseSortKey(r.URL.Query().Get("sort"))
	outcome, err := h.searches.GetSession(r.Context(), sessionID, sort)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"session": outcome.Session,
		"results": outcome.Results,
		"count":   len(outcome.Results),
		"sort":    sort,
	})
}

// RefreshSearch handles POST /api/searches/{id}/refresh
func (h *SearchHandler) RefreshSearch(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		respondWithError(w, http.StatusBadRequest, "session ID is required")
		return
	}

	outcome, err := h.searches.Refresh(r.Context(), sessionID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, outcome)
}

// PickCar handles GET /api/searches/{id}/pick?exclude=1,2
func (h *SearchHandler) PickCar(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		respondWithError(w, http.StatusBadRequest, "session ID is required")
		return
	}

	exclude, err := parseIDList(r.URL.Query().Get("exclude"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "exclude must be a comma separated list of listing ids")
		return
	}

	outcome, err := h.picker.Pick(r.Context(), sessionID, exclude)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, outcome)
}
