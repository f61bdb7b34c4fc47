package services

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
	"github.com/Bookjiradech/CARCOM/internal/domain/providers"
	"github.com/Bookjiradech/CARCOM/internal/domain/repositories"
	"github.com/Bookjiradech/CARCOM/internal/infrastructure/observability"
	apperrors "github.com/Bookjiradech/CARCOM/pkg/errors"
)

const (
	// maxRecommendationCandidates bounds the list sent to the reasoning service
	maxRecommendationCandidates = 40
	// maxOtherPicks is the number of alternatives returned with a pick
	maxOtherPicks = 8
)

// Fallback reasons recorded on the selection.fallback.count metric
const (
	fallbackDisabled   = "disabled"
	fallbackError      = "error"
	fallbackUnknownID  = "unknown_id"
	fallbackOverBudget = "over_budget"
)

var thousands = message.NewPrinter(language.English)

// PickOutcome is one "pick a car for me" answer for a session
type PickOutcome struct {
	SessionID   string              `json:"session_id"`
	Selection   entities.Selection  `json:"selection"`
	Others      []*entities.Listing `json:"others"`
	NextExclude []int64             `json:"next_exclude"`
}

// SelectionService chooses one listing out of a candidate set
type SelectionService struct {
	sessionRepo repositories.SessionRepository
	recommender providers.RecommendationProvider
	metrics     *observability.Metrics
}

// NewSelectionService creates a new selection service. recommender may be
// nil, in which case every selection uses the deterministic rule.
func NewSelectionService(
	sessionRepo repositories.SessionRepository,
	recommender providers.RecommendationProvider,
	metrics *observability.Metrics,
) *SelectionService {
	return &SelectionService{
		sessionRepo: sessionRepo,
		recommender: recommender,
		metrics:     metrics,
	}
}

// Fallback picks the cheapest candidate within budget that is not excluded.
// When nothing fits the budget the cheapest remaining candidate is used.
// Unknown prices sort after every known price.
func (s *SelectionService) Fallback(candidates []*entities.Listing, budget int64, exclude []int64) entities.Selection {
	excluded := idSet(exclude)

	var inBudget, all []*entities.Listing
	for _, c := range candidates {
		if c == nil || excluded[c.ID] {
			continue
		}
		all = append(all, c)
		if price, ok := c.PriceValue(); ok && budget > 0 && price > budget {
			continue
		}
		inBudget = append(inBudget, c)
	}

	pool := inBudget
	if len(pool) == 0 {
		pool = all
	}
	best := cheapest(pool)
	if best == nil {
		return entities.Selection{Method: entities.SelectionMethodFallback}
	}
	return entities.Selection{
		Listing: best,
		Reason:  "Picked the best-priced car within budget: " + formatTHB(best),
		Method:  entities.SelectionMethodFallback,
	}
}

// Select asks the reasoning service for a pick and corrects or replaces it
// with the deterministic rule when the answer cannot be used.
func (s *SelectionService) Select(ctx context.Context, candidates []*entities.Listing, params entities.FilterParams, exclude []int64) entities.Selection {
	excluded := idSet(exclude)
	var pool []*entities.Listing
	for _, c := range candidates {
		if c != nil && !excluded[c.ID] {
			pool = append(pool, c)
		}
	}
	if len(pool) == 0 {
		return entities.Selection{Method: entities.SelectionMethodFallback}
	}

	fallback := func(reason string) entities.Selection {
		observability.RecordSelectionFallback(ctx, s.metrics, reason)
		return s.Fallback(pool, params.MaxBudget, nil)
	}

	if s.recommender == nil {
		return fallback(fallbackDisabled)
	}

	sent := pool
	if len(sent) > maxRecommendationCandidates {
		sent = SortListings(pool, entities.SortPriceAsc)[:maxRecommendationCandidates]
	}

	result, err := s.recommender.Recommend(ctx, providers.RecommendationRequest{
		Params:     params,
		Candidates: sent,
		Exclude:    exclude,
	})
	if err != nil {
		log.Warn().Err(err).Msg("recommendation failed, using cheapest in-budget pick")
		return fallback(fallbackError)
	}

	var chosen *entities.Listing
	for _, c := range pool {
		if c.ID == result.ListingID {
			chosen = c
			break
		}
	}
	if chosen == nil {
		log.Warn().Int64("listing_id", result.ListingID).Msg("recommendation named an unknown listing")
		return fallback(fallbackUnknownID)
	}

	if !MatchBudget(chosen, params.MaxBudget) && hasInBudget(pool, params.MaxBudget) {
		sel := fallback(fallbackOverBudget)
		sel.Method = entities.SelectionMethodCorrected
		if result.Reason != "" {
			sel.Reason = result.Reason
		}
		return sel
	}

	reason := result.Reason
	if price, ok := chosen.PriceValue(); ok && reason != "" {
		reason = strings.ReplaceAll(reason, strconv.FormatInt(price, 10), thousands.Sprintf("%d", price))
	}
	if reason == "" {
		reason = "Selected based on value within budget."
	}
	return entities.Selection{
		Listing: chosen,
		Reason:  reason,
		Method:  entities.SelectionMethodAI,
	}
}

// Pick selects one listing from a session's results. The request exclusions
// are merged with the ones already stored on the session, and the pick is
// appended to the stored set so later calls never repeat it.
func (s *SelectionService) Pick(ctx context.Context, sessionID string, exclude []int64) (*PickOutcome, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	results, err := s.sessionRepo.ListResults(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	merged := mergeIDs(session.Excluded, exclude)
	candidates := make([]*entities.Listing, 0, len(results))
	for _, r := range results {
		candidates = append(candidates, r.Listing)
	}

	sel := s.Select(ctx, candidates, session.Params, merged)
	if !sel.Found() {
		return nil, apperrors.NewNotFoundError("no more cars to pick in this search")
	}

	if err := s.sessionRepo.AddExcluded(ctx, sessionID, []int64{sel.Listing.ID}); err != nil {
		return nil, err
	}

	next := mergeIDs(merged, []int64{sel.Listing.ID})
	excluded := idSet(next)
	var others []*entities.Listing
	for _, c := range SortListings(candidates, entities.SortPriceAsc) {
		if excluded[c.ID] {
			continue
		}
		others = append(others, c)
		if len(others) == maxOtherPicks {
			break
		}
	}

	log.Info().
		Str("session_id", sessionID).
		Int64("listing_id", sel.Listing.ID).
		Str("method", string(sel.Method)).
		Msg("picked listing")

	return &PickOutcome{
		SessionID:   sessionID,
		Selection:   sel,
		Others:      others,
		NextExclude: next,
	}, nil
}

// RankByTarget orders listings by distance of their price from target, then
// newer year, then lower mileage. With no target the cheapest come first.
func RankByTarget(listings []*entities.Listing, target int64) []*entities.Listing {
	out := append([]*entities.Listing(nil), listings...)
	key := func(l *entities.Listing) (float64, int, int64) {
		price := math.MaxFloat64 / 4
		if p, ok := l.PriceValue(); ok {
			price = float64(p)
		}
		diff := price
		if target > 0 {
			diff = math.Abs(price - float64(target))
		}
		year := 0
		if l.Year != nil {
			year = *l.Year
		}
		mileage := int64(math.MaxInt64)
		if l.Mileage != nil {
			mileage = *l.Mileage
		}
		return diff, year, mileage
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, yi, mi := key(out[i])
		dj, yj, mj := key(out[j])
		if di != dj {
			return di < dj
		}
		if yi != yj {
			return yi > yj
		}
		return mi < mj
	})
	return out
}

// SortListings returns a sorted copy. Listings missing the sort field go
// last in either direction.
func SortListings(listings []*entities.Listing, key entities.SortKey) []*entities.Listing {
	out := append([]*entities.Listing(nil), listings...)
	switch key {
	case entities.SortPriceAsc, entities.SortPriceDesc:
		sortByInt(out, key == entities.SortPriceDesc, func(l *entities.Listing) (int64, bool) { return l.PriceValue() })
	case entities.SortYearAsc, entities.SortYearDesc:
		sortByInt(out, key == entities.SortYearDesc, func(l *entities.Listing) (int64, bool) {
			y, ok := ListingYear(l)
			return int64(y), ok
		})
	case entities.SortMileageAsc, entities.SortMileageDesc:
		sortByInt(out, key == entities.SortMileageDesc, func(l *entities.Listing) (int64, bool) {
			if l.Mileage == nil {
				return 0, false
			}
			return *l.Mileage, true
		})
	case entities.SortBrandAZ, entities.SortBrandZA:
		desc := key == entities.SortBrandZA
		sort.SliceStable(out, func(i, j int) bool {
			bi, bj := strings.ToLower(out[i].Brand), strings.ToLower(out[j].Brand)
			if (bi == "") != (bj == "") {
				return bj == ""
			}
			if desc {
				return bi > bj
			}
			return bi < bj
		})
	case entities.SortSource:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Source < out[j].Source
		})
	}
	return out
}

// ParseSortKey maps a query value to a sort key, ignoring unknown values
func ParseSortKey(s string) entities.SortKey {
	switch k := entities.SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case entities.SortPriceAsc, entities.SortPriceDesc,
		entities.SortYearAsc, entities.SortYearDesc,
		entities.SortMileageAsc, entities.SortMileageDesc,
		entities.SortBrandAZ, entities.SortBrandZA, entities.SortSource:
		return k
	}
	return entities.SortNone
}

func sortByInt(out []*entities.Listing, desc bool, value func(*entities.Listing) (int64, bool)) {
	sort.SliceStable(out, func(i, j int) bool {
		vi, oki := value(out[i])
		vj, okj := value(out[j])
		if oki != okj {
			return oki
		}
		if !oki {
			return false
		}
		if desc {
			return vi > vj
		}
		return vi < vj
	})
}

func cheapest(pool []*entities.Listing) *entities.Listing {
	var best *entities.Listing
	for _, c := range pool {
		if best == nil {
			best = c
			continue
		}
		p, ok := c.PriceValue()
		bp, bok := best.PriceValue()
		if ok && (!bok || p < bp) {
			best = c
		}
	}
	return best
}

func hasInBudget(pool []*entities.Listing, budget int64) bool {
	for _, c := range pool {
		if price, ok := c.PriceValue(); ok && (budget <= 0 || price <= budget) {
			return true
		}
	}
	return false
}

func formatTHB(l *entities.Listing) string {
	price, ok := l.PriceValue()
	if !ok {
		return "N/A"
	}
	return thousands.Sprintf("%d THB", price)
}

func idSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// mergeIDs returns a followed by the ids of b it does not already hold
func mergeIDs(a, b []int64) []int64 {
	out := make([]int64, 0, len(a)+len(b))
	seen := make(map[int64]bool, len(a)+len(b))
	for _, list := range [][]int64{a, b} {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}
