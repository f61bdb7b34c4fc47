package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
	"github.com/Bookjiradech/CARCOM/internal/domain/repositories"
	apperrors "github.com/Bookjiradech/CARCOM/pkg/errors"
)

// overFetchFactor is how many more candidates are read from the store than
// will be shown, leaving room for the attribute filters.
const overFetchFactor = 3

// SourceRunner runs one source extraction
type SourceRunner interface {
	RunSource(ctx context.Context, source string, req entities.SourceRunRequest) (*entities.SourceRunReport, error)
}

// SearchOptions are the deployment-level knobs of a search
type SearchOptions struct {
	// Sources is used when a request names none. A request may only name
	// sources from this set.
	Sources []string
	// PerSourceCap bounds each source's share; 0 means no cap
	PerSourceCap   int
	SourceTimeout  time.Duration
	MaxConcurrency int
}

// SearchOutcome is the result of a search or refresh
type SearchOutcome struct {
	Session *entities.SearchSession     `json:"session"`
	Results []entities.RankedListing    `json:"results"`
	Reports []*entities.SourceRunReport `json:"reports,omitempty"`
}

// SearchService orchestrates purge, per-source extraction, filtering and
// session persistence.
type SearchService struct {
	runner      SourceRunner
	listingRepo repositories.ListingRepository
	sessionRepo repositories.SessionRepository
	creditRepo  repositories.CreditRepository
	filter      *FilterService
	opts        SearchOptions
	now         func() time.Time
}

// NewSearchService creates a new search service
func NewSearchService(
	runner SourceRunner,
	listingRepo repositories.ListingRepository,
	sessionRepo repositories.SessionRepository,
	creditRepo repositories.CreditRepository,
	filter *FilterService,
	opts SearchOptions,
) *SearchService {
	if filter == nil {
		filter = NewFilterService()
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 1
	}
	return &SearchService{
		runner:      runner,
		listingRepo: listingRepo,
		sessionRepo: sessionRepo,
		creditRepo:  creditRepo,
		filter:      filter,
		opts:        opts,
		now:         time.Now,
	}
}

// RunSearch runs a fresh search for userID. Every requested source is
// purged and re-extracted; at least one source must succeed. One credit is
// consumed once a non-empty result set has been stored.
func (s *SearchService) RunSearch(ctx context.Context, userID int64, params entities.FilterParams) (*SearchOutcome, error) {
	if err := params.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if s.creditRepo != nil {
		ok, err := s.creditRepo.HasCredit(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperrors.NewInsufficientCreditError("no search credit left")
		}
	}

	srcs, err := s.sourcesFor(params)
	if err != nil {
		return nil, err
	}
	params.Sources = srcs

	if _, err := s.listingRepo.PurgeBySources(ctx, srcs); err != nil {
		return nil, err
	}

	target := PerSourceTarget(params.TotalLimit, len(srcs), s.capFor(params))
	reports := s.runSources(ctx, srcs, entities.SourceRunRequest{
		Query:    params.Query,
		MaxPrice: params.MaxBudget,
		Limit:    target,
	})

	var errs []error
	succeeded := make([]string, 0, len(reports))
	for i, r := range reports {
		if r.OK() {
			succeeded = append(succeeded, srcs[i])
			continue
		}
		errs = append(errs, r.Err)
	}
	if len(succeeded) == 0 {
		return nil, apperrors.NewUnavailableError("all sources failed", errors.Join(errs...))
	}
	// Rows a failed source stored before failing stay out of this session
	// and out of its refreshes.
	params.Sources = succeeded

	listings, err := s.materialize(ctx, params)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	session := &entities.SearchSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Params:    params,
		Status:    entities.SessionStatusDone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessionRepo.Create(ctx, session, listingIDs(listings)); err != nil {
		return nil, err
	}

	if s.creditRepo != nil {
		consumed, err := s.creditRepo.ConsumeOne(ctx, userID)
		if err != nil {
			log.Error().Err(err).Int64("user_id", userID).Str("session_id", session.ID).Msg("Failed to consume credit")
		} else if !consumed {
			log.Warn().Int64("user_id", userID).Str("session_id", session.ID).Msg("Credit ran out during search")
		}
	}

	log.Info().
		Str("session_id", session.ID).
		Int64("user_id", userID).
		Strs("sources", srcs).
		Strs("succeeded", succeeded).
		Int("results", len(listings)).
		Msg("Search completed")

	return &SearchOutcome{
		Session: session,
		Results: rankListings(listings),
		Reports: reports,
	}, nil
}

// Refresh re-reads the store for an existing session without extracting
// again, and replaces its results.
func (s *SearchService) Refresh(ctx context.Context, sessionID string) (*SearchOutcome, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	listings, err := s.materialize(ctx, session.Params)
	if err != nil {
		return nil, err
	}
	if err := s.sessionRepo.ReplaceResults(ctx, sessionID, listingIDs(listings), entities.SessionStatusRefreshed); err != nil {
		return nil, err
	}
	session.Status = entities.SessionStatusRefreshed
	session.UpdatedAt = s.now().UTC()

	return &SearchOutcome{
		Session: session,
		Results: rankListings(listings),
	}, nil
}

// GetSession returns a session with its results, reordered by sort when set.
// Ranks always reflect the stored order.
func (s *SearchService) GetSession(ctx context.Context, sessionID string, sort entities.SortKey) (*SearchOutcome, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	results, err := s.sessionRepo.ListResults(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if sort != entities.SortNone {
		rankOf := make(map[int64]int, len(results))
		listings := make([]*entities.Listing, 0, len(results))
		for _, r := range results {
			rankOf[r.Listing.ID] = r.Rank
			listings = append(listings, r.Listing)
		}
		sorted := SortListings(listings, sort)
		results = make([]entities.RankedListing, 0, len(sorted))
		for _, l := range sorted {
			results = append(results, entities.RankedListing{Rank: rankOf[l.ID], Listing: l})
		}
	}

	return &SearchOutcome{Session: session, Results: results}, nil
}

// materialize queries the store, applies the attribute filters and
// truncates to the display count.
func (s *SearchService) materialize(ctx context.Context, params entities.FilterParams) ([]*entities.Listing, error) {
	display := params.TotalLimit
	if display <= 0 {
		display = entities.DefaultTotalLimit
	}

	candidates, err := s.listingRepo.Query(ctx, repositories.ListingQuery{
		Sources:  params.Sources,
		MaxPrice: params.MaxBudget,
		Text:     params.Query,
		Limit:    display * overFetchFactor,
	})
	if err != nil {
		return nil, err
	}

	filtered := s.filter.Apply(candidates, params)
	if len(filtered) == 0 {
		return nil, apperrors.NewNotFoundError("no results for these filters")
	}
	if len(filtered) > display {
		filtered = filtered[:display]
	}
	return filtered, nil
}

// runSources runs every source concurrently, each under its own timeout.
// Reports come back in the order of srcs.
func (s *SearchService) runSources(ctx context.Context, srcs []string, req entities.SourceRunRequest) []*entities.SourceRunReport {
	reports := make([]*entities.SourceRunReport, len(srcs))
	sem := make(chan struct{}, s.opts.MaxConcurrency)
	var wg sync.WaitGroup

	for i, src := range srcs {
		wg.Add(1)
		go func(i int, src string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			runCtx := ctx
			if s.opts.SourceTimeout > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(ctx, s.opts.SourceTimeout)
				defer cancel()
			}

			report, err := s.runner.RunSource(runCtx, src, req)
			if report == nil {
				report = &entities.SourceRunReport{Source: src}
			}
			if err != nil && report.Err == nil {
				report.Err = err
			}
			reports[i] = report
		}(i, src)
	}
	wg.Wait()
	return reports
}

func (s *SearchService) sourcesFor(params entities.FilterParams) ([]string, error) {
	allowed := make(map[string]bool, len(s.opts.Sources))
	for _, src := range s.opts.Sources {
		allowed[strings.ToLower(strings.TrimSpace(src))] = true
	}

	requested := params.Sources
	if len(requested) == 0 {
		requested = s.opts.Sources
	}
	seen := make(map[string]bool, len(requested))
	out := make([]string, 0, len(requested))
	for _, src := range requested {
		src = strings.ToLower(strings.TrimSpace(src))
		if src == "" || seen[src] {
			continue
		}
		if len(allowed) > 0 && !allowed[src] {
			return nil, apperrors.NewValidationError(fmt.Sprintf("source %q is not enabled", src))
		}
		seen[src] = true
		out = append(out, src)
	}
	if len(out) == 0 {
		return nil, apperrors.NewValidationError("no sources to search")
	}
	return out, nil
}

func (s *SearchService) capFor(params entities.FilterParams) int {
	if params.PerSourceLimit > 0 && (s.opts.PerSourceCap <= 0 || params.PerSourceLimit < s.opts.PerSourceCap) {
		return params.PerSourceLimit
	}
	return s.opts.PerSourceCap
}

// PerSourceTarget splits total evenly across n sources, rounding up, and
// bounds each share by limit when limit is positive.
func PerSourceTarget(total, n, limit int) int {
	if n <= 0 {
		return 0
	}
	target := (total + n - 1) / n
	if limit > 0 && target > limit {
		target = limit
	}
	return target
}

func listingIDs(listings []*entities.Listing) []int64 {
	ids := make([]int64, 0, len(listings))
	for _, l := range listings {
		ids = append(ids, l.ID)
	}
	return ids
}

func rankListings(listings []*entities.Listing) []entities.RankedListing {
	out := make([]entities.RankedListing, 0, len(listings))
	for i, l := range listings {
		out = append(out, entities.RankedListing{Rank: i + 1, Listing: l})
	}
	return out
}
