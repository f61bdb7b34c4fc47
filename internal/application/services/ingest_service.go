package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Bookjiradech/CARCOM/internal/adapters/sources"
	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
	"github.com/Bookjiradech/CARCOM/internal/domain/providers"
	"github.com/Bookjiradech/CARCOM/internal/domain/repositories"
	"github.com/Bookjiradech/CARCOM/internal/infrastructure/observability"
	apperrors "github.com/Bookjiradech/CARCOM/pkg/errors"
	"github.com/Bookjiradech/CARCOM/pkg/normalizer"
)

// Source run statuses recorded on the scrape.source.runs metric
const (
	runStatusOK      = "ok"
	runStatusFailed  = "failed"
	runStatusTimeout = "timeout"
)

// ErrNoListings is reported by a run that stored nothing
var ErrNoListings = errors.New("no listings stored")

// ExtractorRegistry resolves a source name to its extractor
type ExtractorRegistry interface {
	Get(name string) (sources.Extractor, bool)
}

// IngestService runs one source: it fetches the search page, follows the
// listing links, extracts, normalizes and upserts each listing.
type IngestService struct {
	registry    ExtractorRegistry
	fetcher     providers.PageFetcher
	listingRepo repositories.ListingRepository
	translator  *TranslationService
	metrics     *observability.Metrics
}

// NewIngestService creates an ingest service. translator may be nil.
func NewIngestService(
	registry ExtractorRegistry,
	fetcher providers.PageFetcher,
	listingRepo repositories.ListingRepository,
	translator *TranslationService,
	metrics *observability.Metrics,
) *IngestService {
	return &IngestService{
		registry:    registry,
		fetcher:     fetcher,
		listingRepo: listingRepo,
		translator:  translator,
		metrics:     metrics,
	}
}

// RunSource extracts up to req.Limit listings from one source. A listing
// that cannot be fetched, parsed or stored is logged and skipped. The
// returned error is the run's failure, also kept on the report.
func (s *IngestService) RunSource(ctx context.Context, source string, req entities.SourceRunRequest) (*entities.SourceRunReport, error) {
	start := time.Now()
	report := &entities.SourceRunReport{Source: source}

	finish := func(err error) (*entities.SourceRunReport, error) {
		report.Duration = time.Since(start)
		report.Err = err
		status := runStatusOK
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			status = runStatusTimeout
		case err != nil:
			status = runStatusFailed
		}
		observability.RecordSourceRun(ctx, s.metrics, source, status, report.Duration)

		event := log.Info()
		if err != nil {
			event = log.Warn().Err(err)
		}
		event.
			Str("source", source).
			Int("links", report.Links).
			Int("created", report.Created).
			Int("updated", report.Updated).
			Int("skipped", report.Skipped).
			Int("failed", report.Failed).
			Dur("elapsed", report.Duration).
			Msg("Source run finished")
		return report, err
	}

	extractor, ok := s.registry.Get(source)
	if !ok {
		return finish(apperrors.NewValidationError(fmt.Sprintf("unknown source %q", source)))
	}

	q := sources.SearchQuery{Query: req.Query, MinPrice: req.MinPrice, MaxPrice: req.MaxPrice}
	searchURL := extractor.SearchURL(q)
	html, err := s.fetcher.Fetch(ctx, searchURL)
	if err != nil {
		return finish(fmt.Errorf("fetch search page: %w", err))
	}

	links, err := extractor.ListingLinks(searchURL, html, q, req.Limit)
	if err != nil {
		return finish(fmt.Errorf("read listing links: %w", err))
	}
	report.Links = len(links)
	if len(links) == 0 {
		return finish(ErrNoListings)
	}

	for _, link := range links {
		if ctx.Err() != nil {
			return finish(ctx.Err())
		}
		s.ingestOne(ctx, extractor, link, req, report)
	}

	if report.Stored() == 0 {
		return finish(ErrNoListings)
	}
	return finish(nil)
}

func (s *IngestService) ingestOne(ctx context.Context, extractor sources.Extractor, link string, req entities.SourceRunRequest, report *entities.SourceRunReport) {
	logger := log.With().Str("source", extractor.Name()).Str("url", link).Logger()

	html, err := s.fetcher.Fetch(ctx, link)
	if err != nil {
		report.Failed++
		logger.Warn().Err(err).Msg("Failed to fetch listing")
		return
	}

	partial, err := extractor.Extract(link, html)
	if err != nil {
		report.Failed++
		logger.Warn().Err(err).Msg("Failed to extract listing")
		return
	}

	if !inPriceRange(partial.Price, req.MinPrice, req.MaxPrice) {
		report.Skipped++
		logger.Debug().Msg("Listing outside price range")
		return
	}

	prepareListing(partial)
	if s.translator != nil {
		s.translator.EnrichPartial(ctx, partial)
	}

	_, outcome, err := s.listingRepo.Upsert(ctx, partial)
	if err != nil {
		report.Failed++
		logger.Error().Err(err).Msg("Failed to store listing")
		return
	}
	switch outcome {
	case repositories.UpsertCreated:
		report.Created++
	default:
		report.Updated++
	}
	observability.RecordListingUpsert(ctx, s.metrics, extractor.Name(), string(outcome))
}

// prepareListing normalizes the attribute bag and derives the province
// column from it when the extractor found none.
func prepareListing(p *entities.PartialListing) {
	p.Attributes = entities.Attributes(normalizer.NormalizeAttributes(p.Attributes))
	if en, _ := normalizer.NormalizeProvince(p.Province); en != "" {
		p.Province = en
	} else if p.Province == "" {
		p.Province = p.Attributes.String(normalizer.KeyProvince)
	}
}

// inPriceRange keeps listings with an unknown price
func inPriceRange(price *int64, minPrice, maxPrice int64) bool {
	if price == nil {
		return true
	}
	if minPrice > 0 && *price < minPrice {
		return false
	}
	if maxPrice > 0 && *price > maxPrice {
		return false
	}
	return true
}
