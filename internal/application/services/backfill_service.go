package services

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
	"github.com/Bookjiradech/CARCOM/internal/domain/repositories"
	"github.com/Bookjiradech/CARCOM/pkg/normalizer"
)

// BackfillBatchSize is the page size used to walk a source's listings
const BackfillBatchSize = 100

// BackfillSummary counts the listings a backfill looked at
type BackfillSummary struct {
	TotalProcessed int `json:"total_processed"`
	UpdatedCount   int `json:"updated_count"`
	FailureCount   int `json:"failure_count"`
}

// BackfillService re-normalizes the attribute bags of stored listings
type BackfillService struct {
	listingRepo repositories.ListingRepository
	translator  *TranslationService
	workerCount int
}

// NewBackfillService creates a backfill service. translator may be nil.
func NewBackfillService(listingRepo repositories.ListingRepository, translator *TranslationService, workers int) *BackfillService {
	if workers <= 0 {
		workers = 1
	}
	return &BackfillService{
		listingRepo: listingRepo,
		translator:  translator,
		workerCount: workers,
	}
}

// BackfillSources walks every listing of the given sources and rewrites
// the ones whose attribute bag changes.
func (s *BackfillService) BackfillSources(ctx context.Context, srcs []string) (*BackfillSummary, error) {
	var processed, updated, failure int64

	listings := make(chan *entities.Listing, BackfillBatchSize)
	var wg sync.WaitGroup
	for i := 0; i < s.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for l := range listings {
				changed, err := s.BackfillListing(ctx, l)
				atomic.AddInt64(&processed, 1)
				switch {
				case err != nil:
					atomic.AddInt64(&failure, 1)
					log.Warn().Err(err).Int64("listing_id", l.ID).Msg("Failed to backfill listing")
				case changed:
					atomic.AddInt64(&updated, 1)
				}
			}
		}()
	}

	produce := func() error {
		for _, src := range srcs {
			var afterID int64
			for {
				page, err := s.listingRepo.ListBySource(ctx, src, afterID, BackfillBatchSize)
				if err != nil {
					return fmt.Errorf("failed to list %s listings: %w", src, err)
				}
				for _, l := range page {
					select {
					case listings <- l:
					case <-ctx.Done():
						return ctx.Err()
					}
				}
				if len(page) < BackfillBatchSize {
					break
				}
				afterID = page[len(page)-1].ID
			}
		}
		return nil
	}

	err := produce()
	close(listings)
	wg.Wait()
	if err != nil {
		return nil, err
	}

	summary := &BackfillSummary{
		TotalProcessed: int(processed),
		UpdatedCount:   int(updated),
		FailureCount:   int(failure),
	}
	log.Info().
		Strs("sources", srcs).
		Int("processed", summary.TotalProcessed).
		Int("updated", summary.UpdatedCount).
		Int("failed", summary.FailureCount).
		Msg("Backfill finished")
	return summary, nil
}

// BackfillListing normalizes one listing and stores it when the bag changed
func (s *BackfillService) BackfillListing(ctx context.Context, l *entities.Listing) (bool, error) {
	attrs := entities.Attributes(normalizer.NormalizeAttributes(l.Attributes))
	if s.translator != nil {
		attrs = s.translator.Enrich(ctx, attrs)
	}
	if reflect.DeepEqual(map[string]any(attrs), map[string]any(l.Attributes)) {
		return false, nil
	}
	if err := s.listingRepo.UpdateAttributes(ctx, l.ID, attrs); err != nil {
		return false, err
	}
	l.Attributes = attrs
	return true, nil
}
