package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Bookjiradech/CARCOM/internal/adapters/database"
	"github.com/Bookjiradech/CARCOM/internal/adapters/sources"
	"github.com/Bookjiradech/CARCOM/internal/application/services"
	"github.com/Bookjiradech/CARCOM/internal/bootstrap"
	"github.com/Bookjiradech/CARCOM/internal/infrastructure/observability"
	"github.com/Bookjiradech/CARCOM/pkg/config"
)

func main() {
	var (
		workers   int
		source    string
		listingID int64
		translate bool
	)
	flag.IntVar(&workers, "workers", 3, "Number of concurrent workers")
	flag.StringVar(&source, "source", "", "Comma separated sources to backfill (default: all registered)")
	flag.Int64Var(&listingID, "listing", 0, "Single listing ID to backfill")
	flag.BoolVar(&translate, "translate", false, "Also fill English attribute values")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger("carcom-backfill", cfg.Env)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := bootstrap.OpenDatabase(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	listingRepo := database.NewListingAdapter(db, nil)

	var translator *services.TranslationService
	if translate {
		store, closeCache := bootstrap.OpenCache(&cfg.Redis)
		defer closeCache()
		translation := cfg.Translation
		translation.Enabled = true
		translator = bootstrap.NewTranslator(&translation, bootstrap.NewOpenAIClient(&cfg.OpenAI), store, nil)
	}

	svc := services.NewBackfillService(listingRepo, translator, workers)
	start := time.Now()

	if listingID != 0 {
		listing, err := listingRepo.GetByID(ctx, listingID)
		if err != nil {
			log.Fatal().Err(err).Int64("listing_id", listingID).Msg("Failed to load listing")
		}
		changed, err := svc.BackfillListing(ctx, listing)
		if err != nil {
			log.Fatal().Err(err).Int64("listing_id", listingID).Msg("Failed to backfill listing")
		}
		log.Info().Int64("listing_id", listingID).Bool("changed", changed).Msg("Backfilled listing")
		return
	}

	srcs := sources.NewDefaultRegistry().Names()
	if source != "" {
		srcs = strings.Split(source, ",")
	}

	log.Info().Strs("sources", srcs).Int("workers", workers).Bool("translate", translator != nil).Msg("Starting backfill")
	summary, err := svc.BackfillSources(ctx, srcs)
	if err != nil {
		log.Error().Err(err).Msg("Backfill failed")
	}
	if summary != nil {
		log.Info().
			Dur("elapsed", time.Since(start)).
			Int("processed", summary.TotalProcessed).
			Int("updated", summary.UpdatedCount).
			Int("failed", summary.FailureCount).
			Msg("Backfill complete")
	}
	if err != nil {
		os.Exit(1)
	}
}
