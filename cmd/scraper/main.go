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
	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
	"github.com/Bookjiradech/CARCOM/internal/infrastructure/observability"
	"github.com/Bookjiradech/CARCOM/pkg/config"
)

func main() {
	var (
		source       string
		query        string
		minPrice     int64
		maxPrice     int64
		limit        int
		headless     bool
		dump         bool
		intervalFlag string
	)
	flag.StringVar(&source, "source", "kaidee", "Source to scrape: "+strings.Join(sources.NewDefaultRegistry().Names(), ", "))
	flag.StringVar(&query, "q", "", "Search keyword, e.g. \"honda city\"")
	flag.Int64Var(&minPrice, "min", 0, "Minimum price in THB (0 = no bound)")
	flag.Int64Var(&maxPrice, "max", 0, "Maximum price in THB (0 = no bound)")
	flag.IntVar(&limit, "limit", 0, "Listings to store (default SCRAPER_LIMIT)")
	flag.BoolVar(&headless, "headless", true, "Run the browser headless")
	flag.BoolVar(&dump, "dump", false, "Write fetched search pages to SCRAPER_DUMP_DIR")
	flag.StringVar(&intervalFlag, "interval", "", "Repeat the run at this interval (e.g. 30m)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger("carcom-scraper", cfg.Env)

	cfg.Scraper.Headless = headless
	cfg.Scraper.DebugDump = cfg.Scraper.DebugDump || dump
	if limit <= 0 {
		limit = cfg.Scraper.Limit
	}

	var interval time.Duration
	if v := strings.TrimSpace(intervalFlag); v != "" {
		interval, err = time.ParseDuration(v)
		if err != nil || interval <= 0 {
			log.Fatal().Str("interval", v).Msg("Interval must be a positive duration")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := bootstrap.OpenDatabase(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	pageFetcher := bootstrap.NewFetcher(&cfg.Scraper)
	defer pageFetcher.Close()

	store, closeCache := bootstrap.OpenCache(&cfg.Redis)
	defer closeCache()
	translator := bootstrap.NewTranslator(&cfg.Translation, bootstrap.NewOpenAIClient(&cfg.OpenAI), store, nil)

	ingest := services.NewIngestService(
		sources.NewDefaultRegistry(),
		pageFetcher,
		database.NewListingAdapter(db, nil),
		translator,
		nil,
	)
	req := entities.SourceRunRequest{
		Query:    query,
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Limit:    limit,
	}

	exitCode := 0
	for {
		exitCode = runOnce(ctx, ingest, source, req, cfg.Scraper.Timeout)
		if interval <= 0 {
			break
		}

		log.Info().Dur("next_in", interval).Msg("Scrape complete")
		select {
		case <-ctx.Done():
			log.Info().Msg("Scraper stopped")
			return
		case <-time.After(interval):
		}
	}
	if exitCode != 0 {
		// deferred closes do not run after os.Exit
		pageFetcher.Close()
		db.Close()
		os.Exit(exitCode)
	}
}

func runOnce(ctx context.Context, ingest *services.IngestService, source string, req entities.SourceRunRequest, timeout time.Duration) int {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	report, err := ingest.RunSource(runCtx, source, req)
	if report != nil {
		log.Info().
			Str("source", report.Source).
			Int("links", report.Links).
			Int("created", report.Created).
			Int("updated", report.Updated).
			Int("skipped", report.Skipped).
			Int("failed", report.Failed).
			Dur("duration", report.Duration).
			Msg("Source run finished")
	}
	if err != nil {
		log.Error().Err(err).Str("source", source).Msg("Source run failed")
		return 1
	}
	return 0
}
