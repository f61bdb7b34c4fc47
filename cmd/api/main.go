package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Bookjiradech/CARCOM/internal/adapters/database"
	"github.com/Bookjiradech/CARCOM/internal/adapters/sources"
	"github.com/Bookjiradech/CARCOM/internal/api/handlers"
	"github.com/Bookjiradech/CARCOM/internal/api/middleware"
	"github.com/Bookjiradech/CARCOM/internal/api/routes"
	"github.com/Bookjiradech/CARCOM/internal/application/services"
	"github.com/Bookjiradech/CARCOM/internal/bootstrap"
	"github.com/Bookjiradech/CARCOM/internal/domain/providers"
	"github.com/Bookjiradech/CARCOM/internal/infrastructure/observability"
	"github.com/Bookjiradech/CARCOM/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	db, err := bootstrap.OpenDatabase(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("Failed to open database")
	}
	defer db.Close()

	cacheProvider, closeCache := bootstrap.OpenCache(&cfg.Redis)
	defer closeCache()

	pageFetcher := bootstrap.NewFetcher(&cfg.Scraper)
	defer pageFetcher.Close()

	// Adapters
	listingRepo := database.NewListingAdapter(db, metrics)
	sessionRepo := database.NewSessionAdapter(db, metrics)
	creditRepo := database.NewCachedCreditAdapter(database.NewCreditAdapter(db, metrics), cacheProvider, metrics)

	ai := bootstrap.NewOpenAIClient(&cfg.OpenAI)
	var recommender providers.RecommendationProvider
	if ai != nil {
		recommender = ai
	}
	translator := bootstrap.NewTranslator(&cfg.Translation, ai, cacheProvider, metrics)

	// Services
	registry := sources.NewDefaultRegistry()
	ingestService := services.NewIngestService(registry, pageFetcher, listingRepo, translator, metrics)
	searchService := services.NewSearchService(
		ingestService,
		listingRepo,
		sessionRepo,
		creditRepo,
		services.NewFilterService(),
		services.SearchOptions{
			Sources:        cfg.Scraper.EnabledSources(),
			PerSourceCap:   cfg.Scraper.LimitPerSource,
			SourceTimeout:  cfg.Scraper.Timeout,
			MaxConcurrency: cfg.Scraper.MaxConcurrency,
		},
	)
	selectionService := services.NewSelectionService(sessionRepo, recommender, metrics)
	packageService := services.NewPackageService(creditRepo)

	// Handlers
	searchHandler := handlers.NewSearchHandler(searchService, selectionService)
	packageHandler := handlers.NewPackageHandler(packageService)
	healthHandler := handlers.NewHealthHandler(map[string]handlers.HealthCheck{
		"database": func(ctx context.Context) error { return db.DB().PingContext(ctx) },
	})

	router := routes.NewRouter(
		searchHandler,
		packageHandler,
		healthHandler,
		middleware.NewCacheMiddleware(cacheProvider, nil, metrics),
		cfg.Server.AllowedOrigins,
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", serverAddr).
			Strs("sources", cfg.Scraper.EnabledSources()).
			Bool("ai_selection", recommender != nil).
			Bool("translation", translator != nil).
			Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}
	log.Info().Msg("Server stopped")
}
