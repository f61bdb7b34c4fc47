// Package bootstrap builds the shared infrastructure the binaries run on.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Bookjiradech/CARCOM/internal/adapters/cache"
	"github.com/Bookjiradech/CARCOM/internal/adapters/database"
	"github.com/Bookjiradech/CARCOM/internal/adapters/fetcher"
	"github.com/Bookjiradech/CARCOM/internal/application/services"
	"github.com/Bookjiradech/CARCOM/internal/domain/providers"
	"github.com/Bookjiradech/CARCOM/internal/infrastructure/clients/openai"
	"github.com/Bookjiradech/CARCOM/internal/infrastructure/clients/postgres"
	"github.com/Bookjiradech/CARCOM/internal/infrastructure/clients/redis"
	"github.com/Bookjiradech/CARCOM/internal/infrastructure/clients/sqlite"
	"github.com/Bookjiradech/CARCOM/internal/infrastructure/observability"
	"github.com/Bookjiradech/CARCOM/pkg/config"
)

// Database is an open store connection
type Database interface {
	database.SQLClient
	Close() error
}

// OpenDatabase connects to the configured driver and applies the schema
func OpenDatabase(ctx context.Context, cfg *config.DatabaseConfig) (Database, error) {
	var (
		db  Database
		err error
	)
	switch cfg.Driver {
	case sqlite.Dialect:
		db, err = sqlite.NewClient(cfg)
	default:
		db, err = postgres.NewClient(cfg)
	}
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return db, nil
}

// OpenCache returns a Redis-backed cache when Redis is enabled and
// reachable, otherwise an in-process cache. The close func is never nil.
func OpenCache(cfg *config.RedisConfig) (providers.CacheProvider, func() error) {
	noop := func() error { return nil }
	if !cfg.Enabled {
		return cache.NewMemoryAdapter(), noop
	}
	client, err := redis.NewClient(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, using in-process cache")
		return cache.NewMemoryAdapter(), noop
	}
	log.Info().Str("addr", cfg.RedisAddr()).Msg("Redis client initialized")
	return cache.NewRedisAdapter(client, "carcom:"), client.Close
}

// NewFetcher starts the configured page fetcher. A browser that fails to
// start falls back to plain HTTP.
func NewFetcher(cfg *config.ScraperConfig) providers.PageFetcher {
	if cfg.Fetcher == "chrome" {
		f, err := fetcher.NewChromeFetcher(cfg)
		if err == nil {
			return f
		}
		log.Warn().Err(err).Msg("Browser fetcher unavailable, falling back to HTTP")
	}
	return fetcher.NewHTTPFetcher(cfg, nil)
}

// NewOpenAIClient returns nil when no API key is configured
func NewOpenAIClient(cfg *config.OpenAIConfig) *openai.Client {
	if cfg.APIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY is not set; selection uses the deterministic rule and translation is off")
		return nil
	}
	client, err := openai.NewClient(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize OpenAI client")
		return nil
	}
	return client
}

// NewTranslator wires attribute translation. It returns nil when
// translation is disabled or no reasoning service is configured.
func NewTranslator(cfg *config.TranslationConfig, ai *openai.Client, store providers.CacheProvider, metrics *observability.Metrics) *services.TranslationService {
	if !cfg.Enabled || ai == nil {
		return nil
	}
	var tc providers.TranslationCache
	if store != nil {
		tc = cache.NewTranslationCache(store, cfg.CacheTTL, metrics)
	}
	return services.NewTranslationService(ai, tc, "openai:"+ai.Model(), cfg.SourceLanguage, cfg.TargetLanguage)
}
