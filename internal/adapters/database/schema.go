package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Bookjiradech/CARCOM/internal/infrastructure/clients/postgres"
	"github.com/Bookjiradech/CARCOM/internal/infrastructure/clients/sqlite"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS listings (
		id          BIGSERIAL PRIMARY KEY,
		source      TEXT NOT NULL,
		source_url  TEXT NOT NULL UNIQUE,
		source_id   TEXT,
		title       TEXT NOT NULL DEFAULT '',
		brand       TEXT,
		model       TEXT,
		year        INTEGER,
		price       BIGINT,
		mileage_km  BIGINT,
		province    TEXT,
		image_url   TEXT,
		attrs       JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_source ON listings (source)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_price ON listings (price)`,
	`CREATE TABLE IF NOT EXISTS search_sessions (
		id          TEXT PRIMARY KEY,
		user_id     BIGINT NOT NULL,
		params      JSONB NOT NULL,
		status      TEXT NOT NULL,
		excluded    JSONB NOT NULL DEFAULT '[]'::jsonb,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS session_results (
		session_id  TEXT NOT NULL REFERENCES search_sessions (id) ON DELETE CASCADE,
		listing_id  BIGINT NOT NULL REFERENCES listings (id),
		rank        INTEGER NOT NULL,
		PRIMARY KEY (session_id, rank)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_session_results_listing ON session_results (listing_id)`,
	`CREATE TABLE IF NOT EXISTS packages (
		id                      BIGSERIAL PRIMARY KEY,
		code                    TEXT NOT NULL UNIQUE,
		name                    TEXT NOT NULL,
		base_price              NUMERIC(12,2) NOT NULL DEFAULT 0,
		credits                 INTEGER NOT NULL,
		duration_days           INTEGER,
		promo_code              TEXT,
		promo_discount_percent  INTEGER,
		promo_status            TEXT,
		promo_start             TIMESTAMPTZ,
		promo_end               TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS credit_allotments (
		id          BIGSERIAL PRIMARY KEY,
		user_id     BIGINT NOT NULL,
		package_id  BIGINT REFERENCES packages (id),
		remaining   INTEGER NOT NULL,
		status      TEXT NOT NULL,
		expires_at  TIMESTAMPTZ,
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_credit_allotments_user ON credit_allotments (user_id, status)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS listings (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		source      TEXT NOT NULL,
		source_url  TEXT NOT NULL UNIQUE,
		source_id   TEXT,
		title       TEXT NOT NULL DEFAULT '',
		brand       TEXT,
		model       TEXT,
		year        INTEGER,
		price       INTEGER,
		mileage_km  INTEGER,
		province    TEXT,
		image_url   TEXT,
		attrs       TEXT NOT NULL DEFAULT '{}',
		created_at  TIMESTAMP NOT NULL,
		updated_at  TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_source ON listings (source)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_price ON listings (price)`,
	`CREATE TABLE IF NOT EXISTS search_sessions (
		id          TEXT PRIMARY KEY,
		user_id     INTEGER NOT NULL,
		params      TEXT NOT NULL,
		status      TEXT NOT NULL,
		excluded    TEXT NOT NULL DEFAULT '[]',
		created_at  TIMESTAMP NOT NULL,
		updated_at  TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS session_results (
		session_id  TEXT NOT NULL REFERENCES search_sessions (id) ON DELETE CASCADE,
		listing_id  INTEGER NOT NULL REFERENCES listings (id),
		rank        INTEGER NOT NULL,
		PRIMARY KEY (session_id, rank)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_session_results_listing ON session_results (listing_id)`,
	`CREATE TABLE IF NOT EXISTS packages (
		id                      INTEGER PRIMARY KEY AUTOINCREMENT,
		code                    TEXT NOT NULL UNIQUE,
		name                    TEXT NOT NULL,
		base_price              REAL NOT NULL DEFAULT 0,
		credits                 INTEGER NOT NULL,
		duration_days           INTEGER,
		promo_code              TEXT,
		promo_discount_percent  INTEGER,
		promo_status            TEXT,
		promo_start             TIMESTAMP,
		promo_end               TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS credit_allotments (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id     INTEGER NOT NULL,
		package_id  INTEGER REFERENCES packages (id),
		remaining   INTEGER NOT NULL,
		status      TEXT NOT NULL,
		expires_at  TIMESTAMP,
		created_at  TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_credit_allotments_user ON credit_allotments (user_id, status)`,
}

// Migrate creates the tables the adapters use if they do not exist yet
func Migrate(ctx context.Context, client SQLClient) error {
	var stmts []string
	switch client.Dialect() {
	case postgres.Dialect:
		stmts = postgresSchema
	case sqlite.Dialect:
		stmts = sqliteSchema
	default:
		return fmt.Errorf("no schema for dialect %q", client.Dialect())
	}

	for i, stmt := range stmts {
		if _, err := client.DB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i+1, err)
		}
	}
	log.Info().Str("dialect", client.Dialect()).Int("statements", len(stmts)).Msg("Schema migrated")
	return nil
}
