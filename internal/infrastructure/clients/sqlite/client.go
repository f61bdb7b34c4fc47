package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Bookjiradech/CARCOM/pkg/config"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// Dialect is the goqu dialect name for this client
const Dialect = "sqlite3"

// Client is a SQLite-backed listing store connection, used for local runs
// and tests where no PostgreSQL server is available.
type Client struct {
	db *sql.DB
}

// NewClient opens the database file named in cfg.
func NewClient(cfg *config.DatabaseConfig) (*Client, error) {
	return Open(cfg.DatabaseDSN())
}

// NewInMemory opens a private in-memory database.
func NewInMemory() (*Client, error) {
	return Open("file::memory:?_foreign_keys=on")
}

// Open opens a SQLite database from a DSN.
func Open(dsn string) (*Client, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite serialises writers; a single connection also keeps an
	// in-memory database alive for the lifetime of the client.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	log.Debug().Str("dsn", dsn).Msg("opened sqlite database")
	return &Client{db: db}, nil
}

// DB returns the underlying database connection
func (c *Client) DB() *sql.DB {
	return c.db
}

// Dialect returns the goqu dialect name
func (c *Client) Dialect() string {
	return Dialect
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}
