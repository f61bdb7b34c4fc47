package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"

	"github.com/Bookjiradech/CARCOM/internal/infrastructure/clients/postgres"
	"github.com/Bookjiradech/CARCOM/internal/infrastructure/observability"
	apperrors "github.com/Bookjiradech/CARCOM/pkg/errors"
)

// SQLClient is the connection the adapters run on. Both the PostgreSQL and
// the SQLite clients satisfy it.
type SQLClient interface {
	DB() *sql.DB
	Dialect() string
}

// execer is satisfied by *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// base carries what every adapter needs: the connection, a goqu builder for
// its dialect and optional metrics.
type base struct {
	client  SQLClient
	db      *goqu.Database
	metrics *observability.Metrics
}

func newBase(client SQLClient, metrics *observability.Metrics) base {
	return base{
		client:  client,
		db:      goqu.New(client.Dialect(), client.DB()),
		metrics: metrics,
	}
}

func (b base) isPostgres() bool {
	return b.client.Dialect() == postgres.Dialect
}

// withTx runs fn in a transaction, committing when it returns nil
func (b base) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := b.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit transaction", err)
	}
	return nil
}

// insertReturningID runs an insert and returns the generated id. PostgreSQL
// reports it through RETURNING, SQLite through LastInsertId.
func (b base) insertReturningID(ctx context.Context, q execer, ds *goqu.InsertDataset) (int64, error) {
	if b.isPostgres() {
		query, args, err := ds.Returning("id").ToSQL()
		if err != nil {
			return 0, apperrors.NewInternalError("failed to build insert query", err)
		}
		var id int64
		if err := q.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build insert query", err)
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (b base) observe(ctx context.Context, operation string, start time.Time) {
	observability.RecordDBMetric(ctx, b.metrics, operation, time.Since(start))
}

// dbTime normalises timestamps before they are written. SQLite compares
// them as text, so a fixed precision keeps the ordering right.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: dbTime(*p), Valid: true}
}
