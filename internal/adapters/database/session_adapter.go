package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
	"github.com/Bookjiradech/CARCOM/internal/domain/repositories"
	"github.com/Bookjiradech/CARCOM/internal/infrastructure/observability"
	apperrors "github.com/Bookjiradech/CARCOM/pkg/errors"
)

// SessionAdapter implements SessionRepository
type SessionAdapter struct {
	base
	now func() time.Time
}

// NewSessionAdapter creates a new session adapter
func NewSessionAdapter(client SQLClient, metrics *observability.Metrics) repositories.SessionRepository {
	return &SessionAdapter{base: newBase(client, metrics), now: time.Now}
}

// Create stores a session and its results ranked 1..N in the order of listingIDs
func (a *SessionAdapter) Create(ctx context.Context, s *entities.SearchSession, listingIDs []int64) error {
	defer a.observe(ctx, "session_create", time.Now())

	now := dbTime(a.now())
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	if s.Status == "" {
		s.Status = entities.SessionStatusDone
	}

	params, err := marshalJSON(s.Params)
	if err != nil {
		return apperrors.NewInternalError("failed to encode session params", err)
	}
	excluded, err := marshalJSON(nonNilIDs(s.Excluded))
	if err != nil {
		return apperrors.NewInternalError("failed to encode session exclusions", err)
	}

	return a.withTx(ctx, func(tx *sql.Tx) error {
		query, args, err := a.db.Insert("search_sessions").Rows(goqu.Record{
			"id":         s.ID,
			"user_id":    s.UserID,
			"params":     params,
			"status":     string(s.Status),
			"excluded":   excluded,
			"created_at": dbTime(s.CreatedAt),
			"updated_at": s.UpdatedAt,
		}).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build insert query", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return apperrors.NewInternalError("failed to create session", err)
		}
		return a.insertResults(ctx, tx, s.ID, listingIDs)
	})
}

// insertResults writes dense ranks 1..N. Duplicate ids keep their first rank.
func (a *SessionAdapter) insertResults(ctx context.Context, tx *sql.Tx, sessionID string, listingIDs []int64) error {
	ids := dedupeIDs(listingIDs)
	if len(ids) == 0 {
		return nil
	}
	rows := make([]any, 0, len(ids))
	for i, id := range ids {
		rows = append(rows, goqu.Record{"session_id": sessionID, "listing_id": id, "rank": i + 1})
	}
	query, args, err := a.db.Insert("session_results").Rows(rows...).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to store session results", err)
	}
	return nil
}

// GetByID retrieves a session
func (a *SessionAdapter) GetByID(ctx context.Context, id string) (*entities.SearchSession, error) {
	return a.get(ctx, a.client.DB(), id, false)
}

func (a *SessionAdapter) get(ctx context.Context, q execer, id string, lock bool) (*entities.SearchSession, error) {
	ds := a.db.From("search_sessions").
		Select("id", "user_id", "params", "status", "excluded", "created_at", "updated_at").
		Where(goqu.Ex{"id": id})
	if lock && a.isPostgres() {
		ds = ds.ForUpdate(exp.Wait)
	}
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	s := &entities.SearchSession{}
	var params, excluded []byte
	var status string
	err = q.QueryRowContext(ctx, query, args...).Scan(
		&s.ID, &s.UserID, &params, &status, &excluded, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("search session not found")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get session", err)
	}

	s.Status = entities.SessionStatus(status)
	if err := json.Unmarshal(params, &s.Params); err != nil {
		return nil, apperrors.NewInternalError("failed to decode session params", err)
	}
	if len(excluded) > 0 {
		if err := json.Unmarshal(excluded, &s.Excluded); err != nil {
			return nil, apperrors.NewInternalError("failed to decode session exclusions", err)
		}
	}
	return s, nil
}

// ListResults returns the session's listings in rank order
func (a *SessionAdapter) ListResults(ctx context.Context, sessionID string) ([]entities.RankedListing, error) {
	defer a.observe(ctx, "session_results", time.Now())

	cols := []any{goqu.I("r.rank")}
	for _, c := range listingColumns {
		cols = append(cols, goqu.I("l."+c.(string)))
	}
	query, args, err := a.db.From(goqu.T("session_results").As("r")).
		Join(goqu.T("listings").As("l"), goqu.On(goqu.I("r.listing_id").Eq(goqu.I("l.id")))).
		Select(cols...).
		Where(goqu.I("r.session_id").Eq(sessionID)).
		Order(goqu.I("r.rank").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list session results", err)
	}
	defer rows.Close()

	out := []entities.RankedListing{}
	for rows.Next() {
		var rank int
		l, err := scanListing(prefixedScanner{rows: rows, prefix: []any{&rank}})
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan session result", err)
		}
		out = append(out, entities.RankedListing{Rank: rank, Listing: l})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate session results", err)
	}
	return out, nil
}

// ReplaceResults discards the session's results and stores listingIDs ranked 1..N
func (a *SessionAdapter) ReplaceResults(ctx context.Context, sessionID string, listingIDs []int64, status entities.SessionStatus) error {
	return a.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := a.get(ctx, tx, sessionID, true); err != nil {
			return err
		}

		query, args, err := a.db.Delete("session_results").Where(goqu.Ex{"session_id": sessionID}).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build delete query", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return apperrors.NewInternalError("failed to clear session results", err)
		}
		if err := a.insertResults(ctx, tx, sessionID, listingIDs); err != nil {
			return err
		}
		return a.touch(ctx, tx, sessionID, goqu.Record{"status": string(status)})
	})
}

// AddExcluded appends ids to the session's exclusion set, keeping it unique
func (a *SessionAdapter) AddExcluded(ctx context.Context, sessionID string, listingIDs []int64) error {
	if len(listingIDs) == 0 {
		return nil
	}
	return a.withTx(ctx, func(tx *sql.Tx) error {
		s, err := a.get(ctx, tx, sessionID, true)
		if err != nil {
			return err
		}
		excluded, err := marshalJSON(dedupeIDs(append(s.Excluded, listingIDs...)))
		if err != nil {
			return apperrors.NewInternalError("failed to encode session exclusions", err)
		}
		return a.touch(ctx, tx, sessionID, goqu.Record{"excluded": excluded})
	})
}

func (a *SessionAdapter) touch(ctx context.Context, tx *sql.Tx, sessionID string, record goqu.Record) error {
	record["updated_at"] = dbTime(a.now())
	query, args, err := a.db.Update("search_sessions").Set(record).Where(goqu.Ex{"id": sessionID}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to update session", err)
	}
	return nil
}

// prefixedScanner scans leading columns into prefix before handing the rest
// to the wrapped scan.
type prefixedScanner struct {
	rows   *sql.Rows
	prefix []any
}

func (p prefixedScanner) Scan(dest ...any) error {
	return p.rows.Scan(append(append([]any{}, p.prefix...), dest...)...)
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func nonNilIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
