package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
	"github.com/Bookjiradech/CARCOM/internal/domain/repositories"
	"github.com/Bookjiradech/CARCOM/internal/infrastructure/observability"
	apperrors "github.com/Bookjiradech/CARCOM/pkg/errors"
)

var listingColumns = []any{
	"id", "source", "source_url", "source_id", "title", "brand", "model",
	"year", "price", "mileage_km", "province", "image_url", "attrs",
	"created_at", "updated_at",
}

// ListingAdapter implements ListingRepository
type ListingAdapter struct {
	base
	now func() time.Time
}

// NewListingAdapter creates a new listing adapter
func NewListingAdapter(client SQLClient, metrics *observability.Metrics) repositories.ListingRepository {
	return &ListingAdapter{base: newBase(client, metrics), now: time.Now}
}

// Upsert inserts the listing or merges it into the row with the same source URL.
// Lookup and write share one transaction; on PostgreSQL the row is locked.
func (a *ListingAdapter) Upsert(ctx context.Context, p *entities.PartialListing) (*entities.Listing, repositories.UpsertOutcome, error) {
	if err := p.Validate(); err != nil {
		return nil, "", apperrors.NewValidationError(err.Error())
	}
	defer a.observe(ctx, "listing_upsert", time.Now())

	now := dbTime(a.now())
	var (
		listing *entities.Listing
		outcome repositories.UpsertOutcome
	)
	err := a.withTx(ctx, func(tx *sql.Tx) error {
		ds := a.db.From("listings").Select(listingColumns...).Where(goqu.Ex{"source_url": p.SourceURL})
		if a.isPostgres() {
			ds = ds.ForUpdate(exp.Wait)
		}
		query, args, err := ds.ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build query", err)
		}

		existing, err := scanListing(tx.QueryRowContext(ctx, query, args...))
		switch {
		case errors.Is(err, sql.ErrNoRows):
			listing = entities.NewListing(p, now)
			outcome = repositories.UpsertCreated
			return a.insert(ctx, tx, listing)
		case err != nil:
			return apperrors.NewInternalError("failed to look up listing", err)
		}

		existing.Apply(p, now)
		listing = existing
		outcome = repositories.UpsertUpdated
		return a.update(ctx, tx, listing)
	})
	if err != nil {
		return nil, "", err
	}
	return listing, outcome, nil
}

func (a *ListingAdapter) insert(ctx context.Context, tx *sql.Tx, l *entities.Listing) error {
	record, err := listingRecord(l)
	if err != nil {
		return err
	}
	record["source"] = l.Source
	record["source_url"] = l.SourceURL
	record["created_at"] = l.CreatedAt

	id, err := a.insertReturningID(ctx, tx, a.db.Insert("listings").Rows(record))
	if err != nil {
		return apperrors.NewInternalError("failed to insert listing", err)
	}
	l.ID = id
	return nil
}

func (a *ListingAdapter) update(ctx context.Context, tx *sql.Tx, l *entities.Listing) error {
	record, err := listingRecord(l)
	if err != nil {
		return err
	}
	query, args, err := a.db.Update("listings").Set(record).Where(goqu.Ex{"id": l.ID}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to update listing", err)
	}
	return nil
}

// listingRecord holds the columns an update may change
func listingRecord(l *entities.Listing) (goqu.Record, error) {
	attrs, err := marshalJSON(l.Attributes)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode listing attributes", err)
	}
	return goqu.Record{
		"source_id":  sql.NullString{String: l.SourceID, Valid: l.SourceID != ""},
		"title":      l.Title,
		"brand":      sql.NullString{String: l.Brand, Valid: l.Brand != ""},
		"model":      sql.NullString{String: l.Model, Valid: l.Model != ""},
		"year":       nullInt(l.Year),
		"price":      nullInt64(l.Price),
		"mileage_km": nullInt64(l.Mileage),
		"province":   sql.NullString{String: l.Province, Valid: l.Province != ""},
		"image_url":  sql.NullString{String: l.ImageURL, Valid: l.ImageURL != ""},
		"attrs":      attrs,
		"updated_at": l.UpdatedAt,
	}, nil
}

// GetByID retrieves a listing by ID
func (a *ListingAdapter) GetByID(ctx context.Context, id int64) (*entities.Listing, error) {
	query, args, err := a.db.From("listings").Select(listingColumns...).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	listing, err := scanListing(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("listing not found")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get listing", err)
	}
	return listing, nil
}

// GetByIDs retrieves listings in the order of ids, skipping ids with no row
func (a *ListingAdapter) GetByIDs(ctx context.Context, ids []int64) ([]*entities.Listing, error) {
	if len(ids) == 0 {
		return []*entities.Listing{}, nil
	}

	query, args, err := a.db.From("listings").Select(listingColumns...).Where(goqu.Ex{"id": ids}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	found, err := a.queryListings(ctx, query, args)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*entities.Listing, len(found))
	for _, l := range found {
		byID[l.ID] = l
	}
	out := make([]*entities.Listing, 0, len(ids))
	for _, id := range ids {
		if l, ok := byID[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

// Query returns listings matching q, cheapest first with unknown prices last
func (a *ListingAdapter) Query(ctx context.Context, q repositories.ListingQuery) ([]*entities.Listing, error) {
	defer a.observe(ctx, "listing_query", time.Now())

	ds := a.db.From("listings").Select(listingColumns...)
	if len(q.Sources) > 0 {
		ds = ds.Where(goqu.Ex{"source": q.Sources})
	}
	if q.MaxPrice > 0 {
		ds = ds.Where(goqu.C("price").IsNotNull(), goqu.C("price").Lte(q.MaxPrice))
	}
	if text := strings.TrimSpace(q.Text); text != "" {
		pattern := "%" + text + "%"
		ds = ds.Where(goqu.Or(
			goqu.C("title").ILike(pattern),
			goqu.C("brand").ILike(pattern),
			goqu.C("model").ILike(pattern),
		))
	}
	if !q.UpdatedSince.IsZero() {
		ds = ds.Where(goqu.C("updated_at").Gte(dbTime(q.UpdatedSince)))
	}
	ds = ds.Order(
		goqu.L("CASE WHEN price IS NULL THEN 1 ELSE 0 END").Asc(),
		goqu.C("price").Asc(),
		goqu.C("id").Asc(),
	)
	if q.Limit > 0 {
		ds = ds.Limit(uint(q.Limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.queryListings(ctx, query, args)
}

// ListBySource returns up to limit listings of source with ID greater than afterID
func (a *ListingAdapter) ListBySource(ctx context.Context, source string, afterID int64, limit int) ([]*entities.Listing, error) {
	ds := a.db.From("listings").Select(listingColumns...).
		Where(goqu.C("id").Gt(afterID)).
		Order(goqu.C("id").Asc())
	if source != "" {
		ds = ds.Where(goqu.Ex{"source": source})
	}
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.queryListings(ctx, query, args)
}

// UpdateAttributes replaces the attribute bag of a listing
func (a *ListingAdapter) UpdateAttributes(ctx context.Context, id int64, attrs entities.Attributes) error {
	encoded, err := marshalJSON(attrs)
	if err != nil {
		return apperrors.NewInternalError("failed to encode listing attributes", err)
	}
	query, args, err := a.db.Update("listings").
		Set(goqu.Record{"attrs": encoded, "updated_at": dbTime(a.now())}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	res, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update listing attributes", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NewNotFoundError("listing not found")
	}
	return nil
}

// PurgeBySources deletes every listing of sources. Session results that
// point at those listings are deleted first in the same transaction so no
// session is left referencing a missing listing.
func (a *ListingAdapter) PurgeBySources(ctx context.Context, sources []string) (int64, error) {
	if len(sources) == 0 {
		return 0, nil
	}
	defer a.observe(ctx, "listing_purge", time.Now())

	var deleted int64
	err := a.withTx(ctx, func(tx *sql.Tx) error {
		ids := a.db.From("listings").Select("id").Where(goqu.Ex{"source": sources})

		query, args, err := a.db.Delete("session_results").Where(goqu.C("listing_id").In(ids)).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build delete query", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return apperrors.NewInternalError("failed to delete session results", err)
		}

		query, args, err = a.db.Delete("listings").Where(goqu.Ex{"source": sources}).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build delete query", err)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return apperrors.NewInternalError("failed to purge listings", err)
		}
		deleted, err = res.RowsAffected()
		if err != nil {
			return apperrors.NewInternalError("failed to count purged listings", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func (a *ListingAdapter) queryListings(ctx context.Context, query string, args []any) ([]*entities.Listing, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query listings", err)
	}
	defer rows.Close()

	listings := []*entities.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan listing", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate listings", err)
	}
	return listings, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (*entities.Listing, error) {
	l := &entities.Listing{}
	var (
		sourceID, brand, model, province, imageURL sql.NullString
		year, price, mileage                       sql.NullInt64
		attrs                                      []byte
	)
	err := row.Scan(
		&l.ID, &l.Source, &l.SourceURL, &sourceID, &l.Title, &brand, &model,
		&year, &price, &mileage, &province, &imageURL, &attrs,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.SourceID = sourceID.String
	l.Brand = brand.String
	l.Model = model.String
	l.Province = province.String
	l.ImageURL = imageURL.String
	if year.Valid {
		l.Year = entities.IntPtr(int(year.Int64))
	}
	if price.Valid {
		l.Price = entities.Int64Ptr(price.Int64)
	}
	if mileage.Valid {
		l.Mileage = entities.Int64Ptr(mileage.Int64)
	}
	l.Attributes = entities.Attributes{}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &l.Attributes); err != nil {
			return nil, err
		}
	}
	return l, nil
}
