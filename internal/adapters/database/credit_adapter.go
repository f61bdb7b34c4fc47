package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
	"github.com/Bookjiradech/CARCOM/internal/domain/repositories"
	"github.com/Bookjiradech/CARCOM/internal/infrastructure/observability"
	apperrors "github.com/Bookjiradech/CARCOM/pkg/errors"
)

// CreditAdapter implements CreditRepository
type CreditAdapter struct {
	base
	now func() time.Time
}

// NewCreditAdapter creates a new credit adapter
func NewCreditAdapter(client SQLClient, metrics *observability.Metrics) repositories.CreditRepository {
	return &CreditAdapter{base: newBase(client, metrics), now: time.Now}
}

// usable matches active, unexpired allotments with credit left
func usable(userID int64, now time.Time) exp.Expression {
	return goqu.And(
		goqu.C("user_id").Eq(userID),
		goqu.C("status").Eq(entities.AllotmentStatusActive),
		goqu.C("remaining").Gt(0),
		goqu.Or(goqu.C("expires_at").IsNull(), goqu.C("expires_at").Gt(now)),
	)
}

// HasCredit reports whether the user holds any usable allotment
func (a *CreditAdapter) HasCredit(ctx context.Context, userID int64) (bool, error) {
	query, args, err := a.db.From("credit_allotments").
		Select(goqu.COUNT("*")).
		Where(usable(userID, dbTime(a.now()))).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build query", err)
	}

	var n int64
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, apperrors.NewInternalError("failed to check credit", err)
	}
	return n > 0, nil
}

// HasUsedTrial reports whether the user was ever granted a trial package
func (a *CreditAdapter) HasUsedTrial(ctx context.Context, userID int64) (bool, error) {
	query, args, err := a.db.From(goqu.T("credit_allotments").As("a")).
		Join(goqu.T("packages").As("p"), goqu.On(goqu.I("p.id").Eq(goqu.I("a.package_id")))).
		Select(goqu.COUNT("*")).
		Where(goqu.I("a.user_id").Eq(userID), goqu.I("p.base_price").Lte(0)).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build query", err)
	}

	var n int64
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, apperrors.NewInternalError("failed to check trial use", err)
	}
	return n > 0, nil
}

// ConsumeOne takes one credit from the usable allotment that expires first.
// Allotments without an expiry are used last.
func (a *CreditAdapter) ConsumeOne(ctx context.Context, userID int64) (bool, error) {
	defer a.observe(ctx, "credit_consume", time.Now())

	consumed := false
	err := a.withTx(ctx, func(tx *sql.Tx) error {
		ds := a.db.From("credit_allotments").
			Select("id").
			Where(usable(userID, dbTime(a.now()))).
			Order(
				goqu.L("CASE WHEN expires_at IS NULL THEN 1 ELSE 0 END").Asc(),
				goqu.C("expires_at").Asc(),
				goqu.C("id").Asc(),
			).
			Limit(1)
		if a.isPostgres() {
			ds = ds.ForUpdate(exp.Wait)
		}
		query, args, err := ds.ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build query", err)
		}

		var id int64
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return apperrors.NewInternalError("failed to select allotment", err)
		}

		query, args, err = a.db.Update("credit_allotments").
			Set(goqu.Record{"remaining": goqu.L("remaining - 1")}).
			Where(goqu.C("id").Eq(id), goqu.C("remaining").Gt(0)).
			ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build update query", err)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return apperrors.NewInternalError("failed to consume credit", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return apperrors.NewInternalError("failed to consume credit", err)
		}
		consumed = n == 1
		return nil
	})
	if err != nil {
		return false, err
	}
	return consumed, nil
}

// Grant adds an allotment
func (a *CreditAdapter) Grant(ctx context.Context, al *entities.CreditAllotment) error {
	if al.Status == "" {
		al.Status = entities.AllotmentStatusActive
	}
	if al.CreatedAt.IsZero() {
		al.CreatedAt = dbTime(a.now())
	}
	ds := a.db.Insert("credit_allotments").Rows(goqu.Record{
		"user_id":    al.UserID,
		"package_id": sql.NullInt64{Int64: al.PackageID, Valid: al.PackageID > 0},
		"remaining":  al.Remaining,
		"status":     al.Status,
		"expires_at": nullTime(al.ExpiresAt),
		"created_at": dbTime(al.CreatedAt),
	})
	id, err := a.insertReturningID(ctx, a.client.DB(), ds)
	if err != nil {
		return apperrors.NewInternalError("failed to grant credit", err)
	}
	al.ID = id
	return nil
}

// SavePackage inserts a package or updates the one with the same code
func (a *CreditAdapter) SavePackage(ctx context.Context, p *entities.Package) error {
	record := goqu.Record{
		"name":          p.Name,
		"base_price":    p.BasePrice,
		"credits":       p.Credits,
		"duration_days": nullInt(p.DurationDays),
	}
	if promo := p.Promotion; promo != nil {
		record["promo_code"] = promo.Code
		record["promo_discount_percent"] = promo.DiscountPercent
		record["promo_status"] = promo.Status
		record["promo_start"] = nullTime(promo.StartDate)
		record["promo_end"] = nullTime(promo.EndDate)
	} else {
		record["promo_code"] = nil
		record["promo_discount_percent"] = nil
		record["promo_status"] = nil
		record["promo_start"] = nil
		record["promo_end"] = nil
	}

	return a.withTx(ctx, func(tx *sql.Tx) error {
		query, args, err := a.db.From("packages").Select("id").Where(goqu.Ex{"code": p.Code}).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build query", err)
		}
		var id int64
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			record["code"] = p.Code
			id, err = a.insertReturningID(ctx, tx, a.db.Insert("packages").Rows(record))
			if err != nil {
				return apperrors.NewInternalError("failed to create package", err)
			}
		case err != nil:
			return apperrors.NewInternalError("failed to look up package", err)
		default:
			query, args, err = a.db.Update("packages").Set(record).Where(goqu.Ex{"id": id}).ToSQL()
			if err != nil {
				return apperrors.NewInternalError("failed to build update query", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return apperrors.NewInternalError("failed to update package", err)
			}
		}
		p.ID = id
		return nil
	})
}

// GetPackage retrieves a package with its promotion, if one is attached
func (a *CreditAdapter) GetPackage(ctx context.Context, id int64) (*entities.Package, error) {
	query, args, err := a.db.From("packages").
		Select("id", "code", "name", "base_price", "credits", "duration_days",
			"promo_code", "promo_discount_percent", "promo_status", "promo_start", "promo_end").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	p := &entities.Package{}
	var (
		duration, discount     sql.NullInt64
		promoCode, promoStatus sql.NullString
		promoStart, promoEnd   sql.NullTime
	)
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&p.ID, &p.Code, &p.Name, &p.BasePrice, &p.Credits, &duration,
		&promoCode, &discount, &promoStatus, &promoStart, &promoEnd,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("package not found")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get package", err)
	}

	if duration.Valid {
		p.DurationDays = entities.IntPtr(int(duration.Int64))
	}
	if promoCode.Valid && promoCode.String != "" {
		p.Promotion = &entities.Promotion{
			Code:            promoCode.String,
			DiscountPercent: int(discount.Int64),
			Status:          promoStatus.String,
		}
		if promoStart.Valid {
			p.Promotion.StartDate = &promoStart.Time
		}
		if promoEnd.Valid {
			p.Promotion.EndDate = &promoEnd.Time
		}
	}
	return p, nil
}
