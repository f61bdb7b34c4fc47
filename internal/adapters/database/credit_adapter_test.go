package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
	"github.com/Bookjiradech/CARCOM/internal/infrastructure/clients/postgres"
	apperrors "github.com/Bookjiradech/CARCOM/pkg/errors"
)

var testNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func newCreditAdapter(t *testing.T) *CreditAdapter {
	a := NewCreditAdapter(newTestStore(t), nil).(*CreditAdapter)
	a.now = func() time.Time { return testNow }
	return a
}

func timePtr(t time.Time) *time.Time { return &t }

func TestCreditAdapter_ConsumesSoonestExpiryFirst(t *testing.T) {
	ctx := context.Background()
	a := newCreditAdapter(t)

	never := &entities.CreditAllotment{UserID: 1, Remaining: 5}
	later := &entities.CreditAllotment{UserID: 1, Remaining: 1, ExpiresAt: timePtr(testNow.Add(48 * time.Hour))}
	soon := &entities.CreditAllotment{UserID: 1, Remaining: 1, ExpiresAt: timePtr(testNow.Add(time.Hour))}
	expired := &entities.CreditAllotment{UserID: 1, Remaining: 9, ExpiresAt: timePtr(testNow.Add(-time.Hour))}
	for _, al := range []*entities.CreditAllotment{never, later, soon, expired} {
		require.NoError(t, a.Grant(ctx, al))
	}

	remaining := func(id int64) int {
		var n int
		require.NoError(t, a.client.DB().QueryRow(`SELECT remaining FROM credit_allotments WHERE id = ?`, id).Scan(&n))
		return n
	}

	ok, err := a.ConsumeOne(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, remaining(soon.ID))
	assert.Equal(t, 1, remaining(later.ID))

	ok, err = a.ConsumeOne(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, remaining(later.ID))
	assert.Equal(t, 5, remaining(never.ID))

	ok, err = a.ConsumeOne(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4, remaining(never.ID), "allotments without expiry are used last")
	assert.Equal(t, 9, remaining(expired.ID), "expired allotments are never touched")
}

func TestCreditAdapter_HasCredit(t *testing.T) {
	ctx := context.Background()
	a := newCreditAdapter(t)

	has, err := a.HasCredit(ctx, 1)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, a.Grant(ctx, &entities.CreditAllotment{UserID: 1, Remaining: 0}))
	require.NoError(t, a.Grant(ctx, &entities.CreditAllotment{UserID: 1, Remaining: 3, Status: entities.AllotmentStatusExpired}))
	has, err = a.HasCredit(ctx, 1)
	require.NoError(t, err)
	assert.False(t, has)

	ok, err := a.ConsumeOne(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok, "nothing usable to consume")

	require.NoError(t, a.Grant(ctx, &entities.CreditAllotment{UserID: 1, Remaining: 1}))
	has, err = a.HasCredit(ctx, 1)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestCreditAdapter_Packages(t *testing.T) {
	ctx := context.Background()
	a := newCreditAdapter(t)

	p := &entities.Package{
		Code:      "PRO",
		Name:      "Pro",
		BasePrice: 199,
		Credits:   10,
		Promotion: &entities.Promotion{
			Code:            "OCT20",
			DiscountPercent: 20,
			Status:          "active",
			StartDate:       timePtr(testNow.AddDate(0, 0, -1)),
			EndDate:         timePtr(testNow),
		},
	}
	require.NoError(t, a.SavePackage(ctx, p))
	require.NotZero(t, p.ID)

	got, err := a.GetPackage(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "PRO", got.Code)
	require.NotNil(t, got.Promotion)
	assert.Equal(t, 20, got.Promotion.DiscountPercent)
	assert.InDelta(t, 159.2, got.EffectivePrice(testNow), 0.001)
	assert.False(t, got.IsTrial())

	p.Promotion = nil
	p.Name = "Pro plan"
	id := p.ID
	require.NoError(t, a.SavePackage(ctx, p))
	assert.Equal(t, id, p.ID, "saving the same code updates in place")

	got, err = a.GetPackage(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Pro plan", got.Name)
	assert.Nil(t, got.Promotion)

	_, err = a.GetPackage(ctx, 999)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestCreditAdapter_HasUsedTrial(t *testing.T) {
	ctx := context.Background()
	a := newCreditAdapter(t)

	trial := &entities.Package{Code: "TRIAL", Name: "Trial", BasePrice: 0, Credits: 3}
	paid := &entities.Package{Code: "PRO", Name: "Pro", BasePrice: 199, Credits: 20}
	require.NoError(t, a.SavePackage(ctx, trial))
	require.NoError(t, a.SavePackage(ctx, paid))

	require.NoError(t, a.Grant(ctx, &entities.CreditAllotment{UserID: 1, PackageID: paid.ID, Remaining: 20}))
	used, err := a.HasUsedTrial(ctx, 1)
	require.NoError(t, err)
	assert.False(t, used)

	require.NoError(t, a.Grant(ctx, &entities.CreditAllotment{UserID: 1, PackageID: trial.ID, Remaining: 0}))
	used, err = a.HasUsedTrial(ctx, 1)
	require.NoError(t, err)
	assert.True(t, used, "a spent trial still counts")

	used, err = a.HasUsedTrial(ctx, 2)
	require.NoError(t, err)
	assert.False(t, used)
}

func TestCreditAdapter_PostgresConsumeLocksRow(t *testing.T) {
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	a := NewCreditAdapter(postgres.NewFromDB(db), nil).(*CreditAdapter)
	a.now = func() time.Time { return testNow }

	sqlMock.ExpectBegin()
	sqlMock.ExpectQuery(`SELECT "id" FROM "credit_allotments" WHERE .* ORDER BY .* LIMIT 1 FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
	sqlMock.ExpectExec(`UPDATE "credit_allotments" SET "remaining"=remaining - 1 WHERE \(\("id" = 11\) AND \("remaining" > 0\)\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	sqlMock.ExpectCommit()

	ok, err := a.ConsumeOne(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestCreditAdapter_PostgresConsumeRollsBackOnError(t *testing.T) {
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	a := NewCreditAdapter(postgres.NewFromDB(db), nil)

	sqlMock.ExpectBegin()
	sqlMock.ExpectQuery(`FOR UPDATE`).WillReturnError(errors.New("connection reset"))
	sqlMock.ExpectRollback()

	ok, err := a.ConsumeOne(context.Background(), 5)
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

// MockCache is a mock implementation of CacheProvider
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	return m.Called(ctx, key, value, expirationSeconds).Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockCache) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func TestCachedCreditAdapter_GetPackage(t *testing.T) {
	ctx := context.Background()
	inner := newCreditAdapter(t)
	p := &entities.Package{Code: "TRIAL", Name: "Trial", BasePrice: 0, Credits: 1}
	require.NoError(t, inner.SavePackage(ctx, p))

	cache := new(MockCache)
	key := packageCacheKey(p.ID)
	cache.On("Get", ctx, key).Return(nil, errors.New("key not found")).Once()
	cache.On("Set", ctx, key, mock.Anything, packageTTL).Return(nil).Once()
	cache.On("Get", ctx, key).Return([]byte(`{"id":1,"code":"TRIAL","name":"cached","base_price":0,"credits":1}`), nil).Once()

	repo := NewCachedCreditAdapter(inner, cache, nil)

	got, err := repo.GetPackage(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Trial", got.Name)
	assert.True(t, got.IsTrial())

	got, err = repo.GetPackage(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "cached", got.Name)

	cache.On("Delete", ctx, key).Return(nil).Once()
	require.NoError(t, repo.SavePackage(ctx, p))

	cache.AssertExpectations(t)
}
