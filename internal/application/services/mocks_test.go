package services_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Bookjiradech/CARCOM/internal/adapters/sources"
	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
	"github.com/Bookjiradech/CARCOM/internal/domain/providers"
	"github.com/Bookjiradech/CARCOM/internal/domain/repositories"
)

type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) Upsert(ctx context.Context, p *entities.PartialListing) (*entities.Listing, repositories.UpsertOutcome, error) {
	args := m.Called(ctx, p)
	var l *entities.Listing
	if v := args.Get(0); v != nil {
		l = v.(*entities.Listing)
	}
	return l, args.Get(1).(repositories.UpsertOutcome), args.Error(2)
}

func (m *MockListingRepository) GetByID(ctx context.Context, id int64) (*entities.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Listing), args.Error(1)
}

func (m *MockListingRepository) GetByIDs(ctx context.Context, ids []int64) ([]*entities.Listing, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Listing), args.Error(1)
}

func (m *MockListingRepository) Query(ctx context.Context, q repositories.ListingQuery) ([]*entities.Listing, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Listing), args.Error(1)
}

func (m *MockListingRepository) ListBySource(ctx context.Context, source string, afterID int64, limit int) ([]*entities.Listing, error) {
	args := m.Called(ctx, source, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Listing), args.Error(1)
}

func (m *MockListingRepository) UpdateAttributes(ctx context.Context, id int64, attrs entities.Attributes) error {
	args := m.Called(ctx, id, attrs)
	return args.Error(0)
}

func (m *MockListingRepository) PurgeBySources(ctx context.Context, srcs []string) (int64, error) {
	args := m.Called(ctx, srcs)
	return args.Get(0).(int64), args.Error(1)
}

type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, s *entities.SearchSession, listingIDs []int64) error {
	args := m.Called(ctx, s, listingIDs)
	return args.Error(0)
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id string) (*entities.SearchSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SearchSession), args.Error(1)
}

func (m *MockSessionRepository) ListResults(ctx context.Context, sessionID string) ([]entities.RankedListing, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.RankedListing), args.Error(1)
}

func (m *MockSessionRepository) ReplaceResults(ctx context.Context, sessionID string, listingIDs []int64, status entities.SessionStatus) error {
	args := m.Called(ctx, sessionID, listingIDs, status)
	return args.Error(0)
}

func (m *MockSessionRepository) AddExcluded(ctx context.Context, sessionID string, listingIDs []int64) error {
	args := m.Called(ctx, sessionID, listingIDs)
	return args.Error(0)
}

type MockCreditRepository struct {
	mock.Mock
}

func (m *MockCreditRepository) HasCredit(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCreditRepository) ConsumeOne(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCreditRepository) HasUsedTrial(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCreditRepository) Grant(ctx context.Context, a *entities.CreditAllotment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockCreditRepository) SavePackage(ctx context.Context, p *entities.Package) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockCreditRepository) GetPackage(ctx context.Context, id int64) (*entities.Package, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Package), args.Error(1)
}

type MockRecommender struct {
	mock.Mock
}

func (m *MockRecommender) Recommend(ctx context.Context, req providers.RecommendationRequest) (*providers.RecommendationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*providers.RecommendationResult), args.Error(1)
}

type MockTranslator struct {
	mock.Mock
}

func (m *MockTranslator) Translate(ctx context.Context, texts []string, source, target string) ([]string, error) {
	args := m.Called(ctx, texts, source, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockSourceRunner struct {
	mock.Mock
}

func (m *MockSourceRunner) RunSource(ctx context.Context, source string, req entities.SourceRunRequest) (*entities.SourceRunReport, error) {
	args := m.Called(ctx, source, req)
	var r *entities.SourceRunReport
	if v := args.Get(0); v != nil {
		r = v.(*entities.SourceRunReport)
	}
	return r, args.Error(1)
}

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, url string) (string, error) {
	args := m.Called(ctx, url)
	return args.String(0), args.Error(1)
}

func (m *MockFetcher) Close() error {
	return nil
}

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Name() string { return "stub" }

func (m *MockExtractor) SearchURL(q sources.SearchQuery) string {
	return "https://stub.test/search?q=" + q.Query
}

func (m *MockExtractor) ListingLinks(pageURL, html string, q sources.SearchQuery, limit int) ([]string, error) {
	args := m.Called(pageURL, html, q, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockExtractor) Extract(pageURL, html string) (*entities.PartialListing, error) {
	args := m.Called(pageURL, html)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PartialListing), args.Error(1)
}

type memoryTranslationCache struct {
	values map[providers.TranslationKey]string
}

func newMemoryTranslationCache() *memoryTranslationCache {
	return &memoryTranslationCache{values: map[providers.TranslationKey]string{}}
}

func (c *memoryTranslationCache) Get(_ context.Context, key providers.TranslationKey) (string, bool, error) {
	v, ok := c.values[key]
	return v, ok, nil
}

func (c *memoryTranslationCache) Put(_ context.Context, key providers.TranslationKey, value string) error {
	c.values[key] = value
	return nil
}

func listing(id int64, price int64) *entities.Listing {
	l := &entities.Listing{ID: id, Source: "kaidee", Title: "car", Attributes: entities.Attributes{}}
	if price >= 0 {
		l.Price = entities.Int64Ptr(price)
	}
	return l
}
