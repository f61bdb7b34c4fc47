package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
	"github.com/Bookjiradech/CARCOM/internal/domain/providers"
	"github.com/Bookjiradech/CARCOM/internal/domain/repositories"
	"github.com/Bookjiradech/CARCOM/internal/infrastructure/observability"
)

// Packages change rarely; balances are never cached.
const packageTTL = 300

func packageCacheKey(id int64) string {
	return fmt.Sprintf("package:%d", id)
}

// CachedCreditAdapter wraps a CreditRepository and caches package lookups
type CachedCreditAdapter struct {
	repositories.CreditRepository
	cache   providers.CacheProvider
	metrics *observability.Metrics
}

// NewCachedCreditAdapter creates a new cached credit adapter
func NewCachedCreditAdapter(adapter repositories.CreditRepository, cache providers.CacheProvider, metrics *observability.Metrics) repositories.CreditRepository {
	return &CachedCreditAdapter{CreditRepository: adapter, cache: cache, metrics: metrics}
}

// GetPackage retrieves a package, serving it from cache when possible
func (a *CachedCreditAdapter) GetPackage(ctx context.Context, id int64) (*entities.Package, error) {
	key := packageCacheKey(id)

	if cached, err := a.cache.Get(ctx, key); err == nil {
		var p entities.Package
		err = json.Unmarshal(cached, &p)
		if err == nil {
			observability.RecordCacheHit(ctx, a.metrics, "package")
			return &p, nil
		}
		log.Warn().Err(err).Int64("package_id", id).Msg("Failed to decode cached package")
	}
	observability.RecordCacheMiss(ctx, a.metrics, "package")

	p, err := a.CreditRepository.GetPackage(ctx, id)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(p); err == nil {
		if err := a.cache.Set(ctx, key, data, packageTTL); err != nil {
			log.Warn().Err(err).Int64("package_id", id).Msg("Failed to cache package")
		}
	}
	return p, nil
}

// SavePackage writes through and drops the cached copy
func (a *CachedCreditAdapter) SavePackage(ctx context.Context, p *entities.Package) error {
	if err := a.CreditRepository.SavePackage(ctx, p); err != nil {
		return err
	}
	if err := a.cache.Delete(ctx, packageCacheKey(p.ID)); err != nil {
		log.Warn().Err(err).Int64("package_id", p.ID).Msg("Failed to invalidate cached package")
	}
	return nil
}
