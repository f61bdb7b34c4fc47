package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/Bookjiradech/CARCOM/internal/domain/providers"
	"github.com/Bookjiradech/CARCOM/internal/infrastructure/observability"
)

const translationCacheName = "translation"

// TranslationCache stores translations in any CacheProvider under a hash of
// the input, backend and language pair
type TranslationCache struct {
	store   providers.CacheProvider
	ttl     time.Duration
	metrics *observability.Metrics
}

// NewTranslationCache creates a translation cache over store. A zero ttl keeps entries forever.
func NewTranslationCache(store providers.CacheProvider, ttl time.Duration, metrics *observability.Metrics) *TranslationCache {
	return &TranslationCache{store: store, ttl: ttl, metrics: metrics}
}

// TranslationCacheKey returns the storage key for k
func TranslationCacheKey(k providers.TranslationKey) string {
	sum := sha256.Sum256([]byte(k.Input + "|" + k.Backend + "|" + k.Source + "|" + k.Target))
	return "tr:" + hex.EncodeToString(sum[:])
}

func (c *TranslationCache) Get(ctx context.Context, key providers.TranslationKey) (string, bool, error) {
	data, err := c.store.Get(ctx, TranslationCacheKey(key))
	if errors.Is(err, ErrCacheMiss) {
		observability.RecordCacheMiss(ctx, c.metrics, translationCacheName)
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	observability.RecordCacheHit(ctx, c.metrics, translationCacheName)
	return string(data), true, nil
}

func (c *TranslationCache) Put(ctx context.Context, key providers.TranslationKey, value string) error {
	return c.store.Set(ctx, TranslationCacheKey(key), []byte(value), int(c.ttl/time.Second))
}

var _ providers.TranslationCache = (*TranslationCache)(nil)
