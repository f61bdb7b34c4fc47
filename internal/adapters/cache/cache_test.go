package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bookjiradech/CARCOM/internal/domain/providers"
)

func TestMemoryAdapter_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemoryAdapter()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "a", []byte("1"), 10))
	require.NoError(t, m.Set(ctx, "forever", []byte("2"), 0))

	got, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)

	now = now.Add(10 * time.Second)
	_, err = m.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)

	ok, err := m.Exists(ctx, "forever")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, m.Delete(ctx, "forever"))
	ok, _ = m.Exists(ctx, "forever")
	assert.False(t, ok)
}

func TestTranslationCacheKey(t *testing.T) {
	k := providers.TranslationKey{Input: "ขาว", Backend: "gpt-4o-mini", Source: "th", Target: "en"}

	assert.Equal(t, TranslationCacheKey(k), TranslationCacheKey(k))
	assert.Len(t, TranslationCacheKey(k), len("tr:")+64)

	other := k
	other.Target = "ja"
	assert.NotEqual(t, TranslationCacheKey(k), TranslationCacheKey(other))
}

func TestTranslationCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewTranslationCache(NewMemoryAdapter(), time.Hour, nil)
	k := providers.TranslationKey{Input: "เทา", Backend: "openai", Source: "th", Target: "en"}

	_, found, err := c.Get(ctx, k)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Put(ctx, k, "Gray"))
	v, found, err := c.Get(ctx, k)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Gray", v)
}
