package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Bookjiradech/CARCOM/internal/application/services"
	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
	"github.com/Bookjiradech/CARCOM/internal/domain/providers"
)

func TestTranslationService_EnrichUsesCacheAndSkipsNumbers(t *testing.T) {
	ctx := context.Background()
	cache := newMemoryTranslationCache()
	require.NoError(t, cache.Put(ctx, providers.TranslationKey{Input: "ขาว", Backend: "test", Source: "th", Target: "en"}, "white"))

	svc := services.NewTranslationService(echoTranslator{suffix: " (en)"}, cache, "test", "th", "en")

	attrs := entities.Attributes{
		"สี":       "ขาว",
		"ประเภทรถ": "รถเก๋ง",
		"จังหวัด":  "นนทบุรี",
		"ราคา":     "289,000 บาท",
		"ยี่ห้อ":   "Toyota",
	}
	out := svc.Enrich(ctx, attrs)
	en := out.Nested("_en")
	require.NotNil(t, en)

	assert.Equal(t, "white", en.String("color"), "served from cache")
	assert.Equal(t, "รถเก๋ง (en)", en.String("body_type"))
	assert.Equal(t, "นนทบุรี (en)", en.String("province"))
	assert.Equal(t, "Toyota", en.String("brand"), "latin text is copied")
	assert.Empty(t, en.String("price"), "price is not an english field")
	assert.Nil(t, attrs["_en"], "input is not modified")

	v, ok, err := cache.Get(ctx, providers.TranslationKey{Input: "รถเก๋ง", Backend: "test", Source: "th", Target: "en"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "รถเก๋ง (en)", v)
}

func TestTranslationService_KeepsExistingEnglish(t *testing.T) {
	tr := new(MockTranslator)
	svc := services.NewTranslationService(tr, nil, "test", "", "")

	out := svc.Enrich(context.Background(), entities.Attributes{
		"สี":  "ขาว",
		"_en": map[string]any{"color": "Pearl White"},
	})
	assert.Equal(t, "Pearl White", out.Nested("_en").String("color"))
	tr.AssertNotCalled(t, "Translate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTranslationService_FailureKeepsOriginal(t *testing.T) {
	ctx := context.Background()
	tr := new(MockTranslator)
	tr.On("Translate", ctx, []string{"ดำ"}, "th", "en").Return(nil, errors.New("quota"))
	cache := newMemoryTranslationCache()
	svc := services.NewTranslationService(tr, cache, "test", "th", "en")

	out := svc.Enrich(ctx, entities.Attributes{"สี": "ดำ"})
	assert.Equal(t, "ดำ", out.Nested("_en").String("color"))
	assert.Empty(t, cache.values, "failed translations are not cached")
}

func TestTranslationService_EnrichPartialSeedsFromColumns(t *testing.T) {
	ctx := context.Background()
	svc := services.NewTranslationService(echoTranslator{suffix: "!"}, nil, "test", "th", "en")

	p := &entities.PartialListing{Title: "ฮอนด้า ซีวิค", Brand: "Honda", Province: "Chiang Mai"}
	svc.EnrichPartial(ctx, p)

	en := p.Attributes.Nested("_en")
	assert.Equal(t, "ฮอนด้า ซีวิค!", en.String("title"))
	assert.Equal(t, "Honda", en.String("brand"))
	assert.Equal(t, "Chiang Mai", en.String("province"))
}

// echoTranslator answers each text with itself plus a suffix
type echoTranslator struct {
	suffix string
}

func (e echoTranslator) Translate(_ context.Context, texts []string, _, _ string) ([]string, error) {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = t + e.suffix
	}
	return out, nil
}
