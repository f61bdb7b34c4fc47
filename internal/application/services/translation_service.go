package services

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"

	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
	"github.com/Bookjiradech/CARCOM/internal/domain/providers"
	"github.com/Bookjiradech/CARCOM/pkg/normalizer"
)

// EnglishFields are the fields given an English rendering under the "_en" bag
var EnglishFields = []string{"title", "brand", "model", "submodel", "province", "color", "fuel", "gear", "body_type"}

var numberishRe = regexp.MustCompile(`^[0-9,.\s]+(?:฿|บาท)?$`)

// TranslationService fills the "_en" bag of a listing's attributes
type TranslationService struct {
	provider providers.TranslationProvider
	cache    providers.TranslationCache
	backend  string
	source   string
	target   string
}

// NewTranslationService creates a translation service. cache may be nil.
func NewTranslationService(
	provider providers.TranslationProvider,
	cache providers.TranslationCache,
	backend, source, target string,
) *TranslationService {
	if source == "" {
		source = "th"
	}
	if target == "" {
		target = "en"
	}
	return &TranslationService{
		provider: provider,
		cache:    cache,
		backend:  backend,
		source:   source,
		target:   target,
	}
}

// EnrichPartial enriches a fresh extraction, reading title, brand, model and
// province from the scalar fields when the attribute bag lacks them.
func (s *TranslationService) EnrichPartial(ctx context.Context, p *entities.PartialListing) {
	seed := map[string]string{
		"title":    p.Title,
		"brand":    p.Brand,
		"model":    p.Model,
		"province": p.Province,
	}
	p.Attributes = s.enrich(ctx, p.Attributes, seed)
}

// Enrich returns a copy of attrs with English values for EnglishFields.
// Values already present under "_en" are kept. A failed translation leaves
// the original text in place.
func (s *TranslationService) Enrich(ctx context.Context, attrs entities.Attributes) entities.Attributes {
	return s.enrich(ctx, attrs, nil)
}

func (s *TranslationService) enrich(ctx context.Context, attrs entities.Attributes, seed map[string]string) entities.Attributes {
	out := attrs.Clone()
	if out == nil {
		out = entities.Attributes{}
	}
	en := out.Nested(normalizer.KeyEnglishBlock).Clone()
	if en == nil {
		en = entities.Attributes{}
	}

	sourceText := fieldSources(out, seed)
	pending := map[string][]string{}
	for _, field := range EnglishFields {
		if en.String(field) != "" {
			continue
		}
		text := strings.TrimSpace(sourceText[field])
		if text == "" {
			continue
		}
		if !needsTranslation(text) {
			en[field] = text
			continue
		}
		if cached, ok := s.cached(ctx, text); ok {
			en[field] = cached
			continue
		}
		pending[text] = append(pending[text], field)
	}

	if len(pending) > 0 {
		translated := s.translate(ctx, pending)
		for text, fields := range pending {
			for _, field := range fields {
				en[field] = translated[text]
			}
		}
	}

	if len(en) > 0 {
		out[normalizer.KeyEnglishBlock] = map[string]any(en)
	}
	return out
}

// fieldSources maps each English field to its source text: an existing
// English alias first, then a Thai key, then the seed.
func fieldSources(attrs entities.Attributes, seed map[string]string) map[string]string {
	out := make(map[string]string, len(EnglishFields))
	for k := range attrs {
		field, ok := normalizer.CanonicalKey(k)
		if !ok || out[field] != "" {
			continue
		}
		out[field] = attrs.String(k)
	}
	for _, field := range EnglishFields {
		if v := attrs.String(field); v != "" {
			out[field] = v
		}
		if out[field] == "" && seed != nil {
			out[field] = seed[field]
		}
	}
	return out
}

func (s *TranslationService) cached(ctx context.Context, text string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	value, ok, err := s.cache.Get(ctx, s.key(text))
	if err != nil {
		log.Warn().Err(err).Msg("translation cache read failed")
		return "", false
	}
	return value, ok
}

// translate sends every pending text in one request. On failure each text
// maps to itself and nothing is cached.
func (s *TranslationService) translate(ctx context.Context, pending map[string][]string) map[string]string {
	texts := make([]string, 0, len(pending))
	for text := range pending {
		texts = append(texts, text)
	}
	out := make(map[string]string, len(texts))
	for _, t := range texts {
		out[t] = t
	}
	if s.provider == nil {
		return out
	}

	translated, err := s.provider.Translate(ctx, texts, s.source, s.target)
	if err != nil || len(translated) != len(texts) {
		log.Warn().Err(err).Int("texts", len(texts)).Msg("translation failed, keeping original text")
		return out
	}

	for i, t := range texts {
		value := strings.TrimSpace(translated[i])
		if value == "" {
			continue
		}
		out[t] = value
		if s.cache != nil {
			if err := s.cache.Put(ctx, s.key(t), value); err != nil {
				log.Warn().Err(err).Msg("translation cache write failed")
			}
		}
	}
	return out
}

func (s *TranslationService) key(text string) providers.TranslationKey {
	return providers.TranslationKey{
		Input:   text,
		Backend: s.backend,
		Source:  s.source,
		Target:  s.target,
	}
}

// needsTranslation is false for numbers, prices and text with no letters
// outside ASCII
func needsTranslation(text string) bool {
	if numberishRe.MatchString(text) {
		return false
	}
	for _, r := range text {
		if r > unicode.MaxASCII && unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
