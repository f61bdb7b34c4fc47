package providers

import (
	"context"
)

// TranslationProvider translates short attribute values between languages
type TranslationProvider interface {
	// Translate returns one translation per input, in order
	Translate(ctx context.Context, texts []string, source, target string) ([]string, error)
}

// TranslationKey identifies one memoized translation
type TranslationKey struct {
	Input   string
	Backend string
	Source  string
	Target  string
}

// TranslationCache memoizes translations so repeated attribute values do not
// reach the translation service again
type TranslationCache interface {
	// Get returns the cached translation and whether one was found
	Get(ctx context.Context, key TranslationKey) (string, bool, error)

	// Put stores a translation
	Put(ctx context.Context, key TranslationKey, value string) error
}
