// Package normalizer maps free-text Thai (and English) listing values to a
// small set of canonical English labels.
package normalizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Kind selects the lookup table used by Normalize
type Kind string

const (
	KindColor        Kind = "color"
	KindFuel         Kind = "fuel_type"
	KindTransmission Kind = "transmission"
	KindBodyType     Kind = "body_type"
	KindProvince     Kind = "province"
)

var folder = cases.Fold()

// Normalize returns the canonical label for raw and whether one was found.
// Matching is substring containment over whitespace-stripped, case-folded
// text. Short Latin tokens such as "at" or "ev" must stand alone.
func Normalize(kind Kind, raw string) (string, bool) {
	if strings.TrimSpace(raw) == "" {
		return "", false
	}
	switch kind {
	case KindColor:
		return lookup(colorTable, raw)
	case KindFuel:
		return lookup(fuelTable, raw)
	case KindTransmission:
		return lookup(transmissionTable, raw)
	case KindBodyType:
		return NormalizeBodyType(raw)
	case KindProvince:
		en, _ := NormalizeProvince(raw)
		return en, en != ""
	}
	return "", false
}

// Resolve returns the canonical label for raw, or raw unchanged (trimmed)
// when no table entry matches.
func Resolve(kind Kind, raw string) string {
	if canonical, ok := Normalize(kind, raw); ok {
		return canonical
	}
	return strings.TrimSpace(raw)
}

// ResolveWithFallback behaves like Resolve, but when raw does not match it
// looks for a "<label>: <value>" pair in blob and normalizes that instead.
func ResolveWithFallback(kind Kind, raw, blob string, labels ...string) string {
	if canonical, ok := Normalize(kind, raw); ok {
		return canonical
	}
	if found := ExtractLabeled(blob, labels...); found != "" {
		if canonical, ok := Normalize(kind, found); ok {
			return canonical
		}
		if strings.TrimSpace(raw) == "" {
			return found
		}
	}
	return strings.TrimSpace(raw)
}

func lookup(table []entry, raw string) (string, bool) {
	folded := fold(raw)
	var tokens map[string]bool
	for _, e := range table {
		if isShortLatin(e.phrase) {
			if tokens == nil {
				tokens = latinTokens(raw)
			}
			if tokens[e.phrase] {
				return e.canonical, true
			}
			continue
		}
		if strings.Contains(folded, e.phrase) {
			return e.canonical, true
		}
	}
	return "", false
}

// fold composes, case-folds and strips all whitespace from s.
func fold(s string) string {
	s = folder.String(norm.NFC.String(s))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func isShortLatin(phrase string) bool {
	if len(phrase) > 4 {
		return false
	}
	for _, r := range phrase {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return false
		}
	}
	return true
}

// latinTokens splits s into lower-cased runs of ASCII letters and digits.
func latinTokens(s string) map[string]bool {
	out := map[string]bool{}
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			out[b.String()] = true
			b.Reset()
		}
	}
	for _, r := range folder.String(s) {
		if r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return out
}
