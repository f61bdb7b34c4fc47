package normalizer

import "strings"

// NormalizeProvince finds a province inside a free-text location such as
// "บางกรวย นนทบุรี". It returns the English name and the official Thai name,
// or two empty strings when no province is recognised.
func NormalizeProvince(location string) (string, string) {
	if strings.TrimSpace(location) == "" {
		return "", ""
	}
	en, ok := lookup(provinceTable, location)
	if !ok {
		return "", ""
	}
	return en, provinceThai[en]
}

// ProvinceThai returns the official Thai name for an English province name
func ProvinceThai(en string) string {
	return provinceThai[en]
}

// LooksLikeProvince reports whether text mentions any known province
func LooksLikeProvince(text string) bool {
	en, _ := NormalizeProvince(text)
	return en != ""
}
