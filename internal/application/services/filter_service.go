package services

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
	"github.com/Bookjiradech/CARCOM/pkg/normalizer"
)

// FilterService evaluates search predicates against stored listings. It has
// no dependencies and no side effects.
type FilterService struct{}

// NewFilterService creates a new filter service
func NewFilterService() *FilterService {
	return &FilterService{}
}

// lookup keys per categorical axis, top level first
var (
	bodyTypeKeys = []string{normalizer.KeyBodyType, normalizer.KeyBodyShell, normalizer.KeyBodyShape}
	fuelKeys     = []string{normalizer.KeyFuel, normalizer.KeyOilType}
	gearKeys     = []string{normalizer.KeyGear, normalizer.KeyGearSystem}
	colorKeys    = []string{normalizer.KeyColor}
)

var yearTokenRe = regexp.MustCompile(`(19\d{2}|20\d{2}|2100)`)

// Apply returns the listings that satisfy every predicate in params, in
// their original order.
func (s *FilterService) Apply(listings []*entities.Listing, params entities.FilterParams) []*entities.Listing {
	out := make([]*entities.Listing, 0, len(listings))
	for _, l := range listings {
		if s.Match(l, params) {
			out = append(out, l)
		}
	}
	return out
}

// Match reports whether one listing satisfies params
func (s *FilterService) Match(l *entities.Listing, params entities.FilterParams) bool {
	if l == nil {
		return false
	}
	if !MatchBudget(l, params.MaxBudget) {
		return false
	}
	if !MatchYear(l, params.MinYear, params.MaxYear) {
		return false
	}

	attrs := l.Attributes
	specs := attrs.Nested(normalizer.KeySpecs)
	return matchCategorical(params.BodyType, normalizer.KindBodyType, categoricalValue(attrs, specs, bodyTypeKeys, "body_type")) &&
		matchCategorical(params.FuelType, normalizer.KindFuel, categoricalValue(attrs, specs, fuelKeys, "fuel")) &&
		matchCategorical(params.GearType, normalizer.KindTransmission, categoricalValue(attrs, specs, gearKeys, "gear")) &&
		matchCategorical(params.Color, normalizer.KindColor, categoricalValue(attrs, specs, colorKeys, "color"))
}

// MatchBudget excludes listings with an unknown price once a ceiling is set
func MatchBudget(l *entities.Listing, ceiling int64) bool {
	if ceiling <= 0 {
		return true
	}
	price, ok := l.PriceValue()
	return ok && price <= ceiling
}

// MatchYear applies the year range. Reversed bounds are swapped, and a
// listing with no known year fails whenever either bound is set.
func MatchYear(l *entities.Listing, minYear, maxYear int) bool {
	p := entities.FilterParams{MinYear: minYear, MaxYear: maxYear}
	if !p.HasYearBound() {
		return true
	}
	lo, hi := p.YearBounds()

	year, ok := ListingYear(l)
	if !ok {
		return false
	}
	if lo != 0 && year < lo {
		return false
	}
	if hi != 0 && year > hi {
		return false
	}
	return true
}

// ListingYear returns the model year from the column, then the attribute
// bag, then the registration year in the specs table.
func ListingYear(l *entities.Listing) (int, bool) {
	if l == nil {
		return 0, false
	}
	if l.Year != nil && entities.PlausibleYear(*l.Year) {
		return *l.Year, true
	}
	for _, k := range []string{normalizer.KeyYear, normalizer.KeyYearShort, "year", normalizer.KeyYearMade} {
		if y, ok := yearFromText(l.Attributes.String(k)); ok {
			return y, true
		}
	}
	specs := l.Attributes.Nested(normalizer.KeySpecs)
	return yearFromText(specs.String(normalizer.KeyRegistered))
}

func yearFromText(s string) (int, bool) {
	m := yearTokenRe.FindString(s)
	if m == "" {
		return 0, false
	}
	y, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return y, true
}

func categoricalValue(attrs, specs entities.Attributes, keys []string, alias string) string {
	if v := attrs.FirstString(keys...); v != "" {
		return v
	}
	if v := specs.FirstString(keys...); v != "" {
		return v
	}
	return attrs.String(alias)
}

// matchCategorical is case-insensitive substring containment. An empty
// request matches everything, and so does an unknown stored value.
func matchCategorical(requested string, kind normalizer.Kind, stored string) bool {
	want := strings.ToLower(strings.TrimSpace(requested))
	if want == "" {
		return true
	}
	have := strings.ToLower(strings.TrimSpace(stored))
	if have == "" {
		return true
	}
	if strings.Contains(have, want) {
		return true
	}
	if canonical, ok := normalizer.Normalize(kind, requested); ok {
		return strings.Contains(have, strings.ToLower(canonical))
	}
	return false
}
