package entities

import (
	"fmt"
	"strings"
	"time"
)

// Attributes is the open attribute bag kept alongside the canonical columns.
// Values are strings or, one level down, a nested map[string]any (e.g. a
// specs table). Nested bags are always stored as plain maps so they look the
// same before and after a JSON round trip.
type Attributes map[string]any

// Listing is one cached used-car listing, unique by SourceURL.
type Listing struct {
	ID         int64      `json:"id" db:"id"`
	Source     string     `json:"source" db:"source"`
	SourceURL  string     `json:"source_url" db:"source_url"`
	SourceID   string     `json:"source_id,omitempty" db:"source_id"`
	Title      string     `json:"title" db:"title"`
	Brand      string     `json:"brand,omitempty" db:"brand"`
	Model      string     `json:"model,omitempty" db:"model"`
	Year       *int       `json:"year,omitempty" db:"year"`
	Price      *int64     `json:"price,omitempty" db:"price"`
	Mileage    *int64     `json:"mileage_km,omitempty" db:"mileage_km"`
	Province   string     `json:"province,omitempty" db:"province"`
	ImageURL   string     `json:"image_url,omitempty" db:"image_url"`
	Attributes Attributes `json:"attributes" db:"attrs"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// PartialListing is what a source extractor could determine about a listing.
// Unknown scalar fields are left empty or nil.
type PartialListing struct {
	Source     string
	SourceURL  string
	SourceID   string
	Title      string
	Brand      string
	Model      string
	Year       *int
	Price      *int64
	Mileage    *int64
	Province   string
	ImageURL   string
	Attributes Attributes
}

// Validate checks the fields the store needs to key a listing
func (p *PartialListing) Validate() error {
	if p == nil {
		return fmt.Errorf("listing is nil")
	}
	if strings.TrimSpace(p.Source) == "" {
		return fmt.Errorf("listing source is required")
	}
	if strings.TrimSpace(p.SourceURL) == "" {
		return fmt.Errorf("listing source_url is required")
	}
	if p.Price != nil && *p.Price < 0 {
		return fmt.Errorf("listing price must not be negative")
	}
	return nil
}

// DisplayTitle falls back to brand and model when no title was extracted.
func (p *PartialListing) DisplayTitle() string {
	if t := strings.TrimSpace(p.Title); t != "" {
		return t
	}
	return strings.TrimSpace(p.Brand + " " + p.Model)
}

// NewListing builds a listing row from a first extraction
func NewListing(p *PartialListing, now time.Time) *Listing {
	attrs := p.Attributes.Clone()
	if attrs == nil {
		attrs = Attributes{}
	}
	return &Listing{
		Source:     p.Source,
		SourceURL:  p.SourceURL,
		SourceID:   p.SourceID,
		Title:      p.DisplayTitle(),
		Brand:      p.Brand,
		Model:      p.Model,
		Year:       p.Year,
		Price:      p.Price,
		Mileage:    p.Mileage,
		Province:   p.Province,
		ImageURL:   p.ImageURL,
		Attributes: attrs,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Apply merges a later extraction of the same URL into l. Scalars are only
// overwritten by non-empty values; the attribute bag is merged key-wise.
func (l *Listing) Apply(p *PartialListing, now time.Time) {
	setString := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	setString(&l.SourceID, p.SourceID)
	setString(&l.Title, p.DisplayTitle())
	setString(&l.Brand, p.Brand)
	setString(&l.Model, p.Model)
	setString(&l.Province, p.Province)
	setString(&l.ImageURL, p.ImageURL)
	if p.Year != nil {
		l.Year = p.Year
	}
	if p.Price != nil {
		l.Price = p.Price
	}
	if p.Mileage != nil {
		l.Mileage = p.Mileage
	}
	l.Attributes = l.Attributes.Merge(p.Attributes)
	l.UpdatedAt = now
}

// PriceValue returns the price and whether it is known.
func (l *Listing) PriceValue() (int64, bool) {
	if l == nil || l.Price == nil {
		return 0, false
	}
	return *l.Price, true
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 { return &v }

// String returns the trimmed string stored under key, or "".
func (a Attributes) String(key string) string {
	if a == nil {
		return ""
	}
	switch v := a[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	case nil:
		return ""
	case Attributes, map[string]any:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// FirstString returns the first non-empty value among keys.
func (a Attributes) FirstString(keys ...string) string {
	for _, k := range keys {
		if v := a.String(k); v != "" {
			return v
		}
	}
	return ""
}

// Nested returns the nested bag stored under key, or nil.
func (a Attributes) Nested(key string) Attributes {
	if a == nil {
		return nil
	}
	switch v := a[key].(type) {
	case Attributes:
		return v
	case map[string]any:
		return Attributes(v)
	case map[string]string:
		out := make(Attributes, len(v))
		for k, s := range v {
			out[k] = s
		}
		return out
	}
	return nil
}

// Clone returns a copy deep enough that nested bags can be modified safely.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		if nested := a.Nested(k); nested != nil {
			out[k] = map[string]any(nested.Clone())
			continue
		}
		out[k] = v
	}
	return out
}

// Merge returns the key-wise union of a and newer, with newer winning on
// collisions. Nested bags present on both sides are merged the same way.
func (a Attributes) Merge(newer Attributes) Attributes {
	out := a.Clone()
	if out == nil {
		out = Attributes{}
	}
	for k, v := range newer {
		oldNested, newNested := out.Nested(k), newer.Nested(k)
		if oldNested != nil && newNested != nil {
			out[k] = map[string]any(oldNested.Merge(newNested))
			continue
		}
		if newNested != nil {
			out[k] = map[string]any(newNested.Clone())
			continue
		}
		out[k] = v
	}
	return out
}
