package entities

import (
	"math"
	"strings"
	"time"
)

// Allotment statuses
const (
	AllotmentStatusActive  = "active"
	AllotmentStatusExpired = "expired"
)

// CreditAllotment is a block of search credits granted to a user by a package
type CreditAllotment struct {
	ID        int64      `json:"id" db:"id"`
	UserID    int64      `json:"user_id" db:"user_id"`
	PackageID int64      `json:"package_id" db:"package_id"`
	Remaining int        `json:"remaining" db:"remaining"`
	Status    string     `json:"status" db:"status"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// Usable reports whether the allotment can pay for a search at now
func (a *CreditAllotment) Usable(now time.Time) bool {
	if a == nil || a.Status != AllotmentStatusActive || a.Remaining <= 0 {
		return false
	}
	return a.ExpiresAt == nil || a.ExpiresAt.After(now)
}

// Promotion is a percentage discount attached to a package
type Promotion struct {
	Code            string     `json:"code"`
	DiscountPercent int        `json:"discount_percent"`
	Status          string     `json:"status"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
}

// ActiveAt reports whether the promotion applies on the calendar day of now
func (p *Promotion) ActiveAt(now time.Time) bool {
	if p == nil || !strings.EqualFold(p.Status, "active") {
		return false
	}
	day := truncateDay(now)
	if p.StartDate != nil && day.Before(truncateDay(*p.StartDate)) {
		return false
	}
	if p.EndDate != nil && day.After(truncateDay(*p.EndDate)) {
		return false
	}
	return true
}

// Package is a purchasable bundle of search credits
type Package struct {
	ID           int64      `json:"id" db:"id"`
	Code         string     `json:"code" db:"code"`
	Name         string     `json:"name" db:"name"`
	BasePrice    float64    `json:"base_price" db:"base_price"`
	Credits      int        `json:"credits" db:"credits"`
	DurationDays *int       `json:"duration_days,omitempty" db:"duration_days"`
	Promotion    *Promotion `json:"promotion,omitempty" db:"-"`
}

// IsTrial reports whether this is a trial package. Trial status depends on
// the base price only; a 100% promotion does not make a package a trial.
func (p *Package) IsTrial() bool {
	return p.BasePrice <= 0
}

// EffectivePrice applies an active promotion, rounded to satang and never negative
func (p *Package) EffectivePrice(now time.Time) float64 {
	base := p.BasePrice
	if p.Promotion == nil || !p.Promotion.ActiveAt(now) || p.Promotion.DiscountPercent <= 0 {
		return base
	}
	eff := math.Round(base*float64(100-p.Promotion.DiscountPercent)) / 100
	if eff < 0 {
		return 0
	}
	return eff
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
