package entities

import (
	"fmt"
	"time"
)

// Allowed values for FilterParams.TotalLimit.
var AllowedTotalLimits = []int{20, 30, 40, 50}

const (
	// DefaultTotalLimit is used when a request does not name a result count
	DefaultTotalLimit = 20

	MinPlausibleYear = 1900
	MaxPlausibleYear = 2100
)

// SessionStatus is the lifecycle state of a search session
type SessionStatus string

const (
	SessionStatusDone      SessionStatus = "done"
	SessionStatusRefreshed SessionStatus = "refreshed"
)

// UserProfile carries the free-form preferences forwarded to the selector.
type UserProfile struct {
	Salary         string `json:"salary,omitempty"`
	Gender         string `json:"gender,omitempty"`
	MaritalStatus  string `json:"marital_status,omitempty"`
	Occupation     string `json:"occupation,omitempty"`
	EducationLevel string `json:"education_level,omitempty"`
	Purpose        string `json:"purpose,omitempty"`
	OtherPrefs     string `json:"other_prefs,omitempty"`
}

// FilterParams is the structured query of one search.
// Zero values mean "not set".
type FilterParams struct {
	Query          string      `json:"q"`
	MaxBudget      int64       `json:"max_budget"`
	MinYear        int         `json:"min_year,omitempty"`
	MaxYear        int         `json:"max_year,omitempty"`
	BodyType       string      `json:"car_type,omitempty"`
	FuelType       string      `json:"fuel_type,omitempty"`
	GearType       string      `json:"gear_type,omitempty"`
	Color          string      `json:"color,omitempty"`
	TotalLimit     int         `json:"total_limit"`
	Sources        []string    `json:"sources,omitempty"`
	PerSourceLimit int         `json:"per_source_limit,omitempty"`
	Profile        UserProfile `json:"profile"`
}

// Validate checks a user-submitted search request. An unset TotalLimit is
// defaulted; reversed year bounds are accepted and swapped.
func (p *FilterParams) Validate() error {
	if p.TotalLimit == 0 {
		p.TotalLimit = DefaultTotalLimit
	}
	allowed := false
	for _, n := range AllowedTotalLimits {
		if p.TotalLimit == n {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("total_limit must be one of %v", AllowedTotalLimits)
	}
	if p.MaxBudget <= 0 {
		return fmt.Errorf("max_budget must be a positive number")
	}
	if p.MinYear != 0 && !PlausibleYear(p.MinYear) {
		return fmt.Errorf("min_year must be between %d and %d", MinPlausibleYear, MaxPlausibleYear)
	}
	if p.MaxYear != 0 && !PlausibleYear(p.MaxYear) {
		return fmt.Errorf("max_year must be between %d and %d", MinPlausibleYear, MaxPlausibleYear)
	}
	p.MinYear, p.MaxYear = p.YearBounds()
	return nil
}

// YearBounds returns the year range with min and max swapped when reversed.
func (p FilterParams) YearBounds() (int, int) {
	lo, hi := p.MinYear, p.MaxYear
	if lo != 0 && hi != 0 && lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

// HasYearBound reports whether either year bound is set
func (p FilterParams) HasYearBound() bool {
	return p.MinYear != 0 || p.MaxYear != 0
}

// PlausibleYear reports whether y is inside the accepted model-year range
func PlausibleYear(y int) bool {
	return y >= MinPlausibleYear && y <= MaxPlausibleYear
}

// SearchSession is one user search invocation and its persisted result set
type SearchSession struct {
	ID        string        `json:"id" db:"id"`
	UserID    int64         `json:"user_id" db:"user_id"`
	Params    FilterParams  `json:"params" db:"params"`
	Status    SessionStatus `json:"status" db:"status"`
	Excluded  []int64       `json:"excluded,omitempty" db:"excluded"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}

// SessionResult places one listing at a rank within a session
type SessionResult struct {
	SessionID string `json:"session_id" db:"session_id"`
	ListingID int64  `json:"listing_id" db:"listing_id"`
	Rank      int    `json:"rank" db:"rank"`
}

// RankedListing is a session result joined with its listing
type RankedListing struct {
	Rank    int      `json:"rank"`
	Listing *Listing `json:"listing"`
}

// SortKey names a client-side ordering of session results
type SortKey string

const (
	SortNone        SortKey = ""
	SortPriceAsc    SortKey = "price_asc"
	SortPriceDesc   SortKey = "price_desc"
	SortYearAsc     SortKey = "year_asc"
	SortYearDesc    SortKey = "year_desc"
	SortMileageAsc  SortKey = "mileage_asc"
	SortMileageDesc SortKey = "mileage_desc"
	SortBrandAZ     SortKey = "brand_az"
	SortBrandZA     SortKey = "brand_za"
	SortSource      SortKey = "source"
)
