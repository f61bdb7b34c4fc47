package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Bookjiradech/CARCOM/internal/application/services"
	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
)

func withYear(l *entities.Listing, y int) *entities.Listing {
	l.Year = entities.IntPtr(y)
	return l
}

func TestFilterService_Budget(t *testing.T) {
	f := services.NewFilterService()
	params := entities.FilterParams{MaxBudget: 250}

	got := f.Apply([]*entities.Listing{listing(1, 100), listing(2, 300), listing(3, -1), listing(4, 250)}, params)

	ids := make([]int64, 0, len(got))
	for _, l := range got {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []int64{1, 4}, ids, "unknown price is excluded once a ceiling is set")
}

func TestFilterService_YearRange(t *testing.T) {
	f := services.NewFilterService()
	unknown := listing(1, 100)
	old := withYear(listing(2, 100), 2012)
	mid := withYear(listing(3, 100), 2017)
	fromAttrs := listing(4, 100)
	fromAttrs.Attributes["ปีรถ"] = "ปี 2016 (จดทะเบียน 2017)"
	fromSpecs := listing(5, 100)
	fromSpecs.Attributes["สเปกย่อย"] = map[string]any{"ปีจดทะเบียน": "2019"}
	all := []*entities.Listing{unknown, old, mid, fromAttrs, fromSpecs}

	tests := []struct {
		name    string
		minYear int
		maxYear int
		want    []int64
	}{
		{"no bound keeps unknown year", 0, 0, []int64{1, 2, 3, 4, 5}},
		{"min only", 2015, 0, []int64{3, 4, 5}},
		{"max only", 0, 2016, []int64{2, 4}},
		{"both", 2015, 2018, []int64{3, 4}},
		{"reversed bounds are swapped", 2018, 2015, []int64{3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.Apply(all, entities.FilterParams{MinYear: tt.minYear, MaxYear: tt.maxYear})
			ids := make([]int64, 0, len(got))
			for _, l := range got {
				ids = append(ids, l.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFilterService_Categorical(t *testing.T) {
	f := services.NewFilterService()

	sedan := listing(1, 100)
	sedan.Attributes["ประเภทรถ"] = "Sedan 4 doors"
	sedan.Attributes["เชื้อเพลิง"] = "Benzine"
	sedan.Attributes["เกียร์"] = "Automatic"
	sedan.Attributes["สี"] = "White"

	pickup := listing(2, 100)
	pickup.Attributes["สเปกย่อย"] = map[string]any{"ประเภทรถ": "Pickup", "เชื้อเพลิง": "Diesel"}
	pickup.Attributes["สี"] = "Black"

	unknown := listing(3, 100)

	tests := []struct {
		name   string
		params entities.FilterParams
		want   []int64
	}{
		{"empty request keeps all", entities.FilterParams{}, []int64{1, 2, 3}},
		{"case-insensitive substring", entities.FilterParams{BodyType: "sedan"}, []int64{1, 3}},
		{"specs table is read", entities.FilterParams{FuelType: "DIESEL"}, []int64{2, 3}},
		{"thai request resolves to canonical", entities.FilterParams{Color: "ขาว"}, []int64{1, 3}},
		{"non-matching known value excludes", entities.FilterParams{GearType: "manual"}, []int64{2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.Apply([]*entities.Listing{sedan, pickup, unknown}, tt.params)
			ids := make([]int64, 0, len(got))
			for _, l := range got {
				ids = append(ids, l.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestListingYear_PrefersColumn(t *testing.T) {
	l := withYear(listing(1, 1), 2020)
	l.Attributes["ปีรถ"] = "2011"

	y, ok := services.ListingYear(l)
	assert.True(t, ok)
	assert.Equal(t, 2020, y)

	_, ok = services.ListingYear(listing(2, 1))
	assert.False(t, ok)

	upper := listing(3, 1)
	upper.Attributes["ปีรถ"] = "2100"
	y, ok = services.ListingYear(upper)
	assert.True(t, ok)
	assert.Equal(t, 2100, y)
}
