package models_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cruise-deal-scraper/models"
)

func sampleDeal() *models.CruiseDeal {
	d := &models.CruiseDeal{
		CruiseLine:    "Royal Caribbean",
		ShipName:      "Anthem Of The Seas",
		Destination:   "South Pacific",
		DepartureDate: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		DurationDays:  8,
		DeparturePort: "Sydney",
		CabinType:     "Interior",
		URL:           "https://example.com/cruise/1",
		ScrapedAt:     time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	d.SetTotalPrice(1200)
	return d
}

// ---- price per day ---------------------------------------------------------

func TestPricePerDay(t *testing.T) {
	assert.InDelta(t, 150.0, models.PricePerDay(1200, 8), 0.001)
	assert.InDelta(t, 100.0, models.PricePerDay(700, 7), 0.001)
}

func TestPricePerDay_InvalidDuration(t *testing.T) {
	assert.True(t, math.IsInf(models.PricePerDay(1200, 0), 1))
	assert.True(t, math.IsInf(models.PricePerDay(1200, -3), 1))
}

func TestSetTotalPrice_RecomputesDerived(t *testing.T) {
	d := sampleDeal()
	d.SetTotalPrice(800)
	assert.InDelta(t, 100.0, d.PricePerDay, 0.001)
}

// ---- identity --------------------------------------------------------------

func TestKey_DateAtDayGranularity(t *testing.T) {
	a := sampleDeal()
	b := sampleDeal()
	// Same calendar day at a different clock time is the same sailing.
	b.DepartureDate = b.DepartureDate.Add(9 * time.Hour)

	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, "2026-03-14", a.Key().DepartureDate)
}

func TestKey_DurationDistinguishes(t *testing.T) {
	a := sampleDeal()
	b := sampleDeal()
	b.DurationDays = 9
	assert.NotEqual(t, a.Key(), b.Key())
}

// ---- merge -----------------------------------------------------------------

func TestMergeFrom_EmptyFieldsDoNotClobber(t *testing.T) {
	d := sampleDeal()
	d.ImageURL = "https://example.com/map.jpg"
	d.SpecialOffers = "Bonus: onboard credit"

	d.MergeFrom(&models.CruiseDeal{TotalPriceAUD: 1100})

	assert.Equal(t, "https://example.com/map.jpg", d.ImageURL)
	assert.Equal(t, "Bonus: onboard credit", d.SpecialOffers)
	assert.Equal(t, "Sydney", d.DeparturePort)
	assert.InDelta(t, 1100.0, d.TotalPriceAUD, 0.001)
}

func TestMergeFrom_PriceIsLastWriteWins(t *testing.T) {
	d := sampleDeal()
	d.MergeFrom(&models.CruiseDeal{TotalPriceAUD: 900})
	// 900, not an average of 1200 and 900.
	assert.InDelta(t, 900.0, d.TotalPriceAUD, 0.001)
	assert.InDelta(t, 112.5, d.PricePerDay, 0.001)
}

func TestMergeFrom_TwoSourceScenario(t *testing.T) {
	// A listing-card record and a detail-page record of the same sailing.
	listing := sampleDeal()

	detail := &models.CruiseDeal{
		TotalPriceAUD:   1150,
		ImageURL:        "https://example.com/route.png",
		Price2PInterior: 1150,
		Price4PInterior: 2100,
		Itinerary: []models.ItineraryStop{
			{Day: 1, Port: "Sydney"},
			{Day: 3, Port: "Noumea"},
		},
		Inclusions: []string{"Main dining"},
		ScrapedAt:  time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC),
	}
	listing.MergeFrom(detail)

	assert.InDelta(t, 1150.0, listing.TotalPriceAUD, 0.001)
	assert.Equal(t, "https://example.com/route.png", listing.ImageURL)
	assert.Len(t, listing.Itinerary, 2)
	assert.Equal(t, "Sydney", listing.DeparturePort) // untouched by merge
	assert.Equal(t, time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC), listing.ScrapedAt)
}

// ---- sorting ---------------------------------------------------------------

func TestSortByPricePerDay_InfLast(t *testing.T) {
	good := sampleDeal()

	bad := sampleDeal()
	bad.DurationDays = 0
	bad.Recompute()
	require.True(t, math.IsInf(bad.PricePerDay, 1))

	cheap := sampleDeal()
	cheap.SetTotalPrice(400)

	deals := []*models.CruiseDeal{bad, good, cheap}
	models.SortByPricePerDay(deals)

	assert.Same(t, cheap, deals[0])
	assert.Same(t, good, deals[1])
	assert.Same(t, bad, deals[2])
}

func TestSortByPricePerDay_StableForTies(t *testing.T) {
	a := sampleDeal()
	b := sampleDeal()
	b.ShipName = "Ovation Of The Seas"

	deals := []*models.CruiseDeal{a, b}
	models.SortByPricePerDay(deals)

	assert.Same(t, a, deals[0])
	assert.Same(t, b, deals[1])
}

// ---- enrichment gate -------------------------------------------------------

func TestNeedsEnrichment(t *testing.T) {
	d := sampleDeal()
	assert.True(t, d.NeedsEnrichment())

	d.ImageURL = "https://example.com/map.jpg"
	d.Price2PInterior = 1150
	d.Itinerary = []models.ItineraryStop{{Day: 1, Port: "Sydney"}}
	assert.False(t, d.NeedsEnrichment())
}

func TestIsGoodDeal(t *testing.T) {
	d := sampleDeal() // $150/day
	assert.True(t, d.IsGoodDeal(200))
	assert.False(t, d.IsGoodDeal(150))
	assert.False(t, d.IsGoodDeal(100))
}
