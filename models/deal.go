package models

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// CruiseDeal is the canonical record for one sailing offer. Records from
// different sources (or different pages of the same source) describing the
// same sailing are merged into a single CruiseDeal by the dedup engine.
type CruiseDeal struct {
	CruiseLine    string    `json:"cruise_line"`
	ShipName      string    `json:"ship_name"`
	Destination   string    `json:"destination"`
	DepartureDate time.Time `json:"departure_date"`
	DurationDays  int       `json:"duration_days"`
	DeparturePort string    `json:"departure_port"`

	TotalPriceAUD float64 `json:"total_price_aud"`
	PricePerDay   float64 `json:"price_per_day"`
	CabinType     string  `json:"cabin_type"`
	URL           string  `json:"url"`
	SpecialOffers string  `json:"special_offers,omitempty"`
	ImageURL      string  `json:"image_url,omitempty"`

	// Detail-page fields, populated by the enrichment pass only.
	Price2PInterior float64         `json:"price_2p_interior,omitempty"`
	Price4PInterior float64         `json:"price_4p_interior,omitempty"`
	Itinerary       []ItineraryStop `json:"itinerary,omitempty"`
	CabinPricing    []CabinCategory `json:"cabin_pricing,omitempty"`
	Inclusions      []string        `json:"inclusions,omitempty"`

	ScrapedAt time.Time `json:"scraped_at"`
}

// ItineraryStop is one port call in a sailing's itinerary, in sailing order.
type ItineraryStop struct {
	Day       int    `json:"day"`
	Port      string `json:"port"`
	Arrival   string `json:"arrival,omitempty"`
	Departure string `json:"departure,omitempty"`
}

// CabinCategory is one row of a detail page's cabin pricing table.
type CabinCategory struct {
	Category       string  `json:"category"`
	CabinType      string  `json:"type"`
	PricePerPerson float64 `json:"price_pp"`
	TotalPrice     float64 `json:"total_price"`
	Available      bool    `json:"available"`
}

// DealKey identifies one real-world sailing offer. Two records with equal keys
// are the same underlying offer regardless of source or scrape time.
type DealKey struct {
	CruiseLine    string
	ShipName      string
	Destination   string
	DepartureDate string // yyyy-mm-dd
	DurationDays  int
}

// Key returns the five-tuple identity of the deal.
func (d *CruiseDeal) Key() DealKey {
	return DealKey{
		CruiseLine:    d.CruiseLine,
		ShipName:      d.ShipName,
		Destination:   d.Destination,
		DepartureDate: d.DepartureDate.Format("2006-01-02"),
		DurationDays:  d.DurationDays,
	}
}

// PricePerDay derives the per-day price. A zero or negative duration yields
// +Inf so that bad records sort to the bottom instead of dividing by zero.
func PricePerDay(total float64, durationDays int) float64 {
	if durationDays > 0 {
		return total / float64(durationDays)
	}
	return math.Inf(1)
}

// SetTotalPrice updates the total price and recomputes the derived per-day
// price. PricePerDay must never be written independently of its inputs.
func (d *CruiseDeal) SetTotalPrice(total float64) {
	d.TotalPriceAUD = total
	d.Recompute()
}

// Recompute refreshes PricePerDay from TotalPriceAUD and DurationDays.
func (d *CruiseDeal) Recompute() {
	d.PricePerDay = PricePerDay(d.TotalPriceAUD, d.DurationDays)
}

// IsGoodDeal reports whether the per-day price is below the threshold.
func (d *CruiseDeal) IsGoodDeal(threshold float64) bool {
	return d.PricePerDay < threshold
}

// NeedsEnrichment reports whether a detail-page visit could still add fields.
func (d *CruiseDeal) NeedsEnrichment() bool {
	return d.ImageURL == "" || d.Price2PInterior <= 0 || len(d.Itinerary) == 0
}

// MergeFrom folds a later observation of the same sailing into d, field by
// field. A field is only overwritten when the candidate carries a value for
// it; numeric fields are last-write-wins, never averaged. Price and duration
// changes trigger a recompute of the derived per-day price.
func (d *CruiseDeal) MergeFrom(c *CruiseDeal) {
	priceChanged := false

	if c.TotalPriceAUD > 0 {
		d.TotalPriceAUD = c.TotalPriceAUD
		priceChanged = true
	}
	if c.CabinType != "" {
		d.CabinType = c.CabinType
	}
	if c.URL != "" {
		d.URL = c.URL
	}
	if c.SpecialOffers != "" {
		d.SpecialOffers = c.SpecialOffers
	}
	if c.ImageURL != "" {
		d.ImageURL = c.ImageURL
	}
	if c.DeparturePort != "" {
		d.DeparturePort = c.DeparturePort
	}
	if c.Price2PInterior > 0 {
		d.Price2PInterior = c.Price2PInterior
	}
	if c.Price4PInterior > 0 {
		d.Price4PInterior = c.Price4PInterior
	}
	if len(c.Itinerary) > 0 {
		d.Itinerary = c.Itinerary
	}
	if len(c.CabinPricing) > 0 {
		d.CabinPricing = c.CabinPricing
	}
	if len(c.Inclusions) > 0 {
		d.Inclusions = c.Inclusions
	}
	if !c.ScrapedAt.IsZero() {
		d.ScrapedAt = c.ScrapedAt
	}

	if priceChanged {
		d.Recompute()
	}
}

// SortByPricePerDay orders deals cheapest-per-day first. The sort is stable
// and +Inf (invalid duration) records land at the end.
func SortByPricePerDay(deals []*CruiseDeal) {
	sort.SliceStable(deals, func(i, j int) bool {
		return deals[i].PricePerDay < deals[j].PricePerDay
	})
}

// String renders a single-line summary used in logs and console alerts.
func (d *CruiseDeal) String() string {
	return fmt.Sprintf("%s / %s | %s | %s | %d days | $%.0f total ($%.2f/day) | from %s",
		d.CruiseLine, d.ShipName, d.Destination,
		d.DepartureDate.Format("2006-01-02"), d.DurationDays,
		d.TotalPriceAUD, d.PricePerDay, d.DeparturePort)
}
