package models

// InsightReport is the per-run summary printed after a scrape cycle.
type InsightReport struct {
	TotalDeals     int            `json:"total_deals"`
	DealsByLine    map[string]int `json:"deals_by_line"`
	AveragePerDay  float64        `json:"average_per_day"`
	MinPerDay      float64        `json:"min_per_day"`
	MaxPerDay      float64        `json:"max_per_day"`
	GoodDealCount  int            `json:"good_deal_count"` // under the per-day threshold
	CheapestDeal   *CruiseDeal    `json:"cheapest_deal,omitempty"`
	TopValue       []*CruiseDeal  `json:"top_value,omitempty"` // 5 cheapest per day
	EnrichedCount  int            `json:"enriched_count"`
	WithItinerary  int            `json:"with_itinerary"`
	PriceThreshold float64        `json:"price_threshold"`
}
