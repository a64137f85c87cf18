package services

import (
	"math"

	"cruise-deal-scraper/models"
	"cruise-deal-scraper/utils"
)

// InsightService computes run analytics from the deduplicated dataset
type InsightService struct {
	threshold float64
	logger    *utils.Logger
}

// NewInsightService creates a new InsightService. threshold is the per-day
// price under which a deal counts as good value.
func NewInsightService(threshold float64, logger *utils.Logger) *InsightService {
	return &InsightService{threshold: threshold, logger: logger}
}

// Generate computes all insights from a slice of deduplicated deals
func (s *InsightService) Generate(deals []*models.CruiseDeal) *models.InsightReport {
	report := &models.InsightReport{
		DealsByLine:    make(map[string]int),
		PriceThreshold: s.threshold,
	}

	if len(deals) == 0 {
		s.logger.Warn("No deals to generate insights from")
		return report
	}

	var totalPerDay float64
	finite := 0

	for _, d := range deals {
		report.TotalDeals++
		report.DealsByLine[d.CruiseLine]++

		// +Inf per-day values (bad durations) stay out of the price stats.
		if !math.IsInf(d.PricePerDay, 1) && d.PricePerDay > 0 {
			totalPerDay += d.PricePerDay
			finite++
			if report.MinPerDay == 0 || d.PricePerDay < report.MinPerDay {
				report.MinPerDay = d.PricePerDay
				report.CheapestDeal = d
			}
			if d.PricePerDay > report.MaxPerDay {
				report.MaxPerDay = d.PricePerDay
			}
		}

		if d.IsGoodDeal(s.threshold) {
			report.GoodDealCount++
		}
		if d.Price2PInterior > 0 {
			report.EnrichedCount++
		}
		if len(d.Itinerary) > 0 {
			report.WithItinerary++
		}
	}

	if finite > 0 {
		report.AveragePerDay = totalPerDay / float64(finite)
	}

	// Top 5 value deals. The input arrives sorted cheapest-per-day first, so
	// a prefix is enough.
	sorted := make([]*models.CruiseDeal, len(deals))
	copy(sorted, deals)
	models.SortByPricePerDay(sorted)
	maxTop := 5
	if len(sorted) < maxTop {
		maxTop = len(sorted)
	}
	report.TopValue = sorted[:maxTop]

	return report
}
