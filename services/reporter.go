package services

import (
	"fmt"
	"sort"
	"strings"

	"cruise-deal-scraper/models"
)

// PrintInsightReport formats and prints the run report to terminal
func PrintInsightReport(report *models.InsightReport) {
	border := strings.Repeat("═", 55)
	thin := strings.Repeat("─", 55)

	fmt.Printf("\n╔%s╗\n", border)
	fmt.Printf("║%s║\n", center("CRUISE DEAL MARKET INSIGHTS ", 55))
	fmt.Printf("╚%s╝\n", border)

	fmt.Printf("\n OVERVIEW\n%s\n", thin)
	fmt.Printf("  Total Deals             : %d\n", report.TotalDeals)
	fmt.Printf("  Average Price/Day       : $%.2f\n", report.AveragePerDay)
	fmt.Printf("  Minimum Price/Day       : $%.2f\n", report.MinPerDay)
	fmt.Printf("  Maximum Price/Day       : $%.2f\n", report.MaxPerDay)
	fmt.Printf("  Under $%.0f/day          : %d\n", report.PriceThreshold, report.GoodDealCount)
	fmt.Printf("  With Detail Pricing     : %d\n", report.EnrichedCount)
	fmt.Printf("  With Itinerary          : %d\n", report.WithItinerary)

	if report.CheapestDeal != nil {
		d := report.CheapestDeal
		fmt.Printf("\n CHEAPEST PER DAY\n%s\n", thin)
		fmt.Printf("  Cruise   : %s / %s\n", d.CruiseLine, d.ShipName)
		fmt.Printf("  Route    : %s from %s\n", d.Destination, d.DeparturePort)
		fmt.Printf("  Price    : $%.0f total, $%.2f/day over %d days\n", d.TotalPriceAUD, d.PricePerDay, d.DurationDays)
		fmt.Printf("  URL      : %s\n", d.URL)
	}

	if len(report.DealsByLine) > 0 {
		fmt.Printf("\n DEALS PER CRUISE LINE\n%s\n", thin)
		// Sort by count descending
		type lineCount struct {
			line  string
			count int
		}
		var lines []lineCount
		for line, cnt := range report.DealsByLine {
			lines = append(lines, lineCount{line, cnt})
		}
		sort.Slice(lines, func(i, j int) bool {
			return lines[i].count > lines[j].count
		})
		for _, lc := range lines {
			bar := strings.Repeat("▓", barLen(lc.count))
			fmt.Printf("  %-25s %3d  %s\n", lc.line+":", lc.count, bar)
		}
	}

	if len(report.TopValue) > 0 {
		fmt.Printf("\n TOP %d VALUE DEALS\n%s\n", len(report.TopValue), thin)
		for i, d := range report.TopValue {
			fmt.Printf("  %d. %-35s $%.2f/day\n", i+1, truncate(d.CruiseLine+" "+d.Destination, 35), d.PricePerDay)
		}
	}

	fmt.Printf("\n%s\n\n", border)
}

// barLen caps the histogram bar; some lines return hundreds of deals.
func barLen(count int) int {
	if count > 40 {
		return 40
	}
	return count
}

func center(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return s
	}
	pad := (width - len(runes)) / 2
	return strings.Repeat(" ", pad) + s + strings.Repeat(" ", width-len(runes)-pad)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
