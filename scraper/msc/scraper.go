// Package msc extracts MSC Cruises results from their client-rendered
// search page.
package msc

import (
	"regexp"

	"cruise-deal-scraper/scraper"
	"cruise-deal-scraper/utils"
)

var (
	shipRe = regexp.MustCompile(`MSC [A-Z]\w+`)
	destRe = regexp.MustCompile(`(Mediterranean|Caribbean|Northern Europe|Emirates|South Africa|World Cruise|Asia)`)
)

func New(browser scraper.CardEvaluator, logger *utils.Logger) *scraper.CardScraper {
	return scraper.NewCardScraper(scraper.CardSource{
		SourceName: "MSC Cruises",
		CruiseLine: "MSC Cruises",
		SearchURLs: []string{
			"https://www.msccruises.com.au/cruise-deals",
		},
		ShipRe:      shipRe,
		DestRe:      destRe,
		DefaultShip: "MSC Ship",
		DefaultDest: "Various",
	}, browser, logger)
}
