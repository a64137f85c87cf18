// Package poaustralia extracts P&O Australia results from their
// client-rendered cruise search.
package poaustralia

import (
	"regexp"

	"cruise-deal-scraper/scraper"
	"cruise-deal-scraper/utils"
)

var (
	shipRe = regexp.MustCompile(`Pacific (?:Explorer|Adventure|Encounter)`)
	destRe = regexp.MustCompile(`(Queensland|New Zealand|South Pacific|Fiji|Vanuatu|New Caledonia|Tasmania)`)
)

func New(browser scraper.CardEvaluator, logger *utils.Logger) *scraper.CardScraper {
	return scraper.NewCardScraper(scraper.CardSource{
		SourceName: "P&O Australia",
		CruiseLine: "P&O Australia",
		SearchURLs: []string{
			"https://www.pocruises.com.au/search",
		},
		ShipRe:      shipRe,
		DestRe:      destRe,
		DefaultShip: "Pacific Ship",
		DefaultDest: "Various",
	}, browser, logger)
}
