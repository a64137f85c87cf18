// Package cunard extracts Cunard results from their client-rendered
// voyage search.
package cunard

import (
	"regexp"

	"cruise-deal-scraper/scraper"
	"cruise-deal-scraper/utils"
)

var (
	shipRe = regexp.MustCompile(`Queen (?:Mary 2|Elizabeth|Victoria|Anne)`)
	destRe = regexp.MustCompile(`(Caribbean|Mediterranean|Transatlantic|Europe|World Cruise|Alaska|Asia|Australia)`)
)

func New(browser scraper.CardEvaluator, logger *utils.Logger) *scraper.CardScraper {
	return scraper.NewCardScraper(scraper.CardSource{
		SourceName: "Cunard",
		CruiseLine: "Cunard",
		SearchURLs: []string{
			"https://www.cunard.com/en-au/search",
		},
		ShipRe:      shipRe,
		DestRe:      destRe,
		DefaultShip: "Cunard Ship",
		DefaultDest: "Various",
	}, browser, logger)
}
