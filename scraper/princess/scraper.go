// Package princess extracts Princess Cruises results from their booking
// search, which renders entirely client-side.
package princess

import (
	"regexp"

	"cruise-deal-scraper/scraper"
	"cruise-deal-scraper/utils"
)

var (
	shipRe = regexp.MustCompile(`(Crown|Diamond|Discovery|Enchanted|Grand|Island|Majestic|Royal|Regal|Ruby|Sapphire|Sky|Sun) Princess`)
	destRe = regexp.MustCompile(`(Caribbean|Alaska|Europe|Mexico|Hawaii|Panama Canal|Asia|Australia|South Pacific|Mediterranean|Transatlantic|Scandinavia)`)
)

func New(browser scraper.CardEvaluator, logger *utils.Logger) *scraper.CardScraper {
	return scraper.NewCardScraper(scraper.CardSource{
		SourceName: "Princess Cruises",
		CruiseLine: "Princess Cruises",
		SearchURLs: []string{
			"https://book.princess.com/cruiseSearch/search?market=AU&currency=AUD",
		},
		ShipRe:      shipRe,
		DestRe:      destRe,
		DefaultShip: "Princess Ship",
		DefaultDest: "Various",
	}, browser, logger)
}
