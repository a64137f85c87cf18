// Package seabourn covers the two luxury lines whose search pages expose
// nothing beyond price and duration in their cards. Ship and destination
// stay generic; the enrichment pass fills in what the cards lack.
package seabourn

import (
	"cruise-deal-scraper/scraper"
	"cruise-deal-scraper/utils"
)

func New(browser scraper.CardEvaluator, logger *utils.Logger) *scraper.CardScraper {
	return scraper.NewCardScraper(scraper.CardSource{
		SourceName: "Seabourn",
		CruiseLine: "Seabourn",
		SearchURLs: []string{
			"https://www.seabourn.com/en-us/find-a-cruise",
		},
		DefaultShip: "Seabourn Ship",
		DefaultDest: "Various",
	}, browser, logger)
}

func NewViking(browser scraper.CardEvaluator, logger *utils.Logger) *scraper.CardScraper {
	return scraper.NewCardScraper(scraper.CardSource{
		SourceName: "Viking",
		CruiseLine: "Viking",
		SearchURLs: []string{
			"https://www.vikingcruises.com.au/cruise-destinations/index.html",
		},
		DefaultShip: "Viking Ship",
		DefaultDest: "Various",
	}, browser, logger)
}
