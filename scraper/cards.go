package scraper

import (
	"context"
	"regexp"
	"time"

	"cruise-deal-scraper/models"
	"cruise-deal-scraper/utils"
)

// Some lines render their search results entirely client-side with no stable
// markup to target. For those, a small page-context script collects every
// element that reads like a result card (a price, a duration, not too much
// text) and the Go side parses the raw card text with per-line patterns.

// Card is one candidate result block lifted out of a rendered page.
type Card struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// CollectCardsJS walks the rendered DOM for deal-shaped blocks. Cards are
// deduplicated by a text prefix because nested containers repeat their
// children's text.
const CollectCardsJS = `(() => {
	const cards = [];
	const seen = new Set();
	document.querySelectorAll('div, article, li, section').forEach(el => {
		const text = (el.innerText || '').trim();
		if (!text || text.length > 500) return;
		if (!/\$\s?\d{3,}/.test(text)) return;
		if (!/\d+\s*[- ]?\s*(night|day)/i.test(text)) return;
		const a = el.querySelector('a[href]');
		const url = a ? a.href : window.location.href;
		const key = text.slice(0, 120);
		if (seen.has(key)) return;
		seen.add(key);
		cards.push({text: text, url: url});
	});
	return cards;
})()`

// CardEvaluator runs a script on a rendered page. Satisfied by fetch.Browser.
type CardEvaluator interface {
	Evaluate(ctx context.Context, url, js string, out interface{}) error
}

// CardSource configures one browser-driven extractor.
type CardSource struct {
	SourceName  string
	CruiseLine  string
	SearchURLs  []string
	ShipRe      *regexp.Regexp // optional; DefaultShip when absent or unmatched
	DestRe      *regexp.Regexp // optional; DefaultDest when absent or unmatched
	DefaultShip string
	DefaultDest string
}

// CardScraper is the generic browser extractor built from a CardSource.
type CardScraper struct {
	src     CardSource
	browser CardEvaluator
	logger  *utils.Logger
}

func NewCardScraper(src CardSource, browser CardEvaluator, logger *utils.Logger) *CardScraper {
	return &CardScraper{src: src, browser: browser, logger: logger}
}

func (s *CardScraper) Name() string { return s.src.SourceName }

func (s *CardScraper) Scrape(ctx context.Context) ([]*models.CruiseDeal, error) {
	s.logger.Info("Starting scrape of %s", s.Name())

	var deals []*models.CruiseDeal
	seen := make(map[models.DealKey]struct{})

	for _, searchURL := range s.src.SearchURLs {
		if err := ctx.Err(); err != nil {
			return deals, err
		}

		var cards []Card
		if err := s.browser.Evaluate(ctx, searchURL, CollectCardsJS, &cards); err != nil {
			s.logger.Warn("%s: %s failed: %v", s.Name(), searchURL, err)
			continue
		}
		s.logger.Debug("%s: %d cards on %s", s.Name(), len(cards), searchURL)

		for _, card := range cards {
			deal := s.parseCard(card)
			if deal == nil {
				continue
			}
			key := deal.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			deals = append(deals, deal)
		}
	}

	s.logger.Success("%s: scraped %d deals", s.Name(), len(deals))
	return deals, nil
}

func (s *CardScraper) parseCard(card Card) *models.CruiseDeal {
	text := CollapseSpace(card.Text)

	price := ParseFare(text)
	duration := ParseDuration(text)
	if price <= 0 || duration <= 0 {
		return nil
	}

	ship := s.src.DefaultShip
	if s.src.ShipRe != nil {
		if m := s.src.ShipRe.FindString(text); m != "" {
			ship = m
		}
	}
	dest := s.src.DefaultDest
	if s.src.DestRe != nil {
		if m := s.src.DestRe.FindString(text); m != "" {
			dest = m
		}
	}

	port := ParseDeparturePort(text)
	if port == "" {
		port = "Various Ports"
	}

	now := time.Now()
	deal := &models.CruiseDeal{
		CruiseLine:    s.src.CruiseLine,
		ShipName:      ship,
		Destination:   dest,
		DepartureDate: ParseDate(text, now),
		DurationDays:  duration,
		DeparturePort: port,
		CabinType:     "Interior",
		URL:           card.URL,
		ScrapedAt:     now,
	}
	deal.SetTotalPrice(price)
	return deal
}
