package ozcruising

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"cruise-deal-scraper/fetch"
	"cruise-deal-scraper/models"
	"cruise-deal-scraper/scraper"
	"cruise-deal-scraper/utils"

	"github.com/PuerkitoBio/goquery"
)

const baseURL = "https://www.ozcruising.com.au"

// Seed pages. The simple pages and destination pages are single fetches;
// the per-line search pages paginate.
var simplePages = []string{
	baseURL, // homepage featured deals
	baseURL + "/cruise-specials",
	baseURL + "/last-minute-cruises",
	baseURL + "/cheap-cruises-from-sydney",
	baseURL + "/cheap-cruises-from-brisbane",
	baseURL + "/cheap-cruises-from-melbourne",
	baseURL + "/cheap-cruises-from-perth",
	baseURL + "/cheap-cruises-from-adelaide",
	baseURL + "/cheap-cruises-from-auckland",
	baseURL + "/cheap-cruises-from-singapore",
}

// Per-cruise-line search pages. The numeric segment is OzCruising's internal
// line ID; pagination appends ?page=N.
var cruiseLinePages = map[string]string{
	"Carnival":              searchPage(17),
	"Royal Caribbean":       searchPage(5),
	"Princess Cruises":      searchPage(4),
	"Norwegian Cruise Line": searchPage(26),
	"Celebrity Cruises":     searchPage(1),
	"Holland America":       searchPage(2),
	"Cunard":                searchPage(6),
	"P&O Australia":         searchPage(3),
	"MSC Cruises":           searchPage(20),
	"Seabourn":              searchPage(18),
	"Viking":                searchPage(47),
}

// searchPage builds the search URL for one of OzCruising's internal cruise
// line IDs; -111 is the site's "any" value for the remaining filters.
func searchPage(lineID int) string {
	return fmt.Sprintf("%s/searchcruise/bysearchbar/%d/-111/-111/-111/true/-111/-111/-111/-111", baseURL, lineID)
}

var destinationPages = []string{
	baseURL + "/caribbean-cruises",
	baseURL + "/alaska-cruises",
	baseURL + "/mediterranean-cruises",
	baseURL + "/europe-cruises",
	baseURL + "/south-pacific-cruises",
	baseURL + "/asia-cruises",
}

var (
	detailsLinkRe = regexp.MustCompile(`(?i)View\s+Cruise\s+Details`)
	bonusRe       = regexp.MustCompile(`Bonus:\s*(.{1,80}?)(?:\s+View\s+Cruise\s+Details|$)`)
	cruiseHrefRe  = regexp.MustCompile(`(?i)/(cruise|sailing|itinerary)`)
)

// Ship-name fallback patterns, tried only when the fa-ship element is absent.
var shipPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(Anthem Of The Seas|Voyager Of The Seas|Quantum Of The Seas|Ovation Of The Seas)`),
	regexp.MustCompile(`(Carnival \w+|Encounter|Adventure|Splendor|Luminosa)`),
	regexp.MustCompile(`(Norwegian \w+)`),
	regexp.MustCompile(`(Celebrity \w+|Edge|Solstice)`),
	regexp.MustCompile(`(Queen \w+)`),
	regexp.MustCompile(`(Discovery Princess|Crown Princess|Diamond Princess|Grand Princess|Royal Princess|Coral Princess|Island Princess)`),
	regexp.MustCompile(`(ms \w+)`),
}

const (
	maxSearchPages = 3 // search pagination repeats deals past this point
	stopAfterEmpty = 2 // consecutive candidate-free pages that end pagination
)

// Scraper extracts deals from the OzCruising aggregator, which lists eleven
// cruise lines behind one site. An optional allowlist restricts which lines'
// search pages are visited and which parsed deals are kept.
type Scraper struct {
	fetcher   fetch.PageFetcher
	logger    *utils.Logger
	limiter   *utils.RateLimiter
	seen      map[models.DealKey]struct{}
	allowList map[string]struct{}
	deals     []*models.CruiseDeal
}

// New creates the OzCruising scraper. allowLines may be nil to keep all lines.
func New(fetcher fetch.PageFetcher, rateLimitMs int, allowLines []string, logger *utils.Logger) *Scraper {
	s := &Scraper{
		fetcher: fetcher,
		logger:  logger,
		limiter: utils.NewRateLimiter(rateLimitMs),
		seen:    make(map[models.DealKey]struct{}),
	}
	if len(allowLines) > 0 {
		s.allowList = make(map[string]struct{}, len(allowLines))
		for _, l := range allowLines {
			s.allowList[strings.ToLower(l)] = struct{}{}
		}
	}
	return s
}

func (s *Scraper) Name() string { return "OzCruising.com.au" }

// Scrape walks every seed page. Page-level failures are logged and skipped;
// only a context cancellation aborts the whole source.
func (s *Scraper) Scrape(ctx context.Context) ([]*models.CruiseDeal, error) {
	s.logger.Info("Starting scrape of %s", s.Name())
	s.deals = nil
	s.seen = make(map[models.DealKey]struct{})

	for _, pageURL := range simplePages {
		if err := ctx.Err(); err != nil {
			return s.deals, err
		}
		s.scrapeOne(ctx, pageURL)
	}

	for line, pageURL := range cruiseLinePages {
		if err := ctx.Err(); err != nil {
			return s.deals, err
		}
		if !s.lineAllowed(line) {
			continue
		}
		s.scrapeWithPagination(ctx, pageURL)
	}

	for _, pageURL := range destinationPages {
		if err := ctx.Err(); err != nil {
			return s.deals, err
		}
		s.scrapeOne(ctx, pageURL)
	}

	s.logger.Success("%s: scraped %d deals", s.Name(), len(s.deals))
	return s.deals, nil
}

func (s *Scraper) lineAllowed(line string) bool {
	if s.allowList == nil {
		return true
	}
	_, ok := s.allowList[strings.ToLower(line)]
	return ok
}

func (s *Scraper) scrapeOne(ctx context.Context, pageURL string) {
	s.limiter.Wait()
	doc, err := s.fetcher.Page(ctx, pageURL)
	if err != nil {
		s.logger.Warn("Skipping %s: %v", pageURL, err)
		return
	}
	s.parsePage(doc)
}

// scrapeWithPagination appends an incrementing page parameter and stops after
// stopAfterEmpty consecutive pages with no candidate listings. The site's
// pagination is unreliable, so a fixed last page is never assumed.
func (s *Scraper) scrapeWithPagination(ctx context.Context, base string) {
	emptyPages := 0
	for page := 1; page <= maxSearchPages; page++ {
		if ctx.Err() != nil {
			return
		}
		sep := "?"
		if strings.Contains(base, "?") {
			sep = "&"
		}
		pageURL := fmt.Sprintf("%s%spage=%d", base, sep, page)

		s.limiter.Wait()
		doc, err := s.fetcher.Page(ctx, pageURL)
		if err != nil {
			s.logger.Warn("Failed page %d of %s: %v", page, base, err)
			return
		}

		candidates := doc.Find("a").FilterFunction(func(_ int, a *goquery.Selection) bool {
			return detailsLinkRe.MatchString(a.Text())
		})
		if candidates.Length() == 0 {
			emptyPages++
			if emptyPages >= stopAfterEmpty {
				s.logger.Debug("Stopping pagination of %s after %d empty pages", base, emptyPages)
				return
			}
			continue
		}
		emptyPages = 0

		before := len(s.deals)
		s.parsePage(doc)
		s.logger.Debug("Page %d: %d candidates, %d new deals", page, candidates.Length(), len(s.deals)-before)
	}
}

// parsePage finds deal containers on one page and parses each. Candidate
// failures are logged and skipped; they never abort the page.
func (s *Scraper) parsePage(doc *goquery.Document) {
	anchors := doc.Find("a").FilterFunction(func(_ int, a *goquery.Selection) bool {
		return detailsLinkRe.MatchString(a.Text())
	})

	if anchors.Length() == 0 {
		// Alternative detection: any cruise link whose parent block carries
		// both a price and a duration in close proximity.
		s.parseByProximity(doc)
		return
	}

	anchors.Each(func(i int, a *goquery.Selection) {
		container := scraper.ClimbToDealContainer(a)
		if container == nil {
			return
		}
		if deal := s.parseDeal(container); deal != nil {
			s.add(deal)
		}
	})
}

func (s *Scraper) parseByProximity(doc *goquery.Document) {
	found := 0
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !cruiseHrefRe.MatchString(href) {
			return
		}
		parent := a.Closest("div, article")
		if parent.Length() == 0 {
			return
		}
		text := parent.Text()
		if !strings.Contains(text, "From $") && !strings.Contains(text, "pp") {
			return
		}
		if !strings.Contains(text, "Night") && !strings.Contains(text, "Days") {
			return
		}
		if deal := s.parseDeal(parent); deal != nil {
			s.add(deal)
			found++
		}
	})
	if found > 0 {
		s.logger.Info("Found %d deals via proximity detection", found)
	}
}

// parseDeal maps one container to a canonical record. Layered strategy per
// field: a structured element first, regex over the container text last.
// Records missing a positive price or duration are discarded.
func (s *Scraper) parseDeal(container *goquery.Selection) *models.CruiseDeal {
	fullText := scraper.CollapseSpace(container.Text())

	price := scraper.ParseFare(fullText)
	duration := scraper.ParseDuration(fullText)
	if price <= 0 || duration <= 0 {
		return nil
	}

	cruiseLine := "Unknown"
	if alt, ok := container.Find("img").First().Attr("alt"); ok && alt != "" {
		cruiseLine = scraper.NormalizeCruiseLine(alt)
	}
	if !s.lineAllowed(cruiseLine) {
		return nil
	}

	shipName := s.extractShipName(container, fullText)
	destination := extractDestination(container)

	departurePort := scraper.ParseDeparturePort(fullText)
	if departurePort == "" {
		departurePort = "Various Ports"
	}

	cabinType := "Interior"
	if strings.Contains(fullText, "Twin") {
		cabinType = "Twin"
	} else if strings.Contains(fullText, "Quad") {
		cabinType = "Quad"
	}

	specialOffers := ""
	if m := bonusRe.FindStringSubmatch(fullText); m != nil {
		specialOffers = strings.TrimSpace(m[1])
	} else if strings.Contains(fullText, "Sale") {
		specialOffers = "Sale Fares"
	}

	now := time.Now()
	deal := &models.CruiseDeal{
		CruiseLine:    cruiseLine,
		ShipName:      shipName,
		Destination:   destination,
		DepartureDate: scraper.ParseDate(fullText, now),
		DurationDays:  duration,
		DeparturePort: departurePort,
		CabinType:     cabinType,
		URL:           s.extractURL(container),
		SpecialOffers: specialOffers,
		ScrapedAt:     now,
	}
	deal.SetTotalPrice(price)
	return deal
}

// extractShipName prefers the text next to the fa-ship icon, then falls back
// to known ship-name patterns over the container text.
func (s *Scraper) extractShipName(container *goquery.Selection, fullText string) string {
	// The element next to the fa-ship icon carries the name on most cards.
	icon := container.Find(`i[class*="fa-ship"], span[class*="fa-ship"]`).First()
	if icon.Length() > 0 {
		text := scraper.CollapseSpace(icon.Parent().Text())
		if text != "" && len(text) < 60 {
			return text
		}
	}
	if name := scraper.FirstMatch(fullText, shipPatterns); name != "" {
		return name
	}
	return "Unknown"
}

// extractDestination takes the first short heading in the container.
func extractDestination(container *goquery.Selection) string {
	dest := "Various"
	container.Find("h1, h2, h3, h4, strong, b").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		text := strings.TrimSpace(h.Text())
		if text != "" && len(text) < 50 {
			dest = text
			return false
		}
		return true
	})
	return dest
}

// extractURL prefers the detail link, then any cruise-ish link that is not a
// generic listing page, then any link at all.
func (s *Scraper) extractURL(container *goquery.Selection) string {
	detail := container.Find("a").FilterFunction(func(_ int, a *goquery.Selection) bool {
		return detailsLinkRe.MatchString(a.Text())
	}).First()
	if href, ok := detail.Attr("href"); ok {
		return scraper.AbsoluteURL(baseURL, href)
	}

	var fallback string
	container.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if fallback == "" {
			fallback = href
		}
		if cruiseHrefRe.MatchString(href) &&
			!strings.Contains(href, "/cruise-specials") &&
			!strings.Contains(href, "/cheap-cruises") {
			fallback = href
			return false
		}
		return true
	})
	if fallback != "" {
		return scraper.AbsoluteURL(baseURL, fallback)
	}
	return baseURL
}

// add keeps the deal unless its five-tuple was already seen this run.
// Overlapping seed pages make same-run duplicates extremely common.
func (s *Scraper) add(deal *models.CruiseDeal) {
	key := deal.Key()
	if _, dup := s.seen[key]; dup {
		return
	}
	s.seen[key] = struct{}{}
	s.deals = append(s.deals, deal)
}
