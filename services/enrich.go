package services

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"cruise-deal-scraper/fetch"
	"cruise-deal-scraper/models"
	"cruise-deal-scraper/scraper"
	"cruise-deal-scraper/utils"

	"github.com/PuerkitoBio/goquery"
)

// Checkpointer persists partial enrichment progress so an interrupted run
// keeps what it has already paid browser time for.
type Checkpointer interface {
	UpsertDeals(ctx context.Context, deals []*models.CruiseDeal) (inserted, updated int, err error)
}

// Enricher visits each deal's detail page in a headless browser and fills
// the fields listing cards never carry: the itinerary map image, real 2- and
// 4-passenger interior pricing, the port-by-port itinerary, the cabin pricing
// table, and fare inclusions. Every field is independent best effort; a deal
// where nothing could be extracted is left exactly as it was.
type Enricher struct {
	browser   fetch.PageFetcher
	limiter   *utils.RateLimiter
	visited   *utils.URLTracker
	store     Checkpointer // optional
	batchSize int
	logger    *utils.Logger
}

func NewEnricher(browser fetch.PageFetcher, rateLimitMs, batchSize int, store Checkpointer, logger *utils.Logger) *Enricher {
	return &Enricher{
		browser:   browser,
		limiter:   utils.NewRateLimiter(rateLimitMs),
		visited:   utils.NewURLTracker(),
		store:     store,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Run enriches up to limit deals that still need a detail visit (limit <= 0
// means no cap). Progress is checkpointed every batchSize deals. The context
// is honored between deals, so cancellation loses at most one page visit.
func (e *Enricher) Run(ctx context.Context, deals []*models.CruiseDeal, limit int) error {
	// Several deals can resolve to the same detail URL (a source's fallback
	// link); each page is visited once.
	var pending []*models.CruiseDeal
	for _, d := range deals {
		if d.URL != "" && d.NeedsEnrichment() && e.visited.Add(d.URL) {
			pending = append(pending, d)
		}
	}
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	e.logger.Info("Enriching %d deals from detail pages", len(pending))

	var dirty []*models.CruiseDeal
	for i, deal := range pending {
		if err := ctx.Err(); err != nil {
			e.checkpoint(dirty)
			return err
		}

		e.limiter.Wait()
		if e.enrichOne(ctx, deal) {
			dirty = append(dirty, deal)
		}

		if e.batchSize > 0 && len(dirty) >= e.batchSize {
			e.checkpoint(dirty)
			dirty = nil
		}
		if (i+1)%10 == 0 {
			e.logger.Info("Enrichment progress: %d/%d", i+1, len(pending))
		}
	}

	e.checkpoint(dirty)
	e.logger.Success("Enrichment complete")
	return nil
}

func (e *Enricher) checkpoint(dirty []*models.CruiseDeal) {
	if e.store == nil || len(dirty) == 0 {
		return
	}
	// A fresh context: checkpointing must still run when the run context was
	// cancelled mid-pass.
	if _, _, err := e.store.UpsertDeals(context.Background(), dirty); err != nil {
		e.logger.Error("Enrichment checkpoint failed: %v", err)
	} else {
		e.logger.Debug("Checkpointed %d enriched deals", len(dirty))
	}
}

// enrichOne fetches the detail page and applies each extractor. Reports
// whether any field changed.
func (e *Enricher) enrichOne(ctx context.Context, deal *models.CruiseDeal) bool {
	doc, err := e.browser.Page(ctx, deal.URL)
	if err != nil {
		e.logger.Warn("Detail page failed for %s: %v", deal.URL, err)
		return false
	}

	changed := false
	if extractJSONLD(doc, deal) {
		changed = true
	}
	if deal.ImageURL == "" {
		if img := extractImage(doc, deal.URL); img != "" {
			deal.ImageURL = img
			changed = true
		}
	}
	if extractInteriorPricing(doc, deal) {
		changed = true
	}
	if len(deal.Itinerary) == 0 {
		if stops := extractItinerary(doc); len(stops) > 0 {
			deal.Itinerary = stops
			changed = true
		}
	}
	if len(deal.CabinPricing) == 0 {
		if cabins := extractCabins(doc); len(cabins) > 0 {
			deal.CabinPricing = cabins
			changed = true
		}
	}
	if len(deal.Inclusions) == 0 {
		if inc := extractInclusions(doc); len(inc) > 0 {
			deal.Inclusions = inc
			changed = true
		}
	}
	return changed
}

// ldProduct is the subset of schema.org Product/Trip markup detail pages
// embed. Fields we don't read are left undeclared.
type ldProduct struct {
	Type   string      `json:"@type"`
	Image  interface{} `json:"image"` // string or []string
	Offers struct {
		Price    string `json:"price"`
		LowPrice string `json:"lowPrice"`
	} `json:"offers"`
}

// extractJSONLD reads structured data blocks before falling back to DOM
// scraping. Only the image and offer price are trusted from markup; sites
// frequently leave the rest stale.
func extractJSONLD(doc *goquery.Document, deal *models.CruiseDeal) bool {
	changed := false
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var p ldProduct
		if err := json.Unmarshal([]byte(s.Text()), &p); err != nil {
			return true
		}

		if deal.ImageURL == "" {
			switch img := p.Image.(type) {
			case string:
				deal.ImageURL = img
			case []interface{}:
				if len(img) > 0 {
					if first, ok := img[0].(string); ok {
						deal.ImageURL = first
					}
				}
			}
			if deal.ImageURL != "" {
				changed = true
			}
		}

		priceText := p.Offers.LowPrice
		if priceText == "" {
			priceText = p.Offers.Price
		}
		if pp := parseAmount(priceText); pp > 0 && deal.Price2PInterior <= 0 {
			deal.Price2PInterior = pp * 2
			deal.SetTotalPrice(deal.Price2PInterior)
			changed = true
		}
		return deal.ImageURL == "" || deal.Price2PInterior <= 0
	})
	return changed
}

var imageExcludeRe = regexp.MustCompile(`(?i)logo|icon|flag|sprite|avatar|badge`)
var imagePreferRe = regexp.MustCompile(`(?i)map|route|itinerary`)

// extractImage prefers an itinerary-map image, then the first substantial
// non-chrome image on the page.
func extractImage(doc *goquery.Document, pageURL string) string {
	var preferred, fallback string
	doc.Find("img[src]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src, _ := img.Attr("src")
		alt, _ := img.Attr("alt")
		if src == "" || imageExcludeRe.MatchString(src) || imageExcludeRe.MatchString(alt) {
			return true
		}
		if imagePreferRe.MatchString(src) || imagePreferRe.MatchString(alt) {
			preferred = src
			return false
		}
		if fallback == "" && !strings.HasPrefix(src, "data:") {
			fallback = src
		}
		return true
	})

	src := preferred
	if src == "" {
		src = fallback
	}
	if src == "" {
		return ""
	}
	return scraper.AbsoluteURL(pageURL, src)
}

var (
	interiorRowRe = regexp.MustCompile(`(?i)interior|inside`)
	soldOutRe     = regexp.MustCompile(`(?i)sold\s*out|unavailable|waitlist`)
	quadTextRe    = regexp.MustCompile(`(?i)quad.*?\$\s*([\d,]+)`)
	// "Interior $1,234 $2,468" in running text: per-person then twin total.
	interiorTextRe = regexp.MustCompile(`(?i)Interior\D{0,40}\$\s*([\d,]+)\s+\$\s*([\d,]+)`)
)

// extractInteriorPricing reads the cheapest non-sold-out interior fare from
// the pricing table, or from running text when no table exists. A real
// detail-page fare supersedes the listing card's "from" price.
func extractInteriorPricing(doc *goquery.Document, deal *models.CruiseDeal) bool {
	minPP := 0.0
	quad := 0.0

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		text := row.Text()
		if soldOutRe.MatchString(text) {
			return
		}
		pp := rowPrice(row)
		if pp <= 0 {
			return
		}
		if interiorRowRe.MatchString(text) && (minPP == 0 || pp < minPP) {
			minPP = pp
		}
		if strings.Contains(strings.ToLower(text), "quad") && quad == 0 {
			quad = pp
		}
	})

	if minPP == 0 {
		body := doc.Find("body").Text()
		if m := interiorTextRe.FindStringSubmatch(body); m != nil {
			if twin := parseAmount(m[2]); twin > 0 {
				minPP = twin / 2
			} else {
				minPP = parseAmount(m[1])
			}
		}
		if m := quadTextRe.FindStringSubmatch(body); m != nil {
			quad = parseAmount(m[1])
		}
	}

	if minPP <= 0 {
		return false
	}

	deal.Price2PInterior = minPP * 2
	if quad > 0 {
		deal.Price4PInterior = quad
	} else {
		// No quad fare published: estimate at four times the per-person rate.
		deal.Price4PInterior = minPP * 4
	}
	deal.SetTotalPrice(deal.Price2PInterior)
	return true
}

// rowPrice takes the last currency amount in a table row; pricing tables put
// the fare in a trailing cell after category and occupancy columns.
func rowPrice(row *goquery.Selection) float64 {
	var price float64
	row.Find("td").Each(func(_ int, cell *goquery.Selection) {
		if v := scraper.ParsePrice(cell.Text()); v > 0 {
			price = v
		}
	})
	return price
}

func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

var dayCellRe = regexp.MustCompile(`(?i)^\s*(?:day\s*)?(\d{1,2})\s*$`)
var timeRe = regexp.MustCompile(`\d{1,2}:\d{2}\s*(?:am|pm|AM|PM)?`)

// extractItinerary reads the day-by-day table: a leading day number cell, a
// port cell, and optional arrival/departure times.
func extractItinerary(doc *goquery.Document) []models.ItineraryStop {
	var stops []models.ItineraryStop
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		m := dayCellRe.FindStringSubmatch(cells.Eq(0).Text())
		if m == nil {
			return
		}
		day, _ := strconv.Atoi(m[1])
		port := scraper.CollapseSpace(cells.Eq(1).Text())
		if port == "" || day <= 0 {
			return
		}

		stop := models.ItineraryStop{Day: day, Port: port}
		if cells.Length() >= 3 {
			stop.Arrival = timeRe.FindString(cells.Eq(2).Text())
		}
		if cells.Length() >= 4 {
			stop.Departure = timeRe.FindString(cells.Eq(3).Text())
		}
		stops = append(stops, stop)
	})
	return stops
}

var cabinTypeRe = regexp.MustCompile(`(?i)(interior|inside|oceanview|ocean view|balcony|suite)`)

// extractCabins reads the cabin category pricing table. Sold-out rows are
// kept with Available=false; absence from the table is not sold out.
func extractCabins(doc *goquery.Document) []models.CabinCategory {
	var cabins []models.CabinCategory
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		text := row.Text()
		m := cabinTypeRe.FindString(text)
		if m == "" {
			return
		}
		soldOut := soldOutRe.MatchString(text)
		pp := rowPrice(row)
		if pp <= 0 && !soldOut {
			return
		}

		cells := row.Find("td")
		category := ""
		if cells.Length() > 0 {
			category = scraper.CollapseSpace(cells.Eq(0).Text())
		}
		cabinType := strings.Title(strings.ToLower(m))
		if cabinType == "Inside" {
			cabinType = "Interior"
		}
		if cabinType == "Ocean view" {
			cabinType = "Oceanview"
		}

		cabins = append(cabins, models.CabinCategory{
			Category:       category,
			CabinType:      cabinType,
			PricePerPerson: pp,
			TotalPrice:     pp * 2,
			Available:      !soldOut,
		})
	})
	return cabins
}

var inclusionHeadingRe = regexp.MustCompile(`(?i)inclusion|included|what'?s included`)

// extractInclusions lists the items under an inclusions heading.
func extractInclusions(doc *goquery.Document) []string {
	var inclusions []string
	doc.Find("h1, h2, h3, h4").Each(func(_ int, h *goquery.Selection) {
		if !inclusionHeadingRe.MatchString(h.Text()) {
			return
		}
		h.NextAllFiltered("ul, ol").First().Find("li").Each(func(_ int, li *goquery.Selection) {
			item := scraper.CollapseSpace(li.Text())
			if item != "" && len(item) < 200 {
				inclusions = append(inclusions, item)
			}
		})
	})
	return inclusions
}
