package hollandamerica

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"cruise-deal-scraper/fetch"
	"cruise-deal-scraper/models"
	"cruise-deal-scraper/utils"
)

const (
	siteURL   = "https://www.hollandamerica.com"
	searchAPI = siteURL + "/search/halcruisesearch"
	rows      = 50
	maxStart  = 500
)

type searchResponse struct {
	Response struct {
		NumFound int   `json:"numFound"`
		Docs     []doc `json:"docs"`
	} `json:"response"`
}

type doc struct {
	ShipName            string   `json:"shipName"`
	DestinationNames    []string `json:"en_au_destinationNames_ss"`
	Duration            int      `json:"duration"`
	EmbarkPortNames     []string `json:"embarkPortNames"`
	PriceAUDRestricted  float64  `json:"price_AUD_RESTRICTED"`
	SortPriceAUD        float64  `json:"sortPrice_AUD"`
	SortPriceUSD        float64  `json:"sortPrice_USD"`
	DepartDate          string   `json:"departDate"`
	ContentPath         string   `json:"contentPath"`
	CruiseOverviewImage string   `json:"cruiseOverviewImage"`
}

// Scraper pages through Holland America's Solr-backed cruise search.
type Scraper struct {
	client *fetch.Client
	logger *utils.Logger
}

func New(client *fetch.Client, logger *utils.Logger) *Scraper {
	return &Scraper{client: client, logger: logger}
}

func (s *Scraper) Name() string { return "Holland America" }

func (s *Scraper) Scrape(ctx context.Context) ([]*models.CruiseDeal, error) {
	s.logger.Info("Starting scrape of %s", s.Name())

	var deals []*models.CruiseDeal
	seen := make(map[models.DealKey]struct{})
	now := time.Now()

	for start := 0; start <= maxStart; start += rows {
		if err := ctx.Err(); err != nil {
			return deals, err
		}

		q := url.Values{}
		q.Set("start", fmt.Sprintf("%d", start))
		q.Set("rows", fmt.Sprintf("%d", rows))
		q.Set("country", "au")

		var resp searchResponse
		if err := s.client.GetJSON(ctx, searchAPI+"?"+q.Encode(), siteURL+"/en_AU/find-a-cruise", &resp); err != nil {
			s.logger.Warn("Holland America page at %d failed: %v", start, err)
			break
		}

		for _, d := range resp.Response.Docs {
			deal := s.mapDoc(d, now)
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

		if len(resp.Response.Docs) < rows {
			break
		}
	}

	s.logger.Success("%s: scraped %d deals", s.Name(), len(deals))
	return deals, nil
}

func (s *Scraper) mapDoc(d doc, now time.Time) *models.CruiseDeal {
	// AUD restricted fare first, then AUD sort price, then USD as last resort.
	price := d.PriceAUDRestricted
	if price <= 0 {
		price = d.SortPriceAUD
	}
	if price <= 0 {
		price = d.SortPriceUSD
	}
	// Durations in this index are day counts already.
	if price <= 0 || d.Duration <= 0 {
		return nil
	}

	// Ship names arrive as "Noordam#@#NO"; the suffix is an internal code.
	shipName := d.ShipName
	if i := strings.Index(shipName, "#@#"); i >= 0 {
		shipName = shipName[:i]
	}
	shipName = strings.TrimSpace(shipName)
	if !strings.HasPrefix(strings.ToLower(shipName), "ms ") {
		shipName = "ms " + shipName
	}

	destination := "Various"
	if len(d.DestinationNames) > 0 {
		destination = strings.TrimSpace(strings.Split(d.DestinationNames[0], "#@#")[0])
	}

	port := ""
	if len(d.EmbarkPortNames) > 0 {
		port = strings.TrimSpace(strings.Split(d.EmbarkPortNames[0], "#@#")[0])
	}

	departure := now
	if t, err := time.Parse(time.RFC3339, d.DepartDate); err == nil {
		departure = t
	} else if t, err := time.Parse("2006-01-02", d.DepartDate); err == nil {
		departure = t
	}

	dealURL := siteURL
	if d.ContentPath != "" {
		dealURL = siteURL + d.ContentPath + ".html"
	}

	deal := &models.CruiseDeal{
		CruiseLine:    "Holland America",
		ShipName:      shipName,
		Destination:   destination,
		DepartureDate: departure,
		DurationDays:  d.Duration,
		DeparturePort: port,
		CabinType:     "Interior",
		URL:           dealURL,
		ImageURL:      d.CruiseOverviewImage,
		ScrapedAt:     now,
	}
	deal.SetTotalPrice(price)
	return deal
}
