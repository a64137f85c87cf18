package carnival

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"cruise-deal-scraper/fetch"
	"cruise-deal-scraper/models"
	"cruise-deal-scraper/scraper"
	"cruise-deal-scraper/utils"
)

const (
	baseURL   = "https://www.carnival.com.au"
	searchAPI = baseURL + "/cruisesearch/api/search"
	pageSize  = 30
	maxPages  = 20
)

// destGroups are Carnival's region-code filters. Two queries cover the
// Australian and worldwide catalogues.
var destGroups = []string{
	"TP,NZ,O,U,X",
	"A,BH,BM,NN,C,E,H,M,P",
}

// cabinMeta maps Carnival's lead stateroom meta codes.
var cabinMeta = map[string]string{
	"IS": "Interior",
	"OS": "Oceanview",
	"BS": "Balcony",
	"SU": "Suite",
}

type searchResponse struct {
	Results struct {
		Itineraries []itinerary `json:"itineraries"`
	} `json:"results"`
}

type itinerary struct {
	ID                string `json:"id"`
	ItineraryCode     string `json:"itineraryCode"`
	ShipName          string `json:"shipName"`
	Dur               int    `json:"dur"`
	DeparturePortName string `json:"departurePortName"`
	RegionName        string `json:"regionName"`
	Image             string `json:"image"`
	LeadSailing       struct {
		FromPrice     float64 `json:"fromPrice"`
		DepartureDate string  `json:"departureDate"`
		LeadMetaCode  string  `json:"leadMetaCode"`
	} `json:"leadSailing"`
}

// Scraper pulls the Carnival Australia catalogue through the public search
// API that backs their cruise search page. No HTML parsing involved.
type Scraper struct {
	client *fetch.Client
	logger *utils.Logger
}

func New(client *fetch.Client, logger *utils.Logger) *Scraper {
	return &Scraper{client: client, logger: logger}
}

func (s *Scraper) Name() string { return "Carnival Australia" }

func (s *Scraper) Scrape(ctx context.Context) ([]*models.CruiseDeal, error) {
	s.logger.Info("Starting scrape of %s", s.Name())

	var deals []*models.CruiseDeal
	seen := make(map[models.DealKey]struct{})

	for _, dest := range destGroups {
		for page := 1; page <= maxPages; page++ {
			if err := ctx.Err(); err != nil {
				return deals, err
			}

			q := url.Values{}
			q.Set("dest", dest)
			q.Set("numadults", "2")
			q.Set("pageNumber", fmt.Sprintf("%d", page))
			q.Set("pagesize", fmt.Sprintf("%d", pageSize))
			q.Set("sort", "FromPrice")
			q.Set("locality", "7")
			q.Set("currency", "AUD")

			var resp searchResponse
			if err := s.client.GetJSON(ctx, searchAPI+"?"+q.Encode(), baseURL+"/cruise-search", &resp); err != nil {
				s.logger.Warn("Carnival page %d (dest %s) failed: %v", page, dest, err)
				break
			}

			batch := resp.Results.Itineraries
			for _, it := range batch {
				deal := s.mapItinerary(it)
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

			// A short page means the catalogue is exhausted.
			if len(batch) < pageSize {
				break
			}
		}
	}

	s.logger.Success("%s: scraped %d deals", s.Name(), len(deals))
	return deals, nil
}

func (s *Scraper) mapItinerary(it itinerary) *models.CruiseDeal {
	price := it.LeadSailing.FromPrice
	duration := it.Dur
	if duration > 0 {
		duration = scraper.NightsToDays(duration)
	}
	if price <= 0 || duration <= 0 {
		return nil
	}

	now := time.Now()
	departure := now
	if t, err := time.Parse(time.RFC3339, it.LeadSailing.DepartureDate); err == nil {
		departure = t
	} else if t, err := time.Parse("2006-01-02T15:04:05", it.LeadSailing.DepartureDate); err == nil {
		departure = t
	}

	cabin := cabinMeta[strings.ToUpper(it.LeadSailing.LeadMetaCode)]
	if cabin == "" {
		cabin = "Interior"
	}

	dest := it.RegionName
	if dest == "" {
		dest = "Various"
	}

	code := it.ItineraryCode
	if code == "" {
		code = it.ID
	}
	dealURL := fmt.Sprintf("%s/cruises/%s?saildate=%s", baseURL,
		strings.ToLower(code), departure.Format("2006-01-02"))

	deal := &models.CruiseDeal{
		CruiseLine:    "Carnival",
		ShipName:      it.ShipName,
		Destination:   dest,
		DepartureDate: departure,
		DurationDays:  duration,
		DeparturePort: it.DeparturePortName,
		CabinType:     cabin,
		URL:           dealURL,
		ImageURL:      it.Image,
		ScrapedAt:     now,
	}
	deal.SetTotalPrice(price)
	return deal
}
