package norwegian

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cruise-deal-scraper/fetch"
	"cruise-deal-scraper/models"
	"cruise-deal-scraper/utils"
)

const (
	siteURL = "https://www.ncl.com"
	apiURL  = siteURL + "/au/en/api/vacations/v2/itineraries?guests=2"
)

// shipNames maps NCL's internal ship codes to display names.
var shipNames = map[string]string{
	"LUNA":       "Norwegian Luna",
	"AQUA":       "Norwegian Aqua",
	"VIVA":       "Norwegian Viva",
	"PRIMA":      "Norwegian Prima",
	"ENCORE":     "Norwegian Encore",
	"BLISS":      "Norwegian Bliss",
	"JOY":        "Norwegian Joy",
	"ESCAPE":     "Norwegian Escape",
	"BREAKAWAY":  "Norwegian Breakaway",
	"GETAWAY":    "Norwegian Getaway",
	"EPIC":       "Norwegian Epic",
	"GEM":        "Norwegian Gem",
	"JADE":       "Norwegian Jade",
	"JEWEL":      "Norwegian Jewel",
	"PEARL":      "Norwegian Pearl",
	"DAWN":       "Norwegian Dawn",
	"STAR":       "Norwegian Star",
	"SUN":        "Norwegian Sun",
	"SKY":        "Norwegian Sky",
	"SPIRIT":     "Norwegian Spirit",
	"PRIDE_AMER": "Pride of America",
}

// destinationNames maps NCL destination codes to readable regions.
var destinationNames = map[string]string{
	"AUSTRALIA":     "Australia & New Zealand",
	"SOUTH_PACIFIC": "South Pacific",
	"ASIA":          "Asia",
	"CARIBBEAN":     "Caribbean",
	"ALASKA":        "Alaska",
	"EUROPE":        "Europe",
	"HAWAII":        "Hawaii",
	"MEXICO":        "Mexican Riviera",
	"BERMUDA":       "Bermuda",
	"BAHAMAS":       "Bahamas & Florida",
	"TRANSATLANTIC": "Transatlantic",
	"PANAMA_CANAL":  "Panama Canal",
	"SOUTH_AMERICA": "South America",
	"AFRICA":        "Africa",
	"CANARY":        "Canary Islands",
}

type itinerary struct {
	Code            string    `json:"code"`
	Duration        int       `json:"duration"`
	DestinationCode string    `json:"destinationCode"`
	EmbarkPortName  string    `json:"embarkationPortName"`
	ShipCode        string    `json:"shipCode"`
	Sailings        []sailing `json:"sailings"`
}

type sailing struct {
	SailID        string    `json:"sailId"`
	DepartureDate int64     `json:"departureDate"` // unix milliseconds
	Pricing       []pricing `json:"pricing"`
}

type pricing struct {
	Status        string  `json:"status"`
	Code          string  `json:"code"`
	CombinedPrice float64 `json:"combinedPrice"`
}

// Scraper pulls every NCL itinerary from the vacations API. One request
// returns the whole catalogue; each itinerary fans out into its sailings.
type Scraper struct {
	client *fetch.Client
	logger *utils.Logger
}

func New(client *fetch.Client, logger *utils.Logger) *Scraper {
	return &Scraper{client: client, logger: logger}
}

func (s *Scraper) Name() string { return "Norwegian Cruise Line" }

func (s *Scraper) Scrape(ctx context.Context) ([]*models.CruiseDeal, error) {
	s.logger.Info("Starting scrape of %s", s.Name())

	var itineraries []itinerary
	if err := s.client.GetJSON(ctx, apiURL, siteURL+"/au/en/cruises", &itineraries); err != nil {
		return nil, fmt.Errorf("ncl itineraries: %w", err)
	}

	var deals []*models.CruiseDeal
	seen := make(map[models.DealKey]struct{})
	now := time.Now()

	for _, it := range itineraries {
		if err := ctx.Err(); err != nil {
			return deals, err
		}
		for _, sl := range it.Sailings {
			deal := s.mapSailing(it, sl, now)
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

func (s *Scraper) mapSailing(it itinerary, sl sailing, now time.Time) *models.CruiseDeal {
	// Cheapest available inside cabin; any available cabin as fallback.
	price := 0.0
	for _, p := range sl.Pricing {
		if p.Status != "AVAILABLE" || p.CombinedPrice <= 0 {
			continue
		}
		if p.Code == "INSIDE" {
			price = p.CombinedPrice
			break
		}
		if price == 0 {
			price = p.CombinedPrice
		}
	}
	// Durations here are already day counts, not nights.
	if price <= 0 || it.Duration <= 0 {
		return nil
	}

	shipName := shipNames[it.ShipCode]
	if shipName == "" {
		shipName = "Norwegian " + strings.Title(strings.ToLower(it.ShipCode))
	}
	destination := destinationNames[it.DestinationCode]
	if destination == "" {
		destination = "Various"
	}

	departure := now
	if sl.DepartureDate > 0 {
		departure = time.UnixMilli(sl.DepartureDate)
	}

	deal := &models.CruiseDeal{
		CruiseLine:    "Norwegian Cruise Line",
		ShipName:      shipName,
		Destination:   destination,
		DepartureDate: departure,
		DurationDays:  it.Duration,
		DeparturePort: it.EmbarkPortName,
		CabinType:     "Interior",
		URL:           fmt.Sprintf("%s/au/en/cruises/%s?sailingId=%s", siteURL, it.Code, sl.SailID),
		ImageURL:      fmt.Sprintf("%s/sites/default/files/ships/%s_hero.jpg", siteURL, strings.ToLower(it.ShipCode)),
		ScrapedAt:     now,
	}
	deal.SetTotalPrice(price)
	return deal
}
