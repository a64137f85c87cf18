// Package rccl holds the cruise-search GraphQL client shared by the Royal
// Caribbean and Celebrity brands, which run the same search backend with
// different endpoints and product URL schemes.
package rccl

import (
	"context"
	"net/url"
	"strings"
	"time"

	"cruise-deal-scraper/fetch"
	"cruise-deal-scraper/models"
	"cruise-deal-scraper/scraper"
	"cruise-deal-scraper/utils"
)

// DestinationFilters are the region codes both brands accept. The empty
// string is the unfiltered catch-all query and always runs last.
var DestinationFilters = []string{
	"AUSTL", "SOPAC", "FAR.E", "TPACI", "CARIB", "ALCAN", "EUROP", "",
}

const cruiseQuery = `query cruiseSearch($filters: String, $pagination: PaginationInput) {
  cruiseSearch(filters: $filters, pagination: $pagination) {
    results {
      cruises {
        id
        productViewLink
        masterSailing {
          itinerary {
            name
            totalNights
            ship { name }
            departurePort { name region }
            media { images { path } }
          }
        }
        lowestPriceSailing {
          lowestStateroomClassPrice { price { value } }
        }
        sailings { id }
      }
    }
  }
}`

type graphResponse struct {
	Data struct {
		CruiseSearch struct {
			Results struct {
				Cruises []Cruise `json:"cruises"`
			} `json:"results"`
		} `json:"cruiseSearch"`
	} `json:"data"`
}

// Cruise is one search result from the shared backend.
type Cruise struct {
	ID              string `json:"id"`
	ProductViewLink string `json:"productViewLink"`
	MasterSailing   struct {
		Itinerary struct {
			Name          string `json:"name"`
			TotalNights   int    `json:"totalNights"`
			Ship          struct {
				Name string `json:"name"`
			} `json:"ship"`
			DeparturePort struct {
				Name   string `json:"name"`
				Region string `json:"region"`
			} `json:"departurePort"`
			Media struct {
				Images []struct {
					Path string `json:"path"`
				} `json:"images"`
			} `json:"media"`
		} `json:"itinerary"`
	} `json:"masterSailing"`
	LowestPriceSailing struct {
		LowestStateroomClassPrice struct {
			Price struct {
				Value float64 `json:"value"`
			} `json:"price"`
		} `json:"lowestStateroomClassPrice"`
	} `json:"lowestPriceSailing"`
	Sailings []struct {
		ID string `json:"id"`
	} `json:"sailings"`
}

// Brand abstracts what differs between the two storefronts.
type Brand struct {
	Line     string
	Endpoint string
	Referer  string
	// BuildURL turns a productViewLink and sail date into the booking URL.
	BuildURL func(productViewLink string, sailDate time.Time) string
	// ImageURL turns a media path into an absolute image URL.
	ImageURL func(path string) string
}

// Search runs the cruise search once per destination filter and maps the
// union of results, deduplicating by five-tuple within the run.
func Search(ctx context.Context, client *fetch.Client, b Brand, logger *utils.Logger) ([]*models.CruiseDeal, error) {
	var deals []*models.CruiseDeal
	seen := make(map[models.DealKey]struct{})

	for _, filter := range DestinationFilters {
		if err := ctx.Err(); err != nil {
			return deals, err
		}

		q := url.Values{}
		q.Set("query", cruiseQuery)
		if filter != "" {
			q.Set("filters", "destination:"+filter)
		}

		var resp graphResponse
		if err := client.GetJSON(ctx, b.Endpoint+"?"+q.Encode(), b.Referer, &resp); err != nil {
			logger.Warn("%s filter %q failed: %v", b.Line, filter, err)
			continue
		}

		for _, c := range resp.Data.CruiseSearch.Results.Cruises {
			deal := mapCruise(c, b)
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
	return deals, nil
}

// SailDate extracts the sailing date from an ID like "QN03K088_2027-02-05".
func SailDate(sailingID string, now time.Time) time.Time {
	if i := strings.LastIndex(sailingID, "_"); i >= 0 {
		if t, err := time.Parse("2006-01-02", sailingID[i+1:]); err == nil {
			return t
		}
	}
	return now
}

func mapCruise(c Cruise, b Brand) *models.CruiseDeal {
	it := c.MasterSailing.Itinerary
	price := c.LowestPriceSailing.LowestStateroomClassPrice.Price.Value
	duration := scraper.NightsToDays(it.TotalNights)
	if price <= 0 || duration <= 0 {
		return nil
	}

	now := time.Now()
	departure := now
	if len(c.Sailings) > 0 {
		departure = SailDate(c.Sailings[0].ID, now)
	}

	destination := it.DeparturePort.Region
	if destination == "" {
		destination = it.Name
	}
	if destination == "" {
		destination = "Various"
	}

	imageURL := ""
	if imgs := it.Media.Images; len(imgs) > 0 {
		imageURL = b.ImageURL(imgs[0].Path)
	}

	deal := &models.CruiseDeal{
		CruiseLine:    b.Line,
		ShipName:      it.Ship.Name,
		Destination:   destination,
		DepartureDate: departure,
		DurationDays:  duration,
		DeparturePort: it.DeparturePort.Name,
		CabinType:     "Interior",
		URL:           b.BuildURL(c.ProductViewLink, departure),
		ImageURL:      imageURL,
		ScrapedAt:     now,
	}
	deal.SetTotalPrice(price)
	return deal
}
