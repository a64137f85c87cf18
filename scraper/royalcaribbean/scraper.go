package royalcaribbean

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cruise-deal-scraper/fetch"
	"cruise-deal-scraper/models"
	"cruise-deal-scraper/scraper/rccl"
	"cruise-deal-scraper/utils"
)

const (
	siteURL  = "https://www.royalcaribbean.com"
	endpoint = siteURL + "/graph"
)

// Scraper pulls Royal Caribbean's catalogue through the cruise-search
// GraphQL endpoint, rebuilt onto the Australian storefront.
type Scraper struct {
	client *fetch.Client
	logger *utils.Logger
}

func New(client *fetch.Client, logger *utils.Logger) *Scraper {
	return &Scraper{client: client, logger: logger}
}

func (s *Scraper) Name() string { return "Royal Caribbean" }

func (s *Scraper) Scrape(ctx context.Context) ([]*models.CruiseDeal, error) {
	s.logger.Info("Starting scrape of %s", s.Name())

	deals, err := rccl.Search(ctx, s.client, rccl.Brand{
		Line:     "Royal Caribbean",
		Endpoint: endpoint,
		Referer:  siteURL + "/aus/en/cruises",
		BuildURL: buildURL,
		ImageURL: func(path string) string {
			if strings.HasPrefix(path, "http") {
				return path
			}
			return siteURL + path
		},
	}, s.logger)
	if err != nil {
		return deals, err
	}

	s.logger.Success("%s: scraped %d deals", s.Name(), len(deals))
	return deals, nil
}

// buildURL rewrites the product link onto the AU storefront with the sailing
// preselected in AUD.
func buildURL(productViewLink string, sailDate time.Time) string {
	base := strings.TrimPrefix(productViewLink, "/")
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s/aus/en/%s%ssail-date=%s&currency=AUD&country=AUS",
		siteURL, base, sep, sailDate.Format("2006-01-02"))
}
