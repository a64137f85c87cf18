package celebrity

import (
	"context"
	"strings"
	"time"

	"cruise-deal-scraper/fetch"
	"cruise-deal-scraper/models"
	"cruise-deal-scraper/scraper/rccl"
	"cruise-deal-scraper/utils"
)

const (
	siteURL  = "https://www.celebritycruises.com"
	endpoint = siteURL + "/graph"
)

// Scraper pulls Celebrity's catalogue through the same cruise-search GraphQL
// backend as the sister brand, with Celebrity's product URL scheme.
type Scraper struct {
	client *fetch.Client
	logger *utils.Logger
}

func New(client *fetch.Client, logger *utils.Logger) *Scraper {
	return &Scraper{client: client, logger: logger}
}

func (s *Scraper) Name() string { return "Celebrity Cruises" }

func (s *Scraper) Scrape(ctx context.Context) ([]*models.CruiseDeal, error) {
	s.logger.Info("Starting scrape of %s", s.Name())

	deals, err := rccl.Search(ctx, s.client, rccl.Brand{
		Line:     "Celebrity Cruises",
		Endpoint: endpoint,
		Referer:  siteURL + "/au/cruises",
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

// buildURL keeps Celebrity's own product link but flips the storefront
// parameters from the US defaults to Australia.
func buildURL(productViewLink string, _ time.Time) string {
	link := siteURL + "/" + strings.TrimPrefix(productViewLink, "/")
	link = strings.ReplaceAll(link, "country=USA", "country=AUS")
	link = strings.ReplaceAll(link, "&cCD=CO", "&cCD=AU")
	return link
}
