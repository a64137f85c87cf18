package scraper

import (
	"context"
	"sync"

	"cruise-deal-scraper/models"
	"cruise-deal-scraper/utils"
)

// Scraper is one source adapter. Scrape runs the source's full
// discover -> parse -> map pass and returns canonical records.
type Scraper interface {
	Name() string
	Scrape(ctx context.Context) ([]*models.CruiseDeal, error)
}

// Result is the outcome of one source's run.
type Result struct {
	Source string
	Deals  []*models.CruiseDeal
	Err    error
}

// RunAll runs every scraper in its own goroutine and unions the non-error
// results. One source failing never prevents the others from completing; a
// failed source contributes whatever it accumulated before failing.
func RunAll(ctx context.Context, scrapers []Scraper, logger *utils.Logger) []*models.CruiseDeal {
	results := make([]Result, len(scrapers))

	var wg sync.WaitGroup
	for i, s := range scrapers {
		wg.Add(1)
		go func(i int, s Scraper) {
			defer wg.Done()
			deals, err := s.Scrape(ctx)
			results[i] = Result{Source: s.Name(), Deals: deals, Err: err}
		}(i, s)
	}
	wg.Wait()

	var all []*models.CruiseDeal
	for _, r := range results {
		if r.Err != nil {
			logger.Error("Source %s failed: %v (keeping %d partial deals)", r.Source, r.Err, len(r.Deals))
		} else {
			logger.Success("Source %s: %d deals", r.Source, len(r.Deals))
		}
		all = append(all, r.Deals...)
	}
	return all
}
