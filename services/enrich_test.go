package services_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cruise-deal-scraper/fetch"
	"cruise-deal-scraper/models"
	"cruise-deal-scraper/services"
	"cruise-deal-scraper/utils"
)

// ---- fakes -----------------------------------------------------------------

type fakeBrowser struct {
	mu     sync.Mutex
	pages  map[string]string
	visits []string
}

func (f *fakeBrowser) Page(_ context.Context, url string) (*goquery.Document, error) {
	f.mu.Lock()
	f.visits = append(f.visits, url)
	html, ok := f.pages[url]
	f.mu.Unlock()
	if !ok {
		return nil, &fetch.Error{URL: url, StatusCode: 404}
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

var _ fetch.PageFetcher = (*fakeBrowser)(nil)

type fakeStore struct {
	mu      sync.Mutex
	batches [][]*models.CruiseDeal
}

func (f *fakeStore) UpsertDeals(_ context.Context, deals []*models.CruiseDeal) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	batch := make([]*models.CruiseDeal, len(deals))
	copy(batch, deals)
	f.batches = append(f.batches, batch)
	return len(deals), 0, nil
}

var _ services.Checkpointer = (*fakeStore)(nil)

func listingDeal(url string) *models.CruiseDeal {
	d := &models.CruiseDeal{
		CruiseLine:    "Royal Caribbean",
		ShipName:      "Anthem Of The Seas",
		Destination:   "South Pacific",
		DepartureDate: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		DurationDays:  8,
		URL:           url,
		ScrapedAt:     time.Now(),
	}
	d.SetTotalPrice(999) // listing card "from" price
	return d
}

const detailPage = `
<html><body>
<img src="/assets/logo.png" alt="site logo">
<img src="/assets/itinerary-map.jpg" alt="route map">

<h2>Cabin Pricing</h2>
<table>
	<tr><td>4V Interior</td><td>Twin</td><td>$450</td></tr>
	<tr><td>2N Interior</td><td>Quad</td><td>$380</td></tr>
	<tr><td>6B Balcony</td><td>Twin</td><td>$720</td></tr>
	<tr><td>GS Suite</td><td>Twin</td><td>Sold Out</td></tr>
</table>

<h2>Itinerary</h2>
<table>
	<tr><td>1</td><td>Sydney</td><td></td><td>6:30 PM</td></tr>
	<tr><td>3</td><td>Noumea</td><td>8:00 AM</td><td>5:00 PM</td></tr>
	<tr><td>8</td><td>Sydney</td><td>7:00 AM</td><td></td></tr>
</table>

<h3>What's Included</h3>
<ul>
	<li>Main dining and buffet meals</li>
	<li>Entertainment and shows</li>
</ul>
</body></html>`

// ---- enrichment ------------------------------------------------------------

func TestEnrich_FillsDetailFields(t *testing.T) {
	url := "https://example.com/cruise/1"
	browser := &fakeBrowser{pages: map[string]string{url: detailPage}}
	deal := listingDeal(url)

	e := services.NewEnricher(browser, 0, 0, nil, utils.NewLogger())
	require.NoError(t, e.Run(context.Background(), []*models.CruiseDeal{deal}, 0))

	assert.Equal(t, "https://example.com/assets/itinerary-map.jpg", deal.ImageURL)

	// Cheapest non-sold-out interior fare is $380 pp; the 2-passenger price
	// doubles it, and the quad row supplies the 4-passenger fare directly.
	assert.InDelta(t, 760.0, deal.Price2PInterior, 0.001)
	assert.InDelta(t, 380.0, deal.Price4PInterior, 0.001)

	// Real detail pricing supersedes the listing "from" price.
	assert.InDelta(t, 760.0, deal.TotalPriceAUD, 0.001)
	assert.InDelta(t, 760.0/8, deal.PricePerDay, 0.001)

	require.Len(t, deal.Itinerary, 3)
	assert.Equal(t, models.ItineraryStop{Day: 1, Port: "Sydney", Departure: "6:30 PM"}, deal.Itinerary[0])
	assert.Equal(t, models.ItineraryStop{Day: 3, Port: "Noumea", Arrival: "8:00 AM", Departure: "5:00 PM"}, deal.Itinerary[1])

	require.NotEmpty(t, deal.CabinPricing)
	var suite *models.CabinCategory
	for i := range deal.CabinPricing {
		if deal.CabinPricing[i].CabinType == "Suite" {
			suite = &deal.CabinPricing[i]
		}
	}
	require.NotNil(t, suite)
	assert.False(t, suite.Available)

	assert.Equal(t, []string{"Main dining and buffet meals", "Entertainment and shows"}, deal.Inclusions)
}

func TestEnrich_FieldsAreIndependent(t *testing.T) {
	// Page with only an image: pricing and itinerary stay untouched.
	url := "https://example.com/cruise/2"
	browser := &fakeBrowser{pages: map[string]string{
		url: `<html><body><img src="/route-map.png" alt="itinerary map"></body></html>`,
	}}
	deal := listingDeal(url)

	e := services.NewEnricher(browser, 0, 0, nil, utils.NewLogger())
	require.NoError(t, e.Run(context.Background(), []*models.CruiseDeal{deal}, 0))

	assert.Equal(t, "https://example.com/route-map.png", deal.ImageURL)
	assert.Zero(t, deal.Price2PInterior)
	assert.Empty(t, deal.Itinerary)
	assert.InDelta(t, 999.0, deal.TotalPriceAUD, 0.001) // listing price kept
}

func TestEnrich_ReadsStructuredData(t *testing.T) {
	url := "https://example.com/cruise/ld"
	browser := &fakeBrowser{pages: map[string]string{
		url: `<html><head>
			<script type="application/ld+json">
			{"@type":"Product","image":["https://cdn.example/voyage.jpg"],
			 "offers":{"lowPrice":"425.00","priceCurrency":"AUD"}}
			</script>
			</head><body></body></html>`,
	}}
	deal := listingDeal(url)

	e := services.NewEnricher(browser, 0, 0, nil, utils.NewLogger())
	require.NoError(t, e.Run(context.Background(), []*models.CruiseDeal{deal}, 0))

	assert.Equal(t, "https://cdn.example/voyage.jpg", deal.ImageURL)
	assert.InDelta(t, 850.0, deal.Price2PInterior, 0.001)
	assert.InDelta(t, 850.0, deal.TotalPriceAUD, 0.001)
}

func TestEnrich_PageFailureLeavesDealUntouched(t *testing.T) {
	deal := listingDeal("https://example.com/cruise/missing")
	browser := &fakeBrowser{pages: map[string]string{}}

	e := services.NewEnricher(browser, 0, 0, nil, utils.NewLogger())
	require.NoError(t, e.Run(context.Background(), []*models.CruiseDeal{deal}, 0))

	assert.InDelta(t, 999.0, deal.TotalPriceAUD, 0.001)
	assert.Empty(t, deal.ImageURL)
}

func TestEnrich_SkipsDealsThatDontNeedIt(t *testing.T) {
	url := "https://example.com/cruise/full"
	deal := listingDeal(url)
	deal.ImageURL = "https://example.com/map.jpg"
	deal.Price2PInterior = 900
	deal.Itinerary = []models.ItineraryStop{{Day: 1, Port: "Sydney"}}

	browser := &fakeBrowser{pages: map[string]string{}}
	e := services.NewEnricher(browser, 0, 0, nil, utils.NewLogger())
	require.NoError(t, e.Run(context.Background(), []*models.CruiseDeal{deal}, 0))

	assert.Empty(t, browser.visits)
}

func TestEnrich_SharedURLVisitedOnce(t *testing.T) {
	url := "https://example.com/cruise/shared"
	a := listingDeal(url)
	b := listingDeal(url)
	b.ShipName = "Ovation Of The Seas"

	browser := &fakeBrowser{pages: map[string]string{url: detailPage}}
	e := services.NewEnricher(browser, 0, 0, nil, utils.NewLogger())
	require.NoError(t, e.Run(context.Background(), []*models.CruiseDeal{a, b}, 0))

	assert.Len(t, browser.visits, 1)
}

func TestEnrich_RespectsLimit(t *testing.T) {
	browser := &fakeBrowser{pages: map[string]string{}}
	deals := []*models.CruiseDeal{
		listingDeal("https://example.com/1"),
		listingDeal("https://example.com/2"),
		listingDeal("https://example.com/3"),
	}
	// Distinct ships so the records are distinct sailings.
	deals[1].ShipName = "Ovation Of The Seas"
	deals[2].ShipName = "Quantum Of The Seas"

	e := services.NewEnricher(browser, 0, 0, nil, utils.NewLogger())
	require.NoError(t, e.Run(context.Background(), deals, 2))

	assert.Len(t, browser.visits, 2)
}

func TestEnrich_CheckpointsEveryBatch(t *testing.T) {
	pages := map[string]string{}
	var deals []*models.CruiseDeal
	urls := []string{"https://example.com/1", "https://example.com/2", "https://example.com/3"}
	ships := []string{"Anthem Of The Seas", "Ovation Of The Seas", "Quantum Of The Seas"}
	for i, u := range urls {
		pages[u] = detailPage
		d := listingDeal(u)
		d.ShipName = ships[i]
		deals = append(deals, d)
	}

	store := &fakeStore{}
	browser := &fakeBrowser{pages: pages}
	e := services.NewEnricher(browser, 0, 2, store, utils.NewLogger())
	require.NoError(t, e.Run(context.Background(), deals, 0))

	// Batch size 2 over 3 enriched deals: a full batch plus the remainder.
	require.Len(t, store.batches, 2)
	assert.Len(t, store.batches[0], 2)
	assert.Len(t, store.batches[1], 1)
}

func TestEnrich_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	browser := &fakeBrowser{pages: map[string]string{}}
	e := services.NewEnricher(browser, 0, 0, nil, utils.NewLogger())
	err := e.Run(ctx, []*models.CruiseDeal{listingDeal("https://example.com/1")}, 0)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, browser.visits)
}
