package ozcruising_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cruise-deal-scraper/fetch"
	"cruise-deal-scraper/scraper/ozcruising"
	"cruise-deal-scraper/utils"
)

// ---- fake fetcher ----------------------------------------------------------

// fakeFetcher serves canned HTML per URL and errors on everything else, the
// way an aggregator scrape sees most seed pages fail in a sandboxed test.
type fakeFetcher struct {
	mu       sync.Mutex
	pages    map[string]string
	requests []string
}

func (f *fakeFetcher) Page(_ context.Context, url string) (*goquery.Document, error) {
	f.mu.Lock()
	f.requests = append(f.requests, url)
	html, ok := f.pages[url]
	f.mu.Unlock()
	if !ok {
		return nil, &fetch.Error{URL: url, StatusCode: 404}
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

var _ fetch.PageFetcher = (*fakeFetcher)(nil)

func (f *fakeFetcher) requested(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r == url {
			n++
		}
	}
	return n
}

const dealCard = `
<div class="deal">
	<img src="/img/carnival.png" alt="Carnival Cruise Line">
	<h3>South Pacific</h3>
	<p><i class="fa fa-ship"></i></p>
	<p>Carnival Splendor</p>
	<p>7 Nights Departing Sydney</p>
	<p>Twin From $1,199 pp</p>
	<p>Bonus: $200 onboard credit</p>
	<a href="/cruise/carnival-splendor-p123">View Cruise Details</a>
</div>`

func page(cards ...string) string {
	return "<html><body>" + strings.Join(cards, "\n") + "</body></html>"
}

const (
	home         = "https://www.ozcruising.com.au"
	carnivalPage = home + "/searchcruise/bysearchbar/17/-111/-111/-111/true/-111/-111/-111/-111"
)

// ---- parsing ---------------------------------------------------------------

func TestScrape_ParsesDealCard(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{home: page(dealCard)}}
	s := ozcruising.New(f, 0, []string{"Carnival"}, utils.NewLogger())

	deals, err := s.Scrape(context.Background())
	require.NoError(t, err)
	require.Len(t, deals, 1)

	d := deals[0]
	assert.Equal(t, "Carnival", d.CruiseLine)
	assert.Equal(t, "South Pacific", d.Destination)
	assert.Equal(t, 8, d.DurationDays) // 7 nights
	assert.Equal(t, "Sydney", d.DeparturePort)
	assert.Equal(t, "Twin", d.CabinType)
	assert.InDelta(t, 1199.0, d.TotalPriceAUD, 0.001)
	assert.InDelta(t, 1199.0/8, d.PricePerDay, 0.001)
	assert.Equal(t, "$200 onboard credit", d.SpecialOffers)
	assert.Equal(t, home+"/cruise/carnival-splendor-p123", d.URL)
}

func TestScrape_DiscardsCardsWithoutPriceOrDuration(t *testing.T) {
	// The card keeps its "Bonus: $200 onboard credit" line; that amount is a
	// promotional credit, not a fare the record could carry.
	noPrice := strings.ReplaceAll(dealCard, "Twin From $1,199 pp", "Price on application")
	f := &fakeFetcher{pages: map[string]string{home: page(noPrice)}}
	s := ozcruising.New(f, 0, nil, utils.NewLogger())

	deals, err := s.Scrape(context.Background())
	require.NoError(t, err)
	assert.Empty(t, deals)
}

// ---- same-run dedup --------------------------------------------------------

func TestScrape_DeduplicatesAcrossSeedPages(t *testing.T) {
	// The same sailing appears on the homepage and on the specials page.
	f := &fakeFetcher{pages: map[string]string{
		home:                     page(dealCard),
		home + "/cruise-specials": page(dealCard),
	}}
	s := ozcruising.New(f, 0, []string{"Carnival"}, utils.NewLogger())

	deals, err := s.Scrape(context.Background())
	require.NoError(t, err)
	assert.Len(t, deals, 1)
}

// ---- pagination ------------------------------------------------------------

func TestScrape_PaginationStopsAfterConsecutiveEmptyPages(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		carnivalPage + "?page=1": page(), // no candidates
		carnivalPage + "?page=2": page(), // second empty page ends pagination
		carnivalPage + "?page=3": page(dealCard),
	}}
	s := ozcruising.New(f, 0, []string{"Carnival"}, utils.NewLogger())

	deals, err := s.Scrape(context.Background())
	require.NoError(t, err)

	assert.Empty(t, deals)
	assert.Equal(t, 1, f.requested(carnivalPage+"?page=1"))
	assert.Equal(t, 1, f.requested(carnivalPage+"?page=2"))
	assert.Zero(t, f.requested(carnivalPage+"?page=3"))
}

func TestScrape_PaginationContinuesPastSingleEmptyPage(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		carnivalPage + "?page=1": page(), // one empty page is tolerated
		carnivalPage + "?page=2": page(dealCard),
		carnivalPage + "?page=3": page(),
	}}
	s := ozcruising.New(f, 0, []string{"Carnival"}, utils.NewLogger())

	deals, err := s.Scrape(context.Background())
	require.NoError(t, err)

	assert.Len(t, deals, 1)
	assert.Equal(t, 1, f.requested(carnivalPage+"?page=2"))
	assert.Equal(t, 1, f.requested(carnivalPage+"?page=3"))
}

// ---- allowlist -------------------------------------------------------------

func TestScrape_AllowlistSkipsOtherLineSearches(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{}}
	s := ozcruising.New(f, 0, []string{"Carnival"}, utils.NewLogger())

	_, err := s.Scrape(context.Background())
	require.NoError(t, err)

	royalPage := home + "/searchcruise/bysearchbar/5/-111/-111/-111/true/-111/-111/-111/-111"
	assert.Equal(t, 1, f.requested(carnivalPage+"?page=1"))
	assert.Zero(t, f.requested(royalPage+"?page=1"))
}

// ---- cancellation ----------------------------------------------------------

func TestScrape_HonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &fakeFetcher{pages: map[string]string{home: page(dealCard)}}
	s := ozcruising.New(f, 0, nil, utils.NewLogger())

	_, err := s.Scrape(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchErrorMessage(t *testing.T) {
	err := &fetch.Error{URL: "https://example.com/x", StatusCode: 404}
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, fmt.Sprintf("%v", err), "example.com")
}
