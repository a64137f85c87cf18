package scraper_test

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cruise-deal-scraper/scraper"
)

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestSignalsFor(t *testing.T) {
	s := scraper.SignalsFor("Anthem Of The Seas 7 Nights Departing Sydney From $1,299")
	assert.True(t, s.HasPrice)
	assert.True(t, s.HasDuration)
	assert.True(t, s.HasShip)
	assert.True(t, s.HasDeparting)
	assert.Equal(t, 4, s.Score())
}

func TestSignalsFor_PerPersonPrice(t *testing.T) {
	s := scraper.SignalsFor("$849 pp 10 Nights")
	assert.True(t, s.HasPrice)
	assert.True(t, s.HasDuration)
}

func TestClimbToDealContainer_FindsCard(t *testing.T) {
	doc := docFromHTML(t, `
		<html><body>
		<div id="page">
			<div id="card">
				<h3>South Pacific</h3>
				<p>Anthem Of The Seas</p>
				<p>7 Nights Departing Sydney</p>
				<p>From $1,299</p>
				<div class="actions"><a href="/cruise/p1">View Cruise Details</a></div>
			</div>
			<div id="other">Unrelated sidebar content</div>
		</div>
		</body></html>`)

	anchor := doc.Find("a").First()
	container := scraper.ClimbToDealContainer(anchor)
	require.NotNil(t, container)
	id, _ := container.Attr("id")
	assert.Equal(t, "card", id)
}

func TestClimbToDealContainer_AcceptsThreeOfFour(t *testing.T) {
	// No "Departing" phrase: 3 of 4 signals still qualifies.
	doc := docFromHTML(t, `
		<html><body>
		<div id="card">
			<p>Carnival Splendor</p>
			<p>4 Nights From $499</p>
			<a href="/cruise/p2">View Cruise Details</a>
		</div>
		</body></html>`)

	container := scraper.ClimbToDealContainer(doc.Find("a").First())
	require.NotNil(t, container)
	id, _ := container.Attr("id")
	assert.Equal(t, "card", id)
}

func TestClimbToDealContainer_NilWhenNothingQualifies(t *testing.T) {
	doc := docFromHTML(t, `
		<html><body>
		<div><a href="/news">View Cruise Details</a><p>Press release archive</p></div>
		</body></html>`)

	assert.Nil(t, scraper.ClimbToDealContainer(doc.Find("a").First()))
}
