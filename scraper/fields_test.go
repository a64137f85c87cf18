package scraper_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"cruise-deal-scraper/scraper"
)

func TestParsePrice(t *testing.T) {
	assert.InDelta(t, 1299.0, scraper.ParsePrice("Twin From $1,299 pp"), 0.001)
	assert.InDelta(t, 849.50, scraper.ParsePrice("From $849.50"), 0.001)
	assert.InDelta(t, 12499.0, scraper.ParsePrice("$ 12,499"), 0.001)
	assert.Zero(t, scraper.ParsePrice("Call for pricing"))
}

func TestParseFare_IgnoresBonusCredits(t *testing.T) {
	// A bonus credit is a dollar amount but not a fare.
	assert.Zero(t, scraper.ParseFare("Price on application Bonus: $200 onboard credit"))
	assert.Zero(t, scraper.ParseFare("Bonus: $200 onboard credit View Cruise Details"))
	assert.InDelta(t, 1199.0,
		scraper.ParseFare("Twin From $1,199 pp Bonus: $200 onboard credit View Cruise Details"), 0.001)
	assert.InDelta(t, 1199.0,
		scraper.ParseFare("Bonus: $200 onboard credit Twin From $1,199 pp"), 0.001)
}

func TestParseDuration_NightsAddOne(t *testing.T) {
	assert.Equal(t, 8, scraper.ParseDuration("7 Nights South Pacific"))
	assert.Equal(t, 4, scraper.ParseDuration("3-night sampler"))
	assert.Equal(t, 2, scraper.ParseDuration("1 Night"))
}

func TestParseDuration_DaysKept(t *testing.T) {
	assert.Equal(t, 7, scraper.ParseDuration("7 Days at sea"))
	assert.Equal(t, 14, scraper.ParseDuration("14 day voyage"))
}

func TestParseDuration_Invalid(t *testing.T) {
	assert.Zero(t, scraper.ParseDuration("no duration here"))
	assert.Zero(t, scraper.ParseDuration("0 nights"))
}

func TestNightsToDays(t *testing.T) {
	assert.Equal(t, 8, scraper.NightsToDays(7))
	assert.Zero(t, scraper.NightsToDays(0))
	assert.Zero(t, scraper.NightsToDays(-1))
}

func TestParseDate_Layouts(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	cases := map[string]time.Time{
		"Departing 2026-03-14":          time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		"Sails 14/03/2026 from Sydney":  time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		"Friday 14th March 2026":        time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		"Departs 2 January 2027 at 4pm": time.Date(2027, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	for text, want := range cases {
		got := scraper.ParseDate(text, now)
		assert.Equal(t, want.Format("2006-01-02"), got.Format("2006-01-02"), "text: %s", text)
	}
}

func TestParseDate_FallsBackToNow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, now, scraper.ParseDate("no date in sight", now))
	assert.Equal(t, now, scraper.ParseDate("99/99/2026", now))
}

func TestParseDeparturePort(t *testing.T) {
	assert.Equal(t, "Sydney", scraper.ParseDeparturePort("Departing Sydney Twin From $999"))
	assert.Equal(t, "Brisbane", scraper.ParseDeparturePort("8 Nights Departing Brisbane Cruise only"))
	assert.Empty(t, scraper.ParseDeparturePort("no departure phrase"))
}

func TestNormalizeCruiseLine(t *testing.T) {
	assert.Equal(t, "Royal Caribbean", scraper.NormalizeCruiseLine("Royal Caribbean International"))
	assert.Equal(t, "P&O Australia", scraper.NormalizeCruiseLine("P&O Cruises logo"))
	assert.Equal(t, "Princess Cruises", scraper.NormalizeCruiseLine("princess"))
	// Unrecognized input passes through trimmed.
	assert.Equal(t, "Ponant", scraper.NormalizeCruiseLine("  Ponant "))
}

func TestAbsoluteURL(t *testing.T) {
	base := "https://www.ozcruising.com.au/cruise-specials"
	assert.Equal(t, "https://www.ozcruising.com.au/cruise/p123",
		scraper.AbsoluteURL(base, "/cruise/p123"))
	assert.Equal(t, "https://other.example/x",
		scraper.AbsoluteURL(base, "https://other.example/x"))
	assert.Empty(t, scraper.AbsoluteURL(base, "  "))
}

func TestCollapseSpace(t *testing.T) {
	assert.Equal(t, "7 Nights From $999", scraper.CollapseSpace("  7 Nights\n\t From   $999 "))
}
