package scraper

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Field extraction shared by every extractor. Structured signals (a JSON key,
// a data attribute) are always preferred at the call site; these helpers are
// the regex-over-free-text fallback layer.

var (
	priceRe    = regexp.MustCompile(`\$\s*(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)`)
	bonusSegRe = regexp.MustCompile(`(?i)Bonus:\s*.{0,80}?(?:\s+View\s+Cruise\s+Details|\s+From\b|$)`)
	durationRe = regexp.MustCompile(`(?i)(\d+)[- ]*(night|day)s?`)
	portRe     = regexp.MustCompile(`(?i)Departing\s+([\w\s]+?)(?:\s+Cruise|\s+\d|\s+Twin|\s+Quad|$)`)
	ordinalRe  = regexp.MustCompile(`(\d{1,2})(st|nd|rd|th)`)
)

// ParsePrice extracts the first currency amount from free text, stripping
// the symbol and thousands separators. Returns 0 when no amount is present.
func ParsePrice(text string) float64 {
	m := priceRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseFare extracts the fare from listing-card text. Promotional credit
// segments ("Bonus: $200 onboard credit") carry dollar amounts that are not
// fares; they are stripped before the price scan, so a card whose only dollar
// figure is a bonus credit yields 0. A bonus segment ends at the card's
// detail link, at the start of a "From $" fare phrase, or at the end of the
// text.
func ParseFare(text string) float64 {
	return ParsePrice(bonusSegRe.ReplaceAllString(text, " "))
}

// ParseDuration extracts a day count from text like "7 Nights" or "10 days".
// Sources that count nights are off by one: a 7-night sailing spans 8 days.
func ParseDuration(text string) int {
	m := durationRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0
	}
	if strings.EqualFold(m[2], "night") {
		n++
	}
	return n
}

// NightsToDays converts a nights figure reported by an API to a day count.
func NightsToDays(nights int) int {
	if nights <= 0 {
		return 0
	}
	return nights + 1
}

// dateLayouts, in the order they are attempted.
var dateLayouts = []string{
	"2006-01-02",
	"2 January 2006",
	"02/01/2006",
	"2/1/2006",
	time.RFC3339,
}

var dateCandidateRe = regexp.MustCompile(
	`\d{4}-\d{2}-\d{2}(?:T[\d:+.Z]+)?|\d{1,2}/\d{1,2}/\d{4}|\d{1,2}(?:st|nd|rd|th)?\s+(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{4}`)

// ParseDate attempts each known layout against date-looking fragments of the
// text. Unparseable dates degrade to now rather than failing the record;
// downstream treats such records as low-confidence, not as errors.
func ParseDate(text string, now time.Time) time.Time {
	candidate := dateCandidateRe.FindString(text)
	if candidate == "" {
		return now
	}
	candidate = ordinalRe.ReplaceAllString(candidate, "$1")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, candidate); err == nil {
			return t
		}
	}
	return now
}

// ParseDeparturePort extracts the port from a "Departing X" phrase.
func ParseDeparturePort(text string) string {
	m := portRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// cruiseLineAliases maps a lowercase substring to the canonical line name.
// Order matters: more specific names come first.
var cruiseLineAliases = []struct {
	token string
	name  string
}{
	{"royal caribbean", "Royal Caribbean"},
	{"royal", "Royal Caribbean"},
	{"carnival", "Carnival"},
	{"princess", "Princess Cruises"},
	{"celebrity", "Celebrity Cruises"},
	{"norwegian", "Norwegian Cruise Line"},
	{"cunard", "Cunard"},
	{"holland", "Holland America"},
	{"p&o", "P&O Australia"},
	{"msc", "MSC Cruises"},
	{"seabourn", "Seabourn"},
	{"viking", "Viking"},
	{"azamara", "Azamara"},
	{"virgin", "Virgin Voyages"},
}

// NormalizeCruiseLine maps free text (an image alt, a brand label) onto the
// canonical cruise line name, or returns the trimmed input when unrecognized.
func NormalizeCruiseLine(raw string) string {
	lower := strings.ToLower(raw)
	for _, a := range cruiseLineAliases {
		if strings.Contains(lower, a.token) {
			return a.name
		}
	}
	return strings.TrimSpace(raw)
}

// FirstMatch returns the first capture of the first pattern matching text.
func FirstMatch(text string, patterns []*regexp.Regexp) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// AbsoluteURL resolves href against base; relative links on listing cards
// are common.
func AbsoluteURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	h, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(h).String()
}

// CollapseSpace normalizes runs of whitespace to single spaces.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
