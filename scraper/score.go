package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Raw listing HTML gives no semantic boundary around one deal, so detection
// starts from a known anchor (a "View Cruise Details" link) and climbs the
// DOM until the enclosing container looks deal-like enough.

// shipTokens are words that strongly suggest a ship name is present in a
// container's text. Kept short deliberately: the scorer needs a hint, not a
// fleet register.
var shipTokens = []string{
	"Anthem", "Voyager", "Quantum", "Ovation",
	"Carnival", "Encounter", "Adventure", "Splendor", "Luminosa",
	"Princess", "Spirit", "Edge", "Solstice",
	"Queen", "Norwegian", "Pacific",
}

var scorePriceRe = regexp.MustCompile(`From\s+\$\d`)

// Signals are the four positive indicators a deal container exhibits.
type Signals struct {
	HasPrice     bool
	HasDuration  bool
	HasShip      bool
	HasDeparting bool
}

// Score counts how many signals are present; 3 of 4 is the acceptance bar.
func (s Signals) Score() int {
	n := 0
	for _, b := range []bool{s.HasPrice, s.HasDuration, s.HasShip, s.HasDeparting} {
		if b {
			n++
		}
	}
	return n
}

// SignalsFor inspects a container's text content.
func SignalsFor(text string) Signals {
	var s Signals
	s.HasPrice = scorePriceRe.MatchString(text) || (strings.Contains(text, "$") && strings.Contains(text, "pp"))
	s.HasDuration = strings.Contains(text, "Night") || strings.Contains(text, "night")
	s.HasDeparting = strings.Contains(text, "Departing")
	for _, tok := range shipTokens {
		if strings.Contains(text, tok) {
			s.HasShip = true
			break
		}
	}
	return s
}

// maxClimb bounds the upward walk; deal cards sit well within 15 levels of
// their detail link.
const maxClimb = 15

// ClimbToDealContainer walks up from an anchor to the smallest enclosing
// container scoring at least 3 of 4 signals, preferring a perfect 4. Returns
// nil when no ancestor qualifies.
func ClimbToDealContainer(anchor *goquery.Selection) *goquery.Selection {
	var best *goquery.Selection
	bestScore := 0

	node := anchor
	for level := 0; level < maxClimb; level++ {
		node = node.Parent()
		if node.Length() == 0 {
			break
		}
		score := SignalsFor(node.Text()).Score()
		if score >= 4 {
			return node
		}
		if score >= 3 && score > bestScore {
			best = node
			bestScore = score
		}
	}
	return best
}
