package promo

import (
	"regexp"
	"strings"
	"time"

	"cruise-deal-scraper/models"
	"cruise-deal-scraper/utils"

	"github.com/gocolly/colly/v2"
)

// Pages whose marketing copy mentions promo codes, with the line each page
// belongs to.
var minePages = []struct {
	url  string
	line string
}{
	{"https://www.royalcaribbean.com/aus/en/cruise-deals", "Royal Caribbean"},
	{"https://www.carnival.com.au/cruise-deals", "Carnival"},
	{"https://www.ncl.com/au/en/cruise-deals", "Norwegian Cruise Line"},
}

// codePatterns match the ways promo pages announce a code. The capture is
// always the code itself: 4-15 uppercase alphanumerics.
var codePatterns = []*regexp.Regexp{
	regexp.MustCompile(`[Cc]ode:\s*([A-Z0-9]{4,15})\b`),
	regexp.MustCompile(`[Pp]romo\s+[Cc]ode:?\s*([A-Z0-9]{4,15})\b`),
	regexp.MustCompile(`[Uu]se\s+[Cc]ode\s+([A-Z0-9]{4,15})\b`),
}

// noiseWords are all-caps strings the patterns capture that are never codes.
var noiseWords = map[string]bool{
	"TERMS": true, "APPLY": true, "HERE": true, "MORE": true,
	"BOOK": true, "SAVE": true, "FREE": true, "SALE": true,
}

// Miner crawls promotion pages and extracts announced promo codes. Mined
// codes enter the catalogue with status unknown until validated.
type Miner struct {
	userAgent string
	delay     time.Duration
	logger    *utils.Logger
}

func NewMiner(userAgent string, delay time.Duration, logger *utils.Logger) *Miner {
	return &Miner{userAgent: userAgent, delay: delay, logger: logger}
}

// Mine visits each promotions page and returns the codes found. Page
// failures are logged and skipped.
func (m *Miner) Mine() []*models.PromoCode {
	var codes []*models.PromoCode
	seen := make(map[string]bool)

	for _, page := range minePages {
		c := colly.NewCollector(
			colly.UserAgent(m.userAgent),
			colly.MaxDepth(1),
		)
		c.SetRequestTimeout(30 * time.Second)
		_ = c.Limit(&colly.LimitRule{DomainGlob: "*", Delay: m.delay})

		line := page.line
		sourceURL := page.url

		c.OnHTML("body", func(e *colly.HTMLElement) {
			text := e.Text
			now := time.Now()
			for _, re := range codePatterns {
				for _, match := range re.FindAllStringSubmatch(text, -1) {
					code := strings.TrimSpace(match[1])
					if noiseWords[code] || seen[code] {
						continue
					}
					seen[code] = true
					codes = append(codes, &models.PromoCode{
						Code:          code,
						CruiseLine:    line,
						Description:   "Mined from promotions page",
						DiscountType:  models.DiscountPerk,
						SourceURL:     sourceURL,
						Status:        models.PromoStatusUnknown,
						LastValidated: &now,
					})
				}
			}
		})

		c.OnError(func(r *colly.Response, err error) {
			m.logger.Warn("Promo page %s failed: %v", r.Request.URL, err)
		})

		if err := c.Visit(page.url); err != nil {
			m.logger.Warn("Promo page %s failed: %v", page.url, err)
			continue
		}
		c.Wait()
	}

	m.logger.Info("Mined %d promo codes", len(codes))
	return codes
}

// Refresh merges the seed catalogue with freshly mined codes, re-evaluates
// expiry on the result, and applies community moderation. Seed codes win on
// collision.
func Refresh(miner *Miner, existing []*models.PromoCode, logger *utils.Logger) []*models.PromoCode {
	byCode := make(map[string]*models.PromoCode)
	var out []*models.PromoCode

	add := func(p *models.PromoCode) {
		if _, ok := byCode[p.Code]; ok {
			return
		}
		byCode[p.Code] = p
		out = append(out, p)
	}

	for _, p := range SeedCodes() {
		add(p)
	}
	for _, p := range existing {
		add(p)
	}
	if miner != nil {
		for _, p := range miner.Mine() {
			add(p)
		}
	}

	now := time.Now()
	expired, demoted := 0, 0
	for _, p := range out {
		if p.Status == models.PromoStatusValid && p.ValidUntil != nil && now.After(*p.ValidUntil) {
			p.Status = models.PromoStatusExpired
			expired++
		}
		if p.Moderate() {
			demoted++
		}
	}
	logger.Info("Promo refresh: %d codes (%d newly expired, %d demoted by votes)", len(out), expired, demoted)
	return out
}
