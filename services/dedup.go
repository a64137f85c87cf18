package services

import (
	"cruise-deal-scraper/models"
	"cruise-deal-scraper/utils"
)

// DealSet folds candidate records into one canonical record per sailing.
// Identity is the five-tuple key; a candidate matching an existing record
// merges into it field by field instead of replacing it.
type DealSet struct {
	order []*models.CruiseDeal
	index map[models.DealKey]*models.CruiseDeal
}

func NewDealSet() *DealSet {
	return &DealSet{index: make(map[models.DealKey]*models.CruiseDeal)}
}

// Resolve folds one candidate in. Returns true when the candidate created a
// new record, false when it merged into an existing one or was dropped.
// Candidates must carry a positive price and duration; the fold re-checks
// what the extractors already enforce.
func (s *DealSet) Resolve(candidate *models.CruiseDeal) bool {
	if candidate == nil || candidate.TotalPriceAUD <= 0 || candidate.DurationDays <= 0 {
		return false
	}
	key := candidate.Key()
	if existing, ok := s.index[key]; ok {
		existing.MergeFrom(candidate)
		return false
	}
	s.index[key] = candidate
	s.order = append(s.order, candidate)
	return true
}

// Add folds a batch and reports how many inserted versus merged.
func (s *DealSet) Add(candidates []*models.CruiseDeal) (inserted, merged int) {
	for _, c := range candidates {
		if c == nil || c.TotalPriceAUD <= 0 || c.DurationDays <= 0 {
			continue
		}
		if s.Resolve(c) {
			inserted++
		} else {
			merged++
		}
	}
	return inserted, merged
}

// Deals returns the canonical records in first-seen order.
func (s *DealSet) Deals() []*models.CruiseDeal {
	return s.order
}

func (s *DealSet) Len() int { return len(s.order) }

// Deduplicate folds raw extractor output into canonical records and logs the
// outcome. The returned slice is sorted cheapest-per-day first.
func Deduplicate(raw []*models.CruiseDeal, logger *utils.Logger) []*models.CruiseDeal {
	set := NewDealSet()
	inserted, merged := set.Add(raw)
	logger.Info("Deduplicated %d raw records into %d deals (%d merged)", len(raw), inserted, merged)

	deals := set.Deals()
	models.SortByPricePerDay(deals)
	return deals
}
