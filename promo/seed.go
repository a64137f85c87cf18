// Package promo maintains the cruise-line promo code catalogue: a curated
// seed set plus codes mined from promotions pages.
package promo

import (
	"time"

	"cruise-deal-scraper/models"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// SeedCodes is the curated catalogue. Windows and statuses reflect the last
// manual verification; the scheduler re-evaluates expiry on every refresh.
func SeedCodes() []*models.PromoCode {
	validated := date(2025, time.October, 5)
	return []*models.PromoCode{
		{
			Code:           "HBDAY46M",
			CruiseLine:     "Royal Caribbean",
			Description:    "Birthday sale instant savings",
			DiscountType:   models.DiscountInstantSavings,
			DiscountValue:  75,
			ValidFrom:      date(2025, time.October, 3),
			ValidUntil:     date(2025, time.November, 2),
			Conditions:     "Minimum 4-night sailing, new bookings only",
			Status:         models.PromoStatusValid,
			LastValidated:  validated,
			CombinableWith: []string{"BOGO60", "Kids Sail Free"},
		},
		{
			Code:           "HBDAY4CM",
			CruiseLine:     "Royal Caribbean",
			Description:    "Birthday sale instant savings (alternate code)",
			DiscountType:   models.DiscountInstantSavings,
			DiscountValue:  75,
			ValidFrom:      date(2025, time.October, 3),
			ValidUntil:     date(2025, time.November, 2),
			Conditions:     "Minimum 4-night sailing, new bookings only",
			Status:         models.PromoStatusValid,
			LastValidated:  validated,
			CombinableWith: []string{"BOGO60", "Kids Sail Free"},
		},
		{
			Code:          "SSOBENEFIT",
			CruiseLine:    "Royal Caribbean",
			Description:   "Shareholder benefit discount",
			DiscountType:  models.DiscountPercentage,
			DiscountValue: 10,
			ValidFrom:     date(2025, time.February, 1),
			ValidUntil:    date(2026, time.January, 31),
			Conditions:    "Proof of 100+ shares required",
			Status:        models.PromoStatusRequiresConditions,
			LastValidated: validated,
		},
		{
			Code:          "VILLAGE10",
			CruiseLine:    "Royal Caribbean",
			Description:   "Crown & Anchor village discount",
			DiscountType:  models.DiscountPercentage,
			DiscountValue: 10,
			ValidFrom:     date(2024, time.February, 1),
			ValidUntil:    date(2026, time.December, 31),
			Status:        models.PromoStatusValid,
			LastValidated: validated,
		},
		{
			Code:          "BF15",
			CruiseLine:    "Royal Caribbean",
			Description:   "Black Friday 15% off (no longer honored)",
			DiscountType:  models.DiscountPercentage,
			DiscountValue: 15,
			Status:        models.PromoStatusInvalid,
			LastValidated: validated,
		},
		{
			Code:          "EARLYBIRD",
			CruiseLine:    "Carnival",
			Description:   "Early booking instant savings",
			DiscountType:  models.DiscountInstantSavings,
			DiscountValue: 200,
			Conditions:    "Bookings 12+ months before sailing",
			Status:        models.PromoStatusValid,
			LastValidated: validated,
		},
		{
			Code:          "DRINKSONUS",
			CruiseLine:    "Norwegian Cruise Line",
			Description:   "Free at Sea beverage package",
			DiscountType:  models.DiscountPerk,
			Status:        models.PromoStatusValid,
			LastValidated: validated,
		},
	}
}
