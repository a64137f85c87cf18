package models

import "time"

// PromoCodeStatus is the validation state of a promo code.
type PromoCodeStatus string

const (
	PromoStatusUnknown            PromoCodeStatus = "unknown"
	PromoStatusValid              PromoCodeStatus = "valid"
	PromoStatusExpired            PromoCodeStatus = "expired"
	PromoStatusInvalid            PromoCodeStatus = "invalid"
	PromoStatusRequiresConditions PromoCodeStatus = "requires_conditions"
)

// Discount types a promo code can carry.
const (
	DiscountPercentage     = "percentage"
	DiscountFixed          = "fixed"
	DiscountInstantSavings = "instant_savings"
	DiscountPerk           = "perk"
)

// Moderation thresholds: a code needs a meaningful number of votes before the
// community can demote it, and downvotes must clearly outweigh upvotes.
const (
	moderationMinVotes  = 5
	moderationVoteRatio = 2
)

// PromoCode is a cruise-line discount code, either curated, mined from a
// promotions page, or user-submitted.
type PromoCode struct {
	Code           string          `json:"code"`
	CruiseLine     string          `json:"cruise_line"`
	Description    string          `json:"description"`
	DiscountType   string          `json:"discount_type"`
	DiscountValue  float64         `json:"discount_value,omitempty"`
	ValidFrom      *time.Time      `json:"valid_from,omitempty"`
	ValidUntil     *time.Time      `json:"valid_until,omitempty"`
	Conditions     string          `json:"conditions,omitempty"`
	SourceURL      string          `json:"source_url,omitempty"`
	Status         PromoCodeStatus `json:"status"`
	LastValidated  *time.Time      `json:"last_validated,omitempty"`
	CombinableWith []string        `json:"combinable_with,omitempty"`

	// Community feedback
	Upvotes       int  `json:"upvotes"`
	Downvotes     int  `json:"downvotes"`
	UserSubmitted bool `json:"user_submitted"`
}

// IsCurrentlyValid reports whether the code can be used at the given time.
// An explicitly invalid or expired code is never valid; otherwise validity is
// purely the time against the optional window.
func (p *PromoCode) IsCurrentlyValid(now time.Time) bool {
	if p.Status == PromoStatusInvalid || p.Status == PromoStatusExpired {
		return false
	}
	if p.ValidFrom != nil && now.Before(*p.ValidFrom) {
		return false
	}
	if p.ValidUntil != nil && now.After(*p.ValidUntil) {
		return false
	}
	return true
}

// Moderate demotes the code to invalid when the community has voted it down:
// at least moderationMinVotes downvotes and more than moderationVoteRatio
// downvotes per upvote. Returns true if the status changed.
func (p *PromoCode) Moderate() bool {
	if p.Status == PromoStatusInvalid {
		return false
	}
	if p.Downvotes < moderationMinVotes {
		return false
	}
	if p.Downvotes <= p.Upvotes*moderationVoteRatio {
		return false
	}
	p.Status = PromoStatusInvalid
	return true
}
