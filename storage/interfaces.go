package storage

import (
	"context"
	"time"

	"cruise-deal-scraper/models"
)

// DealFilter narrows a deal listing query. Zero values mean no constraint.
// Results are always ordered cheapest per day first.
type DealFilter struct {
	CruiseLine     string
	DeparturePort  string
	MaxPricePerDay float64
	MinDuration    int
	MaxDuration    int
	ActiveOnly     bool
	Limit          int
	Offset         int
}

// DealStore persists canonical deals keyed by their five-tuple identity.
type DealStore interface {
	// UpsertDeals writes each deal, updating the mutable fields in place when
	// the five-tuple already exists.
	UpsertDeals(ctx context.Context, deals []*models.CruiseDeal) (inserted, updated int, err error)
	// MarkStale deactivates deals not observed since the cutoff.
	MarkStale(ctx context.Context, olderThan time.Time) (int64, error)
	ListDeals(ctx context.Context, f DealFilter) ([]*models.CruiseDeal, error)
	Close()
}

// PromoStore persists the promo code catalogue.
type PromoStore interface {
	UpsertPromoCodes(ctx context.Context, codes []*models.PromoCode) error
	// ListPromoCodes returns codes for a line ("" for all); validOnly drops
	// invalid, expired and out-of-window codes.
	ListPromoCodes(ctx context.Context, cruiseLine string, validOnly bool) ([]*models.PromoCode, error)
}
