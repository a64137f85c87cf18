package promo_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cruise-deal-scraper/models"
	"cruise-deal-scraper/promo"
	"cruise-deal-scraper/utils"
)

func TestSeedCodes_WellFormed(t *testing.T) {
	codes := promo.SeedCodes()
	require.NotEmpty(t, codes)

	seen := map[string]bool{}
	for _, p := range codes {
		assert.NotEmpty(t, p.Code)
		assert.NotEmpty(t, p.CruiseLine)
		assert.NotEmpty(t, p.Status)
		assert.False(t, seen[p.Code], "duplicate seed code %s", p.Code)
		seen[p.Code] = true
	}
}

func TestSeedCodes_KnownEntries(t *testing.T) {
	codes := promo.SeedCodes()
	byCode := map[string]*models.PromoCode{}
	for _, p := range codes {
		byCode[p.Code] = p
	}

	birthday := byCode["HBDAY46M"]
	require.NotNil(t, birthday)
	assert.Equal(t, "Royal Caribbean", birthday.CruiseLine)
	assert.Equal(t, models.DiscountInstantSavings, birthday.DiscountType)
	assert.Contains(t, birthday.CombinableWith, "BOGO60")

	blackFriday := byCode["BF15"]
	require.NotNil(t, blackFriday)
	assert.Equal(t, models.PromoStatusInvalid, blackFriday.Status)
}

func TestRefresh_SeedWinsOverStoredDuplicate(t *testing.T) {
	stored := []*models.PromoCode{
		{Code: "VILLAGE10", CruiseLine: "Royal Caribbean", Description: "stale copy", Status: models.PromoStatusUnknown},
		{Code: "USERCODE1", CruiseLine: "Carnival", Status: models.PromoStatusUnknown, UserSubmitted: true},
	}

	codes := promo.Refresh(nil, stored, utils.NewLogger())

	byCode := map[string]*models.PromoCode{}
	for _, p := range codes {
		byCode[p.Code] = p
	}
	assert.NotEqual(t, "stale copy", byCode["VILLAGE10"].Description)
	require.NotNil(t, byCode["USERCODE1"])
	assert.True(t, byCode["USERCODE1"].UserSubmitted)
}

func TestRefresh_ExpiresPastWindow(t *testing.T) {
	past := time.Now().AddDate(0, -2, 0)
	stored := []*models.PromoCode{
		{Code: "OLDSALE99", CruiseLine: "Carnival", Status: models.PromoStatusValid, ValidUntil: &past},
	}

	codes := promo.Refresh(nil, stored, utils.NewLogger())
	for _, p := range codes {
		if p.Code == "OLDSALE99" {
			assert.Equal(t, models.PromoStatusExpired, p.Status)
			return
		}
	}
	t.Fatal("OLDSALE99 missing from refreshed catalogue")
}

func TestRefresh_AppliesModeration(t *testing.T) {
	stored := []*models.PromoCode{
		{Code: "VOTEDOWN1", CruiseLine: "Carnival", Status: models.PromoStatusUnknown, Upvotes: 1, Downvotes: 9},
	}

	codes := promo.Refresh(nil, stored, utils.NewLogger())
	for _, p := range codes {
		if p.Code == "VOTEDOWN1" {
			assert.Equal(t, models.PromoStatusInvalid, p.Status)
			return
		}
	}
	t.Fatal("VOTEDOWN1 missing from refreshed catalogue")
}
