package pricing

import (
	"testing"

	"bitbucket.org/mmdatafocus/repricer_backend/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDefaults() Defaults {
	return Defaults{
		TargetMarginPercent: d("20"),
		MinChangePercent:    d("1"),
	}
}

func snapshot(currentPrice, costPrice, deliveryCost string) models.ProductSnapshot {
	return models.ProductSnapshot{
		Sku:          "SKU-001",
		CurrentPrice: d(currentPrice),
		CostPrice:    d(costPrice),
		DeliveryCost: d(deliveryCost),
	}
}

func TestCalculate_SetMarginWithNearest99p(t *testing.T) {
	p := snapshot("80", "50", "5")
	rule := &models.PricingRule{
		ID:          7,
		Name:        "standard margin",
		ActionType:  models.RuleActionSetMargin,
		ActionValue: d("20"),
		Rounding:    models.RoundingNearest99p,
	}

	q := Calculate(p, rule, decimal.Zero, testDefaults())

	// 55 / (1 - 0.20) = 68.75, then up to the .99 boundary.
	assert.True(t, q.ProposedPrice.Equal(d("68.99")), "got %s", q.ProposedPrice)
	assert.True(t, q.ShouldPropose)
	assert.Equal(t, 7, q.AppliedRuleId)
	assert.Equal(t, "standard margin", q.AppliedRuleName)
	assert.Contains(t, q.Reason, "standard margin")
}

func TestCalculate_ActionTypes(t *testing.T) {
	p := snapshot("100", "40", "0")
	p.Mrp = d("150")

	cases := []struct {
		name     string
		action   models.RuleActionType
		value    string
		expected string
	}{
		{"set markup", models.RuleActionSetMarkup, "50", "60"},
		{"adjust percent up", models.RuleActionAdjustPercent, "10", "110"},
		{"adjust percent down", models.RuleActionAdjustPercent, "-10", "90"},
		{"adjust fixed", models.RuleActionAdjustFixed, "-2.50", "97.50"},
		{"set price", models.RuleActionSetPrice, "79.99", "79.99"},
		{"match mrp", models.RuleActionMatchMrp, "0", "150"},
		{"discount from mrp", models.RuleActionDiscountFromMrp, "10", "135"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rule := &models.PricingRule{
				ID:          1,
				Name:        tc.name,
				ActionType:  tc.action,
				ActionValue: d(tc.value),
			}
			q := Calculate(p, rule, decimal.Zero, testDefaults())
			assert.True(t, q.ProposedPrice.Equal(d(tc.expected)),
				"%s: expected %s got %s", tc.name, tc.expected, q.ProposedPrice)
		})
	}
}

func TestCalculate_UnknownActionLeavesPriceUnchanged(t *testing.T) {
	p := snapshot("100", "40", "0")
	rule := &models.PricingRule{ID: 1, Name: "bad", ActionType: "halve_it", ActionValue: d("1")}

	q := Calculate(p, rule, decimal.Zero, testDefaults())

	assert.True(t, q.ProposedPrice.Equal(d("100")))
	assert.False(t, q.ShouldPropose)
	require.Len(t, q.Warnings, 1)
	assert.Contains(t, q.Warnings[0], "unknown rule action")
}

func TestCalculate_ChangeThresholdIsInclusive(t *testing.T) {
	p := snapshot("100", "40", "0")
	defaults := testDefaults()

	below := &models.PricingRule{ID: 1, ActionType: models.RuleActionSetPrice, ActionValue: d("100.99")}
	q := Calculate(p, below, decimal.Zero, defaults)
	assert.False(t, q.ShouldPropose, "0.99%% change must stay below the threshold")

	at := &models.PricingRule{ID: 1, ActionType: models.RuleActionSetPrice, ActionValue: d("101")}
	q = Calculate(p, at, decimal.Zero, defaults)
	assert.True(t, q.ShouldPropose, "exactly 1%% change must pass the threshold")

	down := &models.PricingRule{ID: 1, ActionType: models.RuleActionSetPrice, ActionValue: d("99")}
	q = Calculate(p, down, decimal.Zero, defaults)
	assert.True(t, q.ShouldPropose, "threshold applies to the absolute change")
}

func TestCalculate_CompetitorFloorWarns(t *testing.T) {
	p := snapshot("80", "50", "5")
	floor := d("70")
	p.CompetitorFloorPrice = &floor
	rule := &models.PricingRule{
		ID:          2,
		Name:        "aggressive",
		ActionType:  models.RuleActionSetMargin,
		ActionValue: d("20"),
		Rounding:    models.RoundingNearest99p,
	}

	q := Calculate(p, rule, decimal.Zero, testDefaults())

	// The floor is advisory: the price still goes out for review.
	assert.True(t, q.ProposedPrice.Equal(d("68.99")))
	assert.True(t, q.ShouldPropose)
	require.Len(t, q.Warnings, 1)
	assert.Contains(t, q.Warnings[0], "below competitor floor")
}

func TestCalculate_NegativePriceClampsToZero(t *testing.T) {
	p := snapshot("100", "40", "0")
	rule := &models.PricingRule{ID: 3, ActionType: models.RuleActionAdjustFixed, ActionValue: d("-150")}

	q := Calculate(p, rule, decimal.Zero, testDefaults())

	assert.True(t, q.ProposedPrice.IsZero())
	require.NotEmpty(t, q.Warnings)
	assert.Contains(t, q.Warnings[0], "clamped to 0")
}

func TestCalculate_NonInvertibleMargin(t *testing.T) {
	p := snapshot("100", "40", "0")
	rule := &models.PricingRule{ID: 4, ActionType: models.RuleActionSetMargin, ActionValue: d("100")}

	q := Calculate(p, rule, decimal.Zero, testDefaults())

	assert.True(t, q.ProposedPrice.Equal(d("100")), "price must stay where it was")
	assert.False(t, q.ShouldPropose)
	require.Len(t, q.Warnings, 1)
	assert.Contains(t, q.Warnings[0], "not invertible")
}

func TestCalculate_ZeroCurrentPrice(t *testing.T) {
	p := snapshot("0", "40", "0")
	rule := &models.PricingRule{ID: 5, ActionType: models.RuleActionSetPrice, ActionValue: d("60")}

	q := Calculate(p, rule, decimal.Zero, testDefaults())

	assert.True(t, q.ProposedPrice.Equal(d("60")))
	assert.True(t, q.ShouldPropose, "a price appearing from nothing is always worth proposing")
	assert.True(t, q.PriceChangePercent.IsZero(), "percent change is undefined against zero")
	require.Len(t, q.Warnings, 1)
	assert.Contains(t, q.Warnings[0], "current price is zero")
}

func TestCalculate_NoRuleUsesDefaultMargin(t *testing.T) {
	p := snapshot("100", "40", "5")

	q := Calculate(p, nil, decimal.Zero, testDefaults())

	// 45 / 0.8 = 56.25
	assert.True(t, q.ProposedPrice.Equal(d("56.25")), "got %s", q.ProposedPrice)
	assert.True(t, q.ShouldPropose)
	assert.Equal(t, 0, q.AppliedRuleId)
	assert.Contains(t, q.Reason, "default target margin")
}

func TestCalculate_ImpactEstimates(t *testing.T) {
	p := snapshot("120", "40", "5")
	rule := &models.PricingRule{ID: 6, ActionType: models.RuleActionSetPrice, ActionValue: d("132")}
	velocity := d("2")

	q := Calculate(p, rule, velocity, testDefaults())

	// current netProfit 35, proposed: 110 ex VAT - 22 clawback - 45 cost = 43
	assert.True(t, q.EstimatedDailyProfitChange.Equal(d("16")), "daily got %s", q.EstimatedDailyProfitChange)
	assert.True(t, q.EstimatedWeeklyProfitImpact.Equal(d("112")), "weekly got %s", q.EstimatedWeeklyProfitImpact)
	assert.True(t, q.EstimatedWeeklyRevenueImpact.Equal(d("168")), "revenue got %s", q.EstimatedWeeklyRevenueImpact)
}

func TestApplyRounding(t *testing.T) {
	cases := []struct {
		rule     models.RoundingRule
		in       string
		expected string
	}{
		{models.RoundingNone, "68.754", "68.75"},
		{models.RoundingNone, "68.755", "68.76"},
		{models.RoundingNearest99p, "68.75", "68.99"},
		{models.RoundingNearest99p, "68.10", "68.99"},
		{models.RoundingNearest95p, "68.75", "68.95"},
		{models.RoundingNearestUnit, "68.49", "68"},
		{models.RoundingNearestUnit, "68.50", "69"},
		{models.RoundingDown, "68.759", "68.75"},
		{models.RoundingUp, "68.751", "68.76"},
	}
	for _, tc := range cases {
		got := ApplyRounding(d(tc.in), tc.rule)
		assert.True(t, got.Equal(d(tc.expected)), "%s(%s): expected %s got %s", tc.rule, tc.in, tc.expected, got)

		again := ApplyRounding(got, tc.rule)
		assert.True(t, again.Equal(got), "%s must be idempotent on %s", tc.rule, got)
	}
}
