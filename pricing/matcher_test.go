package pricing

import (
	"testing"

	"bitbucket.org/mmdatafocus/repricer_backend/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func activeRule(id, priority int, cond models.RuleConditions) models.PricingRule {
	return models.PricingRule{
		ID:             id,
		Priority:       priority,
		IsActive:       boolPtr(true),
		ConditionsJSON: models.EncodeRuleConditions(cond),
		ActionType:     models.RuleActionSetMargin,
		ActionValue:    d("20"),
	}
}

func TestMatchRule_LowestPriorityWins(t *testing.T) {
	p := models.ProductSnapshot{Sku: "SKU-1", Brand: "Acme"}
	rules := []models.PricingRule{
		activeRule(1, 20, models.RuleConditions{}),
		activeRule(2, 10, models.RuleConditions{}),
	}
	models.SortRulesByPriority(rules)

	matched := MatchRule(p, decimal.Zero, decimal.Zero, rules)
	require.NotNil(t, matched)
	assert.Equal(t, 2, matched.ID)
}

func TestMatchRule_DuplicatePriorityKeepsListOrder(t *testing.T) {
	p := models.ProductSnapshot{Sku: "SKU-1"}
	rules := []models.PricingRule{
		activeRule(5, 10, models.RuleConditions{}),
		activeRule(6, 10, models.RuleConditions{}),
	}
	models.SortRulesByPriority(rules)

	matched := MatchRule(p, decimal.Zero, decimal.Zero, rules)
	require.NotNil(t, matched)
	assert.Equal(t, 5, matched.ID)
}

func TestMatchRule_SkipsInactive(t *testing.T) {
	p := models.ProductSnapshot{Sku: "SKU-1"}
	inactive := activeRule(1, 10, models.RuleConditions{})
	inactive.IsActive = boolPtr(false)
	rules := []models.PricingRule{
		inactive,
		activeRule(2, 20, models.RuleConditions{}),
	}

	matched := MatchRule(p, decimal.Zero, decimal.Zero, rules)
	require.NotNil(t, matched)
	assert.Equal(t, 2, matched.ID)
}

func TestMatchRule_NoMatchReturnsNil(t *testing.T) {
	p := models.ProductSnapshot{Sku: "SKU-1", Brand: "Acme"}
	rules := []models.PricingRule{
		activeRule(1, 10, models.RuleConditions{Brands: []string{"Other"}}),
	}

	assert.Nil(t, MatchRule(p, decimal.Zero, decimal.Zero, rules))
}

func TestRuleApplies_Conditions(t *testing.T) {
	minMargin := d("10")
	maxMargin := d("40")
	minVelocity := d("0.5")
	minPrice := d("20")
	maxPrice := d("200")
	minStock := 5
	maxStock := 100

	p := models.ProductSnapshot{
		Sku:          "ACME-RED-01",
		Brand:        "Acme",
		Category:     "Home > Kitchen > Kettles",
		StockLevel:   10,
		CurrentPrice: d("50"),
	}
	margin := d("25")
	velocity := d("1.5")

	cases := []struct {
		name     string
		cond     models.RuleConditions
		expected bool
	}{
		{"empty conditions match everything", models.RuleConditions{}, true},
		{"brand case-insensitive", models.RuleConditions{Brands: []string{"ACME"}}, true},
		{"brand mismatch", models.RuleConditions{Brands: []string{"Other"}}, false},
		{"category substring", models.RuleConditions{CategoryContains: []string{"kitchen"}}, true},
		{"category mismatch", models.RuleConditions{CategoryContains: []string{"garden"}}, false},
		{"sku exact", models.RuleConditions{Skus: []string{"ACME-RED-01"}}, true},
		{"sku wildcard", models.RuleConditions{SkuPatterns: []string{"ACME-*"}}, true},
		{"sku set misses but pattern hits", models.RuleConditions{Skus: []string{"OTHER"}, SkuPatterns: []string{"ACME-*"}}, true},
		{"sku neither", models.RuleConditions{Skus: []string{"OTHER"}, SkuPatterns: []string{"ZZZ-*"}}, false},
		{"margin band", models.RuleConditions{MinMarginPercent: &minMargin, MaxMarginPercent: &maxMargin}, true},
		{"margin below band", models.RuleConditions{MinMarginPercent: &maxMargin}, false},
		{"stock band", models.RuleConditions{MinStock: &minStock, MaxStock: &maxStock}, true},
		{"stock above max", models.RuleConditions{MaxStock: &minStock}, false},
		{"velocity min", models.RuleConditions{MinVelocity: &minVelocity}, true},
		{"velocity max exceeded", models.RuleConditions{MaxVelocity: &minVelocity}, false},
		{"price band", models.RuleConditions{MinPrice: &minPrice, MaxPrice: &maxPrice}, true},
		{"price below min", models.RuleConditions{MinPrice: &maxPrice}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ruleApplies(p, margin, velocity, tc.cond))
		})
	}
}

func TestRuleApplies_MalformedPatternDoesNotMatch(t *testing.T) {
	p := models.ProductSnapshot{Sku: "ACME-RED-01"}
	cond := models.RuleConditions{SkuPatterns: []string{"[unclosed"}}

	assert.False(t, ruleApplies(p, decimal.Zero, decimal.Zero, cond))
}
