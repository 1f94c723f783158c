package pricing

import (
	"path"
	"strings"

	"bitbucket.org/mmdatafocus/repricer_backend/models"
	"github.com/shopspring/decimal"
)

// MatchRule picks the single applicable rule for a product: rules are
// scanned in ascending priority (the loader sorts stably, so duplicate
// priorities keep list order), inactive rules are skipped, and the first
// rule whose populated conditions all hold wins. Returns nil when nothing
// matches; the caller falls back to the account default margin.
func MatchRule(p models.ProductSnapshot, currentMarginPercent, velocity decimal.Decimal, rules []models.PricingRule) *models.PricingRule {
	for i := range rules {
		rule := &rules[i]
		if rule.IsActive != nil && !*rule.IsActive {
			continue
		}
		if ruleApplies(p, currentMarginPercent, velocity, rule.Conditions()) {
			return rule
		}
	}
	return nil
}

func ruleApplies(p models.ProductSnapshot, marginPercent, velocity decimal.Decimal, cond models.RuleConditions) bool {
	if len(cond.Brands) > 0 && !containsFold(cond.Brands, p.Brand) {
		return false
	}
	if len(cond.CategoryContains) > 0 && !categoryMatches(cond.CategoryContains, p.Category) {
		return false
	}
	// Sku set and patterns are alternative spellings of the same condition:
	// when either is populated the sku must hit one of them.
	if len(cond.Skus) > 0 || len(cond.SkuPatterns) > 0 {
		if !skuMatches(cond.Skus, cond.SkuPatterns, p.Sku) {
			return false
		}
	}
	if cond.MinMarginPercent != nil && marginPercent.LessThan(*cond.MinMarginPercent) {
		return false
	}
	if cond.MaxMarginPercent != nil && marginPercent.GreaterThan(*cond.MaxMarginPercent) {
		return false
	}
	if cond.MinStock != nil && p.StockLevel < *cond.MinStock {
		return false
	}
	if cond.MaxStock != nil && p.StockLevel > *cond.MaxStock {
		return false
	}
	if cond.MinVelocity != nil && velocity.LessThan(*cond.MinVelocity) {
		return false
	}
	if cond.MaxVelocity != nil && velocity.GreaterThan(*cond.MaxVelocity) {
		return false
	}
	if cond.MinPrice != nil && p.CurrentPrice.LessThan(*cond.MinPrice) {
		return false
	}
	if cond.MaxPrice != nil && p.CurrentPrice.GreaterThan(*cond.MaxPrice) {
		return false
	}
	return true
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}

func categoryMatches(substrings []string, category string) bool {
	lower := strings.ToLower(category)
	for _, s := range substrings {
		if strings.Contains(lower, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

func skuMatches(skus, patterns []string, sku string) bool {
	for _, s := range skus {
		if s == sku {
			return true
		}
	}
	for _, pat := range patterns {
		// path.Match gives the usual * ? [] wildcards; a malformed
		// pattern simply doesn't match.
		if ok, err := path.Match(pat, sku); err == nil && ok {
			return true
		}
	}
	return false
}
