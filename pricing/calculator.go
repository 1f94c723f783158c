package pricing

import (
	"fmt"

	"bitbucket.org/mmdatafocus/repricer_backend/models"
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// Defaults are the account-level fallbacks the calculator uses when no rule
// matched (target margin) and for proposal-churn suppression (min change).
type Defaults struct {
	TargetMarginPercent decimal.Decimal
	MinChangePercent    decimal.Decimal
}

// Quote is the outcome of pricing one product: the rounded proposed price,
// the advisory warnings, whether the change is big enough to propose, and
// the forecast impact at the product's sales velocity.
type Quote struct {
	ProposedPrice   decimal.Decimal
	ShouldPropose   bool
	Warnings        []string
	Reason          string
	AppliedRuleId   int
	AppliedRuleName string

	Current  CostBreakdown
	Proposed CostBreakdown

	PriceChange         decimal.Decimal
	PriceChangePercent  decimal.Decimal
	MarginChangePercent decimal.Decimal

	EstimatedDailyProfitChange   decimal.Decimal
	EstimatedWeeklyProfitImpact  decimal.Decimal
	EstimatedWeeklyRevenueImpact decimal.Decimal
}

// Calculate prices one product under the matched rule (nil means use the
// default target margin). costPrice > 0 is the caller's precondition; the
// generator skips products without cost data before getting here.
func Calculate(p models.ProductSnapshot, rule *models.PricingRule, velocity decimal.Decimal, defaults Defaults) Quote {
	quote := Quote{}
	totalCost := p.CostPrice.Add(p.DeliveryCost)

	rawPrice := p.CurrentPrice
	rounding := models.RoundingNone

	if rule == nil {
		rawPrice = priceFromMargin(totalCost, defaults.TargetMarginPercent, p.CurrentPrice, &quote)
		quote.Reason = fmt.Sprintf("no rule matched; default target margin %s%%", defaults.TargetMarginPercent)
	} else {
		quote.AppliedRuleId = rule.ID
		quote.AppliedRuleName = rule.Name
		quote.Reason = fmt.Sprintf("rule %q (%s %s)", rule.Name, rule.ActionType, rule.ActionValue)
		if rule.Rounding != "" {
			rounding = rule.Rounding
		}

		switch rule.ActionType {
		case models.RuleActionSetMargin:
			rawPrice = priceFromMargin(totalCost, rule.ActionValue, p.CurrentPrice, &quote)
		case models.RuleActionSetMarkup:
			rawPrice = totalCost.Mul(one.Add(rule.ActionValue.Div(hundred)))
		case models.RuleActionAdjustPercent:
			rawPrice = p.CurrentPrice.Mul(one.Add(rule.ActionValue.Div(hundred)))
		case models.RuleActionAdjustFixed:
			rawPrice = p.CurrentPrice.Add(rule.ActionValue)
		case models.RuleActionSetPrice:
			rawPrice = rule.ActionValue
		case models.RuleActionMatchMrp:
			rawPrice = p.Mrp
		case models.RuleActionDiscountFromMrp:
			rawPrice = p.Mrp.Mul(one.Sub(rule.ActionValue.Div(hundred)))
		default:
			quote.Warnings = append(quote.Warnings, fmt.Sprintf("unknown rule action %q; price left unchanged", rule.ActionType))
			rawPrice = p.CurrentPrice
		}
	}

	proposed := ApplyRounding(rawPrice, rounding)
	if proposed.IsNegative() {
		quote.Warnings = append(quote.Warnings, "computed price was negative; clamped to 0")
		proposed = decimal.Zero
	}

	if p.CompetitorFloorPrice != nil && proposed.LessThan(*p.CompetitorFloorPrice) {
		quote.Warnings = append(quote.Warnings,
			fmt.Sprintf("proposed price %s is below competitor floor %s", proposed, *p.CompetitorFloorPrice))
	}

	quote.ProposedPrice = proposed
	quote.Current = ComputeBreakdown(p.CurrentPrice, p.CostPrice, p.DeliveryCost)
	quote.Proposed = ComputeBreakdown(proposed, p.CostPrice, p.DeliveryCost)

	quote.PriceChange = proposed.Sub(p.CurrentPrice)
	quote.MarginChangePercent = quote.Proposed.MarginPercent.Sub(quote.Current.MarginPercent)

	if p.CurrentPrice.IsPositive() {
		quote.PriceChangePercent = quote.PriceChange.Div(p.CurrentPrice).Mul(hundred)
		quote.ShouldPropose = quote.PriceChangePercent.Abs().GreaterThanOrEqual(defaults.MinChangePercent)
	} else {
		// Percent change against a zero price is undefined; propose whenever
		// the price actually moves.
		quote.Warnings = append(quote.Warnings, "current price is zero; change percent not computable")
		quote.ShouldPropose = !proposed.Equal(p.CurrentPrice)
	}

	profitDelta := quote.Proposed.NetProfit.Sub(quote.Current.NetProfit)
	seven := decimal.NewFromInt(7)
	quote.EstimatedDailyProfitChange = profitDelta.Mul(velocity)
	quote.EstimatedWeeklyProfitImpact = quote.EstimatedDailyProfitChange.Mul(seven)
	quote.EstimatedWeeklyRevenueImpact = quote.PriceChange.Mul(velocity).Mul(seven)

	return quote
}

// priceFromMargin inverts margin = (price - cost) / price. A target margin
// at or above 100% has no finite price; warn and keep the current price.
func priceFromMargin(totalCost, targetMarginPercent, currentPrice decimal.Decimal, quote *Quote) decimal.Decimal {
	denom := one.Sub(targetMarginPercent.Div(hundred))
	if !denom.IsPositive() {
		quote.Warnings = append(quote.Warnings,
			fmt.Sprintf("target margin %s%% is not invertible; price left unchanged", targetMarginPercent))
		return currentPrice
	}
	return totalCost.Div(denom)
}

// ApplyRounding applies a rule's rounding policy. Prices land on exact cent
// (or .99/.95/unit) boundaries, so rounding an already-rounded price under
// the same policy is a no-op.
func ApplyRounding(price decimal.Decimal, rule models.RoundingRule) decimal.Decimal {
	switch rule {
	case models.RoundingNearest99p:
		return price.Floor().Add(decimal.NewFromFloat(0.99))
	case models.RoundingNearest95p:
		return price.Floor().Add(decimal.NewFromFloat(0.95))
	case models.RoundingNearestUnit:
		return price.Round(0)
	case models.RoundingDown:
		return price.RoundFloor(2)
	case models.RoundingUp:
		return price.RoundCeil(2)
	default:
		return price.Round(2)
	}
}
