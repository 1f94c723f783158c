package models

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/repricer_backend/config"
	"github.com/shopspring/decimal"
)

// PricingRule is externally managed (rule editor UI); the repricer treats
// the active set as an immutable ordered list per batch run.
type PricingRule struct {
	ID             int             `gorm:"primary_key" json:"id"`
	Name           string          `gorm:"size:150;not null" json:"name"`
	Priority       int             `gorm:"index;not null;default:100" json:"priority"`
	IsActive       *bool           `gorm:"not null;default:true" json:"is_active"`
	ConditionsJSON []byte          `gorm:"type:json" json:"conditions"`
	ActionType     RuleActionType  `gorm:"size:30;not null" json:"action_type"`
	ActionValue    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"action_value"`
	Rounding       RoundingRule    `gorm:"size:20;not null;default:'none'" json:"rounding"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// RuleConditions is an option set of nullable typed fields; a rule matches a
// product when every populated condition holds (short-circuit AND).
type RuleConditions struct {
	Brands           []string         `json:"brands,omitempty"`
	CategoryContains []string         `json:"categoryContains,omitempty"`
	Skus             []string         `json:"skus,omitempty"`
	SkuPatterns      []string         `json:"skuPatterns,omitempty"`
	MinMarginPercent *decimal.Decimal `json:"minMarginPercent,omitempty"`
	MaxMarginPercent *decimal.Decimal `json:"maxMarginPercent,omitempty"`
	MinStock         *int             `json:"minStock,omitempty"`
	MaxStock         *int             `json:"maxStock,omitempty"`
	MinVelocity      *decimal.Decimal `json:"minVelocity,omitempty"`
	MaxVelocity      *decimal.Decimal `json:"maxVelocity,omitempty"`
	MinPrice         *decimal.Decimal `json:"minPrice,omitempty"`
	MaxPrice         *decimal.Decimal `json:"maxPrice,omitempty"`
}

func DecodeRuleConditions(raw []byte) RuleConditions {
	if len(raw) == 0 {
		return RuleConditions{}
	}
	var cond RuleConditions
	if err := json.Unmarshal(raw, &cond); err != nil {
		return RuleConditions{}
	}
	return cond
}

func EncodeRuleConditions(cond RuleConditions) []byte {
	b, _ := json.Marshal(cond)
	return b
}

func (r *PricingRule) Conditions() RuleConditions {
	return DecodeRuleConditions(r.ConditionsJSON)
}

// LoadActiveRules returns active rules in evaluation order. The sort is
// stable so duplicate priorities keep their original list order.
func LoadActiveRules(ctx context.Context) ([]PricingRule, error) {
	db := config.GetDB()
	var rules []PricingRule
	if err := db.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&rules).Error; err != nil {
		return nil, err
	}
	SortRulesByPriority(rules)
	return rules, nil
}

func SortRulesByPriority(rules []PricingRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority < rules[j].Priority
	})
}
