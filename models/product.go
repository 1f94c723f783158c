package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/repricer_backend/config"
	"github.com/shopspring/decimal"
)

// ProductSnapshot is the read-only catalog row the repricer evaluates.
// The ingestion connectors (marketplace APIs, spreadsheets, PIM, carrier
// feeds, competitor scraping) own and refresh this table; the repricer only
// reads it and never writes prices back here directly.
type ProductSnapshot struct {
	ID                   int             `gorm:"primary_key" json:"id"`
	Sku                  string          `gorm:"uniqueIndex;size:100;not null" json:"sku"`
	Title                string          `gorm:"size:255" json:"title"`
	Brand                string          `gorm:"index;size:100" json:"brand"`
	Category             string          `gorm:"index;size:150" json:"category"`
	CostPrice            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost_price"`
	DeliveryCost         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"delivery_cost"`
	CurrentPrice         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"current_price"`
	Mrp                  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"mrp"`
	StockLevel           int             `gorm:"default:0" json:"stock_level"`
	CompetitorFloorPrice *decimal.Decimal `gorm:"type:decimal(20,4)" json:"competitor_floor_price"`
	CreatedAt            time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// LoadProductSnapshots returns the catalog snapshot for one batch run.
// Rule or catalog edits made after this read do not affect the run.
func LoadProductSnapshots(ctx context.Context) ([]ProductSnapshot, error) {
	db := config.GetDB()
	var products []ProductSnapshot
	if err := db.WithContext(ctx).Order("sku").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// SalesVelocity is the per-sku average units/day over a trailing window,
// maintained by the sales ingestion collaborator.
type SalesVelocity struct {
	ID          int             `gorm:"primary_key" json:"id"`
	Sku         string          `gorm:"uniqueIndex:idx_velocity_sku_window,priority:1;size:100;not null" json:"sku"`
	WindowDays  int             `gorm:"uniqueIndex:idx_velocity_sku_window,priority:2;not null" json:"window_days"`
	UnitsPerDay decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"units_per_day"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetSalesVelocityMap loads the whole window in one query for a batch run.
// Skus with no sales rows simply have no entry; callers treat that as zero.
func GetSalesVelocityMap(ctx context.Context, windowDays int) (map[string]decimal.Decimal, error) {
	db := config.GetDB()
	var rows []SalesVelocity
	if err := db.WithContext(ctx).Where("window_days = ?", windowDays).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		out[r.Sku] = r.UnitsPerDay
	}
	return out, nil
}
