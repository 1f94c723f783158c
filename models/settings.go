package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/repricer_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const settingsCacheKey = "repricerSettings"

// RepricerSettings holds the account-level knobs: the fallback target margin
// when no rule matches, the proposal-churn threshold, and the proposal TTL.
type RepricerSettings struct {
	ID                         int             `gorm:"primary_key" json:"id"`
	DefaultTargetMarginPercent decimal.Decimal `gorm:"type:decimal(20,4);default:20" json:"default_target_margin_percent"`
	MinChangePercent           decimal.Decimal `gorm:"type:decimal(20,4);default:1" json:"min_change_percent"`
	ProposalTTLDays            int             `gorm:"default:30" json:"proposal_ttl_days"`
	VelocityWindowDays         int             `gorm:"default:30" json:"velocity_window_days"`
	UpdatedAt                  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func defaultRepricerSettings() RepricerSettings {
	return RepricerSettings{
		DefaultTargetMarginPercent: decimal.NewFromInt(20),
		MinChangePercent:           decimal.NewFromInt(1),
		ProposalTTLDays:            30,
		VelocityWindowDays:         30,
	}
}

// GetRepricerSettings reads the settings row, redis first then db. Missing
// row falls back to the hard defaults rather than failing a batch run.
func GetRepricerSettings(ctx context.Context) (RepricerSettings, error) {
	var settings RepricerSettings
	exists, err := config.GetRedisObject(settingsCacheKey, &settings)
	if err != nil {
		return defaultRepricerSettings(), err
	}
	if exists {
		return settings, nil
	}

	db := config.GetDB()
	err = db.WithContext(ctx).First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return defaultRepricerSettings(), nil
		}
		return defaultRepricerSettings(), err
	}
	if err := config.SetRedisObject(settingsCacheKey, &settings, time.Hour); err != nil {
		return settings, err
	}
	return settings, nil
}

func UpdateRepricerSettings(ctx context.Context, input RepricerSettings) (*RepricerSettings, error) {
	db := config.GetDB()

	var settings RepricerSettings
	err := db.WithContext(ctx).First(&settings).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		settings = defaultRepricerSettings()
	}

	settings.DefaultTargetMarginPercent = input.DefaultTargetMarginPercent
	settings.MinChangePercent = input.MinChangePercent
	settings.ProposalTTLDays = input.ProposalTTLDays
	settings.VelocityWindowDays = input.VelocityWindowDays

	if err := db.WithContext(ctx).Save(&settings).Error; err != nil {
		return nil, err
	}
	if err := config.RemoveRedisKey(settingsCacheKey); err != nil {
		return nil, err
	}
	return &settings, nil
}
