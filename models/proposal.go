package models

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/repricer_backend/config"
	"bitbucket.org/mmdatafocus/repricer_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Proposal is one suggested price change awaiting review. Immutable after
// generation except status, approved price and the audit fields, which are
// owned by the review workflow and the channel synchronizer. Rows are never
// deleted by reviewers; they age out via ExpiresAt.
type Proposal struct {
	ID      int    `gorm:"primary_key" json:"id"`
	BatchId string `gorm:"index;size:40;not null" json:"batch_id"`
	Sku     string `gorm:"index;size:100;not null" json:"sku"`

	// catalog snapshot at generation time
	Title         string          `gorm:"size:255" json:"title"`
	Brand         string          `gorm:"index;size:100" json:"brand"`
	Category      string          `gorm:"index;size:150" json:"category"`
	StockLevel    int             `gorm:"default:0" json:"stock_level"`
	SalesVelocity decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sales_velocity"`

	CurrentPrice       decimal.Decimal  `gorm:"type:decimal(20,4);not null" json:"current_price"`
	ProposedPrice      decimal.Decimal  `gorm:"type:decimal(20,4);not null" json:"proposed_price"`
	ApprovedPrice      *decimal.Decimal `gorm:"type:decimal(20,4)" json:"approved_price"`
	PriceChange        decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"price_change"`
	PriceChangePercent decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"price_change_percent"`

	CurrentMarginPercent  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"current_margin_percent"`
	ProposedMarginPercent decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"proposed_margin_percent"`
	MarginChangePercent   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"margin_change_percent"`

	CostBreakdownJSON []byte `gorm:"type:json" json:"cost_breakdown"`

	AppliedRuleId   int    `gorm:"index;default:0" json:"applied_rule_id"`
	AppliedRuleName string `gorm:"size:150" json:"applied_rule_name"`
	Reason          string `gorm:"type:text" json:"reason"`
	WarningsJSON    []byte `gorm:"type:json" json:"warnings"`

	EstimatedDailyProfitChange   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"estimated_daily_profit_change"`
	EstimatedWeeklyProfitImpact  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"estimated_weekly_profit_impact"`
	EstimatedWeeklyRevenueImpact decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"estimated_weekly_revenue_impact"`

	Status ProposalStatus `gorm:"index;size:20;not null;default:'pending'" json:"status"`

	// Version guards review updates: every status write is conditional on the
	// version it read, so two reviewers acting at once cannot silently
	// overwrite each other.
	Version int `gorm:"not null;default:0" json:"version"`

	ReviewedBy  string     `gorm:"size:100" json:"reviewed_by"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
	ReviewNotes string     `gorm:"type:text" json:"review_notes"`
	PushedAt    *time.Time `json:"pushed_at"`

	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func DecodeWarnings(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var warnings []string
	if err := json.Unmarshal(raw, &warnings); err != nil {
		return nil
	}
	return warnings
}

func EncodeWarnings(warnings []string) []byte {
	if len(warnings) == 0 {
		return nil
	}
	b, _ := json.Marshal(warnings)
	return b
}

func (p *Proposal) Warnings() []string {
	return DecodeWarnings(p.WarningsJSON)
}

// EffectivePrice is what actually gets pushed to the channel: the reviewer's
// modified price when present, the proposed price otherwise.
func (p *Proposal) EffectivePrice() decimal.Decimal {
	if p.ApprovedPrice != nil {
		return *p.ApprovedPrice
	}
	return p.ProposedPrice
}

type ProposalFilters struct {
	Statuses         []ProposalStatus
	BatchId          string
	Brand            string
	Category         string
	MinPriceChange   *decimal.Decimal
	MaxPriceChange   *decimal.Decimal
	MinMarginChange  *decimal.Decimal
	MaxMarginChange  *decimal.Decimal
	HasWarnings      *bool
	Search           string // matched against sku and title
}

// ProposalRepository is the gorm-backed store handed to the workflow and
// synchronizer packages. Tests substitute an in-memory fake through the
// interfaces those packages declare.
type ProposalRepository struct {
	db *gorm.DB
}

// NewProposalRepository takes an explicit handle for tests; passing nil
// resolves the global connection per call, which lets the router be built
// before the database has finished connecting.
func NewProposalRepository(db *gorm.DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

func (r *ProposalRepository) conn() *gorm.DB {
	if r.db != nil {
		return r.db
	}
	return config.GetDB()
}

func (r *ProposalRepository) CreateBatch(ctx context.Context, proposals []*Proposal) error {
	if len(proposals) == 0 {
		return nil
	}
	return r.conn().WithContext(ctx).CreateInBatches(proposals, 200).Error
}

func (r *ProposalRepository) Get(ctx context.Context, id int) (*Proposal, error) {
	var p Proposal
	if err := r.conn().WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProposalRepository) applyFilters(dbCtx *gorm.DB, f ProposalFilters) *gorm.DB {
	if len(f.Statuses) > 0 {
		dbCtx = dbCtx.Where("status IN ?", f.Statuses)
	}
	if f.BatchId != "" {
		dbCtx = dbCtx.Where("batch_id = ?", f.BatchId)
	}
	if f.Brand != "" {
		dbCtx = dbCtx.Where("brand = ?", f.Brand)
	}
	if f.Category != "" {
		dbCtx = dbCtx.Where("LOWER(category) LIKE ?", "%"+strings.ToLower(f.Category)+"%")
	}
	if f.MinPriceChange != nil {
		dbCtx = dbCtx.Where("price_change >= ?", *f.MinPriceChange)
	}
	if f.MaxPriceChange != nil {
		dbCtx = dbCtx.Where("price_change <= ?", *f.MaxPriceChange)
	}
	if f.MinMarginChange != nil {
		dbCtx = dbCtx.Where("margin_change_percent >= ?", *f.MinMarginChange)
	}
	if f.MaxMarginChange != nil {
		dbCtx = dbCtx.Where("margin_change_percent <= ?", *f.MaxMarginChange)
	}
	if f.HasWarnings != nil {
		if *f.HasWarnings {
			dbCtx = dbCtx.Where("warnings_json IS NOT NULL")
		} else {
			dbCtx = dbCtx.Where("warnings_json IS NULL")
		}
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		dbCtx = dbCtx.Where("sku LIKE ? OR title LIKE ?", like, like)
	}
	return dbCtx
}

// Query returns one review page plus the filtered total. hasMore echoes
// whether another page exists: page is 1-based, pageSize capped at 200.
func (r *ProposalRepository) Query(ctx context.Context, f ProposalFilters, page, pageSize int) ([]Proposal, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}
	if pageSize > 200 {
		pageSize = 200
	}

	dbCtx := r.applyFilters(r.conn().WithContext(ctx).Model(&Proposal{}), f)

	var total int64
	if err := dbCtx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []Proposal
	offset := (page - 1) * pageSize
	if err := dbCtx.Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// UpdateGuarded applies a review mutation only when the row still holds the
// status and version the caller read. Returns the number of rows changed;
// zero means somebody else got there first (or the id is gone).
func (r *ProposalRepository) UpdateGuarded(ctx context.Context, id int, version int, from ProposalStatus, updates map[string]interface{}) (int64, error) {
	updates["version"] = version + 1
	res := r.conn().WithContext(ctx).Model(&Proposal{}).
		Where("id = ? AND status = ? AND version = ?", id, from, version).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// ListPushable returns approved/modified proposals, optionally restricted to
// an id set, in stable id order.
func (r *ProposalRepository) ListPushable(ctx context.Context, ids []int) ([]Proposal, error) {
	dbCtx := r.conn().WithContext(ctx).
		Where("status IN ?", []ProposalStatus{ProposalStatusApproved, ProposalStatusModified})
	if len(ids) > 0 {
		dbCtx = dbCtx.Where("id IN ?", ids)
	}
	var proposals []Proposal
	if err := dbCtx.Order("id").Find(&proposals).Error; err != nil {
		return nil, err
	}
	return proposals, nil
}

// MarkPushed finalizes a successful channel submission. The status guard
// keeps a concurrent reviewer action from being silently overwritten.
func (r *ProposalRepository) MarkPushed(ctx context.Context, ids []int, pushedAt time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.conn().WithContext(ctx).Model(&Proposal{}).
		Where("id IN ? AND status IN ?", ids, []ProposalStatus{ProposalStatusApproved, ProposalStatusModified}).
		Updates(map[string]interface{}{
			"status":    ProposalStatusPushed,
			"pushed_at": pushedAt,
			"version":   gorm.Expr("version + 1"),
		})
	return res.RowsAffected, res.Error
}

// PurgeExpiredProposals deletes rows whose TTL passed. The DB stands in for
// a TTL-native store: a cron CLI calls this daily.
func PurgeExpiredProposals(ctx context.Context, now time.Time) (int64, error) {
	db := config.GetDB()
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&Proposal{})
	return res.RowsAffected, res.Error
}
