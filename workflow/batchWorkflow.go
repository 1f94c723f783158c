package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/repricer_backend/config"
	"bitbucket.org/mmdatafocus/repricer_backend/models"
	"bitbucket.org/mmdatafocus/repricer_backend/pricing"
	"bitbucket.org/mmdatafocus/repricer_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Generator runs one repricing batch: load a snapshot, price every product,
// write the resulting proposals in bulk. The run is not transactional
// across products; a crash leaves a partial batch identifiable by its id.
type Generator struct {
	Catalog   CatalogSource
	Rules     RuleSource
	Velocity  VelocitySource
	Settings  SettingsSource
	Proposals ProposalStore
	Logger    *logrus.Logger
}

// NewGenerator wires the production generator against the shared DB and
// cache. The repository is injected so tests can swap the store out.
func NewGenerator(proposals ProposalStore) *Generator {
	return &Generator{
		Catalog:   dbCatalog{},
		Rules:     dbRules{},
		Velocity:  dbVelocity{},
		Settings:  dbSettings{},
		Proposals: proposals,
		Logger:    config.GetLogger(),
	}
}

type BatchError struct {
	Sku   string `json:"sku"`
	Error string `json:"error"`
}

type BatchResult struct {
	BatchId       string       `json:"batchId"`
	ProposalCount int          `json:"proposalCount"`
	Evaluated     int          `json:"evaluated"`
	Skipped       int          `json:"skipped"`
	Errors        []BatchError `json:"errors,omitempty"`
}

// RunBatch prices the whole catalog under the active rules. Products
// without cost data are skipped; a failure on one product is logged and
// collected without aborting the run.
func (g *Generator) RunBatch(ctx context.Context) (BatchResult, error) {
	result := BatchResult{}

	settings, err := g.Settings.Get(ctx)
	if err != nil {
		return result, err
	}
	products, err := g.Catalog.LoadAll(ctx)
	if err != nil {
		return result, err
	}
	rules, err := g.Rules.LoadActive(ctx)
	if err != nil {
		return result, err
	}
	velocities, err := g.Velocity.Map(ctx, settings.VelocityWindowDays)
	if err != nil {
		return result, err
	}

	now := time.Now().UTC()
	result.BatchId = now.Format("20060102") + "-" + uuid.NewString()[:8]
	expiresAt := now.AddDate(0, 0, settings.ProposalTTLDays)

	actor, _ := utils.GetTriggeredByFromContext(ctx)
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	config.LogInfo(g.Logger, "workflow", "RunBatch",
		"batchId="+result.BatchId+" triggeredBy="+actor+" correlationId="+cid,
		fmt.Sprintf("starting batch over %d products, %d active rules", len(products), len(rules)))

	defaults := pricing.Defaults{
		TargetMarginPercent: settings.DefaultTargetMarginPercent,
		MinChangePercent:    settings.MinChangePercent,
	}

	var proposals []*models.Proposal
	for _, p := range products {
		// No cost data means we cannot reprice.
		if !p.CostPrice.IsPositive() {
			result.Skipped++
			continue
		}
		result.Evaluated++

		proposal, perr := g.priceOne(p, rules, velocities[p.Sku], defaults, result.BatchId, now, expiresAt)
		if perr != nil {
			config.LogError(g.Logger, "workflow", "RunBatch", "priceOne sku="+p.Sku, nil, perr)
			result.Errors = append(result.Errors, BatchError{Sku: p.Sku, Error: perr.Error()})
			continue
		}
		if proposal != nil {
			proposals = append(proposals, proposal)
		}
	}

	if err := g.Proposals.CreateBatch(ctx, proposals); err != nil {
		return result, err
	}
	result.ProposalCount = len(proposals)
	return result, nil
}

// priceOne evaluates a single product and returns nil when the change is
// too small to propose. Panics inside the pricing math are recovered into
// the per-product error list so one bad row never kills the batch.
func (g *Generator) priceOne(p models.ProductSnapshot, rules []models.PricingRule, velocity decimal.Decimal, defaults pricing.Defaults, batchId string, now time.Time, expiresAt time.Time) (proposal *models.Proposal, err error) {
	defer func() {
		if r := recover(); r != nil {
			proposal = nil
			err = fmt.Errorf("pricing panic: %v", r)
		}
	}()

	if p.Sku == "" {
		return nil, errors.New("product snapshot has no sku")
	}

	currentMargin := pricing.ComputeBreakdown(p.CurrentPrice, p.CostPrice, p.DeliveryCost).MarginPercent
	rule := pricing.MatchRule(p, currentMargin, velocity, rules)
	quote := pricing.Calculate(p, rule, velocity, defaults)
	if !quote.ShouldPropose {
		return nil, nil
	}

	return &models.Proposal{
		BatchId:       batchId,
		Sku:           p.Sku,
		Title:         p.Title,
		Brand:         p.Brand,
		Category:      p.Category,
		StockLevel:    p.StockLevel,
		SalesVelocity: velocity,

		CurrentPrice:       p.CurrentPrice,
		ProposedPrice:      quote.ProposedPrice,
		PriceChange:        quote.PriceChange,
		PriceChangePercent: quote.PriceChangePercent,

		CurrentMarginPercent:  quote.Current.MarginPercent,
		ProposedMarginPercent: quote.Proposed.MarginPercent,
		MarginChangePercent:   quote.MarginChangePercent,

		CostBreakdownJSON: pricing.EncodeBreakdown(quote.Proposed),

		AppliedRuleId:   quote.AppliedRuleId,
		AppliedRuleName: quote.AppliedRuleName,
		Reason:          quote.Reason,
		WarningsJSON:    models.EncodeWarnings(quote.Warnings),

		EstimatedDailyProfitChange:   quote.EstimatedDailyProfitChange,
		EstimatedWeeklyProfitImpact:  quote.EstimatedWeeklyProfitImpact,
		EstimatedWeeklyRevenueImpact: quote.EstimatedWeeklyRevenueImpact,

		Status:    models.ProposalStatusPending,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}, nil
}
