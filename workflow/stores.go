package workflow

import (
	"context"

	"bitbucket.org/mmdatafocus/repricer_backend/models"
	"github.com/shopspring/decimal"
)

// ProposalStore is what the review workflow and generator need from the
// proposal table. models.ProposalRepository is the production
// implementation; tests plug an in-memory fake.
type ProposalStore interface {
	CreateBatch(ctx context.Context, proposals []*models.Proposal) error
	Get(ctx context.Context, id int) (*models.Proposal, error)
	Query(ctx context.Context, f models.ProposalFilters, page, pageSize int) ([]models.Proposal, int64, error)
	UpdateGuarded(ctx context.Context, id int, version int, from models.ProposalStatus, updates map[string]interface{}) (int64, error)
}

// CatalogSource supplies the read-only product snapshot for one run.
type CatalogSource interface {
	LoadAll(ctx context.Context) ([]models.ProductSnapshot, error)
}

type RuleSource interface {
	LoadActive(ctx context.Context) ([]models.PricingRule, error)
}

type VelocitySource interface {
	Map(ctx context.Context, windowDays int) (map[string]decimal.Decimal, error)
}

type SettingsSource interface {
	Get(ctx context.Context) (models.RepricerSettings, error)
}

type dbCatalog struct{}

func (dbCatalog) LoadAll(ctx context.Context) ([]models.ProductSnapshot, error) {
	return models.LoadProductSnapshots(ctx)
}

type dbRules struct{}

func (dbRules) LoadActive(ctx context.Context) ([]models.PricingRule, error) {
	return models.LoadActiveRules(ctx)
}

type dbVelocity struct{}

func (dbVelocity) Map(ctx context.Context, windowDays int) (map[string]decimal.Decimal, error) {
	return models.GetSalesVelocityMap(ctx, windowDays)
}

type dbSettings struct{}

func (dbSettings) Get(ctx context.Context) (models.RepricerSettings, error) {
	return models.GetRepricerSettings(ctx)
}
