package workflow

import (
	"context"
	"io"
	"time"

	"bitbucket.org/mmdatafocus/repricer_backend/models"
	"bitbucket.org/mmdatafocus/repricer_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// fakeStore mimics the repository's guarded-update contract in memory.
// beforeUpdate lets a test race a concurrent write in between the read
// and the conditional update.
type fakeStore struct {
	proposals    map[int]*models.Proposal
	created      []*models.Proposal
	beforeUpdate func(id int)
}

func newFakeStore(proposals ...*models.Proposal) *fakeStore {
	f := &fakeStore{proposals: map[int]*models.Proposal{}}
	for _, p := range proposals {
		f.proposals[p.ID] = p
	}
	return f
}

func (f *fakeStore) CreateBatch(ctx context.Context, proposals []*models.Proposal) error {
	f.created = append(f.created, proposals...)
	return nil
}

func (f *fakeStore) Get(ctx context.Context, id int) (*models.Proposal, error) {
	p, ok := f.proposals[id]
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) Query(ctx context.Context, filters models.ProposalFilters, page, pageSize int) ([]models.Proposal, int64, error) {
	var out []models.Proposal
	for _, p := range f.proposals {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (f *fakeStore) UpdateGuarded(ctx context.Context, id int, version int, from models.ProposalStatus, updates map[string]interface{}) (int64, error) {
	if f.beforeUpdate != nil {
		f.beforeUpdate(id)
	}
	p, ok := f.proposals[id]
	if !ok || p.Status != from || p.Version != version {
		return 0, nil
	}
	for key, value := range updates {
		switch key {
		case "status":
			p.Status = value.(models.ProposalStatus)
		case "reviewed_by":
			p.ReviewedBy = value.(string)
		case "reviewed_at":
			at := value.(time.Time)
			p.ReviewedAt = &at
		case "review_notes":
			p.ReviewNotes = value.(string)
		case "approved_price":
			price := value.(decimal.Decimal)
			p.ApprovedPrice = &price
		case "pushed_at":
			at := value.(time.Time)
			p.PushedAt = &at
		}
	}
	p.Version = version + 1
	return 1, nil
}

type fakeCatalog []models.ProductSnapshot

func (f fakeCatalog) LoadAll(ctx context.Context) ([]models.ProductSnapshot, error) {
	return f, nil
}

type fakeRules []models.PricingRule

func (f fakeRules) LoadActive(ctx context.Context) ([]models.PricingRule, error) {
	return f, nil
}

type fakeVelocity map[string]decimal.Decimal

func (f fakeVelocity) Map(ctx context.Context, windowDays int) (map[string]decimal.Decimal, error) {
	return f, nil
}

type fakeSettings models.RepricerSettings

func (f fakeSettings) Get(ctx context.Context) (models.RepricerSettings, error) {
	return models.RepricerSettings(f), nil
}

func silentLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
