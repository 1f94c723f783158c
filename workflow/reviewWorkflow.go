package workflow

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/repricer_backend/models"
	"bitbucket.org/mmdatafocus/repricer_backend/utils"
	"github.com/shopspring/decimal"
)

// ReviewRequest is one reviewer action on one proposal. ModifiedPrice is
// only meaningful (and required) for the modify action.
type ReviewRequest struct {
	Action        models.ReviewAction
	ModifiedPrice *decimal.Decimal
	Reviewer      string
	Notes         string
}

func (r ReviewRequest) validate() error {
	if r.Reviewer == "" {
		return fmt.Errorf("%w: reviewer is required", utils.ErrorValidation)
	}
	if _, err := models.ParseReviewAction(string(r.Action)); err != nil {
		return fmt.Errorf("%w: %v", utils.ErrorValidation, err)
	}
	if r.Action == models.ReviewActionModify {
		if r.ModifiedPrice == nil {
			return fmt.Errorf("%w: modify requires a price", utils.ErrorValidation)
		}
		if r.ModifiedPrice.IsNegative() {
			return fmt.Errorf("%w: modified price cannot be negative", utils.ErrorValidation)
		}
	}
	return nil
}

// ReviewProposal applies one reviewer action. The write is conditional on
// the status and version read first, so a concurrent reviewer loses cleanly
// (ErrorReviewConflict) instead of being silently overwritten. The pushed
// status is reserved to the synchronizer and is not reachable from here.
func ReviewProposal(ctx context.Context, store ProposalStore, id int, req ReviewRequest) (*models.Proposal, error) {
	if req.Reviewer == "" {
		// an auth middleware may have identified the reviewer already
		if actor, ok := utils.GetReviewerFromContext(ctx); ok {
			req.Reviewer = actor
		}
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	p, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := req.Action.TargetStatus()
	if !models.CanTransition(p.Status, next) {
		return nil, &models.InvalidTransitionError{From: p.Status, To: next}
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":       next,
		"reviewed_by":  req.Reviewer,
		"reviewed_at":  now,
		"review_notes": req.Notes,
	}
	if req.Action == models.ReviewActionModify {
		updates["approved_price"] = *req.ModifiedPrice
	}

	affected, err := store.UpdateGuarded(ctx, id, p.Version, p.Status, updates)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		current, rerr := store.Get(ctx, id)
		if rerr != nil {
			return nil, rerr
		}
		if current.Status != p.Status {
			return nil, &models.InvalidTransitionError{From: current.Status, To: next}
		}
		return nil, utils.ErrorReviewConflict
	}

	return store.Get(ctx, id)
}

type BulkReviewOutcome struct {
	Id      int    `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BulkReview applies the single-item transition to each id independently;
// one failure never blocks the rest. Modify is excluded: it needs a per-id
// price and stays a single-item action.
func BulkReview(ctx context.Context, store ProposalStore, ids []int, action models.ReviewAction, reviewer, notes string) ([]BulkReviewOutcome, error) {
	if action != models.ReviewActionApprove && action != models.ReviewActionReject {
		return nil, fmt.Errorf("%w: bulk review supports approve and reject only", utils.ErrorValidation)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: ids are required", utils.ErrorValidation)
	}
	if reviewer == "" {
		if actor, ok := utils.GetReviewerFromContext(ctx); ok {
			reviewer = actor
		}
	}

	req := ReviewRequest{Action: action, Reviewer: reviewer, Notes: notes}
	if err := req.validate(); err != nil {
		return nil, err
	}

	outcomes := make([]BulkReviewOutcome, 0, len(ids))
	for _, id := range ids {
		if _, err := ReviewProposal(ctx, store, id, req); err != nil {
			outcomes = append(outcomes, BulkReviewOutcome{Id: id, Error: err.Error()})
			continue
		}
		outcomes = append(outcomes, BulkReviewOutcome{Id: id, Success: true})
	}
	return outcomes, nil
}
