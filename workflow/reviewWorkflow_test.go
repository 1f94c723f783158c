package workflow

import (
	"context"
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/repricer_backend/models"
	"bitbucket.org/mmdatafocus/repricer_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingProposal(id int) *models.Proposal {
	return &models.Proposal{
		ID:            id,
		Sku:           "SKU-1",
		Status:        models.ProposalStatusPending,
		ProposedPrice: decimal.NewFromInt(50),
	}
}

func TestReviewProposal_Approve(t *testing.T) {
	store := newFakeStore(pendingProposal(1))

	p, err := ReviewProposal(context.Background(), store, 1, ReviewRequest{
		Action:   models.ReviewActionApprove,
		Reviewer: "alice",
		Notes:    "looks sane",
	})

	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusApproved, p.Status)
	assert.Equal(t, "alice", p.ReviewedBy)
	assert.Equal(t, "looks sane", p.ReviewNotes)
	require.NotNil(t, p.ReviewedAt)
	assert.Equal(t, 1, p.Version, "the guarded write must bump the version")
	assert.Nil(t, p.ApprovedPrice, "approve keeps the proposed price")
}

func TestReviewProposal_Reject(t *testing.T) {
	store := newFakeStore(pendingProposal(1))

	p, err := ReviewProposal(context.Background(), store, 1, ReviewRequest{
		Action:   models.ReviewActionReject,
		Reviewer: "alice",
	})

	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusRejected, p.Status)
}

func TestReviewProposal_ModifySetsApprovedPrice(t *testing.T) {
	store := newFakeStore(pendingProposal(1))
	price := decimal.NewFromFloat(47.99)

	p, err := ReviewProposal(context.Background(), store, 1, ReviewRequest{
		Action:        models.ReviewActionModify,
		ModifiedPrice: &price,
		Reviewer:      "bob",
	})

	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusModified, p.Status)
	require.NotNil(t, p.ApprovedPrice)
	assert.True(t, p.ApprovedPrice.Equal(price))
	assert.True(t, p.EffectivePrice().Equal(price))
}

func TestReviewProposal_Validation(t *testing.T) {
	store := newFakeStore(pendingProposal(1))
	negative := decimal.NewFromInt(-5)

	cases := []struct {
		name string
		req  ReviewRequest
	}{
		{"missing reviewer", ReviewRequest{Action: models.ReviewActionApprove}},
		{"unknown action", ReviewRequest{Action: "escalate", Reviewer: "alice"}},
		{"modify without price", ReviewRequest{Action: models.ReviewActionModify, Reviewer: "alice"}},
		{"modify negative price", ReviewRequest{Action: models.ReviewActionModify, ModifiedPrice: &negative, Reviewer: "alice"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReviewProposal(context.Background(), store, 1, tc.req)
			assert.ErrorIs(t, err, utils.ErrorValidation)
		})
	}

	// validation failures must not touch the proposal
	p, _ := store.Get(context.Background(), 1)
	assert.Equal(t, models.ProposalStatusPending, p.Status)
	assert.Equal(t, 0, p.Version)
}

func TestReviewProposal_ReviewerFromContext(t *testing.T) {
	store := newFakeStore(pendingProposal(1))
	ctx := utils.SetReviewerInContext(context.Background(), "carol")

	p, err := ReviewProposal(ctx, store, 1, ReviewRequest{Action: models.ReviewActionApprove})

	require.NoError(t, err)
	assert.Equal(t, "carol", p.ReviewedBy)
}

func TestReviewProposal_NotFound(t *testing.T) {
	store := newFakeStore()

	_, err := ReviewProposal(context.Background(), store, 99, ReviewRequest{
		Action:   models.ReviewActionApprove,
		Reviewer: "alice",
	})

	assert.ErrorIs(t, err, utils.ErrorRecordNotFound)
}

func TestReviewProposal_TerminalStatusesRejectAnyAction(t *testing.T) {
	rejected := pendingProposal(1)
	rejected.Status = models.ProposalStatusRejected
	pushed := pendingProposal(2)
	pushed.Status = models.ProposalStatusPushed
	store := newFakeStore(rejected, pushed)

	for _, id := range []int{1, 2} {
		_, err := ReviewProposal(context.Background(), store, id, ReviewRequest{
			Action:   models.ReviewActionApprove,
			Reviewer: "alice",
		})
		var transition *models.InvalidTransitionError
		require.ErrorAs(t, err, &transition)
		assert.Equal(t, models.ProposalStatusApproved, transition.To)
	}
}

func TestReviewProposal_ApprovedCannotBeReApproved(t *testing.T) {
	approved := pendingProposal(1)
	approved.Status = models.ProposalStatusApproved
	store := newFakeStore(approved)

	_, err := ReviewProposal(context.Background(), store, 1, ReviewRequest{
		Action:   models.ReviewActionApprove,
		Reviewer: "alice",
	})

	var transition *models.InvalidTransitionError
	assert.ErrorAs(t, err, &transition)
}

func TestReviewProposal_VersionRaceReturnsConflict(t *testing.T) {
	store := newFakeStore(pendingProposal(1))
	// Another reviewer's write lands between our read and our update,
	// bumping the version but leaving the status pending (e.g. a note-only
	// revision path); the guarded update must miss and surface a conflict.
	store.beforeUpdate = func(id int) {
		store.proposals[id].Version++
		store.beforeUpdate = nil
	}

	_, err := ReviewProposal(context.Background(), store, 1, ReviewRequest{
		Action:   models.ReviewActionApprove,
		Reviewer: "alice",
	})

	assert.ErrorIs(t, err, utils.ErrorReviewConflict)
}

func TestReviewProposal_StatusRaceReturnsInvalidTransition(t *testing.T) {
	store := newFakeStore(pendingProposal(1))
	// The concurrent write moved the proposal to rejected; our approve must
	// report the transition that is now impossible, not a bare conflict.
	store.beforeUpdate = func(id int) {
		store.proposals[id].Status = models.ProposalStatusRejected
		store.proposals[id].Version++
		store.beforeUpdate = nil
	}

	_, err := ReviewProposal(context.Background(), store, 1, ReviewRequest{
		Action:   models.ReviewActionApprove,
		Reviewer: "alice",
	})

	var transition *models.InvalidTransitionError
	require.ErrorAs(t, err, &transition)
	assert.Equal(t, models.ProposalStatusRejected, transition.From)
}

func TestBulkReview_PerIdIsolation(t *testing.T) {
	pushed := pendingProposal(3)
	pushed.Status = models.ProposalStatusPushed
	store := newFakeStore(pendingProposal(1), pendingProposal(2), pushed)

	outcomes, err := BulkReview(context.Background(), store, []int{1, 2, 3},
		models.ReviewActionReject, "alice", "seasonal cleanup")

	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	assert.True(t, outcomes[0].Success)
	assert.True(t, outcomes[1].Success)
	assert.False(t, outcomes[2].Success)
	assert.Contains(t, outcomes[2].Error, "invalid transition")

	p1, _ := store.Get(context.Background(), 1)
	assert.Equal(t, models.ProposalStatusRejected, p1.Status)
	p3, _ := store.Get(context.Background(), 3)
	assert.Equal(t, models.ProposalStatusPushed, p3.Status, "the failed id must be left alone")
}

func TestBulkReview_Validation(t *testing.T) {
	store := newFakeStore(pendingProposal(1))

	_, err := BulkReview(context.Background(), store, []int{1}, models.ReviewActionModify, "alice", "")
	assert.ErrorIs(t, err, utils.ErrorValidation)

	_, err = BulkReview(context.Background(), store, nil, models.ReviewActionApprove, "alice", "")
	assert.ErrorIs(t, err, utils.ErrorValidation)

	_, err = BulkReview(context.Background(), store, []int{1}, models.ReviewActionApprove, "", "")
	assert.True(t, errors.Is(err, utils.ErrorValidation))
}
