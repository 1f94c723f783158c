package models

import "fmt"

type ProposalStatus string

const (
	ProposalStatusPending  ProposalStatus = "pending"
	ProposalStatusApproved ProposalStatus = "approved"
	ProposalStatusRejected ProposalStatus = "rejected"
	ProposalStatusModified ProposalStatus = "modified"
	ProposalStatusPushed   ProposalStatus = "pushed"
)

func ParseProposalStatus(s string) (ProposalStatus, error) {
	switch ProposalStatus(s) {
	case ProposalStatusPending, ProposalStatusApproved, ProposalStatusRejected,
		ProposalStatusModified, ProposalStatusPushed:
		return ProposalStatus(s), nil
	}
	return "", fmt.Errorf("invalid proposal status %q", s)
}

// proposalTransitions is the single source of truth for the review state
// machine. rejected and pushed are terminal.
var proposalTransitions = map[ProposalStatus][]ProposalStatus{
	ProposalStatusPending:  {ProposalStatusApproved, ProposalStatusRejected, ProposalStatusModified},
	ProposalStatusApproved: {ProposalStatusPushed},
	ProposalStatusModified: {ProposalStatusPushed},
	ProposalStatusRejected: {},
	ProposalStatusPushed:   {},
}

func CanTransition(from, to ProposalStatus) bool {
	for _, next := range proposalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type InvalidTransitionError struct {
	From ProposalStatus
	To   ProposalStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

type ReviewAction string

const (
	ReviewActionApprove ReviewAction = "approve"
	ReviewActionReject  ReviewAction = "reject"
	ReviewActionModify  ReviewAction = "modify"
)

func ParseReviewAction(s string) (ReviewAction, error) {
	switch ReviewAction(s) {
	case ReviewActionApprove, ReviewActionReject, ReviewActionModify:
		return ReviewAction(s), nil
	}
	return "", fmt.Errorf("invalid review action %q", s)
}

// TargetStatus maps a reviewer action to the status it requests.
func (a ReviewAction) TargetStatus() ProposalStatus {
	switch a {
	case ReviewActionApprove:
		return ProposalStatusApproved
	case ReviewActionReject:
		return ProposalStatusRejected
	case ReviewActionModify:
		return ProposalStatusModified
	}
	return ""
}

type RuleActionType string

const (
	RuleActionSetMargin       RuleActionType = "set_margin"
	RuleActionSetMarkup       RuleActionType = "set_markup"
	RuleActionAdjustPercent   RuleActionType = "adjust_percent"
	RuleActionAdjustFixed     RuleActionType = "adjust_fixed"
	RuleActionSetPrice        RuleActionType = "set_price"
	RuleActionMatchMrp        RuleActionType = "match_mrp"
	RuleActionDiscountFromMrp RuleActionType = "discount_from_mrp"
)

type RoundingRule string

const (
	RoundingNone        RoundingRule = "none"
	RoundingNearest99p  RoundingRule = "nearest_99p"
	RoundingNearest95p  RoundingRule = "nearest_95p"
	RoundingNearestUnit RoundingRule = "nearest_pound"
	RoundingDown        RoundingRule = "round_down"
	RoundingUp          RoundingRule = "round_up"
)
