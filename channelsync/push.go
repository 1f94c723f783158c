package channelsync

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/repricer_backend/config"
	"bitbucket.org/mmdatafocus/repricer_backend/models"
	"github.com/sirupsen/logrus"
)

// ProposalSource is the slice of the proposal store the synchronizer needs.
type ProposalSource interface {
	ListPushable(ctx context.Context, ids []int) ([]models.Proposal, error)
	MarkPushed(ctx context.Context, ids []int, pushedAt time.Time) (int64, error)
}

// PriceUpdater is the channel-facing side; ChannelClient is the production
// implementation.
type PriceUpdater interface {
	UpdatePrices(ctx context.Context, updates []PriceUpdate) (UpdateResult, error)
}

type Synchronizer struct {
	Proposals ProposalSource
	Channel   PriceUpdater
	Logger    *logrus.Logger
}

func NewSynchronizer(proposals ProposalSource, channel PriceUpdater) *Synchronizer {
	return &Synchronizer{
		Proposals: proposals,
		Channel:   channel,
		Logger:    config.GetLogger(),
	}
}

// Push sends approved and modified proposals to the channel. A dry run
// reports what would be sent without calling the channel or touching any
// status. Statuses only advance to pushed when the channel accepted the
// whole batch; on any failure every proposal stays reviewable and the
// channel's errors are passed through untouched. Retrying is the caller's
// call, not ours.
func (s *Synchronizer) Push(ctx context.Context, ids []int, dryRun bool) (PushResult, error) {
	proposals, err := s.Proposals.ListPushable(ctx, ids)
	if err != nil {
		return PushResult{}, err
	}

	updates := make([]PriceUpdate, 0, len(proposals))
	pushedIds := make([]int, 0, len(proposals))
	for i := range proposals {
		p := &proposals[i]
		updates = append(updates, PriceUpdate{
			Sku:        p.Sku,
			Price:      p.EffectivePrice().StringFixed(2),
			ProposalId: p.ID,
		})
		pushedIds = append(pushedIds, p.ID)
	}

	result := PushResult{DryRun: dryRun, Updates: updates}
	if dryRun || len(updates) == 0 {
		return result, nil
	}

	channelResult, err := s.Channel.UpdatePrices(ctx, updates)
	if err != nil {
		config.LogError(s.Logger, "channelsync", "Push", "channel request failed",
			map[string]interface{}{"proposalCount": len(updates)}, err)
		return PushResult{}, err
	}

	if !channelResult.Success {
		result.TotalFailed = len(updates)
		result.Errors = channelResult.Errors
		config.LogError(s.Logger, "channelsync", "Push", "channel rejected batch",
			map[string]interface{}{"proposalCount": len(updates), "errorCount": len(channelResult.Errors)},
			errors.New("channel batch was not accepted"))
		return result, nil
	}

	pushedAt := time.Now().UTC()
	if _, err := s.Proposals.MarkPushed(ctx, pushedIds, pushedAt); err != nil {
		return PushResult{}, err
	}
	result.Pushed = len(pushedIds)
	return result, nil
}
