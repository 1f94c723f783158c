package utils

import (
	"context"

	"bitbucket.org/mmdatafocus/repricer_backend/appctx"
)

var (
	ContextKeyReviewer      = appctx.ContextKeyReviewer
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
	ContextKeyTriggeredBy   = appctx.ContextKeyTriggeredBy
)

func GetReviewerFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyReviewer)
}

func SetReviewerInContext(ctx context.Context, reviewer string) context.Context {
	return appctx.Set(ctx, ContextKeyReviewer, reviewer)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetCorrelationIdInContext(ctx context.Context, id string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, id)
}

func GetTriggeredByFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyTriggeredBy)
}

func SetTriggeredByInContext(ctx context.Context, actor string) context.Context {
	return appctx.Set(ctx, ContextKeyTriggeredBy, actor)
}
