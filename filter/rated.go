package filter

import (
	"context"

	"github.com/rushteam/nextplay/core"
)

// RatedFilter 过滤用户评过分的物品（任意分值，包括低于喜欢阈值的评分）。
type RatedFilter struct{}

func (f *RatedFilter) Name() string { return "filter.rated" }

func (f *RatedFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	return rctx.HasRated(item.ID), nil
}
