package recall

import (
	"context"
	"sort"

	"github.com/rushteam/nextplay/content"
	"github.com/rushteam/nextplay/core"
	"github.com/rushteam/nextplay/pipeline"
	"github.com/rushteam/nextplay/pkg/utils"
	"github.com/rushteam/nextplay/rank"
)

// ContentRecall 是基于内容的召回源（Content-Based Recommendation）。
//
// 核心思想："用户喜欢具有某些特征的物品，推荐具有相似特征的其他物品"
//
// 候选为用户未评分的目录物品，分数为与用户喜欢物品（评分 >= Threshold）的平均内容相似度。
// 用户没有喜欢的物品时返回空。
type ContentRecall struct {
	Index *content.Index

	// Threshold 喜欢阈值
	Threshold float64

	// TopK 返回 TopK 个物品，<= 0 表示不截断
	TopK int
}

func (r *ContentRecall) Name() string        { return "recall.content" }
func (r *ContentRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *ContentRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *ContentRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Index == nil || rctx == nil {
		return []*core.Item{}, nil
	}

	// 1. 用户喜欢的物品
	liked := make([]int64, 0, len(rctx.UserRatings))
	for id, v := range rctx.UserRatings {
		if v >= r.Threshold {
			liked = append(liked, id)
		}
	}
	if len(liked) == 0 {
		return []*core.Item{}, nil
	}
	sort.Slice(liked, func(i, j int) bool { return liked[i] < liked[j] })

	// 2. 对未评分的候选计算平均相似度
	out := make([]*core.Item, 0, len(rctx.Catalog))
	for _, g := range rctx.Catalog {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if rctx.HasRated(g.ID) {
			continue
		}
		it := core.NewGameItem(g)
		it.Score = r.Index.Score(liked, g.ID)
		it.PutLabel(utils.LabelRecallSource, utils.Label{Value: r.Name(), Source: "recall"})
		out = append(out, it)
	}

	// 3. 排序取 TopK
	rank.SortByScore(out)
	if r.TopK > 0 && len(out) > r.TopK {
		out = out[:r.TopK]
	}
	return out, nil
}

var (
	_ Source        = (*ContentRecall)(nil)
	_ pipeline.Node = (*ContentRecall)(nil)
)
