// Package rank 对候选打分并排序。
package rank

import (
	"context"
	"sort"

	"github.com/rushteam/nextplay/core"
	"github.com/rushteam/nextplay/model"
	"github.com/rushteam/nextplay/pipeline"
	"github.com/rushteam/nextplay/pkg/utils"
)

// ModelNode 是使用 RankModel 的排序 Node（融合模型、纯热度模型等）。
// - 写入 labels：rank_model
// - 更新 item.Score 并按分数降序排序，同分按 ID 升序
type ModelNode struct {
	Model model.RankModel
}

func (n *ModelNode) Name() string        { return "rank.model" }
func (n *ModelNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *ModelNode) Process(
	ctx context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Model == nil || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		score, err := n.Model.Predict(it.Features)
		if err != nil {
			return nil, err
		}
		it.Score = score
		it.PutLabel(utils.LabelRankModel, utils.Label{Value: n.Model.Name(), Source: "rank"})
		out = append(out, it)
	}

	SortByScore(out)
	return out, nil
}

// SortByScore 按分数降序、同分按 ID 升序排序。
func SortByScore(items []*core.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
}
