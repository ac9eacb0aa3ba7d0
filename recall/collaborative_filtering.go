package recall

import (
	"context"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/nextplay/collab"
	"github.com/rushteam/nextplay/core"
	"github.com/rushteam/nextplay/pipeline"
	"github.com/rushteam/nextplay/pkg/utils"
	"github.com/rushteam/nextplay/rank"
)

// UserBasedCF 是基于用户的协同过滤召回源（User-based Collaborative Filtering, User-CF）。
//
// 核心思想："兴趣相似的用户，喜欢相似的物品"
//
// 算法流程：
//  1. 用户 → 截断 SVD 隐向量
//  2. 计算用户间余弦相似度
//  3. 找 TopK 相似用户
//  4. 统计这些用户高分（>= MinRating）且目标用户未评分的物品，按出现次数排序
type UserBasedCF struct {
	Matrix  *collab.UserItemMatrix
	Factors *collab.Factors

	// Neighbors 考虑的相似用户数，默认 5
	Neighbors int

	// MinRating 相似用户评分达到该值才计入，默认 4.0
	MinRating float64

	// TopK 返回 TopK 个物品，<= 0 表示不截断
	TopK int
}

func (r *UserBasedCF) Name() string        { return "recall.u2i" }
func (r *UserBasedCF) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *UserBasedCF) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

type neighbor struct {
	row int
	sim float64
}

// neighbors 返回与 row 最相似的 n 个其他用户，相似度降序，同分按行号升序。
func (r *UserBasedCF) neighbors(row, n int) []neighbor {
	users := r.Factors.UserFactor
	rows, _ := users.Dims()
	target := users.RowView(row)
	targetNorm := mat.Norm(target, 2)

	out := make([]neighbor, 0, rows-1)
	for i := 0; i < rows; i++ {
		if i == row {
			continue
		}
		v := users.RowView(i)
		var sim float64
		if norm := mat.Norm(v, 2); norm > 0 && targetNorm > 0 {
			sim = mat.Dot(target, v) / (norm * targetNorm)
		}
		out = append(out, neighbor{row: i, sim: sim})
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].sim != out[b].sim {
			return out[a].sim > out[b].sim
		}
		return out[a].row < out[b].row
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func (r *UserBasedCF) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Matrix == nil || r.Factors == nil || rctx == nil {
		return []*core.Item{}, nil
	}
	row, ok := r.Matrix.UserIndex(rctx.UserID)
	if !ok {
		return []*core.Item{}, nil
	}

	n := r.Neighbors
	if n <= 0 {
		n = 5
	}
	minRating := r.MinRating
	if minRating <= 0 {
		minRating = 4.0
	}

	// 相似用户的高分物品计数
	counts := make(map[int64]int)
	for _, nb := range r.neighbors(row, n) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for col, itemID := range r.Matrix.Items {
			if rctx.HasRated(itemID) {
				continue
			}
			if r.Matrix.Data.At(nb.row, col) >= minRating {
				counts[itemID]++
			}
		}
	}

	out := make([]*core.Item, 0, len(counts))
	for _, g := range rctx.Catalog {
		c, ok := counts[g.ID]
		if !ok {
			continue
		}
		it := core.NewGameItem(g)
		it.Score = float64(c)
		it.PutLabel(utils.LabelRecallSource, utils.Label{Value: r.Name(), Source: "recall"})
		out = append(out, it)
	}
	rank.SortByScore(out)
	if r.TopK > 0 && len(out) > r.TopK {
		out = out[:r.TopK]
	}
	return out, nil
}

var (
	_ Source        = (*UserBasedCF)(nil)
	_ pipeline.Node = (*UserBasedCF)(nil)
)
