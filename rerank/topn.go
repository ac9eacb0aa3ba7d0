// Package rerank 在排序结果上做最终截断。
package rerank

import (
	"context"

	"github.com/rushteam/nextplay/core"
	"github.com/rushteam/nextplay/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，用于在排序后截取前 N 个物品。
//
//   - N <= 0 返回空结果
//   - N > len(items) 返回全部物品
//   - rctx.Params["top_n"] 存在时覆盖 N
type TopNNode struct {
	N int
}

// ParamTopN 是覆盖 N 的请求参数名。
const ParamTopN = "top_n"

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.N
	if rctx != nil {
		if v, ok := rctx.Params[ParamTopN].(int); ok {
			limit = v
		}
	}
	if limit <= 0 {
		return []*core.Item{}, nil
	}
	if len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}
