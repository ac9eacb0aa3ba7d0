// Package pipeline 把一次推荐拆成可组合的 Node 链：召回 -> 过滤 -> 特征 -> 排序 -> 重排。
package pipeline

import (
	"context"

	"github.com/rushteam/nextplay/core"
)

// Kind 用于标记 Node 类型，方便观测/治理/编排（例如按阶段打点）。
type Kind string

const (
	KindRecall  Kind = "recall"  // 召回阶段：生成候选集
	KindFilter  Kind = "filter"  // 过滤阶段：剔除已评分等不可推荐的候选
	KindFeature Kind = "feature" // 特征阶段：写入融合所需的三路信号
	KindRank    Kind = "rank"    // 排序阶段：对候选打分并排序
	KindReRank  Kind = "rerank"  // 重排阶段：截断 TopN 等
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用“输入 items -> 输出 items”的形态，方便 Recall 生成、Filter 截断、ReRank 重排等操作。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Item,
	) ([]*core.Item, error)
}
