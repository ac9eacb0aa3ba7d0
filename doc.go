// Package nextplay 是一个混合游戏推荐器。
//
// 设计要点：
// - 三路信号：TF-IDF 内容相似度、防泄漏的截断 SVD 协同过滤、热度分
// - 融合排序：离线训练的缩放器 + 逻辑回归给出 "喜欢概率"
// - Pipeline-first: 召回 → 过滤 → 特征 → 排序 → 重排，Node 可按配置替换
// - 快照缓存：数据源版本不变时复用相似度矩阵与隐因子分解
package nextplay

import (
	"github.com/rushteam/nextplay/engine"
	"github.com/rushteam/nextplay/pipeline"
)

// 轻量 facade：便于直接 import "nextplay" 使用核心抽象。
type (
	Engine   = engine.Engine
	Options  = engine.Options
	Result   = engine.Result
	Pipeline = pipeline.Pipeline
	Node     = pipeline.Node
	Kind     = pipeline.Kind
)

const (
	KindRecall  = pipeline.KindRecall
	KindFilter  = pipeline.KindFilter
	KindFeature = pipeline.KindFeature
	KindRank    = pipeline.KindRank
	KindReRank  = pipeline.KindReRank
)

// New 创建推荐引擎，等同于 engine.New。
func New(opts Options) (*Engine, error) {
	return engine.New(opts)
}
