package core

import "github.com/rushteam/nextplay/pkg/utils"

// 特征名常量：融合模型的三路输入信号。
const (
	FeatureContent    = "content_score"
	FeatureCollab     = "collab_score"
	FeaturePopularity = "popularity_score"
)

// FusionFeatures 是融合模型要求的特征顺序。
var FusionFeatures = []string{FeatureContent, FeatureCollab, FeaturePopularity}

// MetaName 是 Item.Meta 中存放游戏名称的 key。
const MetaName = "name"

// Item 是推荐链路中的统一承载结构：特征、分数、元信息、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策。
type Item struct {
	ID       int64
	Score    float64
	Features map[string]float64
	Meta     map[string]any
	Labels   map[string]utils.Label
}

func NewItem(id int64) *Item {
	return &Item{
		ID:       id,
		Score:    0,
		Features: make(map[string]float64),
		Meta:     make(map[string]any),
		Labels:   make(map[string]utils.Label),
	}
}

// NewGameItem 用游戏记录构造 Item，名称写入 Meta。
func NewGameItem(g Game) *Item {
	it := NewItem(g.ID)
	it.Meta[MetaName] = g.Name
	return it
}

// Name 返回 Meta 中的游戏名称，不存在时返回空串。
func (it *Item) Name() string {
	if it == nil || it.Meta == nil {
		return ""
	}
	name, _ := it.Meta[MetaName].(string)
	return name
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}
