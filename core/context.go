package core

import "github.com/rushteam/nextplay/pkg/utils"

// RecommendContext 承载用户与本次调用的快照，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID string

	// Catalog 是本次调用读取的目录快照
	Catalog []Game

	// UserRatings 是该用户的全部评分 itemID -> rating（任意分值都算已评）
	UserRatings map[int64]float64

	// Signals 是本次调用构建好的三路打分器
	Signals *Signals

	// Labels 是用户级标签，例如冷启动
	Labels map[string]utils.Label

	// Params 请求级参数
	Params map[string]any
}

// HasRated 判断用户是否评过该物品。
func (rctx *RecommendContext) HasRated(itemID int64) bool {
	if rctx == nil || rctx.UserRatings == nil {
		return false
	}
	_, ok := rctx.UserRatings[itemID]
	return ok
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
