package feature

import (
	"context"

	"github.com/rushteam/nextplay/core"
	"github.com/rushteam/nextplay/pipeline"
)

// SignalNode 把三路原始信号写入 item.Features：
// content_score、collab_score、popularity_score。
// 打分器来自 rctx.Signals，缺失的一路记为 0。
type SignalNode struct {
	// Only 非空时只计算列出的特征，其余特征不写入
	Only []string
}

func (n *SignalNode) Name() string        { return "feature.signals" }
func (n *SignalNode) Kind() pipeline.Kind { return pipeline.KindFeature }

func (n *SignalNode) enabled(name string) bool {
	if len(n.Only) == 0 {
		return true
	}
	for _, f := range n.Only {
		if f == name {
			return true
		}
	}
	return false
}

func (n *SignalNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	var sig core.Signals
	var userID string
	if rctx != nil {
		userID = rctx.UserID
		if rctx.Signals != nil {
			sig = *rctx.Signals
		}
	}
	for _, it := range items {
		if it == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if it.Features == nil {
			it.Features = make(map[string]float64, len(core.FusionFeatures))
		}
		if n.enabled(core.FeatureContent) {
			it.Features[core.FeatureContent] = contentScore(sig.Content, userID, it.ID)
		}
		if n.enabled(core.FeatureCollab) {
			it.Features[core.FeatureCollab] = collabScore(sig.Collab, userID, it.ID)
		}
		if n.enabled(core.FeaturePopularity) {
			it.Features[core.FeaturePopularity] = popularityScore(sig.Popularity, it.ID)
		}
	}
	return items, nil
}

func contentScore(s core.ContentScorer, userID string, itemID int64) float64 {
	if s == nil {
		return 0
	}
	return s.ContentScore(userID, itemID)
}

func collabScore(s core.CollabScorer, userID string, itemID int64) float64 {
	if s == nil {
		return 0
	}
	return s.CollabScore(userID, itemID)
}

func popularityScore(s core.PopularityScorer, itemID int64) float64 {
	if s == nil {
		return 0
	}
	return s.PopularityScore(itemID)
}
