package recall

import (
	"context"

	"github.com/rushteam/nextplay/core"
	"github.com/rushteam/nextplay/pipeline"
	"github.com/rushteam/nextplay/pkg/utils"
)

// CatalogRecall 把本次调用的目录快照全部作为候选，保持目录顺序。
// 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type CatalogRecall struct{}

func (r *CatalogRecall) Name() string        { return "recall.catalog" }
func (r *CatalogRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，忽略上游 items。
func (r *CatalogRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *CatalogRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if rctx == nil || len(rctx.Catalog) == 0 {
		return []*core.Item{}, nil
	}
	items := make([]*core.Item, 0, len(rctx.Catalog))
	for _, g := range rctx.Catalog {
		it := core.NewGameItem(g)
		it.PutLabel(utils.LabelRecallSource, utils.Label{Value: r.Name(), Source: "recall"})
		items = append(items, it)
	}
	return items, nil
}

var (
	_ Source        = (*CatalogRecall)(nil)
	_ pipeline.Node = (*CatalogRecall)(nil)
)
