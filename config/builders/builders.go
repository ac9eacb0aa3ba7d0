// Package builders 在 init 中注册内置 Node 的配置构建器。
package builders

import (
	"fmt"

	"github.com/rushteam/nextplay/config"
	"github.com/rushteam/nextplay/feature"
	"github.com/rushteam/nextplay/filter"
	"github.com/rushteam/nextplay/model"
	"github.com/rushteam/nextplay/pipeline"
	"github.com/rushteam/nextplay/pkg/conv"
	"github.com/rushteam/nextplay/rank"
	"github.com/rushteam/nextplay/recall"
	"github.com/rushteam/nextplay/rerank"
)

func init() {
	config.Register("recall.catalog", BuildCatalogRecallNode)
	config.Register("filter", BuildFilterNode)
	config.Register("feature.signals", BuildSignalNode)
	config.Register("rank.fusion", BuildFusionRankNode)
	config.Register("rank.lr", BuildLRNode)
	config.Register("rank.popularity", BuildPopularityRankNode)
	config.Register("rerank.topn", BuildTopNNode)
}

func BuildCatalogRecallNode(map[string]interface{}) (pipeline.Node, error) {
	return &recall.CatalogRecall{}, nil
}

// BuildFilterNode 配置示例：
//
//	filters:
//	  - type: rated
//	  - type: expr
//	    expr: 'item.name.startsWith("Demo")'
//	    invert: false
func BuildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		switch filterType := conv.ConfigGet(filterMap, "type", ""); filterType {
		case "rated":
			filters = append(filters, &filter.RatedFilter{})
		case "expr":
			expr := conv.ConfigGet(filterMap, "expr", "")
			if expr == "" {
				return nil, fmt.Errorf("expr filter requires expr")
			}
			f, err := filter.NewExprFilter(expr, conv.ConfigGet(filterMap, "invert", false))
			if err != nil {
				return nil, fmt.Errorf("expr filter: %w", err)
			}
			filters = append(filters, f)
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}
	return &filter.FilterNode{Filters: filters, Strict: conv.ConfigGet(cfg, "strict", false)}, nil
}

func BuildSignalNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &feature.SignalNode{Only: conv.ConfigGetStrings(cfg, "only")}, nil
}

func BuildFusionRankNode(cfg map[string]interface{}) (pipeline.Node, error) {
	path := conv.ConfigGet(cfg, "model_path", "")
	m, err := model.LoadFusionModel(path)
	if err != nil {
		return nil, err
	}
	return &rank.ModelNode{Model: m}, nil
}

// BuildLRNode 从 model_path 指向的 JSON 读取分类器，或直接用 bias / weights 配置。
func BuildLRNode(cfg map[string]interface{}) (pipeline.Node, error) {
	if path := conv.ConfigGet(cfg, "model_path", ""); path != "" {
		lr, err := model.LoadLRModel(path)
		if err != nil {
			return nil, fmt.Errorf("load lr model: %w", err)
		}
		return &rank.ModelNode{Model: lr}, nil
	}
	weightsMap, ok := cfg["weights"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("weights not found")
	}
	weights := make(map[string]float64, len(weightsMap))
	for k, v := range weightsMap {
		f, ok := conv.ToFloat64(v)
		if !ok {
			return nil, fmt.Errorf("weight %q is not a number", k)
		}
		weights[k] = f
	}
	lr := &model.LRModel{Bias: conv.ConfigGetFloat64(cfg, "bias", 0), Weights: weights}
	return &rank.ModelNode{Model: lr}, nil
}

func BuildPopularityRankNode(map[string]interface{}) (pipeline.Node, error) {
	return &rank.ModelNode{Model: model.PopularityModel{}}, nil
}

func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.TopNNode{N: int(conv.ConfigGetInt64(cfg, "n", 5))}, nil
}
