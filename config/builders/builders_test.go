package builders

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/nextplay/config"
	"github.com/rushteam/nextplay/core"
	"github.com/rushteam/nextplay/pipeline"
	"github.com/rushteam/nextplay/popularity"
)

func TestBuiltinPipelineFromYAML(t *testing.T) {
	cfg, err := pipeline.ParseYAML([]byte(`
pipeline:
  name: popular
  nodes:
    - type: recall.catalog
    - type: filter
      config:
        filters:
          - type: rated
          - type: expr
            expr: 'item.name == "Hidden"'
    - type: feature.signals
      config:
        only: [popularity_score]
    - type: rank.popularity
    - type: rerank.topn
      config: {n: 2}
`))
	require.NoError(t, err)
	require.NoError(t, config.ValidatePipelineConfig(cfg))
	p, err := cfg.BuildPipeline(config.DefaultFactory())
	require.NoError(t, err)

	rctx := &core.RecommendContext{
		UserID: "u1",
		Catalog: []core.Game{
			{ID: 1, Name: "A"}, {ID: 2, Name: "B"}, {ID: 3, Name: "Hidden"}, {ID: 4, Name: "D"},
		},
		UserRatings: map[int64]float64{1: 4},
		Signals: &core.Signals{
			Popularity: popularity.NewTable(map[int64]float64{1: 0.9, 2: 0.1, 3: 0.8, 4: 0.5}),
		},
	}
	items, err := p.Run(context.Background(), rctx, nil)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(4), items[0].ID)
	assert.Equal(t, int64(2), items[1].ID)
}

func TestBuildFusionRankNodeMissingArtifact(t *testing.T) {
	_, err := BuildFusionRankNode(map[string]interface{}{"model_path": filepath.Join(t.TempDir(), "none.json")})
	assert.True(t, core.IsMissingArtifact(err))

	path := filepath.Join(t.TempDir(), "fusion.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
	  "scaler": {"min": {"content_score": 0, "collab_score": 0, "popularity_score": 0},
	             "max": {"content_score": 1, "collab_score": 1, "popularity_score": 1}},
	  "classifier": {"bias": 0, "weights": {"content_score": 1, "collab_score": 1, "popularity_score": 1}}}`), 0o644))
	node, err := BuildFusionRankNode(map[string]interface{}{"model_path": path})
	require.NoError(t, err)
	assert.Equal(t, "rank.model", node.Name())
}

func TestBuildFilterNodeErrors(t *testing.T) {
	_, err := BuildFilterNode(map[string]interface{}{})
	assert.Error(t, err)
	_, err = BuildFilterNode(map[string]interface{}{"filters": []interface{}{map[string]interface{}{"type": "unknown"}}})
	assert.Error(t, err)
	_, err = BuildLRNode(map[string]interface{}{"weights": map[string]interface{}{"a": "x"}})
	assert.Error(t, err)
}

func TestBuildLRNodeFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lr.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"bias": 0, "weights": {"popularity_score": 2}}`), 0o644))
	node, err := BuildLRNode(map[string]interface{}{"model_path": path})
	require.NoError(t, err)

	rctx := &core.RecommendContext{UserID: "u1"}
	items, err := node.Process(context.Background(), rctx, []*core.Item{
		{ID: 1, Features: map[string]float64{"popularity_score": 0}},
		{ID: 2, Features: map[string]float64{"popularity_score": 1}},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(2), items[0].ID)
	assert.InDelta(t, 0.5, items[1].Score, 1e-12)

	_, err = BuildLRNode(map[string]interface{}{"model_path": filepath.Join(t.TempDir(), "none.json")})
	assert.Error(t, err)
}
