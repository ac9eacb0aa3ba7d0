package feature

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/nextplay/core"
)

func TestMinMaxScaler(t *testing.T) {
	s := NewMinMaxScaler(
		map[string]float64{"a": 1, "b": 2},
		map[string]float64{"a": 3, "b": 2},
	)
	assert.Equal(t, 0.5, s.Transform("a", 2))
	assert.Equal(t, 1.5, s.Transform("b", 3.5))
	assert.Equal(t, 7.0, s.Transform("unknown", 7))
	assert.Equal(t, map[string]float64{"a": 0, "b": 0}, s.Process(map[string]float64{"a": 1, "b": 2}))

	require.NoError(t, s.Validate([]string{"a", "b"}))
	assert.Error(t, s.Validate([]string{"c"}))
	assert.Error(t, NewMinMaxScaler(map[string]float64{"a": 2}, map[string]float64{"a": 1}).Validate([]string{"a"}))
}

type constScorer float64

func (c constScorer) ContentScore(string, int64) float64 { return float64(c) }
func (c constScorer) CollabScore(string, int64) float64  { return float64(c) * 10 }
func (c constScorer) PopularityScore(int64) float64      { return float64(c) * 100 }

func TestSignalNode(t *testing.T) {
	s := constScorer(0.1)
	rctx := &core.RecommendContext{UserID: "u1", Signals: &core.Signals{Content: s, Collab: s, Popularity: s}}
	items := []*core.Item{core.NewItem(1), nil, core.NewItem(2)}

	out, err := (&SignalNode{}).Process(context.Background(), rctx, items)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.InDelta(t, 0.1, out[0].Features[core.FeatureContent], 1e-12)
	assert.InDelta(t, 1.0, out[0].Features[core.FeatureCollab], 1e-12)
	assert.InDelta(t, 10.0, out[2].Features[core.FeaturePopularity], 1e-12)

	only := []*core.Item{core.NewItem(3)}
	out, err = (&SignalNode{Only: []string{core.FeaturePopularity}}).Process(context.Background(), rctx, only)
	require.NoError(t, err)
	assert.Len(t, out[0].Features, 1)

	missing := []*core.Item{core.NewItem(4)}
	out, err = (&SignalNode{}).Process(context.Background(), &core.RecommendContext{UserID: "u1"}, missing)
	require.NoError(t, err)
	assert.Equal(t, 0.0, out[0].Features[core.FeatureCollab])
}

func TestSignalNodeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&SignalNode{}).Process(ctx, &core.RecommendContext{}, []*core.Item{core.NewItem(1)})
	assert.ErrorIs(t, err, context.Canceled)
}
