package rank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/nextplay/core"
	"github.com/rushteam/nextplay/model"
	"github.com/rushteam/nextplay/pkg/utils"
)

func item(id int64, pop float64) *core.Item {
	it := core.NewItem(id)
	it.Features[core.FeaturePopularity] = pop
	return it
}

func TestModelNodeSortsWithIDTieBreak(t *testing.T) {
	items := []*core.Item{item(5, 0.2), item(3, 0.9), nil, item(1, 0.2), item(4, 0.9)}
	out, err := (&ModelNode{Model: model.PopularityModel{}}).Process(context.Background(), nil, items)
	require.NoError(t, err)
	got := make([]int64, 0, len(out))
	for _, it := range out {
		got = append(got, it.ID)
	}
	assert.Equal(t, []int64{3, 4, 1, 5}, got)
	assert.Equal(t, "popularity", out[0].Labels[utils.LabelRankModel].Value)
	assert.Equal(t, 0.9, out[0].Score)
}

func TestModelNodeWithoutModel(t *testing.T) {
	items := []*core.Item{item(1, 0)}
	out, err := (&ModelNode{}).Process(context.Background(), nil, items)
	require.NoError(t, err)
	assert.Equal(t, items, out)
}
