package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/nextplay/core"
	"github.com/rushteam/nextplay/pkg/utils"
)

func gameItems() []*core.Item {
	return []*core.Item{
		core.NewGameItem(core.Game{ID: 1, Name: "Alpha"}),
		core.NewGameItem(core.Game{ID: 2, Name: "Demo Beta"}),
		core.NewGameItem(core.Game{ID: 3, Name: "Gamma"}),
	}
}

func ids(items []*core.Item) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestRatedFilterRemovesAnyRating(t *testing.T) {
	// 低于喜欢阈值的评分同样算已评
	rctx := &core.RecommendContext{UserID: "u1", UserRatings: map[int64]float64{1: 1.0, 3: 5.0}}
	items := gameItems()
	out, err := (&FilterNode{Filters: []Filter{&RatedFilter{}}}).Process(context.Background(), rctx, items)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids(out))
	assert.Equal(t, "filter.rated", items[0].Labels[utils.LabelFiltered].Source)
}

func TestExprFilter(t *testing.T) {
	f, err := NewExprFilter(`item.name.startsWith("Demo")`, false)
	require.NoError(t, err)
	assert.Equal(t, `item.name.startsWith("Demo")`, f.Expr())
	out, err := (&FilterNode{Filters: []Filter{f}}).Process(context.Background(), &core.RecommendContext{}, gameItems())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids(out))

	keep, err := NewExprFilter(`item.id >= 2`, true)
	require.NoError(t, err)
	out, err = (&FilterNode{Filters: []Filter{keep}}).Process(context.Background(), &core.RecommendContext{}, gameItems())
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, ids(out))

	_, err = NewExprFilter(`item.id >`, false)
	assert.Error(t, err)
}

type failingFilter struct{}

func (failingFilter) Name() string { return "failing" }
func (failingFilter) ShouldFilter(context.Context, *core.RecommendContext, *core.Item) (bool, error) {
	return false, errors.New("boom")
}

func TestFilterNodeErrors(t *testing.T) {
	lenient := &FilterNode{Filters: []Filter{failingFilter{}}}
	out, err := lenient.Process(context.Background(), &core.RecommendContext{}, gameItems())
	require.NoError(t, err)
	assert.Len(t, out, 3)

	strict := &FilterNode{Filters: []Filter{failingFilter{}}, Strict: true}
	_, err = strict.Process(context.Background(), &core.RecommendContext{}, gameItems())
	assert.Error(t, err)
}
