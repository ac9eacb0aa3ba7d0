package rerank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/nextplay/core"
)

func TestTopNNode(t *testing.T) {
	items := []*core.Item{core.NewItem(1), core.NewItem(2), core.NewItem(3)}
	for _, tc := range []struct {
		name string
		n    int
		want int
	}{
		{"zero", 0, 0},
		{"negative", -1, 0},
		{"truncate", 2, 2},
		{"larger", 10, 3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			out, err := (&TopNNode{N: tc.n}).Process(context.Background(), nil, items)
			require.NoError(t, err)
			assert.Len(t, out, tc.want)
		})
	}

	rctx := &core.RecommendContext{Params: map[string]any{ParamTopN: 1}}
	out, err := (&TopNNode{N: 5}).Process(context.Background(), rctx, items)
	require.NoError(t, err)
	assert.Equal(t, []*core.Item{items[0]}, out)
}
