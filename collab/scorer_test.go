package collab

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/nextplay/core"
)

func testRatings() []core.Rating {
	return []core.Rating{
		{UserID: "u1", ItemID: 1, Value: 5},
		{UserID: "u1", ItemID: 2, Value: 4},
		{UserID: "u2", ItemID: 1, Value: 4},
		{UserID: "u2", ItemID: 3, Value: 2},
		{UserID: "u3", ItemID: 2, Value: 5},
		{UserID: "u3", ItemID: 3, Value: 1},
		{UserID: "u3", ItemID: 4, Value: 3},
	}
}

func TestUserItemMatrix(t *testing.T) {
	m := NewUserItemMatrix(append(testRatings(), core.Rating{UserID: "u1", ItemID: 1, Value: 2}))
	rows, cols := m.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 4, cols)
	assert.Equal(t, []string{"u1", "u2", "u3"}, m.Users)
	assert.Equal(t, []int64{1, 2, 3, 4}, m.Items)
	assert.Equal(t, 2.0, m.At("u1", 1))
	assert.Equal(t, 0.0, m.At("u1", 3))
	assert.Equal(t, 0.0, m.At("nobody", 1))

	empty := NewUserItemMatrix(nil)
	rows, cols = empty.Dims()
	assert.Zero(t, rows)
	assert.Zero(t, cols)
}

func TestFactorizeFullRankReconstructs(t *testing.T) {
	m := NewUserItemMatrix(testRatings())
	f, err := Factorize(m.Data, 15)
	require.NoError(t, err)
	assert.Equal(t, 3, f.Rank)
	for i := range m.Users {
		for j := range m.Items {
			assert.InDelta(t, m.Data.At(i, j), f.Predict(i, j), 1e-9)
		}
	}
	assert.Equal(t, 2, EffectiveRank(2, 3, 4))
	_, err = Factorize(mat.NewDense(2, 2, nil), 0)
	assert.Error(t, err)
}

func TestCollabScoreRestoresMatrix(t *testing.T) {
	m := NewUserItemMatrix(testRatings())
	before := mat.DenseCopyOf(m.Data)
	for _, u := range m.Users {
		for _, it := range m.Items {
			score := CollabScore(u, it, m, 2)
			assert.False(t, math.IsNaN(score))
		}
	}
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			assert.Equal(t, math.Float64bits(before.At(i, j)), math.Float64bits(m.Data.At(i, j)))
		}
	}
}

func TestCollabScoreUnknown(t *testing.T) {
	m := NewUserItemMatrix(testRatings())
	assert.Equal(t, 0.0, CollabScore("nobody", 1, m, 2))
	assert.Equal(t, 0.0, CollabScore("u1", 99, m, 2))
}

func TestCollabScoreMasksTarget(t *testing.T) {
	m := NewUserItemMatrix(testRatings())
	// 满秩时重构是精确的：置 0 后的预测应为 0，而不是原评分 5
	assert.InDelta(t, 0.0, CollabScore("u1", 1, m, 15), 1e-9)
}

func TestScorerMatchesPerPairRefit(t *testing.T) {
	ratings := testRatings()
	s := NewScorer(ratings, 2)
	m := NewUserItemMatrix(ratings)
	for _, u := range m.Users {
		for _, it := range m.Items {
			assert.InDelta(t, CollabScore(u, it, m, 2), s.CollabScore(u, it), 1e-9, "%s/%d", u, it)
		}
	}
	assert.Equal(t, 0.0, s.CollabScore("nobody", 1))

	empty := NewScorer(nil, 2)
	assert.Equal(t, 0.0, empty.CollabScore("u1", 1))
}
