package content

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rushteam/nextplay/core"
)

func testCatalog() []core.Game {
	return []core.Game{
		{ID: 1, Name: "A", Genres: "action", Tags: "shooter"},
		{ID: 2, Name: "B", Genres: "action", Tags: "shooter multiplayer"},
		{ID: 3, Name: "C", Genres: "puzzle"},
		{ID: 4, Name: "D"},
	}
}

func TestIndexMatrixProperties(t *testing.T) {
	games := testCatalog()
	idx := NewIndex(games)
	assert.Equal(t, 4, idx.Len())
	for _, a := range games {
		assert.Equal(t, 1.0, idx.Similarity(a.ID, a.ID), "diagonal of %d", a.ID)
		for _, b := range games {
			s := idx.Similarity(a.ID, b.ID)
			assert.Equal(t, s, idx.Similarity(b.ID, a.ID))
			assert.GreaterOrEqual(t, s, -1.0)
			assert.LessOrEqual(t, s, 1.0)
		}
	}
	assert.Greater(t, idx.Similarity(1, 2), idx.Similarity(1, 3))
	// 空文本物品与其他物品相似度为 0
	assert.Equal(t, 0.0, idx.Similarity(4, 1))
	assert.Equal(t, 0.0, idx.Similarity(99, 1))
}

func TestContentScore(t *testing.T) {
	idx := NewIndex(testCatalog())
	ratings := []core.Rating{
		{UserID: "u1", ItemID: 1, Value: 5},
		{UserID: "u1", ItemID: 3, Value: 4},
		{UserID: "u1", ItemID: 99, Value: 5},
		{UserID: "u2", ItemID: 1, Value: 2},
	}

	// 喜欢的物品本身得 0
	assert.Equal(t, 0.0, idx.ContentScore("u1", 1, ratings, 3))
	// 没有喜欢的物品得 0
	assert.Equal(t, 0.0, idx.ContentScore("u2", 2, ratings, 3))
	assert.Equal(t, 0.0, idx.ContentScore("nobody", 2, ratings, 3))
	// 未知物品被跳过：均值只在 1 与 3 上计算
	want := (idx.Similarity(2, 1) + idx.Similarity(2, 3)) / 2
	assert.InDelta(t, want, idx.ContentScore("u1", 2, ratings, 3), 1e-12)
	assert.Equal(t, 0.0, idx.ContentScore("u1", 42, ratings, 3))

	scorer := NewScorer(idx, ratings, 3)
	assert.InDelta(t, want, scorer.ContentScore("u1", 2), 1e-12)
	assert.Equal(t, 0.0, scorer.ContentScore("u2", 2))
}

func TestSimilar(t *testing.T) {
	idx := NewIndex(testCatalog())
	assert.Equal(t, []string{"B"}, idx.Similar("A", 1))
	got := idx.Similar("A", 10)
	assert.Len(t, got, 3)
	assert.Equal(t, "B", got[0])
	// C 与 D 都与 A 相似度为 0，按 ID 升序
	assert.Equal(t, []string{"C", "D"}, got[1:])
	assert.Empty(t, idx.Similar("missing", 5))
	assert.Empty(t, idx.Similar("A", 0))
}

func TestEmptyIndex(t *testing.T) {
	idx := NewIndex(nil)
	assert.Equal(t, 0.0, idx.Similarity(1, 1))
	assert.Equal(t, 0.0, idx.Score([]int64{1}, 2))
	assert.Empty(t, idx.Similar("A", 3))
}
