// Package popularity 实现全局热度信号：离线计算、查表读取、可刷新缓存。
package popularity

import (
	"sort"

	"github.com/rushteam/nextplay/core"
)

// Weights 是三路原始信号在 min-max 归一化后的组合权重。
type Weights struct {
	Added       float64 `mapstructure:"added" yaml:"added"`
	RatingCount float64 `mapstructure:"rating_count" yaml:"rating_count"`
	AvgRating   float64 `mapstructure:"avg_rating" yaml:"avg_rating"`
}

// DefaultWeights 返回 0.5 / 0.3 / 0.2。
func DefaultWeights() Weights {
	return Weights{Added: 0.5, RatingCount: 0.3, AvgRating: 0.2}
}

// Compute 由目录的原始信号计算热度分：
// score = w.Added * norm(added) + w.RatingCount * norm(rating_count) + w.AvgRating * norm(avg_rating)，
// norm 为目录内 min-max 归一化到 [0, 1]；某一信号全部相同时该项归一化为 0。
func Compute(games []core.Game, w Weights) map[int64]float64 {
	added := minMax(games, func(g core.Game) float64 { return g.Added })
	count := minMax(games, func(g core.Game) float64 { return g.RatingCount })
	avg := minMax(games, func(g core.Game) float64 { return g.AvgRating })
	scores := make(map[int64]float64, len(games))
	for i, g := range games {
		scores[g.ID] = w.Added*added[i] + w.RatingCount*count[i] + w.AvgRating*avg[i]
	}
	return scores
}

func minMax(games []core.Game, get func(core.Game) float64) []float64 {
	out := make([]float64, len(games))
	if len(games) == 0 {
		return out
	}
	lo, hi := get(games[0]), get(games[0])
	for _, g := range games[1:] {
		v := get(g)
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		return out
	}
	for i, g := range games {
		out[i] = (get(g) - lo) / (hi - lo)
	}
	return out
}

// Table 是不可变的热度查表，实现 core.PopularityScorer。
type Table struct {
	scores map[int64]float64
}

// NewTable 拷贝 scores 构建查表。
func NewTable(scores map[int64]float64) *Table {
	t := &Table{scores: make(map[int64]float64, len(scores))}
	for id, s := range scores {
		t.scores[id] = s
	}
	return t
}

// TableFromCatalog 使用目录中已预计算的 PopularityScore 构建查表。
func TableFromCatalog(games []core.Game) *Table {
	scores := make(map[int64]float64, len(games))
	for _, g := range games {
		scores[g.ID] = g.PopularityScore
	}
	return NewTable(scores)
}

// PopularityScore 返回物品热度分，未知物品返回 0。
func (t *Table) PopularityScore(itemID int64) float64 {
	if t == nil {
		return 0
	}
	return t.scores[itemID]
}

// Len 返回查表条数。
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.scores)
}

// Ranked 返回按热度降序、同分按 ID 升序的物品 ID。
func (t *Table) Ranked() []int64 {
	if t == nil {
		return nil
	}
	ids := make([]int64, 0, len(t.scores))
	for id := range t.scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool {
		sa, sb := t.scores[ids[a]], t.scores[ids[b]]
		if sa != sb {
			return sa > sb
		}
		return ids[a] < ids[b]
	})
	return ids
}

var _ core.PopularityScorer = (*Table)(nil)
