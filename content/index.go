// Package content 实现基于文本相似度的内容推荐信号。
package content

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/nextplay/core"
	"github.com/rushteam/nextplay/text"
)

// Index 是目录快照上的内容相似度索引。
//
// 每个物品的 genres + tags + description 经 TF-IDF 向量化，
// 两两余弦相似度组成对称矩阵，对角线恒为 1。
// 目录快照变化后需要重建。
type Index struct {
	games []core.Game
	pos   map[int64]int
	sim   *mat.SymDense
}

// NewIndex 在目录快照上构建索引。
func NewIndex(games []core.Game) *Index {
	idx := &Index{
		games: games,
		pos:   make(map[int64]int, len(games)),
	}
	docs := make([]string, len(games))
	for i, g := range games {
		if _, ok := idx.pos[g.ID]; !ok {
			idx.pos[g.ID] = i
		}
		docs[i] = g.Text()
	}

	n := len(games)
	if n == 0 {
		return idx
	}
	idx.sim = mat.NewSymDense(n, nil)
	_, vectors := text.FitTransform(docs)
	if vectors != nil {
		var prod mat.Dense
		prod.Mul(vectors, vectors.T())
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				idx.sim.SetSym(i, j, clamp(prod.At(i, j)))
			}
		}
	}
	for i := 0; i < n; i++ {
		idx.sim.SetSym(i, i, 1)
	}
	return idx
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// Len 返回索引中的物品数。
func (idx *Index) Len() int { return len(idx.games) }

// Similarity 返回两个物品的余弦相似度，任一未知时返回 0。
func (idx *Index) Similarity(a, b int64) float64 {
	i, ok := idx.pos[a]
	if !ok {
		return 0
	}
	j, ok := idx.pos[b]
	if !ok {
		return 0
	}
	return idx.sim.At(i, j)
}

// Score 返回 itemID 与 liked 中各物品相似度的均值。
//
// liked 为空、itemID 本身在 liked 中、itemID 未知时返回 0；
// liked 中未知的物品被跳过。
func (idx *Index) Score(liked []int64, itemID int64) float64 {
	if len(liked) == 0 {
		return 0
	}
	for _, id := range liked {
		if id == itemID {
			return 0
		}
	}
	i, ok := idx.pos[itemID]
	if !ok {
		return 0
	}
	var (
		sum   float64
		count int
	)
	for _, id := range liked {
		j, ok := idx.pos[id]
		if !ok {
			continue
		}
		sum += idx.sim.At(i, j)
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// ContentScore 从评分快照中取出用户喜欢的物品（评分 >= threshold）后计算 Score。
func (idx *Index) ContentScore(userID string, itemID int64, ratings []core.Rating, threshold float64) float64 {
	return idx.Score(LikedItems(userID, ratings, threshold), itemID)
}

// Similar 返回与名称为 name 的物品最相似的至多 n 个其他物品名称，
// 相似度降序，同分按 ID 升序；名称未知时返回空。
func (idx *Index) Similar(name string, n int) []string {
	if n <= 0 {
		return []string{}
	}
	src := -1
	for i, g := range idx.games {
		if g.Name == name {
			src = i
			break
		}
	}
	if src < 0 {
		return []string{}
	}
	type scored struct {
		pos   int
		score float64
	}
	candidates := make([]scored, 0, len(idx.games)-1)
	for i := range idx.games {
		if i == src {
			continue
		}
		candidates = append(candidates, scored{pos: i, score: idx.sim.At(src, i)})
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].score != candidates[b].score {
			return candidates[a].score > candidates[b].score
		}
		return idx.games[candidates[a].pos].ID < idx.games[candidates[b].pos].ID
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, idx.games[c.pos].Name)
	}
	return out
}

// LikedItems 返回用户评分 >= threshold 的物品 ID，按评分快照中的顺序。
func LikedItems(userID string, ratings []core.Rating, threshold float64) []int64 {
	var liked []int64
	for _, r := range ratings {
		if r.UserID == userID && r.Liked(threshold) {
			liked = append(liked, r.ItemID)
		}
	}
	return liked
}

// Scorer 把索引与一次调用的评分快照绑定，实现 core.ContentScorer。
type Scorer struct {
	Index *Index
	liked map[string][]int64
}

// NewScorer 预先按用户分组喜欢的物品。
func NewScorer(idx *Index, ratings []core.Rating, threshold float64) *Scorer {
	liked := make(map[string][]int64)
	for _, r := range ratings {
		if r.Liked(threshold) {
			liked[r.UserID] = append(liked[r.UserID], r.ItemID)
		}
	}
	return &Scorer{Index: idx, liked: liked}
}

func (s *Scorer) ContentScore(userID string, itemID int64) float64 {
	return s.Index.Score(s.liked[userID], itemID)
}

var _ core.ContentScorer = (*Scorer)(nil)
