// Package collab 实现基于截断 SVD 的协同过滤信号。
package collab

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/nextplay/core"
)

// UserItemMatrix 是用户 x 物品评分矩阵。
// 行为评分快照中出现过的用户（升序），列为出现过的物品（升序），
// 未交互的单元为 0（0 表示无交互，不是评分）。
type UserItemMatrix struct {
	Users []string
	Items []int64
	Data  *mat.Dense

	userPos map[string]int
	itemPos map[int64]int
}

// NewUserItemMatrix 从评分快照构建矩阵；同一 (user, item) 出现多次时以最后一条为准。
func NewUserItemMatrix(ratings []core.Rating) *UserItemMatrix {
	userSet := make(map[string]struct{})
	itemSet := make(map[int64]struct{})
	for _, r := range ratings {
		userSet[r.UserID] = struct{}{}
		itemSet[r.ItemID] = struct{}{}
	}
	m := &UserItemMatrix{
		Users:   make([]string, 0, len(userSet)),
		Items:   make([]int64, 0, len(itemSet)),
		userPos: make(map[string]int, len(userSet)),
		itemPos: make(map[int64]int, len(itemSet)),
	}
	for u := range userSet {
		m.Users = append(m.Users, u)
	}
	for i := range itemSet {
		m.Items = append(m.Items, i)
	}
	sort.Strings(m.Users)
	sort.Slice(m.Items, func(a, b int) bool { return m.Items[a] < m.Items[b] })
	for i, u := range m.Users {
		m.userPos[u] = i
	}
	for j, it := range m.Items {
		m.itemPos[it] = j
	}
	if len(m.Users) == 0 || len(m.Items) == 0 {
		return m
	}
	m.Data = mat.NewDense(len(m.Users), len(m.Items), nil)
	for _, r := range ratings {
		m.Data.Set(m.userPos[r.UserID], m.itemPos[r.ItemID], r.Value)
	}
	return m
}

// Dims 返回 (用户数, 物品数)。
func (m *UserItemMatrix) Dims() (int, int) {
	return len(m.Users), len(m.Items)
}

// Index 返回用户行号与物品列号，任一不存在时 ok 为 false。
func (m *UserItemMatrix) Index(userID string, itemID int64) (row, col int, ok bool) {
	row, okUser := m.userPos[userID]
	col, okItem := m.itemPos[itemID]
	return row, col, okUser && okItem
}

// UserIndex 返回用户行号。
func (m *UserItemMatrix) UserIndex(userID string) (int, bool) {
	row, ok := m.userPos[userID]
	return row, ok
}

// At 返回 (user, item) 单元值；未知用户或物品返回 0。
func (m *UserItemMatrix) At(userID string, itemID int64) float64 {
	row, col, ok := m.Index(userID, itemID)
	if !ok {
		return 0
	}
	return m.Data.At(row, col)
}

// Masked 返回把 (row, col) 置 0 后的副本，原矩阵不变。
func (m *UserItemMatrix) Masked(row, col int) *mat.Dense {
	masked := mat.DenseCopyOf(m.Data)
	masked.Set(row, col, 0)
	return masked
}
