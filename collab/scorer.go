package collab

import (
	"sync"

	"github.com/rushteam/nextplay/core"
	"github.com/rushteam/nextplay/pkg/log"
	"go.uber.org/zap"
)

// CollabScore 在不泄漏待预测评分的前提下预测用户对物品的隐因子分。
//
// 用户或物品不在矩阵中时返回 0。否则在把 (user, item) 置 0 的副本上拟合秩 rank 的截断 SVD，
// 返回该单元的重构值（无界浮点数，不是概率）。m 本身不会被修改。
func CollabScore(userID string, itemID int64, m *UserItemMatrix, rank int) float64 {
	row, col, ok := m.Index(userID, itemID)
	if !ok {
		return 0
	}
	factors, err := Factorize(m.Masked(row, col), rank)
	if err != nil {
		log.Logger().Warn("collab factorize failed",
			zap.String("user_id", userID), zap.Int64("item_id", itemID), zap.Error(err))
		return 0
	}
	return factors.Predict(row, col)
}

// Scorer 绑定一个评分快照，实现 core.CollabScorer。
//
// 快照矩阵只在首次使用时分解一次。对未交互的单元，把它置 0 是恒等操作，
// 因此直接复用这次分解与逐对重拟合的结果一致；已有评分的单元仍在置 0 的副本上重拟合。
// Strict 为 false 时已有评分的单元也复用共享分解（以泄漏换性能）。
type Scorer struct {
	Matrix *UserItemMatrix
	Rank   int
	Strict bool

	once    sync.Once
	factors *Factors
}

// NewScorer 用评分快照构建打分器。
func NewScorer(ratings []core.Rating, rank int) *Scorer {
	return &Scorer{
		Matrix: NewUserItemMatrix(ratings),
		Rank:   rank,
		Strict: true,
	}
}

func (s *Scorer) shared() *Factors {
	s.once.Do(func() {
		rows, cols := s.Matrix.Dims()
		if rows == 0 || cols == 0 {
			return
		}
		f, err := Factorize(s.Matrix.Data, s.Rank)
		if err != nil {
			log.Logger().Warn("collab factorize failed", zap.Error(err))
			return
		}
		s.factors = f
	})
	return s.factors
}

// Factors 返回快照矩阵的共享分解，矩阵为空或分解失败时返回 nil。
func (s *Scorer) Factors() *Factors {
	return s.shared()
}

func (s *Scorer) CollabScore(userID string, itemID int64) float64 {
	row, col, ok := s.Matrix.Index(userID, itemID)
	if !ok {
		return 0
	}
	if s.Strict && s.Matrix.Data.At(row, col) != 0 {
		return CollabScore(userID, itemID, s.Matrix, s.Rank)
	}
	f := s.shared()
	if f == nil {
		return 0
	}
	return f.Predict(row, col)
}

var _ core.CollabScorer = (*Scorer)(nil)
