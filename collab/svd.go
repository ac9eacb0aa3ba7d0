package collab

import (
	"github.com/juju/errors"
	"gonum.org/v1/gonum/mat"
)

// Factors 是截断 SVD 的结果：A ≈ UserFactor · ItemFactorᵀ。
// UserFactor = U_k · Σ_k（rows x k），ItemFactor = V_k（cols x k）。
type Factors struct {
	UserFactor *mat.Dense
	ItemFactor *mat.Dense
	Rank       int
}

// EffectiveRank 返回 min(rank, rows, cols)，保证小数据集上分解良定义。
func EffectiveRank(rank, rows, cols int) int {
	k := rank
	if rows < k {
		k = rows
	}
	if cols < k {
		k = cols
	}
	if k < 0 {
		k = 0
	}
	return k
}

// Factorize 对 a 做秩 rank 的截断 SVD。
func Factorize(a mat.Matrix, rank int) (*Factors, error) {
	rows, cols := a.Dims()
	k := EffectiveRank(rank, rows, cols)
	if k == 0 {
		return nil, errors.Errorf("collab: cannot factorize %dx%d matrix with rank %d", rows, cols, rank)
	}
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, errors.New("collab: svd did not converge")
	}
	values := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	userFactor := mat.NewDense(rows, k, nil)
	userFactor.Copy(u.Slice(0, rows, 0, k))
	for j := 0; j < k; j++ {
		for i := 0; i < rows; i++ {
			userFactor.Set(i, j, userFactor.At(i, j)*values[j])
		}
	}
	itemFactor := mat.NewDense(cols, k, nil)
	itemFactor.Copy(v.Slice(0, cols, 0, k))
	return &Factors{UserFactor: userFactor, ItemFactor: itemFactor, Rank: k}, nil
}

// Predict 返回 (row, col) 的重构值：用户隐向量与物品隐向量的点积。
func (f *Factors) Predict(row, col int) float64 {
	return mat.Dot(f.UserFactor.RowView(row), f.ItemFactor.RowView(col))
}
