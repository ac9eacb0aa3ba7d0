// Package model 提供排序模型：融合分类器（Min-Max 归一化 + 逻辑回归）与降级用的纯热度模型。
package model

// RankModel 是排序阶段的最小抽象：输入特征，输出一个可比较的分数。
type RankModel interface {
	Name() string
	Predict(features map[string]float64) (float64, error)
}
