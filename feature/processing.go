// Package feature 负责融合特征：三路原始信号写入与归一化。
package feature

import (
	"fmt"
	"math"
)

// FeatureProcessor 是特征处理器的统一接口
type FeatureProcessor interface {
	// Process 处理特征，返回处理后的特征
	Process(features map[string]float64) map[string]float64
}

// MinMaxScaler Min-Max 归一化，参数来自离线训练集
// 公式: x' = (x - min) / (max - min)
// 训练集上某特征取值范围为 0 时，缩放系数取 1，即 x' = x - min。
type MinMaxScaler struct {
	Min map[string]float64 `json:"min" yaml:"min"` // 特征最小值
	Max map[string]float64 `json:"max" yaml:"max"` // 特征最大值
}

// NewMinMaxScaler 创建 Min-Max 归一化器
func NewMinMaxScaler(min, max map[string]float64) *MinMaxScaler {
	return &MinMaxScaler{Min: min, Max: max}
}

// Validate 检查 names 中每个特征都有 min/max，且取值有限、max >= min。
func (s *MinMaxScaler) Validate(names []string) error {
	if s == nil {
		return fmt.Errorf("scaler is nil")
	}
	for _, name := range names {
		lo, okMin := s.Min[name]
		hi, okMax := s.Max[name]
		if !okMin || !okMax {
			return fmt.Errorf("scaler has no range for feature %q", name)
		}
		if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) || hi < lo {
			return fmt.Errorf("scaler range for feature %q is invalid: [%v, %v]", name, lo, hi)
		}
	}
	return nil
}

// Process 归一化特征；没有范围的特征原样保留。
func (s *MinMaxScaler) Process(features map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(features))
	for k, v := range features {
		out[k] = s.Transform(k, v)
	}
	return out
}

// Transform 归一化单个值（指定特征名）
func (s *MinMaxScaler) Transform(key string, value float64) float64 {
	lo, ok := s.Min[key]
	if !ok {
		return value
	}
	rangeVal := s.Max[key] - lo
	if rangeVal > 0 {
		return (value - lo) / rangeVal
	}
	return value - lo
}

var _ FeatureProcessor = (*MinMaxScaler)(nil)
