package model

import (
	"encoding/json"
	"math"
	"os"
	"sort"
)

// LRModel 实现了逻辑回归 (Logistic Regression) 模型，用作融合分类器。
//
// 预测原理：
// 1. 线性加权求和: z = Bias + sum(Weight_i * Feature_i)
// 2. Sigmoid 变换: P = 1 / (1 + exp(-z))
//
// 最终输出值 P 代表 "喜欢" 类的概率，范围在 (0, 1) 之间。
type LRModel struct {
	Bias    float64            `json:"bias" yaml:"bias"`       // 偏置项 (Bias / Intercept)
	Weights map[string]float64 `json:"weights" yaml:"weights"` // 特征权重 (Weights / Coefficients)
}

// LoadLRModel 从 JSON 文件读取 {"bias": b, "weights": {...}}。
func LoadLRModel(path string) (*LRModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m LRModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *LRModel) Name() string { return "lr" }

// Predict 按特征名升序累加，保证同一输入得到逐位相同的结果。
func (m *LRModel) Predict(features map[string]float64) (float64, error) {
	keys := make([]string, 0, len(features))
	for k := range features {
		if _, ok := m.Weights[k]; ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	z := m.Bias
	for _, k := range keys {
		z += m.Weights[k] * features[k]
	}
	return Sigmoid(z), nil
}

// Sigmoid 返回 1 / (1 + e^-z)。
func Sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
