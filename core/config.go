package core

import "time"

// RecommendConfig 是推荐相关的配置接口，用于提供默认值。
type RecommendConfig interface {
	// LikeThreshold 返回 "喜欢" 阈值：评分 >= 阈值视为喜欢
	LikeThreshold() float64

	// FactorRank 返回隐因子分解的秩上限
	FactorRank() int

	// DefaultTopN 返回默认的返回条数
	DefaultTopN() int

	// Timeout 返回单次调用的时间预算，0 表示不限制
	Timeout() time.Duration
}

// DefaultRecommendConfig 是默认的推荐配置实现。
type DefaultRecommendConfig struct{}

func (c *DefaultRecommendConfig) LikeThreshold() float64 {
	return 3.0
}

func (c *DefaultRecommendConfig) FactorRank() int {
	return 15
}

func (c *DefaultRecommendConfig) DefaultTopN() int {
	return 5
}

func (c *DefaultRecommendConfig) Timeout() time.Duration {
	return 0
}
