package core

import "context"

// CatalogSource 提供目录快照。推荐引擎只读，不修改目录。
type CatalogSource interface {
	// GetAllItems 返回完整目录快照
	GetAllItems(ctx context.Context) ([]Game, error)
}

// RatingSource 提供评分快照。
type RatingSource interface {
	// GetAllRatings 返回完整评分快照
	GetAllRatings(ctx context.Context) ([]Rating, error)
}

// RatingWriter 写入评分。同一 (user, item) 重复写入时覆盖旧值，不产生第二条记录。
type RatingWriter interface {
	AddOrUpdateRating(ctx context.Context, userID string, itemID int64, value float64) error
}

// PopularityWriter 回写离线计算的热度分。
type PopularityWriter interface {
	UpdatePopularityScores(ctx context.Context, scores map[int64]float64) error
}

// UserStore 管理用户记录。
type UserStore interface {
	GetAllUsers(ctx context.Context) ([]User, error)
	// AddUser 分配下一个 u<N> ID 并写入用户
	AddUser(ctx context.Context, name string) (string, error)
}

// Versioned 是可选接口：数据源暴露单调递增的快照版本。
// 版本不变时引擎复用已构建的相似度矩阵 / 隐因子模型；未实现时每次调用都会重建。
type Versioned interface {
	Version(ctx context.Context) (uint64, error)
}
