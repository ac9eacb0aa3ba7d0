package core

// ContentScorer 给出用户对物品的内容相似度分。
type ContentScorer interface {
	ContentScore(userID string, itemID int64) float64
}

// CollabScorer 给出用户对物品的协同过滤隐因子分。
type CollabScorer interface {
	CollabScore(userID string, itemID int64) float64
}

// PopularityScorer 给出物品的热度分，未知物品返回 0。
type PopularityScorer interface {
	PopularityScore(itemID int64) float64
}

// Signals 汇总一次调用中可用的三路打分器，任意一路为 nil 时该信号记为 0。
type Signals struct {
	Content    ContentScorer
	Collab     CollabScorer
	Popularity PopularityScorer
}
