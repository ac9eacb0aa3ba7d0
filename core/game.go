package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Game 是目录中的一条物品记录。
// 文本字段缺失时按空串处理；Added / RatingCount / AvgRating 是计算热度分的原始信号。
type Game struct {
	ID              int64
	Name            string
	Genres          string
	Tags            string
	Description     string
	Added           float64
	RatingCount     float64
	AvgRating       float64
	PopularityScore float64 // 离线预计算，可能过期
}

// Text 返回用于内容向量化的拼接文本：genres + tags + description。
func (g Game) Text() string {
	return g.Genres + " " + g.Tags + " " + g.Description
}

// Validate 在协作方边界校验游戏记录。
func (g Game) Validate() error {
	if g.ID <= 0 {
		return NewDomainError(ModuleCatalog, ErrorCodeInvalidInput, fmt.Sprintf("catalog: invalid game id %d", g.ID))
	}
	if strings.TrimSpace(g.Name) == "" {
		return NewDomainError(ModuleCatalog, ErrorCodeInvalidInput, fmt.Sprintf("catalog: game %d has empty name", g.ID))
	}
	return nil
}

// Rating 是一条 (user, item, rating) 交互，每个 (user, item) 至多一条。
type Rating struct {
	UserID string
	ItemID int64
	Value  float64
}

// Liked 判断该评分是否达到 "喜欢" 阈值。
func (r Rating) Liked(threshold float64) bool {
	return r.Value >= threshold
}

// Validate 在协作方边界校验评分记录。
func (r Rating) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return NewDomainError(ModuleRating, ErrorCodeInvalidInput, "rating: empty user id")
	}
	if r.ItemID <= 0 {
		return NewDomainError(ModuleRating, ErrorCodeInvalidInput, fmt.Sprintf("rating: invalid item id %d", r.ItemID))
	}
	if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
		return NewDomainError(ModuleRating, ErrorCodeInvalidInput, "rating: value must be finite")
	}
	return nil
}

// User 是用户记录，ID 形如 u1、u2 ...
type User struct {
	ID   string
	Name string
}

// NextUserID 根据已有用户 ID 生成下一个 ID：取最大数字后缀加一，空表返回 "u1"。
func NextUserID(existing []string) string {
	var max int64
	for _, id := range existing {
		n, err := strconv.ParseInt(strings.TrimPrefix(id, "u"), 10, 64)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return "u" + strconv.FormatInt(max+1, 10)
}

// ScoredCandidate 是混合推荐的一条输出。
type ScoredCandidate struct {
	ItemID          int64   `json:"item_id"`
	Name            string  `json:"name"`
	LikeProbability float64 `json:"like_probability"`
}

// PopularItem 是纯热度推荐的一条输出。
type PopularItem struct {
	ItemID          int64   `json:"item_id"`
	Name            string  `json:"name"`
	PopularityScore float64 `json:"popularity_score"`
}

// RecalledItem 是单路召回（内容或协同）的一条输出，Score 的含义取决于召回源。
type RecalledItem struct {
	ItemID int64   `json:"item_id"`
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
}

// RatedGame 是用户评过分的游戏及其评分。
type RatedGame struct {
	Game
	Rating float64
}
