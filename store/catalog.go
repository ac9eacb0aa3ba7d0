package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rushteam/nextplay/core"
)

type ratingKey struct {
	user string
	item int64
}

// MemoryCatalog 是内存实现的目录 / 评分 / 用户存储。
// 实现 CatalogSource、RatingSource、RatingWriter、PopularityWriter、UserStore 与 Versioned，
// 每次写入把版本号加一。
type MemoryCatalog struct {
	mu      sync.RWMutex
	games   map[int64]core.Game
	ratings map[ratingKey]float64
	users   map[string]core.User
	version uint64
}

// NewMemoryCatalog 用给定目录初始化；重复 ID 以后出现的为准。
func NewMemoryCatalog(games []core.Game) (*MemoryCatalog, error) {
	c := &MemoryCatalog{
		games:   make(map[int64]core.Game, len(games)),
		ratings: make(map[ratingKey]float64),
		users:   make(map[string]core.User),
	}
	for _, g := range games {
		if err := g.Validate(); err != nil {
			return nil, err
		}
		c.games[g.ID] = g
	}
	return c, nil
}

// PutGames 批量写入目录记录，任一记录非法时不写入任何记录。
func (c *MemoryCatalog) PutGames(ctx context.Context, games []core.Game) error {
	for _, g := range games {
		if err := g.Validate(); err != nil {
			return err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, g := range games {
		c.games[g.ID] = g
	}
	c.version++
	return nil
}

// PutUser 写入一个指定 ID 的用户（用于导入已有数据）。
func (c *MemoryCatalog) PutUser(ctx context.Context, u core.User) error {
	if strings.TrimSpace(u.ID) == "" {
		return core.NewDomainError(core.ModuleUser, core.ErrorCodeInvalidInput, "user: empty user id")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users[u.ID] = u
	c.version++
	return nil
}

// GetAllItems 返回按 ID 升序的目录快照。
func (c *MemoryCatalog) GetAllItems(ctx context.Context) ([]core.Game, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]core.Game, 0, len(c.games))
	for _, g := range c.games {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetAllRatings 返回按 (user, item) 升序的评分快照。
func (c *MemoryCatalog) GetAllRatings(ctx context.Context) ([]core.Rating, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]core.Rating, 0, len(c.ratings))
	for k, v := range c.ratings {
		out = append(out, core.Rating{UserID: k.user, ItemID: k.item, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out, nil
}

// AddOrUpdateRating 写入评分；同一 (user, item) 已存在时覆盖。物品必须在目录中。
func (c *MemoryCatalog) AddOrUpdateRating(ctx context.Context, userID string, itemID int64, value float64) error {
	r := core.Rating{UserID: userID, ItemID: itemID, Value: value}
	if err := r.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.games[itemID]; !ok {
		return core.NewDomainError(core.ModuleCatalog, core.ErrorCodeNotFound, fmt.Sprintf("catalog: game %d not found", itemID))
	}
	c.ratings[ratingKey{user: userID, item: itemID}] = value
	c.version++
	return nil
}

// UpdatePopularityScores 回写热度分，未知物品忽略。
func (c *MemoryCatalog) UpdatePopularityScores(ctx context.Context, scores map[int64]float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, s := range scores {
		g, ok := c.games[id]
		if !ok {
			continue
		}
		g.PopularityScore = s
		c.games[id] = g
	}
	c.version++
	return nil
}

// GetAllUsers 返回按 ID 升序的用户列表。
func (c *MemoryCatalog) GetAllUsers(ctx context.Context) ([]core.User, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]core.User, 0, len(c.users))
	for _, u := range c.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// AddUser 分配下一个 u<N> 并写入用户。
func (c *MemoryCatalog) AddUser(ctx context.Context, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", core.NewDomainError(core.ModuleUser, core.ErrorCodeInvalidInput, "user: empty name")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.users))
	for id := range c.users {
		ids = append(ids, id)
	}
	id := core.NextUserID(ids)
	c.users[id] = core.User{ID: id, Name: name}
	c.version++
	return id, nil
}

// Version 返回单调递增的快照版本。
func (c *MemoryCatalog) Version(ctx context.Context) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version, nil
}

var (
	_ core.CatalogSource    = (*MemoryCatalog)(nil)
	_ core.RatingSource     = (*MemoryCatalog)(nil)
	_ core.RatingWriter     = (*MemoryCatalog)(nil)
	_ core.PopularityWriter = (*MemoryCatalog)(nil)
	_ core.UserStore        = (*MemoryCatalog)(nil)
	_ core.Versioned        = (*MemoryCatalog)(nil)
)
