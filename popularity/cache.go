package popularity

import (
	"context"
	"strconv"
	"sync"

	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/rushteam/nextplay/core"
	"github.com/rushteam/nextplay/pkg/log"
)

// DefaultMirrorKey 是热度有序集合在 KV 存储中的默认 key。
const DefaultMirrorKey = "nextplay:popularity"

// Cache 是懒加载、可显式刷新的热度查表。
//
// 首次 Table 调用时优先读取 Mirror 中其他实例写入的有序集合，没有时从目录快照构建；
// Refresh 重新计算并（可选）镜像到 KV 有序集合。并发安全。
type Cache struct {
	Catalog core.CatalogSource
	Weights Weights
	// Precomputed 为 true 时直接使用目录中的 PopularityScore，而不是按 Weights 重新计算
	Precomputed bool
	Mirror      core.KeyValueStore
	Key         string

	mu    sync.RWMutex
	table *Table
}

// NewCache 创建热度缓存，catalog 为 nil 时只能通过 Set / LoadFromStore 填充。
func NewCache(catalog core.CatalogSource, w Weights) *Cache {
	return &Cache{Catalog: catalog, Weights: w, Key: DefaultMirrorKey}
}

// Table 返回当前查表，未初始化时先构建一次。
func (c *Cache) Table(ctx context.Context) (*Table, error) {
	c.mu.RLock()
	t := c.table
	c.mu.RUnlock()
	if t != nil {
		return t, nil
	}
	if c.Mirror != nil {
		t, err := c.LoadFromStore(ctx)
		switch {
		case err != nil:
			log.Logger().Warn("popularity mirror unreadable, rebuilding from catalog",
				zap.String("store", c.Mirror.Name()), zap.Error(err))
		case t.Len() > 0:
			return t, nil
		}
	}
	return c.Refresh(ctx)
}

// Set 直接替换当前查表。
func (c *Cache) Set(t *Table) {
	c.mu.Lock()
	c.table = t
	c.mu.Unlock()
}

// Refresh 从目录重新构建查表，并在配置了 Mirror 时写入有序集合。
// 镜像失败只记日志，不影响本地查表。
func (c *Cache) Refresh(ctx context.Context) (*Table, error) {
	if c.Catalog == nil {
		return nil, errors.New("popularity: cache has no catalog source")
	}
	games, err := c.Catalog.GetAllItems(ctx)
	if err != nil {
		return nil, errors.Annotate(err, "popularity: load catalog")
	}
	t := c.rebuild(games)
	if c.Mirror != nil {
		if err := c.mirror(ctx, t); err != nil {
			log.Logger().Warn("popularity mirror failed",
				zap.String("store", c.Mirror.Name()), zap.Error(err))
		}
	}
	return t, nil
}

func (c *Cache) rebuild(games []core.Game) *Table {
	var t *Table
	if c.Precomputed {
		t = TableFromCatalog(games)
	} else {
		t = NewTable(Compute(games, c.Weights))
	}
	c.Set(t)
	return t
}

func (c *Cache) key() string {
	if c.Key == "" {
		return DefaultMirrorKey
	}
	return c.Key
}

func (c *Cache) mirror(ctx context.Context, t *Table) error {
	for _, id := range t.Ranked() {
		if err := c.Mirror.ZAdd(ctx, c.key(), t.PopularityScore(id), strconv.FormatInt(id, 10)); err != nil {
			return err
		}
	}
	return nil
}

// LoadFromStore 从 Mirror 有序集合读取热度表并替换本地查表；集合为空时不替换。
func (c *Cache) LoadFromStore(ctx context.Context) (*Table, error) {
	if c.Mirror == nil {
		return nil, errors.New("popularity: cache has no mirror store")
	}
	members, err := c.Mirror.ZRange(ctx, c.key(), 0, -1)
	if err != nil {
		return nil, errors.Annotate(err, "popularity: read mirror")
	}
	scores := make(map[int64]float64, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return nil, errors.Annotatef(err, "popularity: bad member %q", m)
		}
		s, err := c.Mirror.ZScore(ctx, c.key(), m)
		if err != nil {
			return nil, errors.Annotatef(err, "popularity: score of %q", m)
		}
		scores[id] = s
	}
	t := NewTable(scores)
	if t.Len() > 0 {
		c.Set(t)
	}
	return t, nil
}
