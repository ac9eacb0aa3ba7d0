package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/nextplay/collab"
	"github.com/rushteam/nextplay/content"
	"github.com/rushteam/nextplay/core"
	"github.com/rushteam/nextplay/pkg/log"
	"github.com/rushteam/nextplay/popularity"
)

// snapshotVersion 标识一次目录 + 评分快照；versioned 为 false 表示数据源不支持版本号。
type snapshotVersion struct {
	catalog   uint64
	ratings   uint64
	versioned bool
}

// snapshot 是一次快照及其派生状态，构建后只读，可在并发调用间共享。
type snapshot struct {
	version snapshotVersion

	games   []core.Game
	ratings []core.Rating
	byUser  map[string]map[int64]float64

	content    *content.Index
	collab     *collab.Scorer
	signals    core.Signals
	popularity *popularity.Table
}

// userRatings 返回用户评分的拷贝，未知用户返回空 map。
func (s *snapshot) userRatings(userID string) map[int64]float64 {
	src := s.byUser[userID]
	out := make(map[int64]float64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func (e *Engine) currentVersion(ctx context.Context) (snapshotVersion, error) {
	cv, okCatalog := e.opts.Catalog.(core.Versioned)
	rv, okRatings := e.opts.Ratings.(core.Versioned)
	if !okCatalog || !okRatings {
		return snapshotVersion{}, nil
	}
	c, err := cv.Version(ctx)
	if err != nil {
		return snapshotVersion{}, errors.Annotate(err, "engine: catalog version")
	}
	r, err := rv.Version(ctx)
	if err != nil {
		return snapshotVersion{}, errors.Annotate(err, "engine: ratings version")
	}
	return snapshotVersion{catalog: c, ratings: r, versioned: true}, nil
}

// snapshot 返回当前快照：版本未变时复用缓存，否则重建；并发的重建请求合并为一次。
func (e *Engine) snapshot(ctx context.Context) (*snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	version, err := e.currentVersion(ctx)
	if err != nil {
		return nil, err
	}
	if version.versioned {
		e.mu.RLock()
		cached := e.state
		e.mu.RUnlock()
		if cached != nil && cached.version == version {
			return cached, nil
		}
	}
	key := fmt.Sprintf("%d/%d/%t", version.catalog, version.ratings, version.versioned)
	ch := e.group.DoChan(key, func() (interface{}, error) {
		// 重建结果由所有等待者共享，不受发起者取消的影响，只受自身预算约束
		bctx, cancel := e.withTimeout(context.WithoutCancel(ctx))
		defer cancel()
		s, err := e.buildSnapshot(bctx, version)
		if err != nil {
			return nil, err
		}
		if version.versioned {
			e.mu.Lock()
			e.state = s
			e.mu.Unlock()
		}
		return s, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*snapshot), nil
	}
}

// invalidate 丢弃缓存的派生状态，下次调用时重建。
func (e *Engine) invalidate() {
	e.mu.Lock()
	e.state = nil
	e.mu.Unlock()
}

func (e *Engine) buildSnapshot(ctx context.Context, version snapshotVersion) (*snapshot, error) {
	start := time.Now()
	var (
		games   []core.Game
		ratings []core.Rating
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		games, err = e.opts.Catalog.GetAllItems(gctx)
		return errors.Annotate(err, "engine: load catalog")
	})
	g.Go(func() error {
		var err error
		ratings, err = e.opts.Ratings.GetAllRatings(gctx)
		return errors.Annotate(err, "engine: load ratings")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	games = validGames(games)
	ratings = validRatings(ratings)
	threshold := e.cfg.LikeThreshold()

	s := &snapshot{
		version: version,
		games:   games,
		ratings: ratings,
		byUser:  make(map[string]map[int64]float64),
	}
	for _, r := range ratings {
		m, ok := s.byUser[r.UserID]
		if !ok {
			m = make(map[int64]float64)
			s.byUser[r.UserID] = m
		}
		m[r.ItemID] = r.Value
	}
	pop, err := e.popularityTable(ctx, version)
	if err != nil {
		return nil, err
	}
	s.popularity = pop
	s.content = content.NewIndex(games)
	s.collab = collab.NewScorer(ratings, e.cfg.FactorRank())
	s.collab.Strict = !e.opts.SharedCollabFit
	s.signals = core.Signals{
		Content:    content.NewScorer(s.content, ratings, threshold),
		Collab:     s.collab,
		Popularity: s.popularity,
	}

	SnapshotRebuildTotal.Inc()
	log.Logger().Info("snapshot rebuilt",
		zap.Int("games", len(games)),
		zap.Int("ratings", len(ratings)),
		zap.Int("users", len(s.byUser)),
		zap.Uint64("catalog_version", version.catalog),
		zap.Uint64("ratings_version", version.ratings),
		zap.Duration("elapsed", time.Since(start)))
	return s, nil
}

// popularityTable 返回快照使用的热度表。目录版本相对上一快照变化时重新计算，
// 否则复用缓存（首次可能来自镜像）。
func (e *Engine) popularityTable(ctx context.Context, version snapshotVersion) (*popularity.Table, error) {
	e.mu.RLock()
	prev := e.state
	e.mu.RUnlock()
	if prev != nil && version.versioned && prev.version.catalog != version.catalog {
		t, err := e.popularity.Refresh(ctx)
		return t, errors.Annotate(err, "engine: refresh popularity")
	}
	t, err := e.popularity.Table(ctx)
	return t, errors.Annotate(err, "engine: popularity table")
}

// validGames 跳过非法记录；重复 ID 保留最后一条。
func validGames(games []core.Game) []core.Game {
	seen := mapset.NewThreadUnsafeSet[int64]()
	pos := make(map[int64]int, len(games))
	out := make([]core.Game, 0, len(games))
	for _, g := range games {
		if err := g.Validate(); err != nil {
			log.Logger().Warn("skip invalid game", zap.Int64("game_id", g.ID), zap.Error(err))
			continue
		}
		if seen.Contains(g.ID) {
			log.Logger().Warn("duplicate game id, last one wins", zap.Int64("game_id", g.ID))
			out[pos[g.ID]] = g
			continue
		}
		seen.Add(g.ID)
		pos[g.ID] = len(out)
		out = append(out, g)
	}
	return out
}

// validRatings 跳过非法记录；同一 (user, item) 重复时保留最后一条，结果按 (user, item) 排序。
func validRatings(ratings []core.Rating) []core.Rating {
	type key struct {
		user string
		item int64
	}
	latest := make(map[key]float64, len(ratings))
	for _, r := range ratings {
		if err := r.Validate(); err != nil {
			log.Logger().Warn("skip invalid rating",
				zap.String("user_id", r.UserID), zap.Int64("item_id", r.ItemID), zap.Error(err))
			continue
		}
		latest[key{r.UserID, r.ItemID}] = r.Value
	}
	out := make([]core.Rating, 0, len(latest))
	for k, v := range latest {
		out = append(out, core.Rating{UserID: k.user, ItemID: k.item, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out
}
