// Package engine 是混合推荐的编排入口：读取快照、构建三路信号、融合排序并截断。
package engine

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/rushteam/nextplay/core"
	"github.com/rushteam/nextplay/feature"
	"github.com/rushteam/nextplay/filter"
	"github.com/rushteam/nextplay/model"
	"github.com/rushteam/nextplay/pipeline"
	"github.com/rushteam/nextplay/pkg/log"
	"github.com/rushteam/nextplay/pkg/utils"
	"github.com/rushteam/nextplay/popularity"
	"github.com/rushteam/nextplay/rank"
	"github.com/rushteam/nextplay/recall"
	"github.com/rushteam/nextplay/rerank"
)

// FallbackPolicy 决定融合产物缺失时的行为。
type FallbackPolicy string

const (
	// FallbackNone 融合产物缺失时返回 MISSING_ARTIFACT
	FallbackNone FallbackPolicy = "none"
	// FallbackPopularity 融合产物缺失时按热度排序，并在结果上标记 Degraded
	FallbackPopularity FallbackPolicy = "popularity"
)

// Options 是 Engine 的依赖与策略。
type Options struct {
	Catalog core.CatalogSource
	Ratings core.RatingSource
	// Config 为 nil 时使用 core.DefaultRecommendConfig
	Config core.RecommendConfig

	// Model 非空时直接使用；否则首次推荐时从 ModelPath 加载融合产物
	Model     model.RankModel
	ModelPath string
	Fallback  FallbackPolicy

	// Popularity 为 nil 时使用目录中预计算的 popularity_score
	Popularity *popularity.Cache

	// Filters 追加到内置链路的已评分过滤之后
	Filters []filter.Filter
	// Pipeline 非空时替代内置链路（此时不加载 ModelPath，也不做降级）。
	// 链路中必须有包含 filter.RatedFilter 的 filter.FilterNode
	Pipeline *pipeline.Pipeline

	// SharedCollabFit 为 true 时已评分单元也复用共享分解，以泄漏换性能
	SharedCollabFit bool
}

// Result 是一次混合推荐的输出。
type Result struct {
	Items     []core.ScoredCandidate `json:"items"`
	Degraded  bool                   `json:"degraded"`
	ColdStart bool                   `json:"cold_start"`
	Model     string                 `json:"model"`
}

// TrainingRow 是训练集的一行：一条评分对应的三路信号与标签。
type TrainingRow struct {
	UserID          string  `json:"user_id"`
	ItemID          int64   `json:"game_id"`
	ContentScore    float64 `json:"content_score"`
	CollabScore     float64 `json:"collab_score"`
	PopularityScore float64 `json:"popularity_score"`
	Liked           bool    `json:"liked"`
}

// Engine 是混合推荐引擎，并发安全。
//
// 派生状态（相似度矩阵、隐因子分解、热度表）按快照版本缓存：
// 数据源实现 core.Versioned 时版本不变即复用，否则每次调用重建。
type Engine struct {
	opts       Options
	cfg        core.RecommendConfig
	popularity *popularity.Cache

	mu    sync.RWMutex
	state *snapshot
	group singleflight.Group

	modelMu sync.Mutex
	model   model.RankModel
}

// New 创建引擎。Catalog 与 Ratings 必填。
func New(opts Options) (*Engine, error) {
	if opts.Catalog == nil || opts.Ratings == nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "engine: catalog and ratings sources are required")
	}
	switch opts.Fallback {
	case "":
		opts.Fallback = FallbackNone
	case FallbackNone, FallbackPopularity:
	default:
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
			fmt.Sprintf("engine: unknown fallback policy %q", opts.Fallback))
	}
	if opts.Pipeline != nil && !excludesRated(opts.Pipeline) {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
			"engine: custom pipeline must filter rated items (filter.RatedFilter)")
	}
	e := &Engine{opts: opts, cfg: opts.Config, model: opts.Model}
	if e.cfg == nil {
		e.cfg = &core.DefaultRecommendConfig{}
	}
	e.popularity = opts.Popularity
	if e.popularity == nil {
		e.popularity = popularity.NewCache(opts.Catalog, popularity.DefaultWeights())
		e.popularity.Precomputed = true
	}
	return e, nil
}

func excludesRated(p *pipeline.Pipeline) bool {
	for _, n := range p.Nodes {
		fn, ok := n.(*filter.FilterNode)
		if !ok {
			continue
		}
		for _, f := range fn.Filters {
			if _, ok := f.(*filter.RatedFilter); ok {
				return true
			}
		}
	}
	return false
}

// Config 返回引擎使用的推荐配置。
func (e *Engine) Config() core.RecommendConfig { return e.cfg }

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d := e.cfg.Timeout(); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

func invalidTopN(topN int) error {
	return core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, fmt.Sprintf("engine: topN must be >= 0, got %d", topN))
}

func checkUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "engine: empty user id")
	}
	return nil
}

// rankModel 返回融合模型，首次调用时加载；加载失败不缓存，下次调用重试。
func (e *Engine) rankModel() (model.RankModel, error) {
	e.modelMu.Lock()
	defer e.modelMu.Unlock()
	if e.model != nil {
		return e.model, nil
	}
	m, err := model.LoadFusionModel(e.opts.ModelPath)
	if err != nil {
		return nil, err
	}
	log.Logger().Info("fusion model loaded", zap.String("path", e.opts.ModelPath), zap.Strings("features", m.Features))
	e.model = m
	return m, nil
}

func (e *Engine) newContext(s *snapshot, userID string, topN int) *core.RecommendContext {
	rctx := &core.RecommendContext{
		UserID:      userID,
		Catalog:     s.games,
		UserRatings: s.userRatings(userID),
		Signals:     &s.signals,
		Params:      map[string]any{rerank.ParamTopN: topN},
	}
	if len(rctx.UserRatings) == 0 {
		rctx.PutLabel(utils.LabelColdStart, utils.Label{Value: "true", Source: "engine"})
	}
	return rctx
}

// builtinPipeline 是默认链路：全目录召回 -> 过滤已评分 -> 三路信号 -> 模型排序 -> TopN。
func (e *Engine) builtinPipeline(m model.RankModel, topN int, features ...string) *pipeline.Pipeline {
	filters := append([]filter.Filter{&filter.RatedFilter{}}, e.opts.Filters...)
	return &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			&recall.CatalogRecall{},
			&filter.FilterNode{Filters: filters},
			&feature.SignalNode{Only: features},
			&rank.ModelNode{Model: m},
			&rerank.TopNNode{N: topN},
		},
		Observer: observeNode,
	}
}

// Recommend 返回用户的 topN 条混合推荐：按喜欢概率降序，同分按 ID 升序，不含已评分物品。
//
// topN < 0 返回 INVALID_INPUT；topN == 0 返回空结果。融合产物缺失时按 Fallback 策略
// 返回 MISSING_ARTIFACT 或降级到热度排序。
func (e *Engine) Recommend(ctx context.Context, userID string, topN int) (res *Result, err error) {
	defer func(start time.Time) { observe("recommend", start, err) }(time.Now())
	if err := checkUser(userID); err != nil {
		return nil, err
	}
	if topN < 0 {
		return nil, invalidTopN(topN)
	}
	if topN == 0 {
		return &Result{Items: []core.ScoredCandidate{}}, nil
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	s, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	rctx := e.newContext(s, userID, topN)
	res = &Result{ColdStart: len(rctx.UserRatings) == 0}

	p := e.opts.Pipeline
	if p == nil {
		m, err := e.rankModel()
		if err != nil {
			if !core.IsMissingArtifact(err) || e.opts.Fallback != FallbackPopularity {
				return nil, err
			}
			log.Logger().Warn("fusion model unavailable, ranking by popularity",
				zap.String("user_id", userID), zap.Error(err))
			DegradedTotal.Inc()
			m = model.PopularityModel{}
			res.Degraded = true
			rctx.PutLabel(utils.LabelDegraded, utils.Label{Value: "true", Source: "engine"})
		}
		res.Model = m.Name()
		p = e.builtinPipeline(m, topN)
	}

	items, err := p.Run(ctx, rctx, nil)
	if err != nil {
		return nil, errors.Annotatef(err, "engine: recommend for %s", userID)
	}
	CandidateCount.Set(float64(len(items)))
	res.Items = lo.Map(items, func(it *core.Item, _ int) core.ScoredCandidate {
		return core.ScoredCandidate{ItemID: it.ID, Name: it.Name(), LikeProbability: it.Score}
	})
	if res.ColdStart {
		log.Logger().Debug("cold start recommendation", zap.String("user_id", userID), zap.Int("items", len(res.Items)))
	}
	return res, nil
}

// PopularityOnly 返回用户未评分物品中热度最高的 topN 条。
func (e *Engine) PopularityOnly(ctx context.Context, userID string, topN int) (items []core.PopularItem, err error) {
	defer func(start time.Time) { observe("popularity_only", start, err) }(time.Now())
	if topN < 0 {
		return nil, invalidTopN(topN)
	}
	if topN == 0 {
		return []core.PopularItem{}, nil
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	s, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	p := e.builtinPipeline(model.PopularityModel{}, topN, core.FeaturePopularity)
	out, err := p.Run(ctx, e.newContext(s, userID, topN), nil)
	if err != nil {
		return nil, errors.Annotatef(err, "engine: popularity for %s", userID)
	}
	return lo.Map(out, func(it *core.Item, _ int) core.PopularItem {
		return core.PopularItem{ItemID: it.ID, Name: it.Name(), PopularityScore: it.Score}
	}), nil
}

// ContentSimilar 返回与 name 最相似的 topN 个其他物品名称；未知名称返回空列表。
func (e *Engine) ContentSimilar(ctx context.Context, name string, topN int) (names []string, err error) {
	defer func(start time.Time) { observe("content_similar", start, err) }(time.Now())
	if topN < 0 {
		return nil, invalidTopN(topN)
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	s, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.content.Similar(name, topN), nil
}

// UserGames 返回用户评过分的游戏及评分，按游戏 ID 升序。
func (e *Engine) UserGames(ctx context.Context, userID string) ([]core.RatedGame, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	s, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	ratings := s.byUser[userID]
	out := make([]core.RatedGame, 0, len(ratings))
	for _, g := range s.games {
		if v, ok := ratings[g.ID]; ok {
			out = append(out, core.RatedGame{Game: g, Rating: v})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// LikedGames 返回评分达到配置喜欢阈值的游戏。
func (e *Engine) LikedGames(ctx context.Context, userID string) ([]core.RatedGame, error) {
	return e.LikedGamesAt(ctx, userID, e.cfg.LikeThreshold())
}

// LikedGamesAt 返回评分 >= threshold 的游戏，按游戏 ID 升序。NaN 阈值返回 INVALID_INPUT。
func (e *Engine) LikedGamesAt(ctx context.Context, userID string, threshold float64) ([]core.RatedGame, error) {
	if math.IsNaN(threshold) {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "engine: like threshold is NaN")
	}
	games, err := e.UserGames(ctx, userID)
	if err != nil {
		return nil, err
	}
	return lo.Filter(games, func(g core.RatedGame, _ int) bool { return g.Rating >= threshold }), nil
}

// ContentForUser 是单路内容推荐：用户未评分物品按与其喜欢物品的平均内容相似度降序，
// 同分按 ID 升序。用户没有喜欢的物品时返回空。
func (e *Engine) ContentForUser(ctx context.Context, userID string, topN int) (items []core.RecalledItem, err error) {
	defer func(start time.Time) { observe("content_for_user", start, err) }(time.Now())
	return e.recallOnly(ctx, userID, topN, func(s *snapshot) recallNode {
		return &recall.ContentRecall{Index: s.content, Threshold: e.cfg.LikeThreshold()}
	})
}

// CollabForUser 是单路协同推荐：在截断 SVD 用户向量上取最相似的 5 个用户，
// 统计他们评分 >= 4 且目标用户未评分的物品，按出现次数降序，同分按 ID 升序。
// 评分快照中没有该用户时返回空。
func (e *Engine) CollabForUser(ctx context.Context, userID string, topN int) (items []core.RecalledItem, err error) {
	defer func(start time.Time) { observe("collab_for_user", start, err) }(time.Now())
	return e.recallOnly(ctx, userID, topN, func(s *snapshot) recallNode {
		return &recall.UserBasedCF{Matrix: s.collab.Matrix, Factors: s.collab.Factors()}
	})
}

// recallNode 是可以直接放进链路的召回源。
type recallNode interface {
	recall.Source
	pipeline.Node
}

func (e *Engine) recallOnly(
	ctx context.Context,
	userID string,
	topN int,
	source func(*snapshot) recallNode,
) ([]core.RecalledItem, error) {
	if err := checkUser(userID); err != nil {
		return nil, err
	}
	if topN < 0 {
		return nil, invalidTopN(topN)
	}
	if topN == 0 {
		return []core.RecalledItem{}, nil
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	s, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	src := source(s)
	p := &pipeline.Pipeline{
		Nodes:    []pipeline.Node{src, &rerank.TopNNode{N: topN}},
		Observer: observeNode,
	}
	out, err := p.Run(ctx, e.newContext(s, userID, topN), nil)
	if err != nil {
		return nil, errors.Annotatef(err, "engine: %s for %s", src.Name(), userID)
	}
	return lo.Map(out, func(it *core.Item, _ int) core.RecalledItem {
		return core.RecalledItem{ItemID: it.ID, Name: it.Name(), Score: it.Score}
	}), nil
}

// Refresh 丢弃缓存的派生状态并重新构建热度表（配置了镜像时同步写入）。
// 供目录变更通知调用。
func (e *Engine) Refresh(ctx context.Context) (err error) {
	defer func(start time.Time) { observe("refresh", start, err) }(time.Now())
	e.invalidate()
	t, err := e.popularity.Refresh(ctx)
	if err != nil {
		return err
	}
	log.Logger().Info("popularity refreshed", zap.Int("items", t.Len()))
	return nil
}

// BuildTrainingSet 为每条评分计算三路信号与 "喜欢" 标签，作为离线训练融合分类器的输入。
// 协同信号在置零该评分的矩阵上拟合，内容信号对已喜欢物品为 0，与推荐时的口径一致。
func (e *Engine) BuildTrainingSet(ctx context.Context) (rows []TrainingRow, err error) {
	defer func(start time.Time) { observe("build_training_set", start, err) }(time.Now())
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	s, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	threshold := e.cfg.LikeThreshold()
	rows = make([]TrainingRow, 0, len(s.ratings))
	for _, r := range s.ratings {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows = append(rows, TrainingRow{
			UserID:          r.UserID,
			ItemID:          r.ItemID,
			ContentScore:    s.signals.Content.ContentScore(r.UserID, r.ItemID),
			CollabScore:     s.signals.Collab.CollabScore(r.UserID, r.ItemID),
			PopularityScore: s.signals.Popularity.PopularityScore(r.ItemID),
			Liked:           r.Liked(threshold),
		})
	}
	return rows, nil
}
