package main

import (
	"context"
	"io"
	"os"

	"github.com/juju/errors"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/nextplay/config"
	_ "github.com/rushteam/nextplay/config/builders"
	"github.com/rushteam/nextplay/core"
	"github.com/rushteam/nextplay/engine"
	"github.com/rushteam/nextplay/pipeline"
	"github.com/rushteam/nextplay/pkg/log"
	"github.com/rushteam/nextplay/popularity"
	"github.com/rushteam/nextplay/store"
)

// backend 是 CLI 需要的全部存储能力，MemoryCatalog 与 SQLStore 都满足。
type backend interface {
	core.CatalogSource
	core.RatingSource
	core.RatingWriter
	core.PopularityWriter
	core.UserStore
	core.Versioned
	PutGames(ctx context.Context, games []core.Game) error
	PutUser(ctx context.Context, u core.User) error
}

// app 持有一次命令执行期间打开的资源。
type app struct {
	settings *config.Settings
	store    backend
	mirror   *store.RedisStore
	engine   *engine.Engine
	closers  []func() error
}

func openApp(ctx context.Context, s *config.Settings) (*app, error) {
	a := &app{settings: s}
	if err := a.openStore(ctx); err != nil {
		return nil, err
	}
	if s.Cache.RedisURL != "" {
		r, err := store.NewRedisStoreFromURL(s.Cache.RedisURL)
		if err != nil {
			a.Close()
			return nil, errors.Annotate(err, "open redis mirror")
		}
		a.mirror = r
		a.closers = append(a.closers, r.Close)
	}
	if err := a.buildEngine(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	db := a.settings.Database
	if db.Driver == "memory" {
		c, err := store.NewMemoryCatalog(nil)
		if err != nil {
			return err
		}
		a.store = c
		// memory 模式下 dsn 是可选的数据集文件
		if db.DSN != "" {
			return importFile(ctx, c, db.DSN)
		}
		return nil
	}
	s, err := store.OpenSQLStore(db.Driver, db.DSN)
	if err != nil {
		return err
	}
	a.store = s
	a.closers = append(a.closers, s.Close)
	return nil
}

func (a *app) popularityCache() *popularity.Cache {
	c := popularity.NewCache(a.store, a.settings.Popularity.Weights)
	c.Precomputed = a.settings.Popularity.Precomputed
	c.Key = a.settings.Popularity.MirrorKey
	if a.mirror != nil {
		c.Mirror = a.mirror
	}
	return c
}

func (a *app) buildEngine() error {
	s := a.settings
	opts := engine.Options{
		Catalog:         a.store,
		Ratings:         a.store,
		Config:          s.RecommendConfig(),
		ModelPath:       s.Model.Path,
		Fallback:        engine.FallbackPolicy(s.Recommend.Fallback),
		Popularity:      a.popularityCache(),
		SharedCollabFit: !s.Recommend.StrictCollab,
	}
	if s.Pipeline != "" {
		p, err := loadPipeline(s.Pipeline)
		if err != nil {
			return err
		}
		opts.Pipeline = p
	}
	e, err := engine.New(opts)
	if err != nil {
		return err
	}
	a.engine = e
	return nil
}

func loadPipeline(path string) (*pipeline.Pipeline, error) {
	cfg, err := pipeline.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := config.ValidatePipelineConfig(cfg); err != nil {
		return nil, err
	}
	p, err := cfg.BuildPipeline(config.DefaultFactory())
	if err != nil {
		return nil, err
	}
	log.Logger().Info("custom pipeline loaded", zap.String("path", path), zap.Int("nodes", len(p.Nodes)))
	return p, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Logger().Warn("close resource", zap.Error(err))
		}
	}
	a.closers = nil
}

// dataset 是 import 命令与 memory 模式读取的数据集文件（YAML 或 JSON）。
type dataset struct {
	Games   []datasetGame   `yaml:"games"`
	Users   []datasetUser   `yaml:"users"`
	Ratings []datasetRating `yaml:"ratings"`
}

type datasetGame struct {
	ID              int64   `yaml:"id"`
	Name            string  `yaml:"name"`
	Genres          string  `yaml:"genres"`
	Tags            string  `yaml:"tags"`
	Description     string  `yaml:"description"`
	Added           float64 `yaml:"added"`
	RatingCount     float64 `yaml:"rating_count"`
	AvgRating       float64 `yaml:"avg_rating"`
	PopularityScore float64 `yaml:"popularity_score"`
}

type datasetUser struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type datasetRating struct {
	UserID string  `yaml:"user_id"`
	GameID int64   `yaml:"game_id"`
	Rating float64 `yaml:"rating"`
}

func readDataset(path string) (*dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Annotatef(err, "read dataset %s", path)
	}
	var d dataset
	// YAML 解析器同样接受 JSON
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, errors.Annotatef(err, "parse dataset %s", path)
	}
	return &d, nil
}

func importFile(ctx context.Context, b backend, path string) error {
	return importFileWithProgress(ctx, b, path, io.Discard)
}

// importFileWithProgress 按 目录 -> 用户 -> 评分 的顺序写入，评分引用的游戏必须已存在。
// 评分写入进度输出到 progress。
func importFileWithProgress(ctx context.Context, b backend, path string, progress io.Writer) error {
	d, err := readDataset(path)
	if err != nil {
		return err
	}
	games := make([]core.Game, 0, len(d.Games))
	for _, g := range d.Games {
		games = append(games, core.Game{
			ID:              g.ID,
			Name:            g.Name,
			Genres:          g.Genres,
			Tags:            g.Tags,
			Description:     g.Description,
			Added:           g.Added,
			RatingCount:     g.RatingCount,
			AvgRating:       g.AvgRating,
			PopularityScore: g.PopularityScore,
		})
	}
	if err := b.PutGames(ctx, games); err != nil {
		return errors.Annotate(err, "import games")
	}
	for _, u := range d.Users {
		if err := b.PutUser(ctx, core.User{ID: u.ID, Name: u.Name}); err != nil {
			return errors.Annotatef(err, "import user %s", u.ID)
		}
	}
	bar := progressbar.NewOptions(len(d.Ratings),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("ratings"))
	for _, r := range d.Ratings {
		if err := b.AddOrUpdateRating(ctx, r.UserID, r.GameID, r.Rating); err != nil {
			return errors.Annotatef(err, "import rating %s/%d", r.UserID, r.GameID)
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	log.Logger().Info("dataset imported",
		zap.String("path", path),
		zap.Int("games", len(games)),
		zap.Int("users", len(d.Users)),
		zap.Int("ratings", len(d.Ratings)))
	return nil
}
