package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/juju/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"github.com/rushteam/nextplay/core"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	versionKey = "snapshot_version"
)

type gameRow struct {
	GameID          int64   `gorm:"column:game_id;primaryKey;autoIncrement:false"`
	Name            string  `gorm:"column:name;not null"`
	Genres          string  `gorm:"column:genres"`
	Tags            string  `gorm:"column:tags"`
	Description     string  `gorm:"column:description"`
	Added           float64 `gorm:"column:added"`
	RatingCount     float64 `gorm:"column:rating_count"`
	AvgRating       float64 `gorm:"column:avg_rating"`
	PopularityScore float64 `gorm:"column:popularity_score"`
}

func (gameRow) TableName() string { return "games" }

type userRow struct {
	UserID string `gorm:"column:user_id;primaryKey"`
	Name   string `gorm:"column:name;not null"`
}

func (userRow) TableName() string { return "users" }

type ratingRow struct {
	RatingID int64   `gorm:"column:rating_id;primaryKey;autoIncrement"`
	UserID   string  `gorm:"column:user_id;not null;uniqueIndex:idx_ratings_user_game"`
	GameID   int64   `gorm:"column:game_id;not null;uniqueIndex:idx_ratings_user_game"`
	Rating   float64 `gorm:"column:rating;not null"`
}

func (ratingRow) TableName() string { return "ratings" }

type metaRow struct {
	MetaKey string `gorm:"column:meta_key;primaryKey"`
	Value   uint64 `gorm:"column:value;not null"`
}

func (metaRow) TableName() string { return "nextplay_meta" }

func (r gameRow) toGame() core.Game {
	return core.Game{
		ID:              r.GameID,
		Name:            r.Name,
		Genres:          r.Genres,
		Tags:            r.Tags,
		Description:     r.Description,
		Added:           r.Added,
		RatingCount:     r.RatingCount,
		AvgRating:       r.AvgRating,
		PopularityScore: r.PopularityScore,
	}
}

func fromGame(g core.Game) gameRow {
	return gameRow{
		GameID:          g.ID,
		Name:            g.Name,
		Genres:          g.Genres,
		Tags:            g.Tags,
		Description:     g.Description,
		Added:           g.Added,
		RatingCount:     g.RatingCount,
		AvgRating:       g.AvgRating,
		PopularityScore: g.PopularityScore,
	}
}

// SQLStore 是基于 gorm 的目录 / 评分 / 用户存储，支持 SQLite 与 PostgreSQL。
// 表结构：games、users、ratings（(user_id, game_id) 唯一）以及记录快照版本的 nextplay_meta。
type SQLStore struct {
	db     *gorm.DB
	driver string
}

// OpenSQLStore 打开数据库并自动迁移表结构。
//
// driver 为 "sqlite" 时 dsn 是文件路径（纯 Go 驱动 modernc.org/sqlite）；
// 为 "postgres" 时 dsn 是 libpq 连接串或 URL。
func OpenSQLStore(driver, dsn string) (*SQLStore, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	var (
		db  *gorm.DB
		err error
	)
	switch strings.ToLower(driver) {
	case DriverSQLite:
		var conn *sql.DB
		if conn, err = sql.Open("sqlite", dsn); err != nil {
			return nil, errors.Trace(err)
		}
		// SQLite 单写者
		conn.SetMaxOpenConns(1)
		db, err = gorm.Open(sqlite.Dialector{Conn: conn}, cfg)
	case DriverPostgres:
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	default:
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeNotSupported, fmt.Sprintf("store: unknown sql driver %q", driver))
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	s := &SQLStore{db: db, driver: strings.ToLower(driver)}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate() error {
	if err := s.db.AutoMigrate(&gameRow{}, &userRow{}, &ratingRow{}, &metaRow{}); err != nil {
		return errors.Annotate(err, "store: migrate")
	}
	return errors.Trace(s.db.
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&metaRow{MetaKey: versionKey, Value: 0}).Error)
}

func (s *SQLStore) Name() string { return s.driver }

func (s *SQLStore) bump(tx *gorm.DB) error {
	return tx.Model(&metaRow{}).
		Where("meta_key = ?", versionKey).
		UpdateColumn("value", gorm.Expr("value + ?", 1)).Error
}

// PutGames 批量写入目录记录，已存在的 game_id 整行覆盖。
func (s *SQLStore) PutGames(ctx context.Context, games []core.Game) error {
	if len(games) == 0 {
		return nil
	}
	rows := make([]gameRow, 0, len(games))
	for _, g := range games {
		if err := g.Validate(); err != nil {
			return err
		}
		rows = append(rows, fromGame(g))
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "game_id"}},
			UpdateAll: true,
		}).CreateInBatches(rows, 500).Error; err != nil {
			return errors.Trace(err)
		}
		return s.bump(tx)
	})
}

// PutUser 写入一个指定 ID 的用户，已存在时更新名字。
func (s *SQLStore) PutUser(ctx context.Context, u core.User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name"}),
		}).Create(&userRow{UserID: u.ID, Name: u.Name}).Error; err != nil {
			return errors.Trace(err)
		}
		return s.bump(tx)
	})
}

func (s *SQLStore) GetAllItems(ctx context.Context) ([]core.Game, error) {
	var rows []gameRow
	if err := s.db.WithContext(ctx).Order("game_id").Find(&rows).Error; err != nil {
		return nil, errors.Trace(err)
	}
	games := make([]core.Game, len(rows))
	for i, r := range rows {
		games[i] = r.toGame()
	}
	return games, nil
}

func (s *SQLStore) GetAllRatings(ctx context.Context) ([]core.Rating, error) {
	var rows []ratingRow
	if err := s.db.WithContext(ctx).Order("user_id").Order("game_id").Find(&rows).Error; err != nil {
		return nil, errors.Trace(err)
	}
	ratings := make([]core.Rating, len(rows))
	for i, r := range rows {
		ratings[i] = core.Rating{UserID: r.UserID, ItemID: r.GameID, Value: r.Rating}
	}
	return ratings, nil
}

// AddOrUpdateRating 以 (user_id, game_id) 为冲突键 upsert 评分，不会产生重复记录。
func (s *SQLStore) AddOrUpdateRating(ctx context.Context, userID string, itemID int64, value float64) error {
	r := core.Rating{UserID: userID, ItemID: itemID, Value: value}
	if err := r.Validate(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&gameRow{}).Where("game_id = ?", itemID).Count(&n).Error; err != nil {
			return errors.Trace(err)
		}
		if n == 0 {
			return core.NewDomainError(core.ModuleCatalog, core.ErrorCodeNotFound, fmt.Sprintf("catalog: game %d not found", itemID))
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "game_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating"}),
		}).Create(&ratingRow{UserID: userID, GameID: itemID, Rating: value}).Error; err != nil {
			return errors.Trace(err)
		}
		return s.bump(tx)
	})
}

func (s *SQLStore) UpdatePopularityScores(ctx context.Context, scores map[int64]float64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for id, score := range scores {
			if err := tx.Model(&gameRow{}).
				Where("game_id = ?", id).
				UpdateColumn("popularity_score", score).Error; err != nil {
				return errors.Annotatef(err, "store: update popularity of %d", id)
			}
		}
		return s.bump(tx)
	})
}

func (s *SQLStore) GetAllUsers(ctx context.Context) ([]core.User, error) {
	var rows []userRow
	if err := s.db.WithContext(ctx).Order("user_id").Find(&rows).Error; err != nil {
		return nil, errors.Trace(err)
	}
	users := make([]core.User, len(rows))
	for i, r := range rows {
		users[i] = core.User{ID: r.UserID, Name: r.Name}
	}
	return users, nil
}

// AddUser 在同一事务内读取现有 ID、分配下一个 u<N> 并插入。
func (s *SQLStore) AddUser(ctx context.Context, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", core.NewDomainError(core.ModuleUser, core.ErrorCodeInvalidInput, "user: empty name")
	}
	var id string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&userRow{}).Pluck("user_id", &ids).Error; err != nil {
			return errors.Trace(err)
		}
		id = core.NextUserID(ids)
		if err := tx.Create(&userRow{UserID: id, Name: name}).Error; err != nil {
			return errors.Trace(err)
		}
		return s.bump(tx)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *SQLStore) Version(ctx context.Context) (uint64, error) {
	var row metaRow
	if err := s.db.WithContext(ctx).Where("meta_key = ?", versionKey).First(&row).Error; err != nil {
		return 0, errors.Trace(err)
	}
	return row.Value, nil
}

func (s *SQLStore) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return errors.Trace(err)
	}
	return db.Close()
}

var (
	_ core.CatalogSource    = (*SQLStore)(nil)
	_ core.RatingSource     = (*SQLStore)(nil)
	_ core.RatingWriter     = (*SQLStore)(nil)
	_ core.PopularityWriter = (*SQLStore)(nil)
	_ core.UserStore        = (*SQLStore)(nil)
	_ core.Versioned        = (*SQLStore)(nil)
)
