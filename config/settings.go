package config

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/juju/errors"
	"github.com/spf13/viper"

	"github.com/rushteam/nextplay/core"
	"github.com/rushteam/nextplay/pkg/log"
	"github.com/rushteam/nextplay/popularity"
)

// EnvPrefix 是环境变量前缀，例如 NEXTPLAY_RECOMMEND_TOP_N=10。
const EnvPrefix = "NEXTPLAY"

// 降级策略
const (
	FallbackNone       = "none"
	FallbackPopularity = "popularity"
)

// Settings 是应用配置。
type Settings struct {
	Recommend  RecommendSettings  `mapstructure:"recommend"`
	Popularity PopularitySettings `mapstructure:"popularity"`
	Model      ModelSettings      `mapstructure:"model"`
	Database   DatabaseSettings   `mapstructure:"database"`
	Cache      CacheSettings      `mapstructure:"cache"`
	Log        LogSettings        `mapstructure:"log"`
	// Pipeline 是可选的 pipeline 配置文件（YAML/JSON），为空时使用内置链路
	Pipeline string `mapstructure:"pipeline"`
}

type RecommendSettings struct {
	LikeThreshold float64       `mapstructure:"like_threshold" validate:"gte=0"`
	FactorRank    int           `mapstructure:"factor_rank" validate:"gte=1"`
	TopN          int           `mapstructure:"top_n" validate:"gte=0"`
	Fallback      string        `mapstructure:"fallback" validate:"oneof=none popularity"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gte=0"`
	// StrictCollab 为 false 时已评分单元也复用共享分解
	StrictCollab bool `mapstructure:"strict_collab"`
}

type PopularitySettings struct {
	Weights popularity.Weights `mapstructure:"weights"`
	// Precomputed 为 true 时使用目录中回写的 popularity_score
	Precomputed bool   `mapstructure:"precomputed"`
	MirrorKey   string `mapstructure:"mirror_key"`
}

type ModelSettings struct {
	Path string `mapstructure:"path"`
}

type DatabaseSettings struct {
	Driver string `mapstructure:"driver" validate:"oneof=memory sqlite postgres"`
	DSN    string `mapstructure:"dsn" validate:"required_unless=Driver memory"`
}

type CacheSettings struct {
	// RedisURL 非空时热度表镜像到 Redis 有序集合
	RedisURL string `mapstructure:"redis_url" validate:"omitempty,url"`
}

type LogSettings struct {
	Debug      bool   `mapstructure:"debug"`
	Path       string `mapstructure:"path"`
	MaxSize    int    `mapstructure:"max_size" validate:"gte=0"`
	MaxAge     int    `mapstructure:"max_age" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
}

func setDefault(v *viper.Viper) {
	v.SetDefault("recommend.like_threshold", 3.0)
	v.SetDefault("recommend.factor_rank", 15)
	v.SetDefault("recommend.top_n", 5)
	v.SetDefault("recommend.fallback", FallbackNone)
	v.SetDefault("recommend.timeout", time.Duration(0))
	v.SetDefault("recommend.strict_collab", true)
	v.SetDefault("popularity.weights.added", 0.5)
	v.SetDefault("popularity.weights.rating_count", 0.3)
	v.SetDefault("popularity.weights.avg_rating", 0.2)
	v.SetDefault("popularity.precomputed", true)
	v.SetDefault("popularity.mirror_key", popularity.DefaultMirrorKey)
	v.SetDefault("model.path", "fusion_model.json")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "nextplay.db")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("log.debug", false)
	v.SetDefault("log.path", "")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_age", 7)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("pipeline", "")
}

// NewViper 返回设置好默认值与环境变量绑定的 viper 实例。
func NewViper() *viper.Viper {
	v := viper.New()
	setDefault(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// DefaultSettings 返回全部默认值。
func DefaultSettings() *Settings {
	s, err := decode(NewViper())
	if err != nil {
		panic(err)
	}
	return s
}

// LoadSettings 读取配置文件（path 为空时只用默认值与环境变量）并校验。
func LoadSettings(path string) (*Settings, error) {
	v := NewViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Annotatef(err, "config: read %s", path)
		}
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, errors.Annotate(err, "config: unmarshal")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate 使用 validator 校验字段约束。
func (s *Settings) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return core.WrapDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "config: invalid settings", err)
	}
	return nil
}

// RecommendConfig 返回 core.RecommendConfig 视图。
func (s *Settings) RecommendConfig() core.RecommendConfig {
	return recommendConfig{s: s.Recommend}
}

// LogOptions 返回日志配置。
func (s *Settings) LogOptions() log.Options {
	return log.Options{
		Debug:      s.Log.Debug,
		Path:       s.Log.Path,
		MaxSize:    s.Log.MaxSize,
		MaxAge:     s.Log.MaxAge,
		MaxBackups: s.Log.MaxBackups,
	}
}

type recommendConfig struct {
	s RecommendSettings
}

func (c recommendConfig) LikeThreshold() float64 { return c.s.LikeThreshold }
func (c recommendConfig) FactorRank() int        { return c.s.FactorRank }
func (c recommendConfig) DefaultTopN() int       { return c.s.TopN }
func (c recommendConfig) Timeout() time.Duration { return c.s.Timeout }
