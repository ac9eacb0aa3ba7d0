package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/nextplay/core"
	"github.com/rushteam/nextplay/pipeline"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, 3.0, s.Recommend.LikeThreshold)
	assert.Equal(t, 15, s.Recommend.FactorRank)
	assert.Equal(t, 5, s.Recommend.TopN)
	assert.Equal(t, FallbackNone, s.Recommend.Fallback)
	assert.True(t, s.Recommend.StrictCollab)
	assert.Equal(t, 0.5, s.Popularity.Weights.Added)
	assert.Equal(t, 0.3, s.Popularity.Weights.RatingCount)
	assert.Equal(t, 0.2, s.Popularity.Weights.AvgRating)

	rc := s.RecommendConfig()
	assert.Equal(t, 3.0, rc.LikeThreshold())
	assert.Equal(t, 15, rc.FactorRank())
	assert.Equal(t, 5, rc.DefaultTopN())
	assert.Equal(t, time.Duration(0), rc.Timeout())
}

func TestLoadSettingsFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nextplay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
recommend:
  factor_rank: 8
  fallback: popularity
  timeout: 2s
database:
  driver: memory
`), 0o644))
	t.Setenv("NEXTPLAY_RECOMMEND_TOP_N", "10")

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, 8, s.Recommend.FactorRank)
	assert.Equal(t, FallbackPopularity, s.Recommend.Fallback)
	assert.Equal(t, 2*time.Second, s.Recommend.Timeout)
	assert.Equal(t, 10, s.Recommend.TopN)
	assert.Equal(t, "memory", s.Database.Driver)
}

func TestLoadSettingsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("recommend:\n  fallback: magic\n"), 0o644))
	_, err := LoadSettings(path)
	assert.True(t, core.IsInvalidInput(err))

	_, err = LoadSettings(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	Register("test.noop", func(map[string]interface{}) (pipeline.Node, error) { return nil, nil })
	assert.Contains(t, SupportedTypes(), "test.noop")

	cfg := &pipeline.Config{}
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{{Type: "test.noop"}}
	assert.NoError(t, ValidatePipelineConfig(cfg))
	cfg.Pipeline.Nodes = append(cfg.Pipeline.Nodes, pipeline.NodeConfig{Type: "nope"})
	assert.Error(t, ValidatePipelineConfig(cfg))
}
