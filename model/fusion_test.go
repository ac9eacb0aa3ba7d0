package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/nextplay/core"
)

const fusionJSON = `{
  "features": ["content_score", "collab_score", "popularity_score"],
  "scaler": {
    "min": {"content_score": 0, "collab_score": -1, "popularity_score": 0.5},
    "max": {"content_score": 2, "collab_score": 1, "popularity_score": 0.5}
  },
  "classifier": {"bias": -1, "weights": {"content_score": 2, "collab_score": 1, "popularity_score": 4}}
}`

const fusionYAML = `
scaler:
  min: {content_score: 0, collab_score: -1, popularity_score: 0.5}
  max: {content_score: 2, collab_score: 1, popularity_score: 0.5}
classifier:
  bias: -1
  weights: {content_score: 2, collab_score: 1, popularity_score: 4}
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFusionModel(t *testing.T) {
	for _, tc := range []struct {
		name string
		file string
		body string
	}{
		{"json", "fusion.json", fusionJSON},
		{"yaml", "fusion.yaml", fusionYAML},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m, err := LoadFusionModel(writeFile(t, tc.file, tc.body))
			require.NoError(t, err)
			assert.Equal(t, core.FusionFeatures, m.Features)

			// content 1 -> 0.5, collab 0 -> 0.5, popularity 0.75 -> 0.25 (零范围: x - min)
			p, err := m.Predict(map[string]float64{
				core.FeatureContent:    1,
				core.FeatureCollab:     0,
				core.FeaturePopularity: 0.75,
			})
			require.NoError(t, err)
			assert.InDelta(t, Sigmoid(-1+2*0.5+1*0.5+4*0.25), p, 1e-12)
			assert.True(t, p > 0 && p < 1)
		})
	}
}

func TestLoadFusionModelMissingArtifact(t *testing.T) {
	_, err := LoadFusionModel(filepath.Join(t.TempDir(), "absent.json"))
	assert.True(t, core.IsMissingArtifact(err))

	_, err = LoadFusionModel("")
	assert.True(t, core.IsMissingArtifact(err))

	_, err = LoadFusionModel(writeFile(t, "broken.json", "{not json"))
	assert.True(t, core.IsMissingArtifact(err))

	_, err = LoadFusionModel(writeFile(t, "noscaler.json", `{"classifier": {"bias": 0, "weights": {}}}`))
	assert.True(t, core.IsMissingArtifact(err))

	_, err = LoadFusionModel(writeFile(t, "noweight.json", `{
	  "scaler": {"min": {"content_score": 0, "collab_score": 0, "popularity_score": 0},
	             "max": {"content_score": 1, "collab_score": 1, "popularity_score": 1}},
	  "classifier": {"bias": 0, "weights": {"content_score": 1}}}`))
	assert.True(t, core.IsMissingArtifact(err))
}

func TestFusionMonotonicInPositiveWeight(t *testing.T) {
	m, err := DecodeFusionModel([]byte(fusionJSON), "json")
	require.NoError(t, err)
	lo, _ := m.Predict(map[string]float64{core.FeatureContent: 0.2})
	hi, _ := m.Predict(map[string]float64{core.FeatureContent: 1.8})
	assert.Greater(t, hi, lo)
}

func TestLRModelAndPopularityModel(t *testing.T) {
	lr := &LRModel{Bias: 0, Weights: map[string]float64{"a": 1}}
	p, err := lr.Predict(map[string]float64{"a": 0, "ignored": 9})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p, 1e-12)

	path := writeFile(t, "lr.json", `{"bias": 1, "weights": {"a": 2}}`)
	loaded, err := LoadLRModel(path)
	require.NoError(t, err)
	assert.Equal(t, 1.0, loaded.Bias)

	s, err := PopularityModel{}.Predict(map[string]float64{core.FeaturePopularity: 0.3})
	require.NoError(t, err)
	assert.Equal(t, 0.3, s)
}
