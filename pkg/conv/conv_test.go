package conv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigGet(t *testing.T) {
	cfg := map[string]any{
		"path":    "model.json",
		"n":       3,
		"ratio":   0.5,
		"weight":  2,
		"filters": []any{"rated", 1, "expr"},
	}
	assert.Equal(t, "model.json", ConfigGet(cfg, "path", ""))
	assert.Equal(t, "x", ConfigGet(cfg, "missing", "x"))
	assert.Equal(t, "x", ConfigGet(cfg, "n", "x"))
	assert.Equal(t, int64(3), ConfigGetInt64(cfg, "n", 0))
	assert.Equal(t, int64(0), ConfigGetInt64(cfg, "ratio", 7))
	assert.Equal(t, int64(7), ConfigGetInt64(cfg, "path", 7))
	assert.Equal(t, 0.5, ConfigGetFloat64(cfg, "ratio", 0))
	assert.Equal(t, 2.0, ConfigGetFloat64(cfg, "weight", 0))
	assert.Equal(t, 1.5, ConfigGetFloat64(nil, "weight", 1.5))
	assert.Equal(t, []string{"rated", "expr"}, ConfigGetStrings(cfg, "filters"))
	assert.Nil(t, ConfigGetStrings(cfg, "path"))
}
