package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/nextplay/core"
)

type appendNode struct {
	id  int64
	err error
}

func (n *appendNode) Name() string { return "test.append" }
func (n *appendNode) Kind() Kind   { return KindRecall }
func (n *appendNode) Process(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	if n.err != nil {
		return nil, n.err
	}
	return append(items, core.NewItem(n.id)), nil
}

func TestPipelineRun(t *testing.T) {
	var seen []string
	p := &Pipeline{
		Nodes: []Node{&appendNode{id: 1}, &appendNode{id: 2}},
		Observer: func(node Node, _ time.Duration, out int, err error) {
			seen = append(seen, node.Name())
		},
	}
	items, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, []string{"test.append", "test.append"}, seen)

	boom := errors.New("boom")
	_, err = (&Pipeline{Nodes: []Node{&appendNode{err: boom}}}).Run(context.Background(), nil, nil)
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Run(ctx, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfigBuild(t *testing.T) {
	yamlCfg := `
pipeline:
  name: hybrid
  nodes:
    - type: test.append
      config: {id: 7}
`
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlCfg), 0o644))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "hybrid", cfg.Pipeline.Name)

	f := NewNodeFactory()
	f.Register("test.append", func(c map[string]interface{}) (Node, error) {
		return &appendNode{id: int64(c["id"].(int))}, nil
	})
	p, err := cfg.BuildPipeline(f)
	require.NoError(t, err)
	items, err := p.Run(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(7), items[0].ID)

	jsonCfg, err := ParseJSON([]byte(`{"pipeline": {"name": "x", "nodes": [{"type": "missing"}]}}`))
	require.NoError(t, err)
	_, err = jsonCfg.BuildPipeline(f)
	assert.Error(t, err)

	empty, err := ParseYAML([]byte(`pipeline: {name: empty}`))
	require.NoError(t, err)
	_, err = empty.BuildPipeline(f)
	assert.Error(t, err)
}
