package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/nextplay/core"
)

// Observer 在每个 Node 执行后回调，用于打点。
type Observer func(node Node, elapsed time.Duration, out int, err error)

// Pipeline 是推荐逻辑的核心抽象：把推荐逻辑拆成可组合的 Node 链。
type Pipeline struct {
	Nodes    []Node
	Observer Observer
}

// Run 依次执行各 Node；ctx 取消或超时时在下一个 Node 之前返回。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		next, err := node.Process(ctx, rctx, cur)
		if p.Observer != nil {
			p.Observer(node, time.Since(start), len(next), err)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}
