package filter

import (
	"context"

	"github.com/rushteam/nextplay/core"
	"github.com/rushteam/nextplay/pkg/dsl"
)

// ExprFilter 使用 CEL 表达式过滤，表达式为 true 的物品被移除。
// Invert 为 true 时语义反转：只保留表达式为 true 的物品。
//
// 示例：`item.name.startsWith("Demo")`、`item.features.popularity_score < 0.1`
type ExprFilter struct {
	program *dsl.Program
	Invert  bool
}

// NewExprFilter 编译表达式。
func NewExprFilter(expr string, invert bool) (*ExprFilter, error) {
	p, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{program: p, Invert: invert}, nil
}

func (f *ExprFilter) Name() string { return "filter.expr" }

// Expr 返回原始表达式。
func (f *ExprFilter) Expr() string { return f.program.String() }

func (f *ExprFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	ok, err := f.program.Match(item, rctx)
	if err != nil {
		return false, err
	}
	return ok != f.Invert, nil
}
