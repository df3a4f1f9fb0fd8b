package filter

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/playrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("user_id", cel.StringType),
		)
	})
	return celEnv, celEnvErr
}

// DSLFilter 基于 CEL (Common Expression Language) 表达式过滤候选。
//
// 表达式语法（CEL 标准语法）：
//   - 数值：item.similarity > 0.5
//   - 字符串：item.developer != "Valve"
//   - 包含："RPG" in item.genres
//   - 逻辑：item.similarity > 0.3 && size(item.genres) > 0
//
// 表达式在构造时编译一次，Apply 可并发调用。
type DSLFilter struct {
	expr string
	prg  cel.Program
}

// NewDSLFilter 编译表达式并创建过滤器。
// 表达式必须返回布尔值，true 表示保留该候选。
func NewDSLFilter(expr string) (*DSLFilter, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %v", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %v", err)
	}
	return &DSLFilter{expr: expr, prg: prg}, nil
}

func (f *DSLFilter) Name() string { return "dsl" }

// Apply 实现 Filter 接口
func (f *DSLFilter) Apply(ctx context.Context, userID string, candidates []core.CandidateMatch) ([]core.CandidateMatch, error) {
	out := make([]core.CandidateMatch, 0, len(candidates))
	for _, c := range candidates {
		keep, err := f.evaluate(userID, &c)
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput,
				fmt.Sprintf("filter: eval %q", f.expr), err)
		}
		if keep {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *DSLFilter) evaluate(userID string, c *core.CandidateMatch) (bool, error) {
	genres := make([]interface{}, 0, len(c.Genres))
	for _, g := range c.Genres {
		genres = append(genres, g)
	}

	input := map[string]interface{}{
		"item": map[string]interface{}{
			"id":          c.ItemID,
			"name":        c.Name,
			"description": c.Description,
			"genres":      genres,
			"developer":   c.Developer,
			"similarity":  c.Similarity,
		},
		"user_id": userID,
	}

	out, _, err := f.prg.Eval(input)
	if err != nil {
		return false, err
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

var _ Filter = (*DSLFilter)(nil)
