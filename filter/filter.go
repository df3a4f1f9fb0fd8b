// Package filter 提供候选过滤能力。
//
// 过滤发生在向量检索之后、生成式排序之前：候选越干净，
// 补全模型给出的推荐越可信。
package filter

import (
	"context"

	"github.com/rushteam/playrec/core"
)

// Filter 是候选过滤器的领域接口。
//
// 实现：
//   - OwnedFilter 过滤用户已拥有的物品
//   - DSLFilter 基于 CEL 表达式的通用过滤
type Filter interface {
	// Name 过滤器名称（日志用）
	Name() string

	// Apply 返回保留下来的候选，顺序保持不变
	Apply(ctx context.Context, userID string, candidates []core.CandidateMatch) ([]core.CandidateMatch, error)
}

// Chain 依次应用多个过滤器。
// 任一过滤器出错即中断并返回该错误。
func Chain(ctx context.Context, userID string, candidates []core.CandidateMatch, filters ...Filter) ([]core.CandidateMatch, error) {
	out := candidates
	for _, f := range filters {
		var err error
		out, err = f.Apply(ctx, userID, out)
		if err != nil {
			return nil, err
		}
		if len(out) == 0 {
			return out, nil
		}
	}
	return out, nil
}
