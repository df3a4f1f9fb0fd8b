package core

import "context"

// Embedder 是文本向量化的领域接口。
//
// 设计原则：
//   - 无状态、可并发共享；作为依赖注入，不使用进程级单例（便于测试替换）
//   - 降级策略内置：单条文本失败时返回 D 维零向量而不是让整批失败，
//     这是可用性优先的取舍；关心精确性的调用方可用 IsZeroVector 检测
//
// 实现：
//   - embedding.GeminiEmbedder 实现此接口（HTTP，分批 + 限速 + 零向量兜底）
type Embedder interface {
	// EmbedBatch 批量向量化；返回向量与输入一一对应，长度恒等于 len(texts)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)

	// EmbedOne 单条向量化；失败时返回零向量，不返回错误
	EmbedOne(ctx context.Context, text string) ([]float64, error)

	// Dimension 返回向量维度 D（由所选模型决定，作为配置常量而非散落字面量）
	Dimension() int
}

// ZeroVector 返回 dim 维零向量，作为向量化失败时的确定性占位。
func ZeroVector(dim int) []float64 {
	return make([]float64, dim)
}

// IsZeroVector 检查向量是否为全零（即兜底占位向量）。
// 空向量视为零向量。
func IsZeroVector(vec []float64) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}
