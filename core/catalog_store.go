package core

import "context"

// CatalogStore 是目录向量存储的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//   - 避免循环依赖：领域层不依赖基础设施层
//
// 语义约定：
//   - Upsert 按 ItemID 覆盖整条记录；Embedding 维度不符返回 INVALID_VECTOR
//   - Search 只在有向量的记录中检索；余弦相似度降序，同分按 ItemID 升序
//   - 存储不可达返回 UNAVAILABLE；重试是调用方的责任，存储自身不重试
//   - 不要求事务隔离：并发 Upsert 不同 key 相互独立（同 key 后写覆盖），
//     Upsert 与 Search 并发时检索可见性为最终一致
//
// 实现：
//   - store.MemoryCatalogStore 实现此接口（内存，测试/开发）
//   - store.PostgresCatalogStore 实现此接口（pgvector，生产）
type CatalogStore interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Upsert 写入或覆盖一条目录记录
	Upsert(ctx context.Context, item *CatalogItem) error

	// Search 按余弦相似度检索 topK 个候选，topK 必须 >= 1
	Search(ctx context.Context, vector []float64, topK int) ([]CandidateMatch, error)

	// CountIndexed 统计带有效向量的记录数（就绪门使用）
	CountIndexed(ctx context.Context) (int64, error)

	// Has 检查某 ItemID 是否已同步（无论是否带向量）
	Has(ctx context.Context, itemID int64) (bool, error)

	// Close 关闭连接/释放资源
	Close() error
}
