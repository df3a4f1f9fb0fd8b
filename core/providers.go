package core

import "context"

// PlayHistoryProvider 是用户游玩历史的领域接口。
//
// 推荐链路只读消费：记录按 PlaytimeMinutes 降序，相同时长保持来源顺序。
//
// 实现：
//   - history.KVProvider 实现此接口（基于 core.KeyValueStore，有序集合承载时长）
type PlayHistoryProvider interface {
	// GetTopPlayed 返回用户游玩时长最高的 limit 条记录（时长为 0 的不计入）
	GetTopPlayed(ctx context.Context, userID string, limit int) ([]UserPlayRecord, error)

	// GetAllPlayed 分页返回用户全部游玩记录及总数
	GetAllPlayed(ctx context.Context, userID string, limit, offset int) ([]UserPlayRecord, int64, error)
}

// MetadataProvider 是物品描述性元数据的领域接口。
//
// 约定：物品不存在或数据不完整时返回 (nil, nil)，由调用方按"跳过"处理；
// 只有网络/服务类故障才返回 error。
//
// 实现：
//   - metadata.HTTPProvider 实现此接口（storefront 风格 appdetails API）
//   - metadata.CachedProvider 实现此接口（core.Store 作为 TTL 缓存的装饰器）
type MetadataProvider interface {
	// GetDetails 获取单个物品的描述性字段
	GetDetails(ctx context.Context, itemID int64) (*ItemDetails, error)
}

// CompletionService 是生成式补全的领域接口。
//
// 返回的 text 期望（但不保证）是一个符合 Recommendation 形态的 JSON 对象；
// 解析与降级由推荐引擎负责，此接口只做一次补全调用。
//
// 实现：
//   - service.OpenRouterClient 实现此接口（chat/completions）
type CompletionService interface {
	// Complete 对单个 prompt 做一次补全
	Complete(ctx context.Context, prompt string) (string, error)
}
