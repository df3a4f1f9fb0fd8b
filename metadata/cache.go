package metadata

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/rushteam/playrec/core"
)

// CachedProvider 是元数据提供方的 TTL 缓存装饰器。
//
// 目录同步会对同一批 appid 反复取数（多用户共享同一游戏库），
// 缓存可显著减少对上游 storefront API 的请求量。
//
// 策略：
//   - 命中即返回；缓存层故障降级为直连（缓存只是优化，不是正确性依赖）
//   - "物品不存在"（nil, nil）不缓存，避免把上游抖动固化成长期缺失
type CachedProvider struct {
	Source core.MetadataProvider
	Cache  core.Store

	// TTLSeconds 缓存有效期（秒），默认 24 小时
	TTLSeconds int
}

const cacheKeyPrefix = "playrec:details:"

func NewCachedProvider(source core.MetadataProvider, cache core.Store) *CachedProvider {
	return &CachedProvider{
		Source:     source,
		Cache:      cache,
		TTLSeconds: 24 * 3600,
	}
}

// GetDetails 实现 core.MetadataProvider 接口
func (c *CachedProvider) GetDetails(ctx context.Context, itemID int64) (*core.ItemDetails, error) {
	key := cacheKeyPrefix + strconv.FormatInt(itemID, 10)

	if raw, err := c.Cache.Get(ctx, key); err == nil {
		var details core.ItemDetails
		if err := json.Unmarshal(raw, &details); err == nil {
			return &details, nil
		}
		// 脏缓存直接删除后回源
		_ = c.Cache.Delete(ctx, key)
	}

	details, err := c.Source.GetDetails(ctx, itemID)
	if err != nil || details == nil {
		return details, err
	}

	if raw, err := json.Marshal(details); err == nil {
		ttl := c.TTLSeconds
		if ttl <= 0 {
			ttl = 24 * 3600
		}
		_ = c.Cache.Set(ctx, key, raw, ttl)
	}
	return details, nil
}

var _ core.MetadataProvider = (*CachedProvider)(nil)
