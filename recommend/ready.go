package recommend

import (
	"context"

	"github.com/rushteam/playrec/core"
)

// CheckReady 检查推荐服务是否就绪：索引中存在至少一条带向量的记录即可服务。
// 存储故障按"未就绪"返回而不是报错，就绪检查本身不应把探活打挂。
func CheckReady(ctx context.Context, store core.CatalogStore) core.Readiness {
	count, err := store.CountIndexed(ctx)
	if err != nil {
		return core.Readiness{Ready: false, IndexedCount: 0}
	}
	return core.Readiness{Ready: count > 0, IndexedCount: count}
}
