// Package playrec 是一个检索增强的游戏推荐工具包（Play Recommender）。
//
// 设计要点：
// - 检索增强: 用户高时长游戏 → 偏好文本向量化 → 余弦 k-NN 候选 → 生成式排序
// - 接口驱动: Embedder / CatalogStore / PlayHistoryProvider 等领域接口在 core 包，
//   存储与外部服务的实现可插拔（内存 / Postgres+pgvector / Redis）
// - 降级优先: 向量化失败零向量占位、回复解析失败原文透传，单点故障不拖垮链路
package playrec

import (
	"github.com/rushteam/playrec/core"
	"github.com/rushteam/playrec/recommend"
)

// 轻量 facade：便于用户直接 import "playrec" 使用核心抽象。
type Engine = recommend.Engine
type Embedder = core.Embedder
type CatalogStore = core.CatalogStore
type CatalogItem = core.CatalogItem
type Recommendation = core.Recommendation
type RecommendationResult = core.RecommendationResult
type SyncResult = core.SyncResult
type Readiness = core.Readiness

const (
	KindParsed  = core.KindParsed
	KindRawText = core.KindRawText
)

// NewEngine 创建推荐引擎，等价于 recommend.NewEngine。
var NewEngine = recommend.NewEngine
