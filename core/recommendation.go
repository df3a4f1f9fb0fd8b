package core

import "time"

// RecommendationKind 标记推荐结果的来源形态。
//
// 生成模型的回复期望是结构化 JSON，但无法保证；解析失败时引擎会降级为
// 原文透传。调用方必须显式区分两种形态，而不是依赖字段碰巧解析成功。
type RecommendationKind string

const (
	// KindParsed 表示回复成功解析为结构化推荐
	KindParsed RecommendationKind = "parsed"
	// KindRawText 表示解析失败，Reason 为模型原文，其余字段为占位默认值
	KindRawText RecommendationKind = "raw_text"
)

// Recommendation 是生成模型给出的最终推荐。
type Recommendation struct {
	Kind RecommendationKind `json:"kind"`

	// RecommendedItem 推荐的游戏名称；RawText 降级时为固定占位符"推荐分析"
	RecommendedItem string `json:"recommendedGame"`

	// Reason 推荐理由；RawText 降级时为模型原文
	Reason string `json:"reason"`

	// Confidence 置信度，取值 [0, 1]；RawText 降级时为固定默认值
	Confidence float64 `json:"confidence"`

	// ItemType 游戏类型描述
	ItemType string `json:"gameType"`

	// SimilarityNarrative 与用户偏好的相似度分析（自然语言）
	SimilarityNarrative string `json:"similarity"`
}

// TopPlayedItem 是元数据中回显的用户高时长游戏。
type TopPlayedItem struct {
	Name  string `json:"name"`
	Hours int64  `json:"hours"`
}

// RecommendationMetadata 是一次推荐调用的过程元信息。
type RecommendationMetadata struct {
	TopPlayed      []TopPlayedItem `json:"userTopGames"`
	CandidateCount int             `json:"similarGamesFound"`
	MaxSimilarity  float64         `json:"maxSimilarity"`
	GeneratedAt    time.Time       `json:"generatedAt"`
}

// RecommendationResult 是推荐引擎的完整输出，不落盘。
type RecommendationResult struct {
	Recommendation Recommendation         `json:"recommendation"`
	Metadata       RecommendationMetadata `json:"metadata"`
}

// Readiness 是就绪门的检查结果：索引中存在至少一条带向量的记录才可服务推荐。
type Readiness struct {
	Ready        bool  `json:"ready"`
	IndexedCount int64 `json:"gameCount"`
}
