package core

import "time"

// CatalogItem 是目录中一条已向量化的游戏记录，按 ItemID（Steam AppID 语义）唯一。
//
// 不变式：
//   - 同一 ItemID 至多一条记录（Upsert 语义，整条覆盖，不做字段级合并）
//   - Embedding 要么是完整的 D 维向量，要么为空；为空的记录不参与检索
type CatalogItem struct {
	ItemID           int64
	Name             string
	Description      string // 详细描述（仅存储，不参与向量化）
	ShortDescription string
	Genres           []string
	Tags             []string
	Developer        string
	Publisher        string
	MetacriticScore  int
	ReleaseDate      string
	HeaderImage      string

	// Embedding 是描述文本的向量，维度由 Embedder 决定
	Embedding []float64

	// UpdatedAt 最近一次同步时间，Upsert 时刷新
	UpdatedAt time.Time
}

// ItemDetails 是元数据提供方返回的描述性字段（未向量化的原始物料）。
type ItemDetails struct {
	ItemID           int64
	Name             string
	Description      string
	ShortDescription string
	Genres           []string
	Tags             []string
	Developers       []string
	Publishers       []string
	MetacriticScore  int
	ReleaseDate      string
	HeaderImage      string
}

// UserPlayRecord 是用户游玩历史的一条记录，由历史提供方按游玩时长降序返回。
// 推荐链路只读，不拥有其生命周期。
type UserPlayRecord struct {
	ItemID          int64
	Name            string
	PlaytimeMinutes int64
}

// CandidateMatch 是一次 k-NN 检索产出的候选项，按 Similarity 降序排列，
// 相同分数按 ItemID 升序保证确定性。Similarity 为余弦相似度，取值 [-1, 1]。
type CandidateMatch struct {
	ItemID      int64
	Name        string
	Description string
	Genres      []string
	Developer   string
	Similarity  float64
}

// SyncResult 是一次目录同步的结果统计，不落盘，仅返回给调用方并记录日志。
type SyncResult struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"` // 元数据缺失等非失败跳过
	Total     int `json:"total"`
}
