// Package recommend 实现检索增强的游戏推荐引擎。
package recommend

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/rushteam/playrec/core"
	"github.com/rushteam/playrec/filter"
)

const (
	// DefaultTopPlayed 取用户游玩时长最高的 N 条构建偏好
	DefaultTopPlayed = 5

	// DefaultSearchK 向量检索的候选数上限
	DefaultSearchK = 15
)

// Engine 是推荐链路的编排器。
//
// 流程（按序执行，阶段间检查取消）：
//  1. 拉取用户高时长游戏，空则 INSUFFICIENT_HISTORY
//  2. 拼接偏好查询文本
//  3. 查询文本向量化
//  4. 向量检索 k 个候选，空则 NO_CANDIDATES
//  5. 应用可选过滤器（已拥有物品、DSL 规则）
//  6. 组装 prompt 调用补全模型
//  7. 解析回复，失败降级为 RawText 形态
//
// 引擎本身无状态，不落盘，结果只返回给调用方。
type Engine struct {
	History    core.PlayHistoryProvider
	Embedder   core.Embedder
	Store      core.CatalogStore
	Completion core.CompletionService

	// Filters 在检索后按序应用，过滤为空视为无候选
	Filters []filter.Filter

	// TopPlayed / SearchK 见包级常量
	TopPlayed int
	SearchK   int

	// ValidateCandidate 开启后校验推荐结果必须出自候选集：
	// 不在集合内则重试一次补全，仍不在则以最高相似度候选兜底。
	// 默认关闭。
	ValidateCandidate bool

	log *zap.Logger
}

// EngineOption 推荐引擎配置选项
type EngineOption func(*Engine)

// WithTopPlayed 设置偏好构建使用的游戏数
func WithTopPlayed(n int) EngineOption {
	return func(e *Engine) { e.TopPlayed = n }
}

// WithSearchK 设置向量检索候选数
func WithSearchK(k int) EngineOption {
	return func(e *Engine) { e.SearchK = k }
}

// WithFilters 设置候选过滤器链
func WithFilters(filters ...filter.Filter) EngineOption {
	return func(e *Engine) { e.Filters = filters }
}

// WithCandidateValidation 开启推荐结果的候选集校验
func WithCandidateValidation() EngineOption {
	return func(e *Engine) { e.ValidateCandidate = true }
}

// WithLogger 设置日志器，默认静默
func WithLogger(log *zap.Logger) EngineOption {
	return func(e *Engine) { e.log = log }
}

// NewEngine 创建推荐引擎。
func NewEngine(history core.PlayHistoryProvider, embedder core.Embedder, store core.CatalogStore, completion core.CompletionService, opts ...EngineOption) *Engine {
	e := &Engine{
		History:    history,
		Embedder:   embedder,
		Store:      store,
		Completion: completion,
		TopPlayed:  DefaultTopPlayed,
		SearchK:    DefaultSearchK,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	return e
}

// Recommend 为用户生成一条推荐。
func (e *Engine) Recommend(ctx context.Context, userID string) (*core.RecommendationResult, error) {
	topN := e.TopPlayed
	if topN <= 0 {
		topN = DefaultTopPlayed
	}
	searchK := e.SearchK
	if searchK <= 0 {
		searchK = DefaultSearchK
	}

	topPlayed, err := e.History.GetTopPlayed(ctx, userID, topN)
	if err != nil {
		return nil, err
	}
	if len(topPlayed) == 0 {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInsufficientHistory,
			"用户游戏库为空，无法生成推荐")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	preference := BuildPreferenceText(topPlayed)

	queryVec, err := e.Embedder.EmbedOne(ctx, preference)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates, err := e.Store.Search(ctx, queryVec, searchK)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeNoCandidates,
			"未找到相似游戏，可能向量数据有问题")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates, err = filter.Chain(ctx, userID, candidates, e.Filters...)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeNoCandidates,
			"候选过滤后为空，无法生成推荐")
	}

	prompt := BuildPrompt(preference, BuildCandidateContext(candidates))
	content, err := e.Completion.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	rec := ParseRecommendation(content)
	if rec.Kind == core.KindRawText {
		e.log.Warn("completion response not parseable, degraded to raw text",
			zap.String("user_id", userID))
	}
	if e.ValidateCandidate {
		rec = e.ensureFromCandidates(ctx, userID, prompt, rec, candidates)
	}

	return &core.RecommendationResult{
		Recommendation: rec,
		Metadata: core.RecommendationMetadata{
			TopPlayed:      topPlayedItems(topPlayed),
			CandidateCount: len(candidates),
			MaxSimilarity:  candidates[0].Similarity,
			GeneratedAt:    time.Now(),
		},
	}, nil
}

// ensureFromCandidates 校验推荐出自候选集，重试一次后以最高相似度候选兜底。
func (e *Engine) ensureFromCandidates(ctx context.Context, userID, prompt string, rec core.Recommendation, candidates []core.CandidateMatch) core.Recommendation {
	if rec.Kind != core.KindParsed || inCandidates(rec.RecommendedItem, candidates) {
		return rec
	}
	e.log.Warn("recommended item not in candidate set, retrying",
		zap.String("user_id", userID), zap.String("item", rec.RecommendedItem))

	if content, err := e.Completion.Complete(ctx, prompt); err == nil {
		if retried := ParseRecommendation(content); retried.Kind == core.KindParsed && inCandidates(retried.RecommendedItem, candidates) {
			return retried
		}
	}

	top := candidates[0]
	rec.RecommendedItem = top.Name
	return rec
}

func inCandidates(name string, candidates []core.CandidateMatch) bool {
	for _, c := range candidates {
		if c.Name == name {
			return true
		}
	}
	return false
}

func topPlayedItems(records []core.UserPlayRecord) []core.TopPlayedItem {
	out := make([]core.TopPlayedItem, 0, len(records))
	for _, rec := range records {
		out = append(out, core.TopPlayedItem{
			Name:  rec.Name,
			Hours: int64(math.Round(float64(rec.PlaytimeMinutes) / 60)),
		})
	}
	return out
}
