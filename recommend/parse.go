package recommend

import (
	"encoding/json"
	"strings"

	"github.com/rushteam/playrec/core"
	"github.com/rushteam/playrec/pkg/conv"
)

// RawText 降级时的固定占位值
const (
	fallbackItemName   = "推荐分析"
	fallbackItemType   = "基于相似度分析"
	fallbackNarrative  = "高相似度匹配"
	fallbackConfidence = 0.8
)

// ParseRecommendation 解析补全模型的回复。
//
// 解析永不失败：回复不是合法 JSON 时降级为 RawText 形态，
// 模型原文进入 Reason，其余字段取固定占位值。调用方通过 Kind 区分。
func ParseRecommendation(content string) core.Recommendation {
	raw := stripCodeFence(content)

	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return core.Recommendation{
			Kind:                core.KindRawText,
			RecommendedItem:     fallbackItemName,
			Reason:              content,
			Confidence:          fallbackConfidence,
			ItemType:            fallbackItemType,
			SimilarityNarrative: fallbackNarrative,
		}
	}

	// 模型可能把 confidence 输出成字符串，统一走宽松转换
	rec := core.Recommendation{Kind: core.KindParsed}
	rec.RecommendedItem, _ = conv.ToString(fields["recommendedGame"])
	rec.Reason, _ = conv.ToString(fields["reason"])
	rec.ItemType, _ = conv.ToString(fields["gameType"])
	rec.SimilarityNarrative, _ = conv.ToString(fields["similarity"])
	if c, ok := conv.ToFloat64(fields["confidence"]); ok && c > 0 && c <= 1 {
		rec.Confidence = c
	} else {
		rec.Confidence = fallbackConfidence
	}
	return rec
}

// stripCodeFence 剥掉模型爱加的 Markdown 代码围栏。
func stripCodeFence(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
