package recommend

import (
	"fmt"
	"strings"

	"github.com/rushteam/playrec/core"
)

// BuildPreferenceText 把用户高时长游戏拼成偏好查询文本。
// 该文本既是向量检索的查询，也会原样进入最终 prompt。
func BuildPreferenceText(topPlayed []core.UserPlayRecord) string {
	names := make([]string, 0, len(topPlayed))
	for _, rec := range topPlayed {
		names = append(names, rec.Name)
	}
	return "用户喜欢的游戏类型包括：" + strings.Join(names, "、")
}

// BuildCandidateContext 把候选列表渲染为 prompt 上下文。
// 相似度以百分比展示，保留一位小数。
func BuildCandidateContext(candidates []core.CandidateMatch) string {
	blocks := make([]string, 0, len(candidates))
	for _, c := range candidates {
		blocks = append(blocks, fmt.Sprintf("游戏: %s\n描述: %s\n类型: %s\n开发商: %s\n相似度: %.1f%%",
			c.Name, c.Description, strings.Join(c.Genres, ", "), c.Developer, c.Similarity*100))
	}
	return strings.Join(blocks, "\n\n")
}

// BuildPrompt 组装最终送入补全模型的 prompt。
func BuildPrompt(preference, candidateContext string) string {
	return fmt.Sprintf(`你是专业的游戏推荐专家。基于用户的游戏偏好和以下相似游戏，推荐一个最适合的游戏。

用户偏好：
%s

相似游戏库：
%s

请推荐一个游戏并说明理由，以JSON格式回复：
{
  "recommendedGame": "推荐的游戏名称",
  "reason": "详细推荐理由",
  "confidence": 0.85,
  "gameType": "游戏类型",
  "similarity": "与用户偏好的相似度分析"
}

要求：
1. 推荐的游戏必须在上述相似游戏库中
2. 详细解释为什么推荐这个游戏
3. 使用中文回复`, preference, candidateContext)
}
