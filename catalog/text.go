// Package catalog 负责把物品元数据同步进向量索引。
package catalog

import (
	"fmt"
	"strings"

	"github.com/rushteam/playrec/core"
)

// BuildEmbeddingText 把物品元数据拼成送入向量化的文本。
//
// 模板固定：字段顺序、标点、缺省值都不能变，
// 否则同一物品前后两次同步会产生不同向量，索引失去可比性。
func BuildEmbeddingText(details *core.ItemDetails) string {
	genres := joinOr(details.Genres, "未知")
	tags := joinOr(details.Tags, "")
	developers := joinOr(details.Developers, "未知")
	description := details.ShortDescription

	return strings.TrimSpace(fmt.Sprintf(`
游戏名称: %s
类型: %s
标签: %s
开发商: %s
简介: %s
`, details.Name, genres, tags, developers, description))
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}
