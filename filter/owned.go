package filter

import (
	"context"

	"github.com/rushteam/playrec/core"
)

// ownedPageSize 分页拉取用户库存时的单页大小
const ownedPageSize = 200

// OwnedFilter 过滤用户已拥有的物品。
// 推荐已拥有的游戏没有意义，即使它与用户偏好最相似。
type OwnedFilter struct {
	History core.PlayHistoryProvider
}

func NewOwnedFilter(history core.PlayHistoryProvider) *OwnedFilter {
	return &OwnedFilter{History: history}
}

func (f *OwnedFilter) Name() string { return "owned" }

// Apply 实现 Filter 接口
func (f *OwnedFilter) Apply(ctx context.Context, userID string, candidates []core.CandidateMatch) ([]core.CandidateMatch, error) {
	owned, err := f.ownedSet(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(owned) == 0 {
		return candidates, nil
	}

	out := make([]core.CandidateMatch, 0, len(candidates))
	for _, c := range candidates {
		if owned[c.ItemID] {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *OwnedFilter) ownedSet(ctx context.Context, userID string) (map[int64]bool, error) {
	owned := make(map[int64]bool)
	offset := 0
	for {
		records, total, err := f.History.GetAllPlayed(ctx, userID, ownedPageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			owned[rec.ItemID] = true
		}
		offset += len(records)
		if len(records) == 0 || int64(offset) >= total {
			return owned, nil
		}
	}
}

var _ Filter = (*OwnedFilter)(nil)
