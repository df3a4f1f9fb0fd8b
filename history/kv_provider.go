// Package history 提供基于 core.KeyValueStore 的游玩历史实现。
//
// 数据布局：
//   - 有序集合 playrec:library:{userID}：member 为 itemID，score 为累计游玩分钟数
//   - 哈希表 playrec:names:{userID}：field 为 itemID，value 为游戏名称
//
// TopN 即有序集合的分数降序区间读取，天然与"按时长排序"对齐。
package history

import (
	"context"
	"strconv"

	"github.com/rushteam/playrec/core"
)

const (
	libraryKeyPrefix = "playrec:library:"
	namesKeyPrefix   = "playrec:names:"
)

// KVProvider 是 core.PlayHistoryProvider 的 KV 实现。
// Store 可以是 store.RedisStore（生产）或 store.MemoryStore（测试/开发）。
type KVProvider struct {
	Store core.KeyValueStore
}

func NewKVProvider(kv core.KeyValueStore) *KVProvider {
	return &KVProvider{Store: kv}
}

// SetLibrary 整库写入用户的游玩记录（同步入口调用，幂等）。
func (p *KVProvider) SetLibrary(ctx context.Context, userID string, records []core.UserPlayRecord) error {
	for _, rec := range records {
		if err := p.RecordPlay(ctx, userID, rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordPlay 写入/刷新一条游玩记录。
func (p *KVProvider) RecordPlay(ctx context.Context, userID string, rec core.UserPlayRecord) error {
	member := strconv.FormatInt(rec.ItemID, 10)
	if err := p.Store.ZAdd(ctx, libraryKeyPrefix+userID, float64(rec.PlaytimeMinutes), member); err != nil {
		return core.WrapDomainError(core.ModuleHistory, core.ErrorCodeUnavailable, "history: zadd", err)
	}
	if err := p.Store.HSet(ctx, namesKeyPrefix+userID, member, []byte(rec.Name)); err != nil {
		return core.WrapDomainError(core.ModuleHistory, core.ErrorCodeUnavailable, "history: hset name", err)
	}
	return nil
}

// GetTopPlayed 实现 core.PlayHistoryProvider 接口。
// 游玩时长为 0 的记录不计入（未玩过的游戏不代表偏好）。
func (p *KVProvider) GetTopPlayed(ctx context.Context, userID string, limit int) ([]core.UserPlayRecord, error) {
	if limit <= 0 {
		limit = 5
	}
	members, err := p.Store.ZRange(ctx, libraryKeyPrefix+userID, 0, int64(limit)-1)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleHistory, core.ErrorCodeUnavailable, "history: zrange", err)
	}

	names, err := p.Store.HGetAll(ctx, namesKeyPrefix+userID)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleHistory, core.ErrorCodeUnavailable, "history: hgetall names", err)
	}

	out := make([]core.UserPlayRecord, 0, len(members))
	for _, m := range members {
		if m.Score <= 0 {
			continue
		}
		rec, ok := p.toRecord(m, names)
		if !ok {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// GetAllPlayed 实现 core.PlayHistoryProvider 接口。
func (p *KVProvider) GetAllPlayed(ctx context.Context, userID string, limit, offset int) ([]core.UserPlayRecord, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	total, err := p.Store.ZCard(ctx, libraryKeyPrefix+userID)
	if err != nil {
		return nil, 0, core.WrapDomainError(core.ModuleHistory, core.ErrorCodeUnavailable, "history: zcard", err)
	}

	members, err := p.Store.ZRange(ctx, libraryKeyPrefix+userID, int64(offset), int64(offset+limit)-1)
	if err != nil {
		return nil, 0, core.WrapDomainError(core.ModuleHistory, core.ErrorCodeUnavailable, "history: zrange", err)
	}

	names, err := p.Store.HGetAll(ctx, namesKeyPrefix+userID)
	if err != nil {
		return nil, 0, core.WrapDomainError(core.ModuleHistory, core.ErrorCodeUnavailable, "history: hgetall names", err)
	}

	out := make([]core.UserPlayRecord, 0, len(members))
	for _, m := range members {
		rec, ok := p.toRecord(m, names)
		if !ok {
			continue
		}
		out = append(out, rec)
	}
	return out, total, nil
}

func (p *KVProvider) toRecord(m core.ScoredMember, names map[string][]byte) (core.UserPlayRecord, bool) {
	itemID, err := strconv.ParseInt(m.Member, 10, 64)
	if err != nil {
		// 非法 member 直接跳过，不让一条脏数据拖垮整个读取
		return core.UserPlayRecord{}, false
	}
	return core.UserPlayRecord{
		ItemID:          itemID,
		Name:            string(names[m.Member]),
		PlaytimeMinutes: int64(m.Score),
	}, true
}

var _ core.PlayHistoryProvider = (*KVProvider)(nil)
